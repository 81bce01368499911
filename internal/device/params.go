package device

import (
	"net/netip"
)

const (
	MaxPorts = 2

	// MaxModuleNameLength leaves room for the terminator of the 40 byte
	// field the module stores.
	MaxModuleNameLength = 39

	DefaultLocationURLPort = 6432
)

type Parity uint8

const (
	ParityNone  Parity = 1
	ParityOdd   Parity = 2
	ParityEven  Parity = 3
	ParityMark  Parity = 4
	ParitySpace Parity = 5
)

func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "None"
	case ParityOdd:
		return "Odd"
	case ParityEven:
		return "Even"
	case ParityMark:
		return "Mark"
	case ParitySpace:
		return "Space"
	default:
		return "Unknown"
	}
}

func (p Parity) Valid() bool {
	return p >= ParityNone && p <= ParitySpace
}

type FlowControl uint8

const (
	FlowNone     FlowControl = 1
	FlowHardware FlowControl = 3
)

func (f FlowControl) String() string {
	switch f {
	case FlowNone:
		return "None"
	case FlowHardware:
		return "Hardware"
	default:
		return "Unknown"
	}
}

func (f FlowControl) Valid() bool {
	return f == FlowNone || f == FlowHardware
}

type TelnetMode uint8

const (
	TelnetServer TelnetMode = 0
	TelnetClient TelnetMode = 1
)

func (m TelnetMode) String() string {
	if m == TelnetClient {
		return "Client"
	}
	return "Server"
}

type Protocol uint8

const (
	ProtocolTelnet Protocol = 0
	ProtocolRaw    Protocol = 1
)

func (p Protocol) String() string {
	if p == ProtocolRaw {
		return "Raw"
	}
	return "Telnet"
}

// PortParameters configures the UART and the TCP session of one port.
type PortParameters struct {
	BaudRate      uint32
	DataSize      uint8
	Parity        Parity
	StopBits      uint8
	FlowControl   FlowControl
	TelnetTimeout uint32
	LocalPort     uint16
	RemotePort    uint16
	RemoteIP      netip.Addr
	Mode          TelnetMode
	Protocol      Protocol
}

// SerialDiffers reports whether the UART needs reconfiguring.
func (p PortParameters) SerialDiffers(o PortParameters) bool {
	return p.BaudRate != o.BaudRate ||
		p.DataSize != o.DataSize ||
		p.Parity != o.Parity ||
		p.StopBits != o.StopBits ||
		p.FlowControl != o.FlowControl
}

// TelnetDiffers reports whether the TCP session needs restarting.
func (p PortParameters) TelnetDiffers(o PortParameters) bool {
	return p.RemoteIP != o.RemoteIP ||
		p.TelnetTimeout != o.TelnetTimeout ||
		p.LocalPort != o.LocalPort ||
		p.RemotePort != o.RemotePort ||
		p.Mode != o.Mode ||
		p.Protocol != o.Protocol
}

// Parameters is the whole parameter block of one module.
type Parameters struct {
	ModuleName      string
	LocationURLPort uint16
	StaticIP        bool
	IPAddr          netip.Addr
	Gateway         netip.Addr
	SubnetMask      netip.Addr
	Ports           [MaxPorts]PortParameters
}

var zeroAddr = netip.AddrFrom4([4]byte{})

// Factory returns the parameters a module ships with.
func Factory() Parameters {
	port := PortParameters{
		BaudRate:    115200,
		DataSize:    8,
		Parity:      ParityNone,
		StopBits:    1,
		FlowControl: FlowNone,
		LocalPort:   23,
		RemotePort:  23,
		RemoteIP:    zeroAddr,
		Mode:        TelnetServer,
		Protocol:    ProtocolTelnet,
	}
	p := Parameters{
		ModuleName:      "TI Stellaris Serial2Ethernet Module",
		LocationURLPort: DefaultLocationURLPort,
		IPAddr:          zeroAddr,
		Gateway:         zeroAddr,
		SubnetMask:      netip.AddrFrom4([4]byte{255, 255, 255, 0}),
	}
	p.Ports[0] = port
	port.LocalPort = 26
	p.Ports[1] = port
	return p
}

// AddressWillChange reports whether moving from p to next changes how the
// module obtains or uses its IP address.
func (p Parameters) AddressWillChange(next Parameters) bool {
	if p.StaticIP != next.StaticIP {
		return true
	}
	if next.StaticIP {
		return p.IPAddr != next.IPAddr || p.Gateway != next.Gateway || p.SubnetMask != next.SubnetMask
	}
	return false
}

func octets(addr netip.Addr) [4]int {
	var out [4]int
	if !addr.Is4() {
		return out
	}
	b := addr.As4()
	for i := range b {
		out[i] = int(b[i])
	}
	return out
}

// RemoteEndpoint is the address a client-mode port connects to, or "N/A"
// while the port listens as a server.
func (p PortParameters) RemoteEndpoint() string {
	if p.Mode == TelnetServer {
		return "N/A"
	}
	return netip.AddrPortFrom(p.RemoteIP, p.RemotePort).String()
}
