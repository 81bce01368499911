package device

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

var ErrParam = errors.New("missing or invalid form parameter")

// ParseDecimal accepts an optionally signed decimal number surrounded by
// blanks or tabs.
func ParseDecimal(s string) (int64, bool) {
	s = strings.Trim(s, " \t")
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// paramReader collects every bad parameter so one error reports them all.
type paramReader struct {
	values url.Values
	bad    []string
}

func (r *paramReader) has(name string) bool {
	_, ok := r.values[name]
	return ok
}

func (r *paramReader) decimal(name string, min, max int64) int64 {
	n, ok := ParseDecimal(r.values.Get(name))
	if !r.has(name) || !ok || n < min || n > max {
		r.bad = append(r.bad, name)
		return 0
	}
	return n
}

// ipAddr reads name1..name4 as the octets of an address, name1 leftmost.
func (r *paramReader) ipAddr(name string) netip.Addr {
	var b [4]byte
	for i := range b {
		b[i] = byte(r.decimal(name+strconv.Itoa(i+1), 0, 255))
	}
	return netip.AddrFrom4(b)
}

func (r *paramReader) err() error {
	if len(r.bad) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrParam, strings.Join(r.bad, ", "))
}

// PortUpdate is the result of a submitted serial settings form.
type PortUpdate struct {
	Port          int
	Params        PortParameters
	SaveAsDefault bool
	SerialChanged bool
	TelnetChanged bool
}

// ParsePortForm validates a config.cgi submission against the current
// parameters. The remote address and port are only read in client mode; in
// server mode the stored values are kept.
func ParsePortForm(form url.Values, current Parameters) (PortUpdate, error) {
	r := &paramReader{values: form}

	port := r.decimal("port", 0, MaxPorts-1)
	if err := r.err(); err != nil {
		return PortUpdate{}, err
	}

	prev := current.Ports[port]
	next := prev
	next.BaudRate = uint32(r.decimal("br", 1, 4_000_000))
	next.Parity = Parity(r.decimal("parity", int64(ParityNone), int64(ParitySpace)))
	next.StopBits = uint8(r.decimal("stop", 1, 2))
	next.DataSize = uint8(r.decimal("bc", 5, 8))
	next.FlowControl = FlowControl(r.decimal("flow", int64(FlowNone), int64(FlowHardware)))
	mode := r.decimal("tnmode", 0, 1)
	protocol := r.decimal("tnprot", 0, 1)
	next.LocalPort = uint16(r.decimal("telnetlp", 1, 65535))
	next.TelnetTimeout = uint32(r.decimal("telnett", 0, 1<<32-1))

	if TelnetMode(mode) == TelnetClient {
		next.RemotePort = uint16(r.decimal("telnetrp", 1, 65535))
		next.RemoteIP = r.ipAddr("telnetip")
	}
	if !next.FlowControl.Valid() && !containsName(r.bad, "flow") {
		r.bad = append(r.bad, "flow")
	}
	if err := r.err(); err != nil {
		return PortUpdate{}, err
	}

	next.Mode = TelnetServer
	if mode != 0 {
		next.Mode = TelnetClient
	}
	next.Protocol = ProtocolTelnet
	if protocol != 0 {
		next.Protocol = ProtocolRaw
	}

	saveDefault, ok := ParseDecimal(form.Get("default"))
	return PortUpdate{
		Port:          int(port),
		Params:        next,
		SaveAsDefault: ok && saveDefault == 1,
		SerialChanged: next.SerialDiffers(prev),
		TelnetChanged: next.TelnetDiffers(prev),
	}, nil
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// ParseNetworkForm validates an ip.cgi submission. Addresses are only read
// when a static address is requested.
func ParseNetworkForm(form url.Values, current Parameters) (next Parameters, changed bool, err error) {
	r := &paramReader{values: form}

	mode := r.decimal("staticip", 0, 1)
	if err := r.err(); err != nil {
		return current, false, err
	}

	next = current
	next.StaticIP = mode != 0
	if next.StaticIP {
		next.IPAddr = r.ipAddr("sip")
		next.Gateway = r.ipAddr("gip")
		next.SubnetMask = r.ipAddr("mip")
	}
	if err := r.err(); err != nil {
		return current, false, err
	}

	return next, current.AddressWillChange(next), nil
}

// ParseMiscForm applies the optional module name and UPnP port of a misc.cgi
// submission. An invalid port is ignored.
func ParseMiscForm(form url.Values, current Parameters) (next Parameters, changed bool) {
	next = current
	if _, ok := form["modname"]; ok {
		next.ModuleName = truncateName(form.Get("modname"))
		changed = next.ModuleName != current.ModuleName
	}
	if n, ok := ParseDecimal(form.Get("port")); ok && n > 0 && n <= 65535 {
		if uint16(n) != current.LocationURLPort {
			next.LocationURLPort = uint16(n)
			changed = true
		}
	}
	return next, changed
}

func truncateName(name string) string {
	if len(name) <= MaxModuleNameLength {
		return name
	}
	name = name[:MaxModuleNameLength]
	for !utf8.ValidString(name) {
		name = name[:len(name)-1]
	}
	return name
}
