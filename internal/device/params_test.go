package device

import (
	"net/netip"
	"testing"
)

func TestFactory(t *testing.T) {
	p := Factory()

	if p.ModuleName != "TI Stellaris Serial2Ethernet Module" {
		t.Errorf("expected factory module name, got %q", p.ModuleName)
	}
	if p.LocationURLPort != 6432 {
		t.Errorf("expected UPnP port 6432, got %d", p.LocationURLPort)
	}
	if p.StaticIP {
		t.Error("expected DHCP by default")
	}
	if p.SubnetMask != netip.MustParseAddr("255.255.255.0") {
		t.Errorf("expected subnet 255.255.255.0, got %s", p.SubnetMask)
	}

	for i, want := range []uint16{23, 26} {
		port := p.Ports[i]
		if port.BaudRate != 115200 || port.DataSize != 8 || port.Parity != ParityNone || port.StopBits != 1 {
			t.Errorf("port %d: expected 115200 8N1, got %+v", i, port)
		}
		if port.FlowControl != FlowNone {
			t.Errorf("port %d: expected no flow control, got %s", i, port.FlowControl)
		}
		if port.LocalPort != want {
			t.Errorf("port %d: expected local port %d, got %d", i, want, port.LocalPort)
		}
		if port.RemotePort != 23 || port.RemoteIP != netip.MustParseAddr("0.0.0.0") {
			t.Errorf("port %d: unexpected remote end %s:%d", i, port.RemoteIP, port.RemotePort)
		}
		if port.Mode != TelnetServer || port.Protocol != ProtocolTelnet {
			t.Errorf("port %d: expected telnet server, got %s/%s", i, port.Mode, port.Protocol)
		}
	}
}

func TestPortParameters_Differs(t *testing.T) {
	base := Factory().Ports[0]

	baud := base
	baud.BaudRate = 9600
	if !baud.SerialDiffers(base) || baud.TelnetDiffers(base) {
		t.Error("baud rate change should only affect serial settings")
	}

	client := base
	client.Mode = TelnetClient
	if client.SerialDiffers(base) || !client.TelnetDiffers(base) {
		t.Error("mode change should only affect telnet settings")
	}

	if base.SerialDiffers(base) || base.TelnetDiffers(base) {
		t.Error("identical parameters should not differ")
	}
}

func TestParameters_AddressWillChange(t *testing.T) {
	dhcp := Factory()

	static := dhcp
	static.StaticIP = true
	static.IPAddr = netip.MustParseAddr("192.168.1.10")
	if !dhcp.AddressWillChange(static) {
		t.Error("switching to static addressing should change the address")
	}

	renamed := dhcp
	renamed.IPAddr = netip.MustParseAddr("10.0.0.1")
	if dhcp.AddressWillChange(renamed) {
		t.Error("address fields are ignored while DHCP stays selected")
	}

	moved := static
	moved.Gateway = netip.MustParseAddr("192.168.1.1")
	if !static.AddressWillChange(moved) {
		t.Error("gateway change under static addressing should change the address")
	}
}

func TestParityString(t *testing.T) {
	tests := []struct {
		parity Parity
		want   string
	}{
		{ParityNone, "None"},
		{ParityOdd, "Odd"},
		{ParityEven, "Even"},
		{ParityMark, "Mark"},
		{ParitySpace, "Space"},
		{Parity(9), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.parity.String(); got != tt.want {
			t.Errorf("Parity(%d).String() = %q, want %q", tt.parity, got, tt.want)
		}
	}
}

func TestPortParameters_RemoteEndpoint(t *testing.T) {
	p := Factory().Ports[0]
	if got := p.RemoteEndpoint(); got != "N/A" {
		t.Errorf("expected N/A in server mode, got %q", got)
	}

	p.Mode = TelnetClient
	p.RemoteIP = netip.MustParseAddr("10.0.0.5")
	p.RemotePort = 2000
	if got := p.RemoteEndpoint(); got != "10.0.0.5:2000" {
		t.Errorf("expected 10.0.0.5:2000, got %q", got)
	}
}
