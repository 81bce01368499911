package device

import (
	"errors"
	"net/netip"
	"net/url"
	"strings"
	"testing"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in     string
		want   int64
		wantOK bool
	}{
		{"115200", 115200, true},
		{"  42\t", 42, true},
		{"-7", -7, true},
		{"+8", 8, true},
		{"", 0, false},
		{"   ", 0, false},
		{"12a", 0, false},
		{"1 2", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseDecimal(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseDecimal(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func portForm() url.Values {
	return url.Values{
		"port":     {"1"},
		"br":       {"9600"},
		"parity":   {"3"},
		"stop":     {"2"},
		"bc":       {"7"},
		"flow":     {"3"},
		"tnmode":   {"0"},
		"tnprot":   {"1"},
		"telnetlp": {"2323"},
		"telnett":  {"30"},
	}
}

func TestParsePortForm_ServerMode(t *testing.T) {
	current := Factory()

	update, err := ParsePortForm(portForm(), current)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if update.Port != 1 {
		t.Errorf("expected port 1, got %d", update.Port)
	}
	p := update.Params
	if p.BaudRate != 9600 || p.Parity != ParityEven || p.StopBits != 2 || p.DataSize != 7 || p.FlowControl != FlowHardware {
		t.Errorf("unexpected serial settings %+v", p)
	}
	if p.LocalPort != 2323 || p.TelnetTimeout != 30 || p.Protocol != ProtocolRaw || p.Mode != TelnetServer {
		t.Errorf("unexpected telnet settings %+v", p)
	}
	if p.RemotePort != current.Ports[1].RemotePort || p.RemoteIP != current.Ports[1].RemoteIP {
		t.Error("server mode should keep the stored remote end")
	}
	if !update.SerialChanged || !update.TelnetChanged {
		t.Errorf("expected both changed, got serial=%v telnet=%v", update.SerialChanged, update.TelnetChanged)
	}
	if update.SaveAsDefault {
		t.Error("expected working-only save without default=1")
	}
}

func TestParsePortForm_ClientMode(t *testing.T) {
	form := portForm()
	form.Set("port", "0")
	form.Set("tnmode", "1")
	form.Set("telnetrp", "4000")
	form.Set("telnetip1", "10")
	form.Set("telnetip2", " 0")
	form.Set("telnetip3", "0")
	form.Set("telnetip4", "7 ")
	form.Set("default", "1")

	update, err := ParsePortForm(form, Factory())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if update.Params.Mode != TelnetClient {
		t.Errorf("expected client mode, got %s", update.Params.Mode)
	}
	if update.Params.RemoteIP != netip.MustParseAddr("10.0.0.7") {
		t.Errorf("expected remote 10.0.0.7, got %s", update.Params.RemoteIP)
	}
	if update.Params.RemotePort != 4000 {
		t.Errorf("expected remote port 4000, got %d", update.Params.RemotePort)
	}
	if !update.SaveAsDefault {
		t.Error("expected default=1 to request a default save")
	}
}

func TestParsePortForm_NoChange(t *testing.T) {
	current := Factory()
	form := url.Values{
		"port": {"0"}, "br": {"115200"}, "parity": {"1"}, "stop": {"1"}, "bc": {"8"},
		"flow": {"1"}, "tnmode": {"0"}, "tnprot": {"0"}, "telnetlp": {"23"}, "telnett": {"0"},
	}

	update, err := ParsePortForm(form, current)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if update.SerialChanged || update.TelnetChanged {
		t.Error("resubmitting current values should not report a change")
	}
}

func TestParsePortForm_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(url.Values)
		field  string
	}{
		{"missing port", func(v url.Values) { v.Del("port") }, "port"},
		{"port out of range", func(v url.Values) { v.Set("port", "2") }, "port"},
		{"non numeric baud", func(v url.Values) { v.Set("br", "fast") }, "br"},
		{"bad parity", func(v url.Values) { v.Set("parity", "6") }, "parity"},
		{"bad flow", func(v url.Values) { v.Set("flow", "2") }, "flow"},
		{"bad data size", func(v url.Values) { v.Set("bc", "9") }, "bc"},
		{"missing local port", func(v url.Values) { v.Del("telnetlp") }, "telnetlp"},
		{"client without address", func(v url.Values) { v.Set("tnmode", "1") }, "telnetrp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := portForm()
			tt.mutate(form)

			_, err := ParsePortForm(form, Factory())
			if !errors.Is(err, ErrParam) {
				t.Fatalf("expected ErrParam, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("expected error to name %q, got %q", tt.field, err.Error())
			}
		})
	}
}

func TestParseNetworkForm(t *testing.T) {
	current := Factory()
	form := url.Values{"staticip": {"1"}}
	for prefix, octets := range map[string][]string{
		"sip": {"192", "168", "0", "20"},
		"gip": {"192", "168", "0", "1"},
		"mip": {"255", "255", "255", "0"},
	} {
		for i, o := range octets {
			form.Set(prefix+string(rune('1'+i)), o)
		}
	}

	next, changed, err := ParseNetworkForm(form, current)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed {
		t.Error("expected address change")
	}
	if next.IPAddr != netip.MustParseAddr("192.168.0.20") || next.Gateway != netip.MustParseAddr("192.168.0.1") {
		t.Errorf("unexpected addresses %s via %s", next.IPAddr, next.Gateway)
	}
}

func TestParseNetworkForm_DHCPIgnoresOctets(t *testing.T) {
	current := Factory()
	next, changed, err := ParseNetworkForm(url.Values{"staticip": {"0"}, "sip1": {"bogus"}}, current)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed {
		t.Error("staying on DHCP should not change the address")
	}
	if next.IPAddr != current.IPAddr {
		t.Errorf("expected stored address kept, got %s", next.IPAddr)
	}
}

func TestParseNetworkForm_BadOctet(t *testing.T) {
	form := url.Values{"staticip": {"1"}, "sip1": {"300"}}
	_, _, err := ParseNetworkForm(form, Factory())
	if !errors.Is(err, ErrParam) {
		t.Fatalf("expected ErrParam, got %v", err)
	}
}

func TestParseMiscForm(t *testing.T) {
	current := Factory()

	next, changed := ParseMiscForm(url.Values{"modname": {"Lab bench"}, "port": {"8080"}}, current)
	if !changed {
		t.Error("expected change")
	}
	if next.ModuleName != "Lab bench" || next.LocationURLPort != 8080 {
		t.Errorf("unexpected result %q:%d", next.ModuleName, next.LocationURLPort)
	}

	next, changed = ParseMiscForm(url.Values{"port": {"zero"}}, current)
	if changed || next.LocationURLPort != current.LocationURLPort {
		t.Error("invalid port should be ignored")
	}
}

func TestParseMiscForm_TruncatesName(t *testing.T) {
	long := strings.Repeat("x", 60)
	next, _ := ParseMiscForm(url.Values{"modname": {long}}, Factory())
	if len(next.ModuleName) != MaxModuleNameLength {
		t.Errorf("expected %d bytes, got %d", MaxModuleNameLength, len(next.ModuleName))
	}

	multibyte := strings.Repeat("a", MaxModuleNameLength-1) + "é"
	next, _ = ParseMiscForm(url.Values{"modname": {multibyte}}, Factory())
	if next.ModuleName != strings.Repeat("a", MaxModuleNameLength-1) {
		t.Errorf("expected cut before the split rune, got %q", next.ModuleName)
	}
}
