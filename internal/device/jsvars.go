package device

import (
	"fmt"
	"strings"

	"github.com/s2eweb/s2eweb/internal/formfill"
)

// The script blocks below declare the page globals the form autofill code
// reads. Each function returns bare JavaScript; the page wraps it in a
// <script> element carrying the CSP nonce.

func SerialVars(p PortParameters) string {
	return fmt.Sprintf("var br = %d;\nvar sb = %d;\nvar bc = %d;\nvar fc = %d;\nvar par = %d;\n",
		p.BaudRate, p.StopBits, p.DataSize, p.FlowControl, p.Parity)
}

func TelnetVars(p PortParameters) string {
	return fmt.Sprintf("var tt = %d;\nvar tlp = %d;\nvar trp = %d;\nvar tnm = %d;\nvar tnp = %d;\n",
		p.TelnetTimeout, p.LocalPort, p.RemotePort, p.Mode, p.Protocol)
}

func TelnetIPVars(p PortParameters) string {
	return octetVars("tip", octets(p.RemoteIP))
}

// NetworkVars covers the address mode and the static IP, subnet mask and
// gateway octets.
func NetworkVars(p Parameters) string {
	var b strings.Builder
	mode := 0
	if p.StaticIP {
		mode = 1
	}
	fmt.Fprintf(&b, "var staticip = %d;\n", mode)
	b.WriteString(octetVars("sip", octets(p.IPAddr)))
	b.WriteString(octetVars("mip", octets(p.SubnetMask)))
	b.WriteString(octetVars("gip", octets(p.Gateway)))
	return b.String()
}

// PortScript is every block a serial settings page needs for one port.
func PortScript(p PortParameters) string {
	return SerialVars(p) + TelnetVars(p) + TelnetIPVars(p)
}

func octetVars(prefix string, o [4]int) string {
	var b strings.Builder
	for i, v := range o {
		fmt.Fprintf(&b, "var %s%d = %d;\n", prefix, i+1, v)
	}
	return b.String()
}

// FormValues converts one port into the values the autofill helper applies.
func FormValues(p PortParameters) formfill.Values {
	return formfill.Values{
		BaudRate:      int(p.BaudRate),
		StopBits:      int(p.StopBits),
		DataSize:      int(p.DataSize),
		FlowControl:   int(p.FlowControl),
		Parity:        int(p.Parity),
		TelnetTimeout: int(p.TelnetTimeout),
		LocalPort:     int(p.LocalPort),
		RemotePort:    int(p.RemotePort),
		TelnetMode:    int(p.Mode),
		Protocol:      int(p.Protocol),
		RemoteIP:      octets(p.RemoteIP),
	}
}
