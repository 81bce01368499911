package formfill

import (
	"log/slog"
	"strconv"
)

const (
	FieldBaudRate    = "br"
	FieldStopBits    = "stop"
	FieldDataSize    = "bc"
	FieldFlowControl = "flow"
	FieldParity      = "parity"
	FieldTelnetMode  = "tnmode"
	FieldProtocol    = "tnprot"
	FieldTimeout     = "telnett"
	FieldLocalPort   = "telnetlp"
	FieldRemotePort  = "telnetrp"
	FieldRemoteIP    = "telnetip"
	FieldStaticIP    = "staticip"
)

// Values are the per-port settings the server injects into the page.
type Values struct {
	BaudRate      int
	StopBits      int
	DataSize      int
	FlowControl   int
	Parity        int
	TelnetTimeout int
	LocalPort     int
	RemotePort    int
	TelnetMode    int
	Protocol      int
	RemoteIP      [4]int
}

type FieldState int

const (
	AddressFieldsEnabled FieldState = iota
	AddressFieldsDisabled
)

func (s FieldState) String() string {
	if s == AddressFieldsDisabled {
		return "disabled"
	}
	return "enabled"
}

// Toggle disables Dependents while the Mode control holds Sentinel.
type Toggle struct {
	Mode       string
	Sentinel   string
	Dependents []string
}

func octetFields(prefix string) []string {
	fields := make([]string, 4)
	for i := range fields {
		fields[i] = prefix + strconv.Itoa(i+1)
	}
	return fields
}

// TelnetAddressToggle disables the remote address and port while the port
// runs as a telnet server.
var TelnetAddressToggle = Toggle{
	Mode:       FieldTelnetMode,
	Sentinel:   "0",
	Dependents: append(octetFields(FieldRemoteIP), FieldRemotePort),
}

// StaticIPToggle disables the static address fields while DHCP is chosen.
var StaticIPToggle = Toggle{
	Mode:       FieldStaticIP,
	Sentinel:   "0",
	Dependents: append(append(octetFields("sip"), octetFields("gip")...), octetFields("mip")...),
}

func (t Toggle) modeValue(doc Document) string {
	if sel := doc.Select(t.Mode); sel != nil {
		return SelectedValue(sel)
	}
	if in := doc.Input(t.Mode); in != nil {
		return in.Value()
	}
	slog.Debug("formfill: mode field missing", "field", t.Mode)
	return ""
}

func (t Toggle) Apply(doc Document) FieldState {
	state := AddressFieldsEnabled
	if looseEqual(t.modeValue(doc), t.Sentinel) {
		state = AddressFieldsDisabled
	}
	for _, id := range t.Dependents {
		if in := doc.Input(id); in != nil {
			in.SetDisabled(state == AddressFieldsDisabled)
		}
	}
	return state
}

// UpdateDependentFieldState re-evaluates the telnet mode selector. Hosts call
// it once at load and again on every change of the selector.
func UpdateDependentFieldState(doc Document) FieldState {
	return TelnetAddressToggle.Apply(doc)
}

// ApplyDefaults is the page-load pass over the serial settings form.
func ApplyDefaults(doc Document, v Values) FieldState {
	SelectNearestValue(doc.Select(FieldBaudRate), float64(v.BaudRate))

	SelectExactValue(doc.Select(FieldStopBits), strconv.Itoa(v.StopBits))
	SelectExactValue(doc.Select(FieldDataSize), strconv.Itoa(v.DataSize))
	SelectExactValue(doc.Select(FieldFlowControl), strconv.Itoa(v.FlowControl))
	SelectExactValue(doc.Select(FieldParity), strconv.Itoa(v.Parity))
	SelectExactValue(doc.Select(FieldTelnetMode), strconv.Itoa(v.TelnetMode))

	setInput(doc, FieldTimeout, v.TelnetTimeout)
	setInput(doc, FieldLocalPort, v.LocalPort)
	setInput(doc, FieldRemotePort, v.RemotePort)
	for i, id := range octetFields(FieldRemoteIP) {
		setInput(doc, id, v.RemoteIP[i])
	}

	return UpdateDependentFieldState(doc)
}

func setInput(doc Document, id string, value int) {
	if in := doc.Input(id); in != nil {
		in.SetValue(strconv.Itoa(value))
	}
}
