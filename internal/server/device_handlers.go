package server

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/s2eweb/s2eweb/internal/device"
	"github.com/s2eweb/s2eweb/internal/formfill"
	"github.com/s2eweb/s2eweb/internal/httputil"
	"github.com/s2eweb/s2eweb/internal/validate"
)

var baudRates = []int{110, 300, 600, 1200, 2400, 4800, 9600, 14400, 19200, 28800, 38400, 57600, 115200, 230400}

func (s *Server) loadWorking(w http.ResponseWriter, r *http.Request) (device.Parameters, bool) {
	params, err := s.store.Load(r.Context(), device.SlotWorking)
	if err != nil {
		slog.Error("failed to load parameters", "error", err)
		http.Error(w, "failed to load module parameters", http.StatusInternalServerError)
		return device.Parameters{}, false
	}
	return params, true
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	params, ok := s.loadWorking(w, r)
	if !ok {
		return
	}

	data := statusPageData{
		page:       s.newPage(r, "Status", params.ModuleName),
		IPAddr:     "Assigned by DHCP",
		MACAddr:    formatMAC(s.mac),
		Addressing: "DHCP",
		UPnPPort:   params.LocationURLPort,
	}
	if params.StaticIP {
		data.IPAddr = params.IPAddr.String()
		data.Addressing = "Static"
	}
	for i, p := range params.Ports {
		data.PortInfo = append(data.PortInfo, statusPort{
			Index:       i,
			BaudRate:    p.BaudRate,
			Format:      fmt.Sprintf("%d-%s-%d", p.DataSize, p.Parity.String()[:1], p.StopBits),
			FlowControl: p.FlowControl.String(),
			Mode:        p.Mode.String(),
			Protocol:    p.Protocol.String(),
			LocalPort:   p.LocalPort,
			Remote:      p.RemoteEndpoint(),
			Timeout:     p.TelnetTimeout,
		})
	}
	httputil.WriteHTML(w, http.StatusOK, statusPageTemplate, data)
}

// formatMAC renders the address the way the module's label shows it.
func formatMAC(mac []byte) string {
	if len(mac) == 0 {
		return "unknown"
	}
	parts := make([]string, len(mac))
	for i, b := range mac {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, "-")
}

// serialForm builds the serial settings form and fills it from p the same
// way the browser client does on page load.
func serialForm(p device.PortParameters) *formfill.Form {
	form := formfill.NewForm()

	var rates []formfill.Option
	for _, br := range baudRates {
		rates = append(rates, formfill.Option{Value: strconv.Itoa(br), Label: strconv.Itoa(br)})
	}
	form.AddSelect(formfill.FieldBaudRate, rates...)
	form.AddSelect(formfill.FieldDataSize,
		formfill.Option{Value: "5", Label: "5"}, formfill.Option{Value: "6", Label: "6"},
		formfill.Option{Value: "7", Label: "7"}, formfill.Option{Value: "8", Label: "8"})
	var parities []formfill.Option
	for pv := device.ParityNone; pv <= device.ParitySpace; pv++ {
		parities = append(parities, formfill.Option{Value: strconv.Itoa(int(pv)), Label: pv.String()})
	}
	form.AddSelect(formfill.FieldParity, parities...)
	form.AddSelect(formfill.FieldStopBits, formfill.Option{Value: "1", Label: "1"}, formfill.Option{Value: "2", Label: "2"})
	form.AddSelect(formfill.FieldFlowControl,
		formfill.Option{Value: strconv.Itoa(int(device.FlowNone)), Label: device.FlowNone.String()},
		formfill.Option{Value: strconv.Itoa(int(device.FlowHardware)), Label: device.FlowHardware.String()})
	form.AddSelect(formfill.FieldTelnetMode,
		formfill.Option{Value: "0", Label: device.TelnetServer.String()},
		formfill.Option{Value: "1", Label: device.TelnetClient.String()})
	form.AddSelect(formfill.FieldProtocol,
		formfill.Option{Value: "0", Label: device.ProtocolTelnet.String()},
		formfill.Option{Value: "1", Label: device.ProtocolRaw.String()})

	for _, id := range []string{formfill.FieldTimeout, formfill.FieldLocalPort, formfill.FieldRemotePort} {
		form.AddInput(id, "")
	}
	for i := 1; i <= 4; i++ {
		form.AddInput(formfill.FieldRemoteIP+strconv.Itoa(i), "")
	}

	formfill.ApplyDefaults(form, device.FormValues(p))
	formfill.SelectExactValue(form.Select(formfill.FieldProtocol), strconv.Itoa(int(p.Protocol)))
	return form
}

func (s *Server) handleSerialPage(w http.ResponseWriter, r *http.Request) {
	port, err := strconv.Atoi(chi.URLParam(r, "port"))
	if err != nil || port < 0 || port >= device.MaxPorts {
		http.NotFound(w, r)
		return
	}
	params, ok := s.loadWorking(w, r)
	if !ok {
		return
	}

	p := params.Ports[port]
	httputil.WriteHTML(w, http.StatusOK, serialPageTemplate, serialPageData{
		page: s.newPage(r, fmt.Sprintf("Port %d", port), params.ModuleName),
		Port: port,
		Form: serialForm(p),
		Vars: template.JS(device.PortScript(p)),
	})
}

func networkForm(params device.Parameters) *formfill.Form {
	form := formfill.NewForm()
	form.AddSelect(formfill.FieldStaticIP,
		formfill.Option{Value: "0", Label: "DHCP"},
		formfill.Option{Value: "1", Label: "Static"})
	mode := "0"
	if params.StaticIP {
		mode = "1"
	}
	formfill.SelectExactValue(form.Select(formfill.FieldStaticIP), mode)

	for prefix, addr := range map[string][4]byte{
		"sip": params.IPAddr.As4(),
		"gip": params.Gateway.As4(),
		"mip": params.SubnetMask.As4(),
	} {
		for i, b := range addr {
			form.AddInput(prefix+strconv.Itoa(i+1), strconv.Itoa(int(b)))
		}
	}
	formfill.StaticIPToggle.Apply(form)
	return form
}

func (s *Server) handleMiscPage(w http.ResponseWriter, r *http.Request) {
	params, ok := s.loadWorking(w, r)
	if !ok {
		return
	}
	httputil.WriteHTML(w, http.StatusOK, miscPageTemplate, miscPageData{
		page:      s.newPage(r, "Module", params.ModuleName),
		NameInput: &formfill.Input{ID: "modname", Val: params.ModuleName},
		PortInput: &formfill.Input{ID: "port", Val: strconv.Itoa(int(params.LocationURLPort))},
		Form:      networkForm(params),
		Vars:      template.JS(device.NetworkVars(params)),
		MaxName:   device.MaxModuleNameLength,
	})
}

func (s *Server) renderMessage(w http.ResponseWriter, r *http.Request, status int, moduleName string, msg messagePageData) {
	msg.page = s.newPage(r, msg.Heading, moduleName)
	httputil.WriteHTML(w, status, messagePageTemplate, msg)
}

func (s *Server) renderParamError(w http.ResponseWriter, r *http.Request, moduleName string, err error, back string) {
	slog.Info("rejected form submission", "path", r.URL.Path, "error", err)
	s.renderMessage(w, r, http.StatusBadRequest, moduleName, messagePageData{
		Heading: "Parameter error",
		Message: "One or more of the submitted parameters was missing or out of range. No settings were changed.",
		Detail:  err.Error(),
		Link:    back,
	})
}

func (s *Server) renderAddressChange(w http.ResponseWriter, r *http.Request, params device.Parameters) {
	msg := messagePageData{
		Heading: "IP address changing",
		Message: "The module is switching to DHCP. Find its new address from your DHCP server or with UPnP discovery.",
		Link:    "/",
	}
	if params.StaticIP {
		addr := params.IPAddr.String()
		msg.Message = "The module is moving to " + addr + ". Reconnect at the new address."
		msg.Link = "http://" + addr + "/"
	}
	s.renderMessage(w, r, http.StatusOK, params.ModuleName, msg)
}

func (s *Server) handleConfigCGI(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	params, ok := s.loadWorking(w, r)
	if !ok {
		return
	}

	update, err := s.parsePortForm(r.PostForm, params)
	if errors.Is(err, device.ErrParam) {
		back := "/"
		if port, convErr := strconv.Atoi(r.PostForm.Get("port")); convErr == nil && port >= 0 && port < device.MaxPorts {
			back = "/serial/" + strconv.Itoa(port)
		}
		s.renderParamError(w, r, params.ModuleName, err, back)
		return
	}
	if err != nil {
		slog.Error("failed to parse port settings", "error", err)
		http.Error(w, "failed to parse settings", http.StatusInternalServerError)
		return
	}

	if err := s.store.SavePort(r.Context(), update.Port, update.Params, update.SaveAsDefault); err != nil {
		slog.Error("failed to save port settings", "port", update.Port, "error", err)
		http.Error(w, "failed to save settings", http.StatusInternalServerError)
		return
	}

	port := update.Port
	s.recordChange(r, changeRecord{
		page:          "serial",
		port:          &port,
		savedDefault:  update.SaveAsDefault,
		serialChanged: update.SerialChanged,
		telnetChanged: update.TelnetChanged,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleMiscCGI(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	params, ok := s.loadWorking(w, r)
	if !ok {
		return
	}

	if msg := validate.ModuleName(r.PostForm.Get("modname")); msg != "" {
		slog.Info("truncating module name", "reason", msg)
	}
	next, changed := device.ParseMiscForm(r.PostForm, params)
	if changed {
		if err := s.store.SaveModule(r.Context(), next); err != nil {
			slog.Error("failed to save module settings", "error", err)
			http.Error(w, "failed to save settings", http.StatusInternalServerError)
			return
		}
		s.recordChange(r, changeRecord{page: "misc", savedDefault: true})
	}
	http.Redirect(w, r, "/misc", http.StatusSeeOther)
}

func (s *Server) handleIPCGI(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	params, ok := s.loadWorking(w, r)
	if !ok {
		return
	}

	next, addrChange, err := s.parseNetworkForm(r.PostForm, params)
	if errors.Is(err, device.ErrParam) {
		s.renderParamError(w, r, params.ModuleName, err, "/misc")
		return
	}
	if err != nil {
		slog.Error("failed to parse network settings", "error", err)
		http.Error(w, "failed to parse settings", http.StatusInternalServerError)
		return
	}

	if err := s.store.SaveModule(r.Context(), next); err != nil {
		slog.Error("failed to save network settings", "error", err)
		http.Error(w, "failed to save settings", http.StatusInternalServerError)
		return
	}
	s.recordChange(r, changeRecord{page: "ip", savedDefault: true, addressChanged: addrChange})

	if addrChange {
		s.renderAddressChange(w, r, next)
		return
	}
	http.Redirect(w, r, "/misc", http.StatusSeeOther)
}

func (s *Server) handleDefaultsCGI(w http.ResponseWriter, r *http.Request) {
	params, ok := s.loadWorking(w, r)
	if !ok {
		return
	}

	factory, err := s.store.RestoreFactory(r.Context())
	if err != nil {
		slog.Error("failed to restore factory defaults", "error", err)
		http.Error(w, "failed to restore defaults", http.StatusInternalServerError)
		return
	}

	addrChange := params.AddressWillChange(factory)
	s.recordChange(r, changeRecord{page: "defaults", savedDefault: true, addressChanged: addrChange, factory: true})

	if addrChange {
		s.renderAddressChange(w, r, factory)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
