package server

import (
	"html/template"
	"net/http"

	"github.com/s2eweb/s2eweb/internal/auth"
	"github.com/s2eweb/s2eweb/internal/formfill"
	"github.com/s2eweb/s2eweb/internal/httputil"
	"github.com/s2eweb/s2eweb/internal/resource"
)

// page carries what the shared layout needs on every page.
type page struct {
	Title         string
	Nonce         string
	ModuleName    string
	LoggedIn      bool
	ClientEnabled bool
	Ports         []int
}

const layoutHTML = `{{define "layout"}}<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Title}} - {{.ModuleName}}</title>
    <style nonce="{{.Nonce}}">
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; margin: 0; color: #1e293b; background: #f8fafc; }
        header { background: #7f1d1d; color: #fff; padding: 12px 24px; }
        header h1 { margin: 0; font-size: 18px; }
        nav a { color: #fecaca; margin-right: 16px; text-decoration: none; font-size: 14px; }
        nav a:hover { color: #fff; }
        main { padding: 24px; max-width: 860px; }
        table { border-collapse: collapse; margin-bottom: 24px; }
        th, td { text-align: left; padding: 6px 12px; border-bottom: 1px solid #e2e8f0; font-size: 14px; }
        label { display: block; margin: 8px 0; font-size: 14px; }
        input[type=text] { width: 140px; }
        input.octet { width: 40px; }
        input:disabled { background: #e2e8f0; }
        .error { color: #b91c1c; }
        .inline { display: inline; }
    </style>
</head>
<body>
<header>
    <h1>{{.ModuleName}}</h1>
    <nav>
        <a href="/">Status</a>
        {{range .Ports}}<a href="/serial/{{.}}">Port {{.}}</a>{{end}}
        <a href="/misc">Module</a>
        <a href="/embed">Demos</a>
        {{if .LoggedIn}}<form class="inline" method="post" action="/logout"><button type="submit">Log out</button></form>{{else}}<a href="/login">Log in</a>{{end}}
    </nav>
</header>
<main>
{{template "content" .}}
</main>
{{if .ClientEnabled}}<script nonce="{{.Nonce}}" src="/static/wasm_exec.js"></script>
<script nonce="{{.Nonce}}">
const go = new Go();
WebAssembly.instantiateStreaming(fetch("/static/s2eclient.wasm"), go.importObject).then((r) => go.run(r.instance));
</script>{{end}}
</body>
</html>{{end}}
{{define "select"}}<select name="{{.ID}}" id="{{.ID}}">{{range .Choices}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>{{end}}</select>{{end}}
{{define "input"}}<input type="text" name="{{.ID}}" id="{{.ID}}" value="{{.Val}}"{{if .Disabled}} disabled{{end}}>{{end}}
{{define "octet"}}<input type="text" class="octet" name="{{.ID}}" id="{{.ID}}" value="{{.Val}}" maxlength="3"{{if .Disabled}} disabled{{end}}>{{end}}`

var layoutTemplate = template.Must(template.New("base").Parse(layoutHTML))

func pageTemplate(name, content string) *template.Template {
	t := template.Must(layoutTemplate.Clone())
	template.Must(t.New(name).Parse(`{{define "content"}}` + content + `{{end}}`))
	return t.Lookup("layout")
}

type statusPort struct {
	Index       int
	BaudRate    uint32
	Format      string
	FlowControl string
	Mode        string
	Protocol    string
	LocalPort   uint16
	Remote      string
	Timeout     uint32
}

type statusPageData struct {
	page
	IPAddr     string
	MACAddr    string
	Addressing string
	UPnPPort   uint16
	PortInfo   []statusPort
}

var statusPageTemplate = pageTemplate("status", `
<h2>Module status</h2>
<table>
    <tr><th>IP address</th><td>{{.IPAddr}}</td></tr>
    <tr><th>Addressing</th><td>{{.Addressing}}</td></tr>
    <tr><th>MAC address</th><td>{{.MACAddr}}</td></tr>
    <tr><th>UPnP location port</th><td>{{.UPnPPort}}</td></tr>
</table>
{{range .PortInfo}}
<h3>Port {{.Index}}</h3>
<table>
    <tr><th>Baud rate</th><td>{{.BaudRate}}</td></tr>
    <tr><th>Format</th><td>{{.Format}}</td></tr>
    <tr><th>Flow control</th><td>{{.FlowControl}}</td></tr>
    <tr><th>Mode</th><td>{{.Mode}} ({{.Protocol}})</td></tr>
    <tr><th>Local port</th><td>{{.LocalPort}}</td></tr>
    <tr><th>Remote</th><td>{{.Remote}}</td></tr>
    <tr><th>Timeout</th><td>{{.Timeout}} s</td></tr>
</table>
{{end}}`)

type serialPageData struct {
	page
	Port int
	Form *formfill.Form
	Vars template.JS
}

var serialPageTemplate = pageTemplate("serial", `
<h2>Port {{.Port}} settings</h2>
<script nonce="{{.Nonce}}">{{.Vars}}</script>
<form method="post" action="/config.cgi" id="serialform" data-port="{{.Port}}">
    <input type="hidden" name="port" value="{{.Port}}">
    <fieldset>
        <legend>Serial</legend>
        <label>Baud rate {{template "select" (.Form.SelectControl "br")}}</label>
        <label>Data size {{template "select" (.Form.SelectControl "bc")}}</label>
        <label>Parity {{template "select" (.Form.SelectControl "parity")}}</label>
        <label>Stop bits {{template "select" (.Form.SelectControl "stop")}}</label>
        <label>Flow control {{template "select" (.Form.SelectControl "flow")}}</label>
    </fieldset>
    <fieldset>
        <legend>Telnet</legend>
        <label>Timeout (s) {{template "input" (.Form.InputControl "telnett")}}</label>
        <label>Local port {{template "input" (.Form.InputControl "telnetlp")}}</label>
        <label>Mode {{template "select" (.Form.SelectControl "tnmode")}}</label>
        <label>Protocol {{template "select" (.Form.SelectControl "tnprot")}}</label>
        <label>Remote address
            {{template "octet" (.Form.InputControl "telnetip1")}}.{{template "octet" (.Form.InputControl "telnetip2")}}.{{template "octet" (.Form.InputControl "telnetip3")}}.{{template "octet" (.Form.InputControl "telnetip4")}}
        </label>
        <label>Remote port {{template "input" (.Form.InputControl "telnetrp")}}</label>
    </fieldset>
    <label><input type="checkbox" name="default" value="1"> Also save as power-up default</label>
    <button type="submit">Apply</button>
</form>`)

type miscPageData struct {
	page
	NameInput *formfill.Input
	PortInput *formfill.Input
	Form      *formfill.Form
	Vars      template.JS
	MaxName   int
}

var miscPageTemplate = pageTemplate("misc", `
<h2>Module settings</h2>
<script nonce="{{.Nonce}}">{{.Vars}}</script>
<form method="post" action="/misc.cgi">
    <label>Module name <input type="text" name="modname" value="{{.NameInput.Val}}" maxlength="{{.MaxName}}"></label>
    <label>UPnP location port <input type="text" name="port" value="{{.PortInput.Val}}"></label>
    <button type="submit">Apply</button>
</form>
<h2>IP address</h2>
<form method="post" action="/ip.cgi" id="ipform">
    <label>Address mode {{template "select" (.Form.SelectControl "staticip")}}</label>
    <label>Address
        {{template "octet" (.Form.InputControl "sip1")}}.{{template "octet" (.Form.InputControl "sip2")}}.{{template "octet" (.Form.InputControl "sip3")}}.{{template "octet" (.Form.InputControl "sip4")}}
    </label>
    <label>Gateway
        {{template "octet" (.Form.InputControl "gip1")}}.{{template "octet" (.Form.InputControl "gip2")}}.{{template "octet" (.Form.InputControl "gip3")}}.{{template "octet" (.Form.InputControl "gip4")}}
    </label>
    <label>Subnet mask
        {{template "octet" (.Form.InputControl "mip1")}}.{{template "octet" (.Form.InputControl "mip2")}}.{{template "octet" (.Form.InputControl "mip3")}}.{{template "octet" (.Form.InputControl "mip4")}}
    </label>
    <button type="submit">Apply</button>
</form>
<h2>Factory defaults</h2>
<form method="post" action="/defaults.cgi">
    <button type="submit">Restore factory defaults</button>
</form>`)

type messagePageData struct {
	page
	Heading string
	Message string
	Detail  string
	Link    string
}

var messagePageTemplate = pageTemplate("message", `
<h2>{{.Heading}}</h2>
<p>{{.Message}}</p>
{{if .Detail}}<p class="error">{{.Detail}}</p>{{end}}
<p><a href="{{.Link}}">Continue</a></p>`)

type loginPageData struct {
	page
	Failed bool
	Next   string
}

var loginPageTemplate = pageTemplate("login", `
<h2>Log in</h2>
{{if .Failed}}<p class="error">Incorrect password.</p>{{end}}
<form method="post" action="/login">
    <input type="hidden" name="next" value="{{.Next}}">
    <label>Password <input type="password" name="password" autocomplete="current-password"></label>
    <button type="submit">Log in</button>
</form>`)

type embedConfig struct {
	ResourcePath    string              `json:"resourcePath"`
	ElementID       string              `json:"elementId"`
	ContainerID     string              `json:"containerId"`
	Width           string              `json:"width"`
	Height          string              `json:"height"`
	MinVersion      int                 `json:"minVersion"`
	BackgroundColor string              `json:"backgroundColor,omitempty"`
	RedirectURL     string              `json:"redirectUrl,omitempty"`
	Variables       []resource.Variable `json:"variables"`
}

type embedPageData struct {
	page
	Heading     string
	ContainerID string
	Markup      template.HTML
	Config      embedConfig
}

var embedPageTemplate = pageTemplate("embed", `
<h2>{{.Heading}}</h2>
<div id="{{.ContainerID}}">{{.Markup}}</div>
<script type="application/json" id="embed-config" nonce="{{.Nonce}}">{{.Config}}</script>`)

type embedIndexPageData struct {
	page
	Resources []resource.Resource
}

var embedIndexPageTemplate = pageTemplate("embed-index", `
<h2>Demos</h2>
{{if .Resources}}<ul>{{range .Resources}}<li><a href="/embed/{{.Name}}">{{if .Title}}{{.Title}}{{else}}{{.Name}}{{end}}</a></li>{{end}}</ul>{{else}}<p>No demos installed.</p>{{end}}`)

func (s *Server) newPage(r *http.Request, title, moduleName string) page {
	ports := make([]int, 0, len(s.portIndexes))
	ports = append(ports, s.portIndexes...)
	return page{
		Title:         title,
		Nonce:         httputil.NonceFromContext(r.Context()),
		ModuleName:    moduleName,
		LoggedIn:      s.loggedIn(r),
		ClientEnabled: s.clientEnabled,
		Ports:         ports,
	}
}

func (s *Server) loggedIn(r *http.Request) bool {
	if auth.SessionIDFromContext(r.Context()) != "" {
		return true
	}
	return s.authHandler != nil && s.authHandler.Authenticated(r)
}
