//go:build js && wasm

// Command s2eclient runs the form autofill and embed helpers in the browser.
// The server already renders filled-in forms; the client keeps the dependent
// address fields in step with their mode selectors and writes embeds using
// the browser's own plugin list.
package main

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"syscall/js"

	"github.com/s2eweb/s2eweb/internal/embed"
	"github.com/s2eweb/s2eweb/internal/formfill"
)

type embedConfig struct {
	ResourcePath    string `json:"resourcePath"`
	ElementID       string `json:"elementId"`
	ContainerID     string `json:"containerId"`
	Width           string `json:"width"`
	Height          string `json:"height"`
	MinVersion      int    `json:"minVersion"`
	BackgroundColor string `json:"backgroundColor"`
	RedirectURL     string `json:"redirectUrl"`
	Variables       []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"variables"`
}

func main() {
	doc := domDocument{}

	if _, ok := element("serialform"); ok {
		setupSerialForm(doc)
	}
	if _, ok := element("ipform"); ok {
		setupIPForm(doc)
	}
	if el, ok := element("embed-config"); ok {
		runEmbed(el.Get("textContent").String())
	}

	// Listeners call back into Go for the lifetime of the page.
	select {}
}

func serialValues() (formfill.Values, bool) {
	var v formfill.Values
	br, ok := globalInt("br")
	if !ok {
		return v, false
	}
	v.BaudRate = br
	v.StopBits, _ = globalInt("sb")
	v.DataSize, _ = globalInt("bc")
	v.FlowControl, _ = globalInt("fc")
	v.Parity, _ = globalInt("par")
	v.TelnetTimeout, _ = globalInt("tt")
	v.LocalPort, _ = globalInt("tlp")
	v.RemotePort, _ = globalInt("trp")
	v.TelnetMode, _ = globalInt("tnm")
	v.Protocol, _ = globalInt("tnp")
	for i := range v.RemoteIP {
		v.RemoteIP[i], _ = globalInt("tip" + strconv.Itoa(i+1))
	}
	return v, true
}

func setupSerialForm(doc formfill.Document) {
	if v, ok := serialValues(); ok {
		formfill.ApplyDefaults(doc, v)
		formfill.SelectExactValue(doc.Select(formfill.FieldProtocol), strconv.Itoa(v.Protocol))
	} else {
		slog.Debug("s2eclient: no serial values on page")
		formfill.UpdateDependentFieldState(doc)
	}
	onChange(formfill.FieldTelnetMode, func() {
		formfill.UpdateDependentFieldState(doc)
	})
}

func setupIPForm(doc formfill.Document) {
	formfill.StaticIPToggle.Apply(doc)
	onChange(formfill.FieldStaticIP, func() {
		formfill.StaticIPToggle.Apply(doc)
	})
}

func onChange(id string, fn func()) {
	el, ok := element(id)
	if !ok {
		return
	}
	// Never released: the page owns the listener until it unloads.
	cb := js.FuncOf(func(this js.Value, args []js.Value) any {
		fn()
		return nil
	})
	el.Call("addEventListener", "change", cb)
}

func runEmbed(raw string) {
	var cfg embedConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		slog.Error("s2eclient: invalid embed config", "error", err)
		return
	}

	opts := []embed.Option{
		embed.WithMinVersion(cfg.MinVersion),
		embed.WithQuery(js.Global().Get("location").Get("search").String()),
	}
	if cfg.BackgroundColor != "" {
		opts = append(opts, embed.WithBackgroundColor(cfg.BackgroundColor))
	}
	if cfg.RedirectURL != "" {
		opts = append(opts, embed.WithRedirect(cfg.RedirectURL))
	}
	e := embed.New(cfg.ResourcePath, cfg.ElementID, cfg.Width, cfg.Height, opts...)
	for _, v := range cfg.Variables {
		e.AddVariable(v.Name, v.Value)
	}

	target := domTarget{caps: hostCapabilities()}
	var detector embed.Detector = embed.Unavailable{}
	switch inv := hostInventory(); {
	case inv != nil:
		detector = embed.InventoryDetector{Inventory: inv}
	case target.caps.ActiveXObjectModel:
		detector = embed.ProbeDetector{Probe: activeXProbe}
	}

	if err := e.Write(target, cfg.ContainerID, detector); err != nil {
		slog.Error("s2eclient: embed failed", "container", cfg.ContainerID, "error", err)
	}
}
