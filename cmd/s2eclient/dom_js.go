//go:build js && wasm

package main

import (
	"errors"
	"fmt"
	"strings"
	"syscall/js"

	"github.com/s2eweb/s2eweb/internal/formfill"
	"github.com/s2eweb/s2eweb/internal/platform"
)

var errNoSuchElement = errors.New("element not found")

func element(id string) (js.Value, bool) {
	el := js.Global().Get("document").Call("getElementById", id)
	if el.IsNull() || el.IsUndefined() {
		return js.Value{}, false
	}
	return el, true
}

func tagIs(el js.Value, tag string) bool {
	return strings.EqualFold(el.Get("tagName").String(), tag)
}

// domDocument looks controls up by id in the live page.
type domDocument struct{}

func (domDocument) Select(id string) formfill.SelectField {
	el, ok := element(id)
	if !ok || !tagIs(el, "select") {
		return nil
	}
	return domSelect{el: el}
}

func (domDocument) Input(id string) formfill.InputField {
	el, ok := element(id)
	if !ok || !tagIs(el, "input") {
		return nil
	}
	return domInput{el: el}
}

type domSelect struct {
	el js.Value
}

func (s domSelect) Len() int { return s.el.Get("options").Length() }

func (s domSelect) OptionValue(i int) string {
	return s.el.Get("options").Index(i).Get("value").String()
}

func (s domSelect) SelectedIndex() int     { return s.el.Get("selectedIndex").Int() }
func (s domSelect) SetSelectedIndex(i int) { s.el.Set("selectedIndex", i) }

type domInput struct {
	el js.Value
}

func (in domInput) Value() string      { return in.el.Get("value").String() }
func (in domInput) SetValue(v string)  { in.el.Set("value", v) }
func (in domInput) SetDisabled(d bool) { in.el.Set("disabled", d) }

// domTarget writes embeds into the live page.
type domTarget struct {
	caps platform.Capabilities
}

func (t domTarget) Capabilities() platform.Capabilities { return t.caps }

func (t domTarget) SetInnerHTML(elementID, markup string) error {
	el, ok := element(elementID)
	if !ok {
		return fmt.Errorf("%s: %w", elementID, errNoSuchElement)
	}
	el.Set("innerHTML", markup)
	return nil
}

func (t domTarget) Navigate(url string) error {
	js.Global().Get("location").Set("href", url)
	return nil
}

func hostCapabilities() platform.Capabilities {
	caps := platform.FromUserAgent(js.Global().Get("navigator").Get("userAgent").String())
	if ax := js.Global().Get("ActiveXObject"); !ax.IsUndefined() {
		caps.ActiveXObjectModel = true
	}
	return caps
}

// hostInventory returns nil when the browser exposes no plugin list.
func hostInventory() platform.Inventory {
	plugins := js.Global().Get("navigator").Get("plugins")
	if plugins.IsUndefined() || plugins.IsNull() {
		return nil
	}
	n := plugins.Length()
	if n == 0 {
		return nil
	}
	inv := make(platform.Inventory, 0, n)
	for i := 0; i < n; i++ {
		p := plugins.Index(i)
		inv = append(inv, platform.Plugin{
			Name:        p.Get("name").String(),
			Description: p.Get("description").String(),
		})
	}
	return inv
}

// activeXProbe reports whether the identifier can be instantiated. A failed
// constructor throws, which syscall/js turns into a panic.
func activeXProbe(identifier string) bool {
	ax := js.Global().Get("ActiveXObject")
	if ax.IsUndefined() {
		return false
	}
	obj := ax.New(identifier)
	return !obj.IsNull() && !obj.IsUndefined()
}

// globalInt reads a page-level var block entry.
func globalInt(name string) (int, bool) {
	v := js.Global().Get(name)
	if v.Type() != js.TypeNumber {
		return 0, false
	}
	return v.Int(), true
}
