package embed

import (
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/s2eweb/s2eweb/internal/platform"
)

const (
	DefaultMinVersion = 6
	DefaultAlignment  = "middle"

	// DetectQueryParam set to "false" in the page query skips detection.
	DetectQueryParam = "detectflash"

	objectClassID = "clsid:D27CDB6E-AE6D-11cf-96B8-444553540000"
	embedMIMEType = "application/x-shockwave-flash"
	carrierName   = "flashvars"

	DefaultFallbackText = `Please <a href="http://www.macromedia.com/go/getflashplayer">upgrade your Flash Player</a>.`
)

var ErrNoElement = errors.New("embed: target container id is required")

// Target is the page an Embed is written into.
type Target interface {
	Capabilities() platform.Capabilities
	SetInnerHTML(elementID, markup string) error
	Navigate(url string) error
}

type entry struct {
	name  string
	value string
}

// orderedValues keeps first-insertion order; setting an existing name
// overwrites its value in place.
type orderedValues []entry

func (o *orderedValues) set(name, value string) {
	for i := range *o {
		if (*o)[i].name == name {
			(*o)[i].value = value
			return
		}
	}
	*o = append(*o, entry{name: name, value: value})
}

func (o orderedValues) get(name string) (string, bool) {
	for _, e := range o {
		if e.name == name {
			return e.value, true
		}
	}
	return "", false
}

// Embed holds everything needed to render one plugin embed on one page.
type Embed struct {
	ResourcePath    string
	ElementID       string
	Width           string
	Height          string
	MinVersion      int
	BackgroundColor string
	Alignment       string
	FallbackText    string
	RedirectURL     string

	// DetectOverride is nil unless the page query carried detectflash.
	DetectOverride *bool
	// Query is the raw page query string without the leading '?'.
	Query string

	params    orderedValues
	variables orderedValues
}

type Option func(*Embed)

func WithMinVersion(v int) Option {
	return func(e *Embed) {
		if v > 0 {
			e.MinVersion = v
		}
	}
}

func WithBackgroundColor(color string) Option {
	return func(e *Embed) {
		e.BackgroundColor = color
	}
}

func WithRedirect(u string) Option {
	return func(e *Embed) {
		e.RedirectURL = u
	}
}

func WithFallbackText(text string) Option {
	return func(e *Embed) {
		e.FallbackText = text
	}
}

// WithQuery records the page query string and derives DetectOverride from
// it.
func WithQuery(rawQuery string) Option {
	return func(e *Embed) {
		e.Query = strings.TrimPrefix(rawQuery, "?")
		values, err := url.ParseQuery(e.Query)
		if err != nil {
			slog.Debug("embed: unparsable page query", "query", rawQuery, "error", err)
		}
		if v, ok := values[DetectQueryParam]; ok && len(v) > 0 {
			detect := v[0] != "false"
			e.DetectOverride = &detect
		}
	}
}

// New never validates its arguments; an incomplete Embed renders incomplete
// markup.
func New(resourcePath, elementID, width, height string, opts ...Option) *Embed {
	e := &Embed{
		ResourcePath: resourcePath,
		ElementID:    elementID,
		Width:        width,
		Height:       height,
		MinVersion:   DefaultMinVersion,
		Alignment:    DefaultAlignment,
		FallbackText: DefaultFallbackText,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.BackgroundColor != "" {
		e.AddParam("bgcolor", e.BackgroundColor)
	}
	e.AddParam("quality", "high")
	return e
}

func (e *Embed) AddParam(name, value string) {
	e.params.set(name, value)
}

func (e *Embed) AddVariable(name, value string) {
	e.variables.set(name, value)
}

func (e *Embed) Param(name string) (string, bool) {
	return e.params.get(name)
}

// SerializeVariables joins name=escaped(value) pairs with '&' in insertion
// order. ok is false when there are no variables, which callers use to omit
// the carrier entirely.
func (e *Embed) SerializeVariables() (payload string, ok bool) {
	if len(e.variables) == 0 {
		return "", false
	}
	pairs := make([]string, 0, len(e.variables))
	for _, v := range e.variables {
		pairs = append(pairs, v.name+"="+escapeValue(v.value))
	}
	return strings.Join(pairs, "&"), true
}

func escapeValue(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// RenderMarkup returns the <object> form for legacy object-model hosts and
// the <embed> form for everything else.
func (e *Embed) RenderMarkup(caps platform.Capabilities) string {
	if caps.LegacyObjectModel() {
		return e.renderObject()
	}
	return e.renderEmbed()
}

func (e *Embed) renderEmbed() string {
	var b strings.Builder
	b.WriteString(`<embed type="` + embedMIMEType + `"`)
	writeAttr(&b, "src", e.ResourcePath)
	writeAttr(&b, "width", e.Width)
	writeAttr(&b, "height", e.Height)
	writeAttr(&b, "id", e.ElementID)
	writeAttr(&b, "align", e.Alignment)
	for _, p := range e.params {
		writeAttr(&b, p.name, p.value)
	}
	if payload, ok := e.SerializeVariables(); ok {
		writeAttr(&b, carrierName, payload)
	}
	b.WriteString("></embed>")
	return b.String()
}

func (e *Embed) renderObject() string {
	var b strings.Builder
	b.WriteString("<object")
	writeAttr(&b, "id", e.ElementID)
	writeAttr(&b, "classid", objectClassID)
	writeAttr(&b, "width", e.Width)
	writeAttr(&b, "height", e.Height)
	writeAttr(&b, "align", e.Alignment)
	b.WriteString(">")
	writeParam(&b, "movie", e.ResourcePath)
	for _, p := range e.params {
		writeParam(&b, p.name, p.value)
	}
	if payload, ok := e.SerializeVariables(); ok {
		writeParam(&b, carrierName, payload)
	}
	b.WriteString("</object>")
	return b.String()
}

func writeAttr(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, ` %s="%s"`, html.EscapeString(name), html.EscapeString(value))
}

func writeParam(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, `<param name="%s" value="%s" />`, html.EscapeString(name), html.EscapeString(value))
}

// BypassLink re-requests the page with detection disabled, keeping the
// original query.
func (e *Embed) BypassLink() string {
	return "?" + DetectQueryParam + "=false&" + e.Query
}

func (e *Embed) fallbackMarkup() string {
	return e.FallbackText + fmt.Sprintf(
		`<p>Already have Flash Player? <a href="%s">Click here if you have Flash Player %s installed</a>.</p>`,
		html.EscapeString(e.BypassLink()), strconv.Itoa(e.MinVersion),
	)
}

func (e *Embed) bypassed() bool {
	return e.DetectOverride != nil && !*e.DetectOverride
}

// Write performs exactly one mutation of the target: the embed markup, a
// redirect, or the fallback text with a bypass prompt. containerID names the
// element whose content is replaced; it must differ from ElementID, which the
// markup carries as the embedded object's own id.
func (e *Embed) Write(target Target, containerID string, detector Detector) error {
	if containerID == "" {
		return ErrNoElement
	}
	if detector == nil {
		detector = Unavailable{}
	}

	if e.bypassed() || detector.Detect(e.MinVersion) {
		if err := target.SetInnerHTML(containerID, e.RenderMarkup(target.Capabilities())); err != nil {
			return fmt.Errorf("write embed %s: %w", containerID, err)
		}
		return nil
	}

	if e.RedirectURL != "" {
		slog.Debug("embed: plugin not detected, redirecting", "element", e.ElementID, "url", e.RedirectURL)
		if err := target.Navigate(e.RedirectURL); err != nil {
			return fmt.Errorf("redirect to %s: %w", e.RedirectURL, err)
		}
		return nil
	}

	slog.Debug("embed: plugin not detected, writing fallback", "element", e.ElementID, "min_version", e.MinVersion)
	if err := target.SetInnerHTML(containerID, e.fallbackMarkup()); err != nil {
		return fmt.Errorf("write fallback %s: %w", containerID, err)
	}
	return nil
}
