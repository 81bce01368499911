package embed

import "github.com/s2eweb/s2eweb/internal/platform"

// PageTarget collects writes for a page that is rendered later, such as a
// server-side template.
type PageTarget struct {
	Caps     platform.Capabilities
	Elements map[string]string
	Location string
}

func NewPageTarget(caps platform.Capabilities) *PageTarget {
	return &PageTarget{Caps: caps, Elements: make(map[string]string)}
}

func (p *PageTarget) Capabilities() platform.Capabilities {
	return p.Caps
}

func (p *PageTarget) SetInnerHTML(elementID, markup string) error {
	p.Elements[elementID] = markup
	return nil
}

func (p *PageTarget) Navigate(url string) error {
	p.Location = url
	return nil
}
