package notify

import (
	"github.com/s2eweb/s2eweb/internal/webhook"
)

// Dispatcher accepts an event without blocking the caller.
type Dispatcher interface {
	DispatchAsync(event webhook.Event)
}

// Multi fans events out to every registered dispatcher.
type Multi struct {
	dispatchers []Dispatcher
}

// NewMulti keeps only the enabled dispatchers; the result is nil when none
// is, so callers can treat "no notifications" as a nil dispatcher.
func NewMulti(dispatchers ...Dispatcher) *Multi {
	m := &Multi{}
	for _, d := range dispatchers {
		if d == nil {
			continue
		}
		if e, ok := d.(interface{ Enabled() bool }); ok && !e.Enabled() {
			continue
		}
		m.dispatchers = append(m.dispatchers, d)
	}
	if len(m.dispatchers) == 0 {
		return nil
	}
	return m
}

func (m *Multi) Len() int {
	if m == nil {
		return 0
	}
	return len(m.dispatchers)
}

func (m *Multi) DispatchAsync(event webhook.Event) {
	if m == nil {
		return
	}
	for _, d := range m.dispatchers {
		d.DispatchAsync(event)
	}
}
