package notify

import (
	"testing"

	"github.com/s2eweb/s2eweb/internal/webhook"
)

type mockDispatcher struct {
	enabled bool
	events  []webhook.Event
}

func (m *mockDispatcher) Enabled() bool { return m.enabled }

func (m *mockDispatcher) DispatchAsync(event webhook.Event) {
	m.events = append(m.events, event)
}

type plainDispatcher struct {
	calls int
}

func (p *plainDispatcher) DispatchAsync(webhook.Event) { p.calls++ }

func TestMulti_FansOutToEnabled(t *testing.T) {
	on := &mockDispatcher{enabled: true}
	off := &mockDispatcher{enabled: false}
	plain := &plainDispatcher{}

	m := NewMulti(on, off, plain, nil)
	if m.Len() != 2 {
		t.Fatalf("expected 2 dispatchers, got %d", m.Len())
	}

	m.DispatchAsync(webhook.Event{Name: webhook.EventConfigChanged})

	if len(on.events) != 1 || on.events[0].Name != webhook.EventConfigChanged {
		t.Errorf("expected enabled dispatcher to receive the event, got %+v", on.events)
	}
	if len(off.events) != 0 {
		t.Errorf("expected disabled dispatcher to be skipped, got %+v", off.events)
	}
	if plain.calls != 1 {
		t.Errorf("expected plain dispatcher to be called once, got %d", plain.calls)
	}
}

func TestMulti_NilWhenNothingEnabled(t *testing.T) {
	m := NewMulti(&mockDispatcher{enabled: false})
	if m != nil {
		t.Fatalf("expected nil, got %+v", m)
	}
	if m.Len() != 0 {
		t.Errorf("expected 0, got %d", m.Len())
	}
	m.DispatchAsync(webhook.Event{Name: webhook.EventConfigChanged})
}

func TestMulti_SkipsDisabledClients(t *testing.T) {
	var disabled *webhook.Client
	if m := NewMulti(disabled, webhook.New(nil, "", "")); m != nil {
		t.Errorf("expected nil for disabled webhook clients, got %+v", m)
	}
}
