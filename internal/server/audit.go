package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/s2eweb/s2eweb/internal/device"
	"github.com/s2eweb/s2eweb/internal/ratelimit"
	"github.com/s2eweb/s2eweb/internal/webhook"
)

type changeRecord struct {
	page           string
	port           *int
	savedDefault   bool
	serialChanged  bool
	telnetChanged  bool
	addressChanged bool
	factory        bool
}

// recordChange writes the audit row and announces the change. Neither may
// fail the submission that caused it.
func (s *Server) recordChange(r *http.Request, c changeRecord) {
	clientIP := ratelimit.ClientIP(r)
	country := ""
	if s.geo != nil {
		country = s.geo.Country(clientIP)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 5*time.Second)
	defer cancel()
	if err := s.store.RecordChange(ctx, device.Change{
		Page:           c.page,
		Port:           c.port,
		RemoteAddr:     clientIP,
		Country:        country,
		SavedAsDefault: c.savedDefault,
	}); err != nil {
		slog.Error("failed to record config change", "page", c.page, "error", err)
	}

	if s.hooks == nil {
		return
	}
	name := webhook.EventConfigChanged
	if c.factory {
		name = webhook.EventFactoryRestored
	}
	data := map[string]any{
		"page":           c.page,
		"savedAsDefault": c.savedDefault,
		"addressChanged": c.addressChanged,
	}
	if c.port != nil {
		data["port"] = *c.port
		data["serialChanged"] = c.serialChanged
		data["telnetChanged"] = c.telnetChanged
	}
	s.hooks.DispatchAsync(webhook.Event{Name: name, Timestamp: time.Now().UTC(), Data: data})
}
