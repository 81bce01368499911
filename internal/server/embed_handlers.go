package server

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/s2eweb/s2eweb/internal/device"
	"github.com/s2eweb/s2eweb/internal/embed"
	"github.com/s2eweb/s2eweb/internal/httputil"
	"github.com/s2eweb/s2eweb/internal/platform"
	"github.com/s2eweb/s2eweb/internal/resource"
)

const movieURLExpiry = 1 * time.Hour

func (s *Server) moduleName(r *http.Request) string {
	params, err := s.store.Load(r.Context(), device.SlotWorking)
	if err != nil {
		slog.Warn("failed to load module name", "error", err)
		return device.Factory().ModuleName
	}
	return params.ModuleName
}

func (s *Server) handleEmbedIndex(w http.ResponseWriter, r *http.Request) {
	resources, err := s.resources.List(r.Context())
	if err != nil {
		slog.Error("failed to list embed resources", "error", err)
		http.Error(w, "failed to list demos", http.StatusInternalServerError)
		return
	}
	httputil.WriteHTML(w, http.StatusOK, embedIndexPageTemplate, embedIndexPageData{
		page:      s.newPage(r, "Demos", s.moduleName(r)),
		Resources: resources,
	})
}

// handleEmbedPage renders the page for one resource. The server cannot see
// the browser's plugins, so detection here always fails and the page carries
// the fallback unless detectflash=false; the browser client re-runs the
// embed against the real plugin list and follows the resource's redirect.
func (s *Server) handleEmbedPage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	res, err := s.resources.Get(r.Context(), name)
	if errors.Is(err, resource.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("failed to load embed resource", "name", name, "error", err)
		http.Error(w, "failed to load demo", http.StatusInternalServerError)
		return
	}

	movieURL := res.ObjectKey
	if s.storage != nil && !strings.Contains(res.ObjectKey, "://") {
		movieURL, err = s.storage.DownloadURL(r.Context(), res.ObjectKey, movieURLExpiry)
		if err != nil {
			slog.Error("failed to presign embed resource", "name", name, "error", err)
			http.Error(w, "failed to load demo", http.StatusInternalServerError)
			return
		}
	}

	host := resource.Variable{Name: "host", Value: r.Host}
	e := res.Embed(movieURL, r.URL.RawQuery, host)

	container := res.ContainerID()
	target := embed.NewPageTarget(platform.FromUserAgent(r.UserAgent()))
	if err := e.Write(target, container, embed.Unavailable{}); err != nil {
		slog.Error("failed to write embed", "name", name, "error", err)
		http.Error(w, "failed to render demo", http.StatusInternalServerError)
		return
	}

	title := res.Title
	if title == "" {
		title = res.Name
	}
	vars := append(append([]resource.Variable{}, res.Variables...), host)
	httputil.WriteHTML(w, http.StatusOK, embedPageTemplate, embedPageData{
		page:        s.newPage(r, title, s.moduleName(r)),
		Heading:     title,
		ContainerID: container,
		Markup:      template.HTML(target.Elements[container]),
		Config: embedConfig{
			ResourcePath:    e.ResourcePath,
			ElementID:       e.ElementID,
			ContainerID:     container,
			Width:           e.Width,
			Height:          e.Height,
			MinVersion:      e.MinVersion,
			BackgroundColor: e.BackgroundColor,
			RedirectURL:     res.RedirectURL,
			Variables:       vars,
		},
	})
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	if next == "" {
		next = "/"
	}
	httputil.WriteHTML(w, http.StatusOK, loginPageTemplate, loginPageData{
		page:   s.newPage(r, "Log in", s.moduleName(r)),
		Failed: r.URL.Query().Get("error") == "1",
		Next:   next,
	})
}
