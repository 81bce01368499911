package server

import (
	"context"
	"io/fs"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/s2eweb/s2eweb/internal/auth"
	"github.com/s2eweb/s2eweb/internal/database"
	"github.com/s2eweb/s2eweb/internal/device"
	"github.com/s2eweb/s2eweb/internal/httputil"
	"github.com/s2eweb/s2eweb/internal/ratelimit"
	"github.com/s2eweb/s2eweb/internal/resource"
	"github.com/s2eweb/s2eweb/internal/validate"
	"github.com/s2eweb/s2eweb/internal/webhook"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// ResourceStorage hands out short-lived URLs for embeddable movies.
type ResourceStorage interface {
	DownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type CountryResolver interface {
	Country(ip string) string
}

type EventDispatcher interface {
	DispatchAsync(event webhook.Event)
}

type Config struct {
	DB                database.DBTX
	Pinger            Pinger
	Storage           ResourceStorage
	ClientFS          fs.FS
	JWTSecret         string
	AdminPasswordHash string
	BaseURL           string
	S3PublicEndpoint  string
	MACAddress        net.HardwareAddr
	GeoIP             CountryResolver
	Webhooks          EventDispatcher
}

type Server struct {
	router        chi.Router
	pinger        Pinger
	authHandler   *auth.Handler
	store         *device.Store
	resources     *resource.Repository
	storage       ResourceStorage
	clientFS      fs.FS
	clientEnabled bool
	mac           net.HardwareAddr
	geo           CountryResolver
	hooks         EventDispatcher
	limiters      []*ratelimit.Limiter
	portIndexes   []int

	parsePortForm    func(url.Values, device.Parameters) (device.PortUpdate, error)
	parseNetworkForm func(url.Values, device.Parameters) (device.Parameters, bool, error)
}

func New(cfg Config) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(slogMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders(SecurityConfig{
		BaseURL:         cfg.BaseURL,
		StorageEndpoint: cfg.S3PublicEndpoint,
	}))

	s := &Server{
		router:   r,
		pinger:   cfg.Pinger,
		storage:  cfg.Storage,
		clientFS: cfg.ClientFS,
		mac:      cfg.MACAddress,
		geo:      cfg.GeoIP,
		hooks:    cfg.Webhooks,

		parsePortForm:    device.ParsePortForm,
		parseNetworkForm: device.ParseNetworkForm,
	}
	for i := 0; i < device.MaxPorts; i++ {
		s.portIndexes = append(s.portIndexes, i)
	}
	if s.clientFS != nil {
		if _, err := fs.Stat(s.clientFS, clientWASM); err == nil {
			s.clientEnabled = true
		}
	}

	if cfg.DB != nil {
		jwtSecret := cfg.JWTSecret
		if jwtSecret == "" {
			log.Fatal("JWT_SECRET is required; set the environment variable")
		}

		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:8080"
		}

		secureCookies := strings.HasPrefix(baseURL, "https://")
		s.authHandler = auth.NewHandler(cfg.DB, jwtSecret, cfg.AdminPasswordHash, secureCookies)
		s.store = device.NewStore(cfg.DB)
		s.resources = resource.NewRepository(cfg.DB)
	}

	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run performs background housekeeping until ctx is done.
func (s *Server) Run(ctx context.Context) {
	for _, l := range s.limiters {
		go l.Run(ctx)
	}
	<-ctx.Done()
}

func (s *Server) newLimiter(requestsPerSecond float64, burst int) *ratelimit.Limiter {
	l := ratelimit.NewLimiter(requestsPerSecond, burst)
	s.limiters = append(s.limiters, l)
	return l
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/limits", s.handleLimits)

	if s.clientFS != nil {
		s.router.Handle("/static/*", http.StripPrefix("/static/", newStaticFileServer(s.clientFS)))
	}

	if s.store == nil {
		return
	}

	s.router.Get("/", s.handleStatus)
	s.router.Get("/serial/{port}", s.handleSerialPage)
	s.router.Get("/misc", s.handleMiscPage)
	s.router.Get("/embed", s.handleEmbedIndex)
	s.router.Get("/embed/{name}", s.handleEmbedPage)
	s.router.Get("/login", s.handleLoginPage)

	authLimiter := s.newLimiter(0.5, 5)
	s.router.With(authLimiter.Middleware).Post("/login", s.authHandler.Login)
	s.router.Post("/logout", s.authHandler.Logout)

	formLimiter := s.newLimiter(1, 10)
	s.router.Group(func(r chi.Router) {
		r.Use(formLimiter.Middleware)
		r.Use(s.authHandler.Middleware)
		r.Post("/config.cgi", s.handleConfigCGI)
		r.Post("/misc.cgi", s.handleMiscCGI)
		r.Post("/ip.cgi", s.handleIPCGI)
		r.Post("/defaults.cgi", s.handleDefaultsCGI)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy","error":"database unreachable"}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, validate.FieldLimits())
}
