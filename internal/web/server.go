package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"planboard/internal/config"
	"planboard/internal/downtime"
	appLog "planboard/internal/log"
	"planboard/internal/marker"
	"planboard/internal/model"
	"planboard/internal/planning"
)

// userCookie carries the operator display name set by the Logipack login.
// This service reads it, never writes it.
const userCookie = "logipack_user"

// eventsCacheTTL bounds how stale the in-memory event list may get between
// backend fetches. The cron refresh keeps it warm; this cache only absorbs
// request bursts.
const eventsCacheTTL = 30 * time.Second

//go:embed templates/*.html
var templateFS embed.FS

// Server provides the board pages and the JSON API.
type Server struct {
	cfg      *config.Config
	backend  *planning.Client
	downtime *downtime.Loader
	markers  marker.Store
	loc      *time.Location
	mux      *http.ServeMux
	tmpl     *template.Template

	now func() time.Time

	// In-memory cache for the parsed, unfiltered event list.
	eventsMu    sync.RWMutex
	eventsCache *eventsCache
}

type eventsCache struct {
	events    []model.CalendarEvent
	updatedAt time.Time
}

// NewServer constructs a Server. loc is the plant's display timezone.
func NewServer(cfg *config.Config, backend *planning.Client, dt *downtime.Loader, markers marker.Store, loc *time.Location) *Server {
	if loc == nil {
		loc = time.Local
	}
	s := &Server{
		cfg:      cfg,
		backend:  backend,
		downtime: dt,
		markers:  markers,
		loc:      loc,
		mux:      http.NewServeMux(),
		now:      func() time.Time { return time.Now().In(loc) },
	}
	s.tmpl = template.Must(template.New("").Funcs(template.FuncMap{
		"pct":  func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) },
		"hhmm": func(t time.Time) string { return t.Format("15:04") },
	}).ParseFS(templateFS, "templates/*.html"))
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password counts as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Planboard", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/api/clients", s.handleClients)
	s.mux.HandleFunc("/api/execute/", s.handleExecute)
	s.mux.HandleFunc("/board", s.handleBoard)
	s.mux.HandleFunc("/event/", s.handleEventDetail)
	s.mux.HandleFunc("/week.ics", s.handleWeekICS)
	s.mux.HandleFunc("/preview.png", s.handlePreview)
	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/board", http.StatusFound)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handlePreview serves the last captured board snapshot.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.PreviewPath())
}

// PreviewPath is where the capture pipeline writes the board PNG.
func (s *Server) PreviewPath() string {
	return filepath.Join(s.cfg.DataDir, "preview.png")
}

// loadEvents returns the parsed, unfiltered event list, going through the
// in-memory cache. Refresh forces a backend round trip (used by the cron
// job so operators see new plans without waiting out the TTL).
func (s *Server) loadEvents(ctx context.Context, refresh bool) ([]model.CalendarEvent, error) {
	now := time.Now()

	if !refresh {
		s.eventsMu.RLock()
		ec := s.eventsCache
		s.eventsMu.RUnlock()
		if ec != nil && now.Sub(ec.updatedAt) < eventsCacheTTL {
			return ec.events, nil
		}
	}

	events, err := s.backend.Events(ctx)
	if err != nil {
		// Leave prior state untouched; a stale board beats an empty one.
		s.eventsMu.RLock()
		ec := s.eventsCache
		s.eventsMu.RUnlock()
		if ec != nil {
			appLog.Error("event refresh failed, serving cached events", err)
			return ec.events, nil
		}
		return nil, err
	}

	s.eventsMu.Lock()
	s.eventsCache = &eventsCache{events: events, updatedAt: time.Now()}
	s.eventsMu.Unlock()
	return events, nil
}

// Refresh warms the event cache. Called by the cron schedule.
func (s *Server) Refresh(ctx context.Context) error {
	_, err := s.loadEvents(ctx, true)
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
