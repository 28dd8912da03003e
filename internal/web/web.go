package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"kandycal/internal/calendar"
	"kandycal/internal/config"
	"kandycal/internal/feed"
	"kandycal/internal/ical"
	"kandycal/internal/model"
	"kandycal/internal/rooms"

	appLog "kandycal/internal/log"
)

// Server exposes the events calendar, room catalogue and ICS feed over
// HTTP. The event set is fetched from the sheet once and cached; the
// scheduler in cmd/kandycal calls Refresh to replace it wholesale.
type Server struct {
	cfg    *config.Config
	loader *feed.Loader
	mux    *http.ServeMux

	// Cached feed state. Events are replaced as a whole on refresh; there
	// is no incremental update or identity tracking across fetches.
	eventsMu   sync.RWMutex
	events     []model.Event
	loadErr    error
	haveLoaded bool
	loadedAt   time.Time

	// loadToken makes the latest-initiated load win when refreshes race,
	// so a slow first fetch cannot overwrite a fast second one.
	loadToken atomic.Int64
}

// embeddedStatic contains the exported marketing site build. The
// directory under internal/web/static should mirror the static export
// output (index.html at minimum).
//
//go:embed all:static
var embeddedStatic embed.FS

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, loader *feed.Loader) *Server {
	s := &Server{
		cfg:    cfg,
		loader: loader,
		mux:    http.NewServeMux(),
	}
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
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
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
			w.Header().Set("WWW-Authenticate", `Basic realm="KandyCal", charset="UTF-8"`)
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
	s.mux.HandleFunc("/api/calendar", s.handleCalendar)
	s.mux.HandleFunc("/api/rooms", s.handleRooms)
	s.mux.HandleFunc("/api/rooms/", s.handleRoom)
	s.mux.HandleFunc("/calendar.ics", s.handleICS)
	s.mux.HandleFunc("/preview.png", s.handlePreview)

	// Static marketing pages; all non-API paths fall back to this handler.
	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Refresh fetches the feed and replaces the cached event set wholesale.
// When refreshes race, the latest-initiated call wins: a resolution
// carrying a stale token is discarded.
func (s *Server) Refresh(ctx context.Context) error {
	token := s.loadToken.Add(1)

	events, err := s.loader.Load(ctx, s.cfg.SheetID, s.cfg.SheetGID)

	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()

	if token != s.loadToken.Load() {
		appLog.Info("feed refresh superseded; discarding result", "token", token)
		return nil
	}

	s.haveLoaded = true
	s.loadedAt = time.Now()
	if err != nil {
		s.loadErr = err
		// Keep any previously loaded events so a transient failure does
		// not blank the calendar.
		appLog.Error("feed refresh failed", err)
		return err
	}

	s.events = events
	s.loadErr = nil
	appLog.Info("feed refreshed", "event_count", len(events))
	return nil
}

// eventsSnapshot returns the cached event set, loading it on first use.
func (s *Server) eventsSnapshot(ctx context.Context) ([]model.Event, error) {
	s.eventsMu.RLock()
	loaded := s.haveLoaded
	events := s.events
	loadErr := s.loadErr
	s.eventsMu.RUnlock()

	if !loaded {
		_ = s.Refresh(ctx)
		s.eventsMu.RLock()
		events = s.events
		loadErr = s.loadErr
		s.eventsMu.RUnlock()
	}

	if events == nil && loadErr != nil {
		return nil, loadErr
	}
	return events, nil
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	Events []model.Event `json:"events"`
	Count  int           `json:"count"`
	Filter model.Filter  `json:"filter"`
	Year   int           `json:"year"`
	Month  int           `json:"month"`
	Day    int           `json:"day,omitempty"`
}

// handleEvents answers the two projector queries over the cached feed.
//
// GET /api/events?year=2024&month=3&filter=Monthly      events in month
// GET /api/events?year=2024&month=3&day=5&filter=All    events on day
//
// year/month default to the current month in the configured timezone.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.eventsSnapshot(r.Context())
	if err != nil {
		writeLoadError(w, err)
		return
	}

	q := r.URL.Query()
	loc := resolveLocationOrLocal(s.cfg.Timezone)
	now := time.Now().In(loc)

	year := parseIntDefault(q.Get("year"), now.Year())
	month := parseIntDefault(q.Get("month"), int(now.Month()))
	filter := model.ParseFilter(q.Get("filter"))

	resp := eventsResponse{
		Filter: filter,
		Year:   year,
		Month:  month,
	}

	if dayStr := q.Get("day"); dayStr != "" {
		day := parseIntDefault(dayStr, now.Day())
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		resp.Day = day
		resp.Events = calendar.EventsOnDate(date, events, filter)
	} else {
		ref := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		resp.Events = calendar.EventsInMonth(ref, events, filter)
	}

	resp.Count = len(resp.Events)
	writeJSON(w, http.StatusOK, resp)
}

// calendarResponse is the JSON response shape for /api/calendar.
type calendarResponse struct {
	Cells     []model.CalendarCell `json:"cells"`
	Year      int                  `json:"year"`
	Month     int                  `json:"month"`
	Filter    model.Filter         `json:"filter"`
	WeekStart string               `json:"week_start"`
}

// handleCalendar returns the month grid for the requested month.
//
// GET /api/calendar?year=2024&month=3&filter=All
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	events, err := s.eventsSnapshot(r.Context())
	if err != nil {
		writeLoadError(w, err)
		return
	}

	q := r.URL.Query()
	loc := resolveLocationOrLocal(s.cfg.Timezone)
	now := time.Now().In(loc)

	year := parseIntDefault(q.Get("year"), now.Year())
	month := parseIntDefault(q.Get("month"), int(now.Month()))
	filter := model.ParseFilter(q.Get("filter"))

	ref := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	weekStart := calendar.WeekStartFromName(s.cfg.WeekStart)

	cells := calendar.BuildMonthGrid(ref, now, events, filter, weekStart)

	writeJSON(w, http.StatusOK, calendarResponse{
		Cells:     cells,
		Year:      year,
		Month:     month,
		Filter:    filter,
		WeekStart: s.cfg.WeekStart,
	})
}

// handleICS republishes the feed as an iCalendar document.
func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	events, err := s.eventsSnapshot(r.Context())
	if err != nil {
		writeLoadError(w, err)
		return
	}

	loc := resolveLocationOrLocal(s.cfg.Timezone)
	now := time.Now().In(loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	doc, err := ical.BuildCalendar("Kandy Cultural Events", events, ical.ExpandConfig{
		RangeStart: start,
		RangeEnd:   start.AddDate(0, 0, s.cfg.HorizonDays),
	})
	if err != nil {
		appLog.Error("ics export failed", err)
		writeError(w, http.StatusInternalServerError, "failed to build calendar export")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="kandy-events.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

// handleRooms returns the full room catalogue.
func (s *Server) handleRooms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rooms.All())
}

// handleRoom returns a single room by slug: /api/rooms/{slug}.
func (s *Server) handleRoom(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimPrefix(r.URL.Path, "/api/rooms/")
	if slug == "" || strings.Contains(slug, "/") {
		http.NotFound(w, r)
		return
	}
	room, ok := rooms.BySlug(slug)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown room")
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// handlePreview serves the last captured social card PNG from disk.
// http.ServeFile returns the appropriate status for a missing file.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.cfg.Capture.OutputPath)
}

// staticFileServer serves the embedded marketing site.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static site not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// API paths never fall back to the static site.
		if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

// writeLoadError maps feed failure kinds onto HTTP statuses. The wrapped
// message is surfaced so the presentation layer can show it.
func writeLoadError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, feed.ErrConfiguration):
		status = http.StatusServiceUnavailable
	case errors.Is(err, feed.ErrNetwork), errors.Is(err, feed.ErrParse):
		status = http.StatusBadGateway
	}
	writeError(w, status, err.Error())
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

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
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
