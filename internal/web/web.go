package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"schoolclock/internal/config"
	"schoolclock/internal/ics"
	appLog "schoolclock/internal/log"
	"schoolclock/internal/model"
	"schoolclock/internal/resolve"
)

// Documents supplies the current context document. It returns nil until a
// document has been loaded.
type Documents interface {
	Current() *model.Document
}

// Server provides the HTTP API over the resolution engine.
type Server struct {
	cfg    *config.Config
	docs   Documents
	engine *resolve.Engine
	mux    *http.ServeMux

	// now is the clock used when a request has no "at" parameter.
	now func() time.Time
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, docs Documents, engine *resolve.Engine) *Server {
	s := &Server{
		cfg:    cfg,
		docs:   docs,
		engine: engine,
		mux:    http.NewServeMux(),
		now:    time.Now,
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

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
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
			w.Header().Set("WWW-Authenticate", `Basic realm="schoolclock", charset="UTF-8"`)
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

// Serve runs the HTTP server on cfg.Listen until ctx is done, then shuts it
// down gracefully within cfg.ShutdownTimeout.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout.Duration)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/now", s.withQuery(s.handleNow))
	s.mux.HandleFunc("/api/schedule", s.withQuery(s.handleSchedule))
	s.mux.HandleFunc("/api/announcements", s.withQuery(s.handleAnnouncements))
	s.mux.HandleFunc("/api/divisions", s.withQuery(s.handleDivisions))
	s.mux.HandleFunc("/api/calendar.ics", s.withQuery(s.handleCalendar))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// query is what every API request resolves against.
type query struct {
	doc      *model.Document
	at       time.Time
	division string
}

// withQuery reads the document and the "at" and "division" parameters
// before calling h. "at" is an RFC 3339 instant and defaults to now;
// "division" defaults to the configured division.
func (s *Server) withQuery(h func(http.ResponseWriter, *http.Request, query)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		doc := s.docs.Current()
		if doc == nil {
			writeError(w, http.StatusServiceUnavailable, "no context document loaded")
			return
		}

		params := r.URL.Query()
		q := query{doc: doc, at: s.now(), division: s.cfg.Division}
		if v := params.Get("at"); v != "" {
			at, err := time.Parse(time.RFC3339, v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "at: expected an RFC 3339 time")
				return
			}
			q.at = at
		}
		if params.Has("division") {
			q.division = params.Get("division")
		}

		h(w, r, q)
	}
}

func (s *Server) handleNow(w http.ResponseWriter, _ *http.Request, q query) {
	snap := s.engine.Snapshot(q.doc, q.at, q.division)

	resp := nowResponse{
		At:            snap.At,
		Timezone:      snap.Timezone,
		Division:      snap.Division,
		SchoolName:    snap.SchoolName,
		ShortName:     snap.ShortName,
		Schedule:      toScheduleDTO(snap.Schedule),
		Announcements: s.toAnnouncementDTOs(q, snap.Announcements),
	}
	if p := snap.Period; p != nil {
		dto := toPeriodDTO(*p)
		resp.Period = &dto
		if !p.HideStart {
			resp.Elapsed = resolve.FormatDiff(snap.Elapsed)
		}
		if !p.HideEnd {
			resp.Remaining = resolve.FormatDiff(snap.Remaining)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSchedule(w http.ResponseWriter, _ *http.Request, q query) {
	spans := s.engine.Timings(q.doc, q.at, q.division)

	resp := scheduleResponse{
		Schedule: toScheduleDTO(s.engine.Schedule(q.doc, q.at, q.division)),
		Timings:  make([]timingDTO, 0, len(spans)),
	}
	for _, sp := range spans {
		resp.Timings = append(resp.Timings, timingDTO{
			Label:     sp.Label,
			Applies:   sp.Applies,
			Start:     sp.Interval.Start,
			End:       sp.Interval.End,
			HideStart: sp.HideStart,
			HideEnd:   sp.HideEnd,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnnouncements(w http.ResponseWriter, _ *http.Request, q query) {
	active := s.engine.Announcements(q.doc, q.at, q.division)
	writeJSON(w, http.StatusOK, s.toAnnouncementDTOs(q, active))
}

func (s *Server) handleDivisions(w http.ResponseWriter, _ *http.Request, q query) {
	out := make([]divisionDTO, 0, len(q.doc.Divisions))
	for _, d := range q.doc.Divisions {
		out = append(out, divisionDTO{
			ID:         d.Details.DivisionID,
			Label:      d.Details.DivisionLabel,
			ShortLabel: d.Details.DivisionShortLabel,
			Selected:   d.Details.DivisionID == q.division,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCalendar exports the day's periods as an iCalendar feed.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request, q query) {
	domain := r.Host
	if host, _, err := net.SplitHostPort(r.Host); err == nil {
		domain = host
	}
	if domain == "" {
		domain = "schoolclock"
	}

	spans := s.engine.Timings(q.doc, q.at, q.division)
	events := make([]ics.ExportEvent, 0, len(spans))
	for _, sp := range spans {
		events = append(events, ics.ExportEvent{
			UID:     ics.EventUID(sp.Interval.Start, sp.Label, domain),
			Summary: sp.Label,
			Start:   sp.Interval.Start,
			End:     sp.Interval.End,
		})
	}

	body := ics.Export(resolve.SchoolName(q.doc, q.division), events, q.at)

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (s *Server) toAnnouncementDTOs(q query, active []model.Announcement) []announcementDTO {
	out := make([]announcementDTO, 0, len(active))
	for _, a := range active {
		out = append(out, announcementDTO{
			Message: a.Message,
			Applies: a.Applies,
			When:    s.engine.ListApplies(q.doc, a.Applies, q.at),
		})
	}
	return out
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
