package web

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"

	"focuswatch/entity"
	"focuswatch/manager"
	"focuswatch/query"
)

type Server struct {
	ctrl *manager.Controller
	log  hclog.Logger
	now  func() time.Time
}

func NewServer(ctrl *manager.Controller, logger hclog.Logger) *Server {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Server{ctrl: ctrl, log: logger.Named("web"), now: time.Now}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/start", s.handleStart)
	mux.HandleFunc("/api/stop", s.handleStop)
	mux.HandleFunc("/api/init", s.handleInit)
	mux.HandleFunc("/api/recent", s.handleRecent)
	mux.HandleFunc("/api/summary", s.handleSummary)
	mux.HandleFunc("/api/export", s.handleExport)
	return mux
}

// StartServer listens on addr, which should be a loopback address, and
// serves until ctx is cancelled.
func StartServer(ctx context.Context, addr string, s *Server) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		s.log.Info("control API listening", "url", "http://"+ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("web server", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	return srv, nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Status())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.ctrl.Start(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Status())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// the final flush must outlive a client that hangs up
	if err := s.ctrl.Stop(context.WithoutCancel(r.Context())); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Status())
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.ctrl.InitStorage(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type recordView struct {
	ID              int64     `json:"id"`
	StartTime       time.Time `json:"start_time"`
	ApplicationName string    `json:"application_name"`
	WindowTitle     string    `json:"window_title"`
	DurationSeconds float64   `json:"duration_seconds"`
	ActivityType    string    `json:"activity_type"`
}

type RecentResponse struct {
	Records []recordView `json:"records"`
	Corrupt int          `json:"corrupt"`
	Warning string       `json:"warning,omitempty"`
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	res, err := s.ctrl.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := RecentResponse{Records: make([]recordView, 0, len(res.Records)), Corrupt: res.Corrupt, Warning: corruptWarning(res.Corrupt)}
	for _, rec := range res.Records {
		resp.Records = append(resp.Records, toView(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

type SummaryResponse struct {
	From    *time.Time          `json:"from,omitempty"`
	To      *time.Time          `json:"to,omitempty"`
	Items   []query.SummaryItem `json:"items"`
	Corrupt int                 `json:"corrupt"`
	Warning string              `json:"warning,omitempty"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	tr, err := parseRange(r, s.now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sum, err := s.ctrl.Summary(r.Context(), tr)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := SummaryResponse{Items: sum.Items, Corrupt: sum.Corrupt, Warning: corruptWarning(sum.Corrupt)}
	if !tr.From.IsZero() {
		resp.From = &tr.From
	}
	if !tr.To.IsZero() {
		resp.To = &tr.To
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "yaml" {
		http.Error(w, "format must be json or yaml", http.StatusBadRequest)
		return
	}
	tr, err := parseRange(r, s.now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// errors after the first byte cannot change the status, so check readiness up front
	if err := s.ctrl.Ready(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	if format == "yaml" {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
	if _, err := s.ctrl.Export(r.Context(), w, format, tr); err != nil {
		s.log.Error("export", "error", err)
	}
}

// parseRange reads either ?period=day|week|month|year|all or ?from=&to=
// (YYYY-MM-DD, to inclusive). No parameters means all records.
func parseRange(r *http.Request, now time.Time) (query.TimeRange, error) {
	q := r.URL.Query()
	if p := q.Get("period"); p != "" {
		return query.PeriodRange(p, now), nil
	}
	var tr query.TimeRange
	if v := q.Get("from"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, now.Location())
		if err != nil {
			return tr, errors.New("bad from date, want YYYY-MM-DD")
		}
		tr.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, now.Location())
		if err != nil {
			return tr, errors.New("bad to date, want YYYY-MM-DD")
		}
		tr.To = t.AddDate(0, 0, 1)
	}
	return tr, nil
}

func toView(rec entity.ActivityRecord) recordView {
	return recordView{
		ID:              rec.ID,
		StartTime:       rec.StartTime,
		ApplicationName: rec.ApplicationName,
		WindowTitle:     rec.WindowTitle,
		DurationSeconds: rec.Duration.Seconds(),
		ActivityType:    rec.ActivityType,
	}
}

func corruptWarning(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n) + " unreadable records skipped"
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, query.ErrNotInitialized):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Kind: "not_initialized"})
	case errors.Is(err, query.ErrIOFailure):
		s.log.Warn("store unavailable", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error(), Kind: "store_unavailable"})
	default:
		s.log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Kind: "internal"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
