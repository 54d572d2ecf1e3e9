package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"OptionsFlowMap/internal/collector"
	"OptionsFlowMap/internal/logger"
	"OptionsFlowMap/internal/model"
	"OptionsFlowMap/internal/presenter"
)

// Options configure the dashboard server.
type Options struct {
	Addr          string
	DefaultTicker string
	DefaultRange  int // strike window in dollars around spot, 0 = unfiltered
}

// Server serves the dashboard page and its JSON API. Handlers are stateless:
// every interaction recomputes the snapshot and view from scratch.
type Server struct {
	collector *collector.Collector
	opts      Options
	log       *logger.Entry
	tmpl      *template.Template
	srv       *http.Server
}

// New creates the dashboard server.
func New(col *collector.Collector, opts Options) *Server {
	s := &Server{
		collector: col,
		opts:      opts,
		log:       logger.GetLogger().WithComponent("server"),
		tmpl:      template.Must(template.New("index").Parse(indexHTML)),
	}
	s.srv = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return s
}

// Handler returns the route mux, exposed separately for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/expirations", s.handleExpirations)
	mux.HandleFunc("/api/openinterest", s.handleOpenInterest)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Start blocks serving HTTP until Shutdown or failure.
func (s *Server) Start() error {
	s.log.WithFields(logger.Fields{"addr": s.opts.Addr}).Info("dashboard listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := s.tmpl.Execute(w, map[string]interface{}{
		"DefaultTicker": s.opts.DefaultTicker,
		"DefaultRange":  s.opts.DefaultRange,
	})
	if err != nil {
		s.log.WithError(err).Error("render index")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// expirationsResponse is the payload of /api/expirations.
type expirationsResponse struct {
	RequestID   string   `json:"request_id"`
	Ticker      string   `json:"ticker"`
	Expirations []string `json:"expirations"`
}

func (s *Server) handleExpirations(w http.ResponseWriter, r *http.Request) {
	rid := uuid.New().String()
	ticker := r.URL.Query().Get("ticker")
	log := s.log.WithFields(logger.Fields{"request_id": rid, "ticker": ticker})

	exps, err := s.collector.Expirations(r.Context(), ticker)
	if err != nil {
		s.writeError(w, rid, log, err)
		return
	}
	writeJSON(w, http.StatusOK, expirationsResponse{
		RequestID:   rid,
		Ticker:      ticker,
		Expirations: exps.Strings(),
	})
}

// openInterestResponse is the payload of /api/openinterest.
type openInterestResponse struct {
	RequestID   string               `json:"request_id"`
	Ticker      string               `json:"ticker"`
	Expiration  string               `json:"expiration"`
	Expirations []string             `json:"expirations"`
	Spot        *float64             `json:"spot"`
	FetchedAt   time.Time            `json:"fetched_at"`
	Rows        []model.StrikeRow    `json:"rows"`
	Chart       *presenter.ChartSpec `json:"chart,omitempty"`
	NoData      bool                 `json:"no_data"`
}

func (s *Server) handleOpenInterest(w http.ResponseWriter, r *http.Request) {
	rid := uuid.New().String()
	q := r.URL.Query()
	ticker := q.Get("ticker")
	log := s.log.WithFields(logger.Fields{"request_id": rid, "ticker": ticker})

	var expiration time.Time
	if v := q.Get("expiration"); v != "" {
		d, err := time.ParseInLocation(model.DateLayout, v, time.UTC)
		if err != nil {
			s.writeErrorCode(w, rid, http.StatusBadRequest, "bad_request",
				fmt.Sprintf("invalid expiration %q, want YYYY-MM-DD", v))
			return
		}
		expiration = d
	}

	strikeRange := s.opts.DefaultRange
	if v := q.Get("range"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeErrorCode(w, rid, http.StatusBadRequest, "bad_request",
				fmt.Sprintf("invalid range %q, want a non-negative integer", v))
			return
		}
		strikeRange = n
	}

	snap, err := s.collector.Snapshot(r.Context(), ticker, expiration)
	if err != nil {
		s.writeError(w, rid, log, err)
		return
	}

	view := presenter.Present(snap, presenter.Options{
		StrikeRange: decimal.NewFromInt(int64(strikeRange)),
	})

	resp := openInterestResponse{
		RequestID:   rid,
		Ticker:      snap.Ticker,
		Expiration:  snap.Expiration.UTC().Format(model.DateLayout),
		Expirations: snap.Expirations.Strings(),
		FetchedAt:   snap.FetchedAt,
		Rows:        view.Rows,
		Chart:       view.Chart,
		NoData:      view.NoData,
	}
	if snap.HasSpot {
		spot := snap.Spot.InexactFloat64()
		resp.Spot = &spot
	}

	log.WithFields(logger.Fields{
		"expiration": resp.Expiration,
		"rows":       len(view.Rows),
		"no_data":    view.NoData,
	}).Info("open interest served")
	writeJSON(w, http.StatusOK, resp)
}

// errorResponse is the uniform error payload. The page clears any previous
// chart and shows Message in its place.
type errorResponse struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error"`
	Message   string `json:"message"`
}

// writeError maps collector failures onto the error taxonomy: unreachable
// provider, unknown ticker, and no-options each get a distinct code.
func (s *Server) writeError(w http.ResponseWriter, rid string, log *logger.Entry, err error) {
	switch {
	case errors.Is(err, collector.ErrEmptyTicker):
		s.writeErrorCode(w, rid, http.StatusBadRequest, "bad_request", "ticker is required")
	case errors.Is(err, collector.ErrTickerNotFound):
		s.writeErrorCode(w, rid, http.StatusNotFound, "ticker_not_found", err.Error())
	case errors.Is(err, collector.ErrNoOptions):
		s.writeErrorCode(w, rid, http.StatusNotFound, "no_options", err.Error())
	case errors.Is(err, collector.ErrProviderUnavailable):
		s.writeErrorCode(w, rid, http.StatusBadGateway, "provider_unreachable", err.Error())
	default:
		log.WithError(err).Error("interaction failed")
		s.writeErrorCode(w, rid, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (s *Server) writeErrorCode(w http.ResponseWriter, rid string, status int, code, msg string) {
	writeJSON(w, status, errorResponse{RequestID: rid, Error: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
