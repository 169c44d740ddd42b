// Package server exposes the collector over HTTP: JSON submission, history
// reads and a live SSE stream.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"scanhub/internal/collector"
	"scanhub/internal/domain"
	"scanhub/internal/server/api"
)

const defaultMaxBodyBytes = 1 << 20

type Config struct {
	// MaxBodyBytes caps a single submission body. Defaults to 1 MiB.
	MaxBodyBytes int64

	// RatePerSec limits accepted submissions per second; 0 disables limiting.
	RatePerSec float64
	RateBurst  int
}

type Server struct {
	collector *collector.Collector
	limiter   *rate.Limiter
	maxBody   int64
}

func New(c *collector.Collector, cfg Config) *Server {
	s := &Server{collector: c, maxBody: cfg.MaxBodyBytes}
	if s.maxBody <= 0 {
		s.maxBody = defaultMaxBodyBytes
	}
	if cfg.RatePerSec > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	}
	return s
}

func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "OK")
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/scan", s.submitAPI).Methods(http.MethodPost)
	r.HandleFunc("/api/scans", s.scansAPI).Methods(http.MethodGet)
	r.HandleFunc("/api/stream", s.streamAPI).Methods(http.MethodGet)

	return r
}

func (s *Server) submitAPI(w http.ResponseWriter, r *http.Request) {
	api.Wrap(func(r *http.Request) (any, *api.APIError) {
		if s.limiter != nil && !s.limiter.Allow() {
			return nil, &api.APIError{
				Status: http.StatusTooManyRequests,
				Err:    api.Error{Code: "rate_limited", Message: "too many submissions"},
			}
		}

		r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			if strings.HasPrefix(err.Error(), "http: request body too large") {
				return nil, &api.APIError{
					Status: http.StatusRequestEntityTooLarge,
					Err:    api.Error{Code: "payload_too_large", Message: "request body too large"},
				}
			}
			return nil, &api.APIError{
				Status: http.StatusBadRequest,
				Err:    api.Error{Code: "bad_request", Message: "could not read body"},
			}
		}

		rec, err := s.collector.Accept(raw)
		if err != nil {
			var rej *collector.RejectError
			if errors.As(err, &rej) {
				code := "invalid_format"
				if rej.Details != nil {
					code = "missing_fields"
				}
				return nil, &api.APIError{
					Status: http.StatusBadRequest,
					Err:    api.Error{Code: code, Message: rej.Reason, Details: rej.Details},
				}
			}
			return nil, &api.APIError{
				Status: http.StatusServiceUnavailable,
				Err:    api.Error{Code: "unavailable", Message: "collector unavailable"},
			}
		}

		return rec, nil
	})(w, r)
}

// scansAPI returns the mode's history as a bare JSON array, oldest first.
func (s *Server) scansAPI(w http.ResponseWriter, r *http.Request) {
	mode := domain.ParseMode(r.URL.Query().Get("mode"))
	list := s.collector.Snapshot(mode)
	if list == nil {
		list = []domain.Record{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}
