package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"rental/house"
	"rental/platform/metrics"
)

type houseService interface {
	ListHouses(ctx context.Context, req house.PageRequest) (house.Page, error)
	GetHouse(ctx context.Context, id int64) (house.House, error)
	CreateHouse(ctx context.Context, req house.CreateRequest) (house.House, error)
}

// Server hosts the HTTP API.
type Server struct {
	houses  houseService
	health  func(context.Context) error
	metrics *metrics.Manager
	log     *zap.Logger
	loc     *time.Location

	// foundStatus is written for a successful single listing lookup.
	foundStatus int
}

type serverOptions struct {
	Health            func(context.Context) error
	Metrics           *metrics.Manager
	Logger            *zap.Logger
	Location          *time.Location
	LegacyFoundStatus bool
}

func newServer(houses houseService, opts serverOptions) *Server {
	s := &Server{
		houses:      houses,
		health:      opts.Health,
		metrics:     opts.Metrics,
		log:         opts.Logger,
		loc:         opts.Location,
		foundStatus: http.StatusOK,
	}
	if opts.LegacyFoundStatus {
		s.foundStatus = http.StatusFound
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Get("/healthz", s.handleHealth)
	r.Route("/houses", func(r chi.Router) {
		r.Get("/", s.handleListHouses)
		r.Get("/{id}", s.handleGetHouse)
		r.Post("/house", s.handleCreateHouse)
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.log.Info("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health(ctx); err != nil {
			s.log.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
