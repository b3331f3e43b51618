package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// BookingService is the lifecycle engine as seen by the HTTP layer.
type BookingService interface {
	Create(ctx context.Context, requesterID, itemID int64, start, end time.Time) (*models.BookingView, error)
	Decide(ctx context.Context, callerID, bookingID int64, approve bool) (*models.BookingView, error)
	GetByID(ctx context.Context, bookingID, callerID int64) (*models.BookingView, error)
	ListByBooker(ctx context.Context, userID int64, state models.State, from, size int) ([]models.BookingView, error)
	ListByOwner(ctx context.Context, userID int64, state models.State, from, size int) ([]models.BookingView, error)
}

type ItemProjector interface {
	ItemDetails(ctx context.Context, callerID, itemID int64) (*models.ItemView, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps groups what the handlers call into. Limiter may be nil.
type Deps struct {
	Bookings BookingService
	Items    ItemProjector
	Health   Pinger
	Limiter  domain.RateLimiter
}

// HTTPServer exposes the booking API.
type HTTPServer struct {
	cfg    config.APIConfig
	deps   Deps
	logger *zerolog.Logger
	server *http.Server
}

func NewHTTPServer(cfg config.APIConfig, deps Deps, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	srv := &HTTPServer{cfg: cfg, deps: deps, logger: logger}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return srv
}

func (s *HTTPServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(metricsMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimitMiddleware)

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", s.handleCreateBooking)
			r.Get("/", s.handleListByBooker)
			r.Get("/owner", s.handleListByOwner)
			r.Get("/{bookingId}", s.handleGetBooking)
			r.Patch("/{bookingId}", s.handleDecideBooking)
		})
		r.Get("/items/{itemId}", s.handleGetItem)
	})

	return r
}

// Handler returns the routed handler, for tests and embedding.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
