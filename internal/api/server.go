package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/MikeSquared-Agency/tina/internal/conversation"
	"github.com/MikeSquared-Agency/tina/internal/intake"
	"github.com/MikeSquared-Agency/tina/internal/outcome"
)

// Chat is the conversation engine as seen by the HTTP layer.
type Chat interface {
	Start(ctx context.Context, message string, history intake.Transcript) (conversation.Reply, error)
	Continue(ctx context.Context, message string, history intake.Transcript) (conversation.Reply, error)
	Recommend(ctx context.Context, summary string, history intake.Transcript) (string, intake.Transcript, error)
}

type OutcomeRecorder interface {
	Record(o outcome.Outcome)
}

type Options struct {
	CORSOrigins []string
	// Outcomes receives conversations as they conclude. Nil disables it.
	Outcomes OutcomeRecorder
	Logger   *slog.Logger
}

type Server struct {
	router   *chi.Mux
	http     *http.Server
	chat     Chat
	outcomes OutcomeRecorder
	validate *validator.Validate
	logger   *slog.Logger
}

func NewServer(port int, chat Chat, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	s := &Server{
		router:   router,
		chat:     chat,
		outcomes: opts.Outcomes,
		validate: newValidator(),
		logger:   logger,
	}
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// A turn can make several oracle calls, each retried with backoff.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	router.Get("/health", s.health)
	router.Route("/chat/v1", func(r chi.Router) {
		r.Post("/start", s.start)
		r.Post("/continue", s.continueChat)
		r.Post("/recommend", s.recommend)
	})

	return s
}

// Handler exposes the routes for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
