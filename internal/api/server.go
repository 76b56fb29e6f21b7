// Package api exposes the chat service over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/astra-labs/astra/internal/auth"
	"github.com/astra-labs/astra/internal/events"
	"github.com/astra-labs/astra/internal/gemini"
	"github.com/astra-labs/astra/internal/history"
	"github.com/astra-labs/astra/internal/prefs"
	"github.com/astra-labs/astra/internal/session"
)

type Server struct {
	router *chi.Mux
	srv    *http.Server

	store  *history.Adapter
	llm    *gemini.Client
	events *events.Publisher // optional
	prefs  *prefs.Store
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session.Manager
}

func NewServer(port int, store *history.Adapter, llm *gemini.Client, pub *events.Publisher, prefStore *prefs.Store, verifier *auth.Verifier, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		srv:      &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: router},
		store:    store,
		llm:      llm,
		events:   pub,
		prefs:    prefStore,
		logger:   logger,
		sessions: make(map[string]*session.Manager),
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/astra/status", s.status)

	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(verifier))
		r.Post("/api/v1/chat/message", s.postMessage)
		r.Get("/api/v1/chat/history", s.getHistory)
		r.Delete("/api/v1/chat", s.clearChat)
		r.Get("/api/v1/chat/export", s.exportChat)
		r.Get("/api/v1/prefs/theme", s.getTheme)
		r.Put("/api/v1/prefs/theme", s.putTheme)
	})

	return s
}

func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.srv.Addr)
	return s.srv.ListenAndServe()
}

// Shutdown stops accepting new connections and waits for in-flight
// requests, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// sessionFor returns the caller's session manager, creating and starting
// it on first touch. A failed history load is recorded in the session's
// own state, not returned here.
func (s *Server) sessionFor(r *http.Request, userID string) *session.Manager {
	s.mu.Lock()
	mgr, ok := s.sessions[userID]
	if !ok {
		mgr = session.New(userID, s.store, s.llm, s.events, s.logger)
		s.sessions[userID] = mgr
	}
	s.mu.Unlock()

	if !ok {
		if err := mgr.Start(r.Context()); err != nil {
			s.logger.Error("session start failed", "user_id", userID, "error", err)
		}
	}
	return mgr
}
