package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	decisionservice "propdesk/contexts/community-governance/decision-service"
	authorization "propdesk/contexts/identity-access/authorization-service"
	"propdesk/internal/platform/identity"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "propdesk/internal/platform/httpserver/docs"
)

type Server struct {
	router         *chi.Mux
	http           *http.Server
	logger         *slog.Logger
	addr           string
	allowedOrigins []string
	decisions      decisionservice.Module
	authorization  authorization.Module
	verifier       *identity.Verifier
}

func New(
	decisions decisionservice.Module,
	authorizationModule authorization.Module,
	verifier *identity.Verifier,
	logger *slog.Logger,
	addr string,
	allowedOrigins []string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	s := &Server{
		router:         chi.NewRouter(),
		logger:         logger,
		addr:           addr,
		allowedOrigins: allowedOrigins,
		decisions:      decisions,
		authorization:  authorizationModule,
		verifier:       verifier,
	}
	s.registerRoutes()
	s.http = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start blocks until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server stopping",
		"event", "http_server_stopping",
		"module", "internal/platform/httpserver",
		"layer", "platform",
	)
	return s.http.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.accessLog)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Idempotency-Key", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.router.Route("/api/v1/decisions", func(r chi.Router) {
		r.Use(s.authenticate)

		r.With(s.requirePermission(permissionDecisionView)).Get("/", s.handleListDecisions)
		r.With(s.requirePermission(permissionDecisionManage)).Post("/", s.handleCreateDecision)
		r.With(s.requirePermission(permissionDecisionView)).Get("/{decision_id}", s.handleGetDecision)
		r.With(s.requirePermission(permissionDecisionManage)).Patch("/{decision_id}", s.handleUpdateDecision)
		r.With(s.requirePermission(permissionDecisionManage)).Delete("/{decision_id}", s.handleCancelDecision)
		r.With(s.requirePermission(permissionBallotCast)).Post("/{decision_id}/ballots", s.handleCastBallot)
	})
}

// handleHealth reports process liveness.
//
//	@Summary	Liveness probe
//	@Tags		system
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Router		/health [get]
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request served",
			"event", "http_request_served",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration_ms", time.Since(started).Milliseconds(),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
