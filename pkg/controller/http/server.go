package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"

	"github.com/companion-lab/mnemosyne/pkg/usecase"
	"github.com/companion-lab/mnemosyne/pkg/utils/errutil"
	"github.com/companion-lab/mnemosyne/pkg/utils/logging"
)

// Server is the thin JSON API over the use cases. It carries no rendering
// or auth concerns; the web UI is a separate deliverable.
type Server struct {
	router *chi.Mux
	uc     *usecase.UseCases
}

func New(uc *usecase.UseCases) *Server {
	s := &Server{
		router: chi.NewRouter(),
		uc:     uc,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(120 * time.Second))

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/personas", func(r chi.Router) {
			r.Get("/", s.handleListPersonas)
			r.Post("/", s.handlePutPersona)
			r.Route("/{personaID}", func(r chi.Router) {
				r.Get("/", s.handleGetPersona)
				r.Put("/", s.handlePutPersona)
				r.Delete("/", s.handleDeletePersona)
				r.Post("/chat", s.handleChat)
				r.Route("/sessions", func(r chi.Router) {
					r.Get("/", s.handleListSessions)
					r.Post("/", s.handleCreateSession)
					r.Delete("/", s.handleClearSessions)
					r.Route("/{sessionID}", func(r chi.Router) {
						r.Get("/", s.handleGetSession)
						r.Delete("/", s.handleDeleteSession)
						r.Post("/summary", s.handleSummarizeSession)
					})
				})
			})
		})
		r.Route("/profile", func(r chi.Router) {
			r.Get("/", s.handleGetProfile)
			r.Put("/", s.handlePutProfile)
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	defer func() { _ = r.Body.Close() }()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return goerr.Wrap(errBadRequestBody, err.Error())
	}
	return nil
}

// loggingMiddleware injects a request-scoped logger and logs completions
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.Default().With(
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
		)
		ctx := logging.With(r.Context(), logger)

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		logger.Debug("request completed",
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// handleErr maps use case failures to HTTP responses
func handleErr(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case isNotFound(err):
		status = http.StatusNotFound
	case isBadRequest(err):
		status = http.StatusBadRequest
	}
	errutil.HandleHTTP(r.Context(), w, err, status)
}
