package http

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"marketplace/candidates/internal/apperr"
	"marketplace/candidates/internal/candidates"
	"marketplace/candidates/internal/config"
	"marketplace/candidates/internal/logging"
	"marketplace/candidates/internal/metrics"
	"marketplace/candidates/internal/ratelimit"
	"marketplace/candidates/internal/stats"
	"marketplace/candidates/internal/transform"
	"marketplace/candidates/internal/views"
)

type CandidateService interface {
	List(ctx context.Context, f candidates.Filters) (candidates.Result[transform.Candidate], error)
	ListComplete(ctx context.Context, f candidates.Filters) (candidates.Result[transform.CompleteRecord], error)
}

type StatsService interface {
	Summary(ctx context.Context) (stats.Summary, error)
	BranchDistribution(ctx context.Context) ([]stats.BranchSlice, error)
}

type ProfileService interface {
	Get(ctx context.Context, id string) (transform.StudentProfile, error)
	GetComplete(ctx context.Context, id string) (transform.CompleteRecord, error)
}

type ViewService interface {
	LogView(ctx context.Context, candidateID string, viewer views.Viewer) (views.LogResult, error)
	UserHistory(ctx context.Context, email string, f views.HistoryFilters) (views.History, error)
	CandidateViewers(ctx context.Context, candidateID string, f views.ViewerFilters) (views.Viewers, error)
	UserStats(ctx context.Context, email string) (views.Stats, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, key string) (ratelimit.Decision, error)
}

type Services struct {
	Candidates CandidateService
	Stats      StatsService
	Profiles   ProfileService
	Views      ViewService
}

type Server struct {
	cfg      config.Config
	services Services
	limiter  RateLimiter
	metrics  *metrics.Metrics
	log      *zap.Logger
	validate *validator.Validate
}

func NewServer(cfg config.Config, services Services, limiter RateLimiter, m *metrics.Metrics, log *zap.Logger) *Server {
	if m == nil {
		m = metrics.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		cfg:      cfg,
		services: services,
		limiter:  limiter,
		metrics:  m,
		log:      log,
		validate: newValidator(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		IsDevelopment:      s.cfg.IsDevelopment(),
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)
	r.Use(secureMiddleware.Handler)
	r.Use(corsMiddleware(s.cfg.FrontendOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, apperr.NotFound("Route"))
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/candidates", s.handleListCandidates)
		r.Post("/candidates/{id}/view", s.handleLogView)
		r.Get("/candidates/{id}/viewers", s.handleCandidateViewers)

		r.Get("/stats/summary", s.handleStatsSummary)
		r.Get("/stats/branch-distribution", s.handleBranchDistribution)

		r.Get("/students/{id}", s.handleGetStudent)

		r.Get("/users/{email}/candidates", s.handleUserHistory)
		r.Get("/users/{email}/stats", s.handleUserStats)
	})

	return r
}

// CORS

// corsMiddleware answers for the configured frontend origins only. "*" in
// the list allows any origin.
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		allowed[origin] = struct{}{}
	}
	_, anyOrigin := allowed["*"]

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Add("Vary", "Origin")
			_, ok := allowed[origin]
			if ok || anyOrigin {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				if ok || anyOrigin {
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-Id")
					w.Header().Set("Access-Control-Max-Age", "600")
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Rate limiting

// allowView counts the request against the caller's IP. Limiter failures
// let the request through.
func (s *Server) allowView(r *http.Request) error {
	if s.limiter == nil {
		return nil
	}
	decision, err := s.limiter.Allow(r.Context(), "view:"+clientIP(r))
	if errors.Is(err, ratelimit.ErrNotConfigured) {
		return nil
	}
	if err != nil {
		s.log.Warn("view rate limiter unavailable", zap.Error(err))
		return nil
	}
	if !decision.Allowed {
		return apperr.RateLimited(decision.RetryAfterSeconds())
	}
	return nil
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Responses

type errorBody struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp string      `json:"timestamp"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		appErr = &apperr.Error{
			Kind:    apperr.KindDatabase,
			Code:    apperr.CodeInternal,
			Message: "An unexpected error occurred",
			Details: err.Error(),
			Err:     err,
		}
	}
	status := appErr.HTTPStatus()

	body := errorBody{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Details:   appErr.Details,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if status >= http.StatusInternalServerError {
		s.log.Error(appErr.Message,
			zap.String("code", appErr.Code),
			zap.Any("details", appErr.Details),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
		if !s.cfg.IsDevelopment() {
			body.Details = nil
		}
	}
	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", appErr.RetryAfterHeader())
	}
	writeJSON(w, status, map[string]errorBody{"error": body})
}

func decodeJSON(r *http.Request, out interface{}) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
