// Package httpapi exposes the approval workflow over HTTP.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	appAudit "github.com/closet-hub/closet-hub/internal/application/audit"
	appAuth "github.com/closet-hub/closet-hub/internal/application/auth"
	appDecision "github.com/closet-hub/closet-hub/internal/application/decision"
	appIntake "github.com/closet-hub/closet-hub/internal/application/intake"
	domainUser "github.com/closet-hub/closet-hub/internal/domain/user"
	"github.com/closet-hub/closet-hub/internal/infrastructure/sse"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	intakeSvc           *appIntake.Service
	decisionSvc         *appDecision.Service
	auditSvc            *appAudit.Service
	authSvc             *appAuth.Service
	sseHub              *sse.Hub
	metricsHandler      http.Handler
	sessionCookieName   string
	sessionCookieSecure bool
}

func NewServer(
	intakeSvc *appIntake.Service,
	decisionSvc *appDecision.Service,
	auditSvc *appAudit.Service,
	authSvc *appAuth.Service,
	sseHub *sse.Hub,
	metricsHandler http.Handler,
	sessionCookieName string,
	sessionCookieSecure bool,
) *Server {
	return &Server{
		intakeSvc:           intakeSvc,
		decisionSvc:         decisionSvc,
		auditSvc:            auditSvc,
		authSvc:             authSvc,
		sseHub:              sseHub,
		metricsHandler:      metricsHandler,
		sessionCookieName:   sessionCookieName,
		sessionCookieSecure: sessionCookieSecure,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	if s.metricsHandler != nil {
		r.Handle("/metrics", s.metricsHandler)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.login)
			r.Post("/bootstrap", s.bootstrapAdmin)
			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Post("/logout", s.logout)
				r.Get("/me", s.me)
			})
		})

		// Submissions arrive from the owner-facing gateway, which has
		// already authenticated the fan.
		r.Post("/submissions", s.createSubmission)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Route("/submissions", func(r chi.Router) {
				r.Get("/", s.listSubmissions)
				r.Get("/{recordId}", s.getSubmission)
				r.Get("/{recordId}/audit", s.getSubmissionAudit)
				r.With(s.requireRole(
					string(domainUser.RoleAdmin),
					string(domainUser.RoleModerator),
				)).Post("/{recordId}/decision", s.decideSubmission)
			})

			r.Get("/notifications/sse", s.sseEndpoint)
		})
	})

	return r
}

// Helpers
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseLimitOffset(r *http.Request, defaultLimit, maxLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil {
			limit = l
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if o, err := strconv.Atoi(v); err == nil {
			offset = o
		}
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
