package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"propdesk/contexts/identity-access/authorization-service/application/queries"
	authzentities "propdesk/contexts/identity-access/authorization-service/domain/entities"
	authzerrors "propdesk/contexts/identity-access/authorization-service/domain/errors"
	"propdesk/internal/platform/identity"

	"github.com/go-chi/chi/v5/middleware"
)

const (
	permissionDecisionView   = authzentities.PermissionDecisionView
	permissionDecisionManage = authzentities.PermissionDecisionManage
	permissionBallotCast     = authzentities.PermissionBallotCast
)

// authenticate rejects requests without a valid bearer token before any
// decision logic runs.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			writeDecisionError(w, http.StatusUnauthorized, "unauthenticated", "Authorization bearer token is required", nil)
			return
		}
		if s.verifier == nil {
			writeDecisionError(w, http.StatusUnauthorized, "unauthenticated", "token verification is not configured", nil)
			return
		}

		principal, err := s.verifier.Verify(parts[1])
		if err != nil {
			s.logger.Warn("bearer token rejected",
				"event", "http_auth_rejected",
				"module", "internal/platform/httpserver",
				"layer", "platform",
				"path", r.URL.Path,
				"request_id", middleware.GetReqID(r.Context()),
				"error", err.Error(),
			)
			writeDecisionError(w, http.StatusUnauthorized, "unauthenticated", "bearer token is invalid or expired", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(identity.WithPrincipal(r.Context(), principal)))
	})
}

func (s *Server) requirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := identity.FromContext(r.Context())
			if !ok {
				writeDecisionError(w, http.StatusUnauthorized, "unauthenticated", "Authorization bearer token is required", nil)
				return
			}

			decision, err := s.authorization.Checker.Execute(r.Context(), queries.CheckPermissionQuery{
				CompanyID:    principal.CompanyID,
				UserID:       principal.UserID,
				Permission:   permission,
				ResourceType: "decision",
				ResourceID:   chiURLParam(r, "decision_id"),
			})
			if errors.Is(err, authzerrors.ErrPersistence) {
				s.logger.Error("permission lookup unavailable",
					"event", "http_authz_lookup_failed",
					"module", "internal/platform/httpserver",
					"layer", "platform",
					"path", r.URL.Path,
					"request_id", middleware.GetReqID(r.Context()),
					"permission", permission,
					"error", err.Error(),
				)
				writeDecisionError(w, http.StatusInternalServerError, "internal_error", "internal server error", nil)
				return
			}
			if err != nil || !decision.Allowed {
				writeDecisionError(w, http.StatusForbidden, "forbidden", authzerrors.ErrForbidden.Error()+": missing permission "+permission, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
