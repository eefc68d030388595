package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sandeepkv93/bearer-auth-api/internal/http/response"
	"github.com/sandeepkv93/bearer-auth-api/internal/observability"
	"github.com/sandeepkv93/bearer-auth-api/internal/service"
)

type contextKey string

const (
	PrincipalContextKey  contextKey = "principal"
	requestLogContextKey contextKey = "request_log"
)

// AuthMiddleware resolves the Authorization bearer token to a service.Principal and
// stores it in the request context. Requests without a valid token get 401.
func AuthMiddleware(auth service.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := BearerToken(r)
			if raw == "" {
				observability.RecordMiddlewareValidationEvent(r.Context(), "bearer_auth", "missing_token")
				response.Unauthorized(w, r)
				return
			}
			principal, err := auth.Authenticate(r.Context(), raw)
			if err != nil {
				if errors.Is(err, service.ErrInvalidToken) {
					observability.RecordMiddlewareValidationEvent(r.Context(), "bearer_auth", "invalid_token")
					observability.Audit(r, observability.AuditInput{
						EventName: "auth.token.rejected",
						Outcome:   "rejected",
						Reason:    "invalid_token",
					})
					response.Unauthorized(w, r)
					return
				}
				observability.RecordMiddlewareValidationEvent(r.Context(), "bearer_auth", "error")
				slog.ErrorContext(r.Context(), "bearer authentication failed",
					"error", err,
					"request_id", chimiddleware.GetReqID(r.Context()),
				)
				response.Error(w, r, http.StatusInternalServerError, "Authentication failed. Please try again.", nil)
				return
			}
			observability.RecordMiddlewareValidationEvent(r.Context(), "bearer_auth", "accepted")
			annotateRequestLog(r.Context(), principal.UserID)
			ctx := context.WithValue(r.Context(), PrincipalContextKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>". The scheme
// match is case-insensitive; anything else yields "".
func BearerToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[7:])
}

func PrincipalFromContext(ctx context.Context) (*service.Principal, bool) {
	p, ok := ctx.Value(PrincipalContextKey).(*service.Principal)
	return p, ok && p != nil
}
