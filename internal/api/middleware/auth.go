package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dom/worknest/internal/api/handlers"
	"github.com/dom/worknest/internal/auth"
	"github.com/dom/worknest/internal/logger"
	"github.com/go-chi/chi/v5/middleware"
)

// Authenticator resolves a bearer token to the caller's identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Identity, error)
}

// Auth rejects requests without a valid bearer token before they reach a
// handler, and attaches the caller's identity to the request context.
func Auth(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				handlers.WriteErrorMessage(w, http.StatusUnauthorized, "authorization header required")
				return
			}

			identity, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				logger.Debug().
					Err(err).
					Str("request_id", middleware.GetReqID(r.Context())).
					Msg("token rejected")
				handlers.WriteError(w, r, err)
				return
			}

			ctx := auth.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
