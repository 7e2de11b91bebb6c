package middleware

import (
	"context"
	"net/http"

	"github.com/baechuer/sso-service/internal/domain"
	"github.com/baechuer/sso-service/internal/infrastructure/security"
)

type SessionVerifier interface {
	Verify(token string) (security.SessionClaims, error)
}

type WriteErrFunc func(http.ResponseWriter, *http.Request, error)

type ctxKey string

const ctxUserID ctxKey = "user_id"

func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxUserID, userID)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxUserID).(string)
	return v, ok && v != ""
}

// Session verifies the session cookie and puts the user id into the request context.
// Handlers re-read the role from the directory.
func Session(verifier SessionVerifier, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := security.ReadSession(r)
			if err != nil || raw == "" {
				writeErr(w, r, domain.ErrSessionMissing())
				return
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				writeErr(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims.UserID)))
		})
	}
}
