package middleware

import (
	"net/http"

	"github.com/spacestar-shop/backend/api/responses"
	pkgerrors "github.com/spacestar-shop/backend/pkg/errors"
	"github.com/spacestar-shop/backend/pkg/logger"
)

// SessionCookieName carries the admin JWT between the panel and the API.
const SessionCookieName = "spacestar_session"

// TokenVerifier validates a session token and returns the admin id.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// AdminAuth validates the session cookie and seeds the context with the
// admin id. Requests without a valid session never reach the handler.
func AdminAuth(verifier TokenVerifier, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			adminID, err := verifier.VerifyToken(cookie.Value)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithAdminID(r.Context(), adminID)
			if logg != nil {
				ctx = logg.WithField(ctx, "admin_id", adminID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
