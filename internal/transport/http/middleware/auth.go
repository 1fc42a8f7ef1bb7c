package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/parcel-notify/internal/domain"
	jwtinfra "github.com/parcel-notify/internal/infrastructure/jwt"
)

type contextKey string

const claimsKey contextKey = "claims"

const basicRealm = `Basic realm="Guard Area"`

// Authenticator is the subset of the admin auth service the gate needs.
type Authenticator interface {
	CheckCredentials(username, password string) bool
	VerifyBearer(token string) (*jwtinfra.Claims, error)
}

// AdminAuth admits requests carrying the admin Basic credentials or a valid
// admin Bearer token. Claims are injected into the request context; Basic
// requests get admin claims with the username as subject.
func AdminAuth(a Authenticator, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			switch {
			case strings.HasPrefix(header, "Bearer "):
				claims, err := a.VerifyBearer(strings.TrimPrefix(header, "Bearer "))
				if errors.Is(err, domain.ErrForbidden) {
					writeJSONError(w, http.StatusForbidden, "FORBIDDEN", "token lacks the admin role")
					return
				}
				if err != nil {
					writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
					return
				}
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
				return
			default:
				if user, pass, ok := r.BasicAuth(); ok && a.CheckCredentials(user, pass) {
					claims := &jwtinfra.Claims{Role: jwtinfra.RoleAdmin}
					claims.Subject = user
					next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
					return
				}
			}
			log.Debug("admin auth rejected", zap.String("path", r.URL.Path), zap.String("ip", clientIP(r)))
			w.Header().Set("WWW-Authenticate", basicRealm)
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "admin credentials required")
		})
	}
}

// ClaimsFromContext extracts admin claims from the request context.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*jwtinfra.Claims)
	return c, ok
}

// AdminSubject names the admin behind the request, or "" outside the gate.
func AdminSubject(ctx context.Context) string {
	if c, ok := ClaimsFromContext(ctx); ok {
		return c.Subject
	}
	return ""
}
