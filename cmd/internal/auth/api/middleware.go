package authapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/Jager4561/car-case-auth/cmd/identity"
	"github.com/Jager4561/car-case-auth/cmd/internal/auth/session"
)

type ctxKey struct{ name string }

var (
	principalKey = &ctxKey{"principal"}
	sessionKey   = &ctxKey{"session"}
)

// PrincipalFromContext returns the principal attached by RequireAuth.
func PrincipalFromContext(ctx context.Context) (*identity.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*identity.Principal)
	return p, ok && p != nil
}

// SessionFromContext returns the session attached by RequireAuth.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*session.Session)
	return s, ok && s != nil
}

// RequireAuth resolves the bearer access token to a live session and its
// principal, then calls next with both attached to the request context.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const op = "authapi.require_auth"

		tok, err := bearerToken(op, r.Header.Get("Authorization"))
		if err != nil {
			h.audit(r, "authenticate", err)
			writeError(w, err)
			return
		}

		p, s, err := h.sessions.Authenticate(r.Context(), h.now(), tok)
		if err != nil {
			h.audit(r, "authenticate", err)
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, p)
		ctx = context.WithValue(ctx, sessionKey, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken splits the header on single spaces: the first field must be
// exactly "Bearer" and the second field is the token (possibly empty).
func bearerToken(op, header string) (string, error) {
	if header == "" {
		return "", session.TokenMissing(op)
	}
	parts := strings.Split(header, " ")
	if parts[0] != "Bearer" {
		return "", session.TokenInvalid(op)
	}
	if len(parts) < 2 {
		return "", nil
	}
	return parts[1], nil
}
