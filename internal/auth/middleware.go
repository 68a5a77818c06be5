package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/efren319/GovFunds/internal/apperrors"
	"github.com/efren319/GovFunds/internal/auth/domain"
	"github.com/efren319/GovFunds/internal/logging"
	"github.com/efren319/GovFunds/internal/web"
)

type identityKey struct{}

// IdentityFromContext returns the admin identity attached by LoadIdentity.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	ident, ok := ctx.Value(identityKey{}).(domain.Identity)
	return ident, ok
}

// LoadIdentity resolves the session cookie to an identity. Requests without
// a live session continue anonymously.
func LoadIdentity(sessions *web.Sessions, store SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := sessions.SessionID(c)
		if id == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		ident, err := store.Get(ctx, id)
		if err != nil {
			if !errors.Is(err, apperrors.ErrNotFound) {
				logging.FromContext(ctx).Warn("session lookup failed", zap.Error(err))
			}
			sessions.ClearSessionID(c)
			c.Next()
			return
		}

		c.Set(web.CtxUsername, ident.Username)
		ctx = context.WithValue(ctx, identityKey{}, ident)
		ctx = logging.WithContext(ctx, logging.FromContext(ctx).With(zap.String("admin", ident.Username)))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAdmin sends anonymous visitors to the login page.
func RequireAdmin(r *web.Renderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := IdentityFromContext(c.Request.Context()); !ok {
			r.Fail(c, apperrors.ErrUnauthorized, "/login", "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdminJSON is RequireAdmin for JSON endpoints.
func RequireAdminJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := IdentityFromContext(c.Request.Context()); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "unauthorized"})
			return
		}
		c.Next()
	}
}
