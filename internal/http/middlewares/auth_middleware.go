package middlewares

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/madialex/accounthub/internal/apperr"
	"github.com/madialex/accounthub/internal/auth"
	"github.com/madialex/accounthub/internal/domain/user"
)

// SessionCookie carries the signed token; HTTP-only so frontend script
// cannot read it.
const SessionCookie = "jwt"

// Small interfaces so tests can fake them easily.
type TokenVerifier interface {
	VerifySessionToken(token string) (*auth.Claims, error)
}

type UserLoader interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type AuthMiddleware struct {
	jwt   TokenVerifier
	users UserLoader
}

func NewAuthMiddleware(jwt TokenVerifier, users UserLoader) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, users: users}
}

// RequireAuth walks the cookie token from raw to a loaded identity:
// no token -> 401, bad/expired token -> 401, user gone -> 401.
// The user may have been deleted after the token was issued, so the
// load is never skipped.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(SessionCookie)

		if err != nil || raw == "" {
			abortWithError(c, apperr.Unauthenticated("You must be logged in!"))
			return
		}

		claims, err := m.jwt.VerifySessionToken(raw)

		if err != nil {
			abortWithError(c, apperr.Unauthenticated("Invalid or expired token"))
			return
		}

		loadCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		u, err := m.users.GetByID(loadCtx, claims.UserID)

		if err != nil {
			abortWithError(c, apperr.Unauthenticated("User not found!"))
			return
		}

		setIdentity(c, Identity{
			ID:      u.ID,
			Name:    u.Name,
			Email:   u.Email,
			IsAdmin: u.IsAdmin,
		})

		c.Next()
	}
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
