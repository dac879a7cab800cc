package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/madialex/accounthub/internal/apperr"
)

// RequireAdmin gates on the identity attached by RequireAuth. A missing
// identity (the gate ran without auth) fails closed the same way as a
// non-admin caller.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFromContext(c)

		if !ok || !id.IsAdmin {
			abortWithError(c, apperr.Forbidden("you are not authorized to perform this operation!"))
			return
		}
		c.Next()
	}
}
