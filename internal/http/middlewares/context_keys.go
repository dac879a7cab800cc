package middlewares

import "github.com/gin-gonic/gin"

const (
	CtxRequestID = "request_id"
	ctxIdentity  = "auth.identity"
)

// Identity is the minimal projection of the authenticated user attached
// to the request context. Downstream handlers read it instead of poking
// at magic keys.
type Identity struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

func IdentityFromContext(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(ctxIdentity)
	if !ok {
		return Identity{}, false
	}

	id, ok := v.(Identity)
	return id, ok
}

func setIdentity(c *gin.Context, id Identity) {
	c.Set(ctxIdentity, id)
}
