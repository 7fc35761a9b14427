package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/solidoro/bmw-admin/internal/access"
	"github.com/solidoro/bmw-admin/internal/utils"
)

// BearerMiddleware only requires a bearer token. It guards routes that
// must stay reachable after access was refused, such as sign-out.
type BearerMiddleware struct{}

func NewBearerMiddleware() *BearerMiddleware {
	return &BearerMiddleware{}
}

func (m *BearerMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := access.NewBearerSession(c.GetHeader("Authorization")).Token(c.Request.Context())
		if token == "" {
			utils.Error(c, 401, "UNAUTHORIZED", "Missing or invalid authorization header")
			c.Abort()
			return
		}
		c.Set("token", token)
		c.Next()
	}
}
