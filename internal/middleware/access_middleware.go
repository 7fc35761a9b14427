package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/solidoro/bmw-admin/internal/access"
	"github.com/solidoro/bmw-admin/internal/utils"
	"github.com/solidoro/bmw-admin/internal/workspace"
	"github.com/solidoro/bmw-admin/pkg/catalogapi"
)

// SignOutAction is the only action offered once access is refused.
const SignOutAction = "sign_out"

// AccessMiddleware admits sessions whose role the guard accepts and binds
// their workspace to the request.
type AccessMiddleware struct {
	guard       *access.Guard
	registry    *workspace.Registry
	rateLimiter *DeniedAccessRateLimiter
}

// NewAccessMiddleware constructs a new AccessMiddleware.
func NewAccessMiddleware(guard *access.Guard, registry *workspace.Registry, limiter *DeniedAccessRateLimiter) *AccessMiddleware {
	return &AccessMiddleware{guard: guard, registry: registry, rateLimiter: limiter}
}

type deniedBody struct {
	State   access.State `json:"state"`
	Actions []string     `json:"actions"`
}

// Handle returns a Gin middleware function that enforces the access check.
func (m *AccessMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		d := m.guard.Check(ctx, access.NewBearerSession(c.GetHeader("Authorization")))

		switch d.State {
		case access.StateAuthorized:
			c.Set("identity", d.Identity)
			c.Set("subject", d.Subject)
			c.Set("token", d.Token)
			c.Set("workspace", m.registry.Acquire(d.Subject))
			c.Request = c.Request.WithContext(catalogapi.WithBearer(ctx, d.Token))
			c.Next()
		case access.StateLoading:
			utils.Error(c, http.StatusServiceUnavailable, "SESSION_LOADING", "Session is still loading")
			c.Abort()
		case access.StateError:
			utils.ErrorWithData(c, http.StatusServiceUnavailable, "ACCESS_CHECK_FAILED",
				"Could not verify access. Please sign out and try again.",
				deniedBody{State: d.State, Actions: []string{SignOutAction}})
			c.Abort()
		default:
			if !m.rateLimiter.Allow(c.ClientIP()) {
				utils.Error(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many denied access attempts")
				c.Abort()
				return
			}
			utils.ErrorWithData(c, http.StatusForbidden, "ACCESS_DENIED",
				"You do not have permission to access the admin dashboard.",
				deniedBody{State: d.State, Actions: []string{SignOutAction}})
			c.Abort()
		}
	}
}

// GetWorkspace returns the workspace bound by AccessMiddleware.
func GetWorkspace(c *gin.Context) *workspace.Workspace {
	ws, _ := c.Get("workspace")
	if ws == nil {
		return nil
	}
	return ws.(*workspace.Workspace)
}

// GetIdentity returns the identity admitted by AccessMiddleware.
func GetIdentity(c *gin.Context) *catalogapi.Identity {
	id, _ := c.Get("identity")
	if id == nil {
		return nil
	}
	return id.(*catalogapi.Identity)
}
