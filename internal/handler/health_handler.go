package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/solidoro/bmw-admin/internal/utils"
)

var startTime = time.Now()

// Pinger is a dependency whose reachability is reported by the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WorkspaceCounter reports how many sessions hold state.
type WorkspaceCounter interface {
	Len() int
}

// HealthHandler provides health endpoint.
type HealthHandler struct {
	deps       map[string]Pinger
	workspaces WorkspaceCounter
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(deps map[string]Pinger, workspaces WorkspaceCounter) *HealthHandler {
	return &HealthHandler{deps: deps, workspaces: workspaces}
}

// GetHealth responds with service and dependency status.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "healthy"
	deps := gin.H{}
	for _, name := range names {
		if err := h.deps[name].Ping(ctx); err != nil {
			deps[name] = "disconnected"
			status = "degraded"
			continue
		}
		deps[name] = "connected"
	}

	utils.Success(c, http.StatusOK, "Service is "+status, gin.H{
		"status":       status,
		"version":      "1.0.0",
		"uptime":       int(time.Since(startTime).Seconds()),
		"dependencies": deps,
		"workspaces":   h.workspaces.Len(),
	})
}
