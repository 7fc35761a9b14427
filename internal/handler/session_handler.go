package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/solidoro/bmw-admin/internal/access"
	"github.com/solidoro/bmw-admin/internal/middleware"
	"github.com/solidoro/bmw-admin/internal/models"
	"github.com/solidoro/bmw-admin/internal/service"
	"github.com/solidoro/bmw-admin/internal/utils"
	"github.com/solidoro/bmw-admin/internal/workspace"
)

// SessionHandler exposes the signed-in identity, the shell state and
// sign-out.
type SessionHandler struct {
	guard    *access.Guard
	registry *workspace.Registry
	shell    *service.ShellService
}

// NewSessionHandler constructs a SessionHandler.
func NewSessionHandler(guard *access.Guard, registry *workspace.Registry, shell *service.ShellService) *SessionHandler {
	return &SessionHandler{guard: guard, registry: registry, shell: shell}
}

// Me handles GET /v1/admin/me and echoes the identity the upstream returned.
func (h *SessionHandler) Me(c *gin.Context) {
	id := middleware.GetIdentity(c)
	if id == nil {
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Identity unavailable")
		return
	}
	if len(id.Raw) > 0 {
		utils.Success(c, http.StatusOK, "Identity retrieved", json.RawMessage(id.Raw))
		return
	}
	utils.Success(c, http.StatusOK, "Identity retrieved", id)
}

type shellState struct {
	ActiveTab models.Tab   `json:"activeTab"`
	Tabs      []models.Tab `json:"tabs"`
	Role      string       `json:"role"`
	Email     string       `json:"email,omitempty"`
	Stamp     int64        `json:"stamp"`
}

// GetShell handles GET /v1/admin/shell
func (h *SessionHandler) GetShell(c *gin.Context) {
	ws, ok := workspaceOf(c)
	if !ok {
		return
	}
	state := shellState{
		ActiveTab: h.shell.ActiveTab(c.Request.Context(), ws.Subject),
		Tabs:      models.Tabs,
		Stamp:     ws.Stamp.Value(),
	}
	if id := middleware.GetIdentity(c); id != nil {
		state.Role, state.Email = id.Role, id.Email
	}
	utils.Success(c, http.StatusOK, "Shell retrieved", state)
}

type tabRequest struct {
	Tab string `json:"tab" binding:"required"`
}

// SetTab handles PUT /v1/admin/shell/tab
// Opening the materials tab reloads the upload form's pickers.
func (h *SessionHandler) SetTab(c *gin.Context) {
	ws, ok := workspaceOf(c)
	if !ok {
		return
	}
	var req tabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "tab is required")
		return
	}
	tab := models.Tab(req.Tab)
	if err := h.shell.Activate(c.Request.Context(), ws.Subject, tab); err != nil {
		if _, ok := service.IsValidation(err); ok {
			respondError(c, err, "")
			return
		}
		// The tab still switches for this session; only persistence failed.
		log.Warn().Err(err).Str("subject", ws.Subject).Msg("Failed to persist active tab")
	}
	if tab == models.TabMaterials {
		_, _ = ws.Upload.Reload(c.Request.Context())
	}
	utils.Success(c, http.StatusOK, "Tab activated", gin.H{"activeTab": tab})
}

// SignOut handles POST /v1/session/sign-out
// It needs only a bearer token so refused sessions can still leave.
func (h *SessionHandler) SignOut(c *gin.Context) {
	token := c.GetString("token")
	subject := h.guard.SubjectOf(c.Request.Context(), token)
	h.guard.Forget(c.Request.Context(), token)
	dropped := h.registry.Drop(subject)
	log.Info().Str("subject", subject).Bool("workspace_dropped", dropped).Msg("Session signed out")
	utils.Success(c, http.StatusOK, "Signed out", gin.H{"signedOut": true})
}
