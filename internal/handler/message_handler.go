package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/solidoro/bmw-admin/internal/utils"
	"github.com/solidoro/bmw-admin/internal/workspace"
)

// MessageHandler handles the customer message inbox.
type MessageHandler struct{}

// NewMessageHandler constructs a MessageHandler.
func NewMessageHandler() *MessageHandler {
	return &MessageHandler{}
}

// ListMessages handles GET /v1/admin/messages
func (h *MessageHandler) ListMessages(c *gin.Context) {
	ws, ok := workspaceOf(c)
	if !ok {
		return
	}
	f := ws.Inbox.Filter()
	if v, ok := c.GetQuery("search"); ok {
		f.Search = v
	}
	if v, ok := c.GetQuery("date"); ok {
		f.Date = v
	}
	if v, ok := c.GetQuery("status"); ok {
		f.Status = workspace.StatusFilter(v)
	}
	if _, err := ws.Inbox.SetFilter(f); err != nil {
		respondError(c, err, "")
		return
	}

	_ = ws.Inbox.Refresh(c.Request.Context())
	utils.Success(c, http.StatusOK, "Messages retrieved", ws.Inbox.View())
}

// GetMessage handles GET /v1/admin/messages/:id and opens it.
func (h *MessageHandler) GetMessage(c *gin.Context) {
	ws, ok := workspaceOf(c)
	if !ok {
		return
	}
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	m, err := ws.Inbox.Select(id)
	if err != nil {
		if rerr := ws.Inbox.Refresh(c.Request.Context()); rerr != nil {
			respondError(c, rerr, "Failed to fetch messages")
			return
		}
		if m, err = ws.Inbox.Select(id); err != nil {
			respondError(c, err, "")
			return
		}
	}
	utils.Success(c, http.StatusOK, "Message retrieved", m)
}

// ClearSelection handles DELETE /v1/admin/messages/selection
func (h *MessageHandler) ClearSelection(c *gin.Context) {
	ws, ok := workspaceOf(c)
	if !ok {
		return
	}
	ws.Inbox.ClearSelection()
	utils.Success(c, http.StatusOK, "Selection cleared", nil)
}

type statusRequest struct {
	Done *bool `json:"done" binding:"required"`
}

// UpdateStatus handles PATCH /v1/admin/messages/:id/status
func (h *MessageHandler) UpdateStatus(c *gin.Context) {
	ws, ok := workspaceOf(c)
	if !ok {
		return
	}
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "done is required")
		return
	}
	m, err := ws.Inbox.SetDone(c.Request.Context(), id, *req.Done)
	if err != nil {
		respondError(c, err, "Failed to update status")
		return
	}
	utils.Success(c, http.StatusOK, "Status updated", m)
}
