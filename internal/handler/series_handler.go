package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/solidoro/bmw-admin/internal/service"
	"github.com/solidoro/bmw-admin/internal/utils"
)

// SeriesHandler handles the series editor.
type SeriesHandler struct {
	maxUpload int64
}

// NewSeriesHandler constructs a SeriesHandler.
func NewSeriesHandler(maxUpload int64) *SeriesHandler {
	return &SeriesHandler{maxUpload: maxUpload}
}

// ListSeries handles GET /v1/admin/series
func (h *SeriesHandler) ListSeries(c *gin.Context) {
	ws, ok := workspaceOf(c)
	if !ok {
		return
	}
	_ = ws.Series.Refresh(c.Request.Context())
	utils.Success(c, http.StatusOK, "Series retrieved", ws.Series.View())
}

// CreateSeries handles POST /v1/admin/series
func (h *SeriesHandler) CreateSeries(c *gin.Context) {
	ws, ok := workspaceOf(c)
	if !ok {
		return
	}
	d, cleanup, err := h.draft(c)
	if err != nil {
		respondError(c, err, "Failed to read upload")
		return
	}
	defer cleanup()

	if err := ws.Series.Create(c.Request.Context(), d); err != nil {
		respondError(c, err, "Failed to save series")
		return
	}
	utils.Success(c, http.StatusCreated, "Series created", ws.Series.View())
}

// UpdateSeries handles PUT /v1/admin/series/:id
func (h *SeriesHandler) UpdateSeries(c *gin.Context) {
	ws, ok := workspaceOf(c)
	if !ok {
		return
	}
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	d, cleanup, err := h.draft(c)
	if err != nil {
		respondError(c, err, "Failed to read upload")
		return
	}
	defer cleanup()

	if err := ws.Series.Update(c.Request.Context(), id, d); err != nil {
		respondError(c, err, "Failed to save series")
		return
	}
	utils.Success(c, http.StatusOK, "Series updated", ws.Series.View())
}

// DeleteSeries handles DELETE /v1/admin/series/:id?confirm=true
func (h *SeriesHandler) DeleteSeries(c *gin.Context) {
	ws, ok := workspaceOf(c)
	if !ok {
		return
	}
	id, ok := intParam(c, "id")
	if !ok || !requireConfirmation(c) {
		return
	}
	if err := ws.Series.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete series")
		return
	}
	utils.Success(c, http.StatusOK, "Series deleted", ws.Series.View())
}

func (h *SeriesHandler) draft(c *gin.Context) (*service.SeriesDraft, func(), error) {
	form, err := parseMultipart(c, h.maxUpload)
	if err != nil {
		return nil, func() {}, err
	}
	cleanup := func() { _ = form.RemoveAll() }
	pdf, err := formFile(form, "pdf")
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return &service.SeriesDraft{Name: formValue(form, "name"), PDF: pdf}, cleanup, nil
}
