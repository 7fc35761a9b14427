package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/solidoro/bmw-admin/internal/service"
	"github.com/solidoro/bmw-admin/internal/utils"
	"github.com/solidoro/bmw-admin/internal/workspace"
)

// MaterialHandler handles the building materials screens.
type MaterialHandler struct {
	maxUpload int64
}

// NewMaterialHandler constructs a MaterialHandler accepting uploads up to
// maxUpload bytes per request.
func NewMaterialHandler(maxUpload int64) *MaterialHandler {
	return &MaterialHandler{maxUpload: maxUpload}
}

// ListMaterials handles GET /v1/admin/materials
// Query parameters that are present replace the stored filter. A new
// category clears the stored series unless series is also given.
func (h *MaterialHandler) ListMaterials(c *gin.Context) {
	ws, ok := workspaceOf(c)
	if !ok {
		return
	}

	var change workspace.FilterChange
	if v, ok := c.GetQuery("category"); ok {
		change.Category = &v
	}
	if v, ok := c.GetQuery("series"); ok {
		change.Series = &v
	}
	if v, ok := c.GetQuery("search"); ok {
		change.Search = &v
	}

	if v := c.Query("layout"); v != "" {
		layout, err := workspace.ParseLayout(v)
		if err != nil {
			respondError(c, err, "")
			return
		}
		ws.Materials.SetLayout(layout)
	}

	// A failed refresh still answers with the stale list and its error.
	_ = ws.Materials.Refresh(c.Request.Context())
	ws.Materials.ChangeFilter(change)
	utils.Success(c, http.StatusOK, "Materials retrieved", ws.Materials.View())
}

// GetMaterial handles GET /v1/admin/materials/:code and opens its detail view.
func (h *MaterialHandler) GetMaterial(c *gin.Context) {
	ws, ok := workspaceOf(c)
	if !ok {
		return
	}
	code := c.Param("code")
	m, err := ws.Materials.Select(code)
	if err != nil {
		if rerr := ws.Materials.Refresh(c.Request.Context()); rerr != nil {
			respondError(c, rerr, "Failed to fetch materials")
			return
		}
		if m, err = ws.Materials.Select(code); err != nil {
			respondError(c, err, "")
			return
		}
	}
	utils.Success(c, http.StatusOK, "Material retrieved", m)
}

// ClearSelection handles DELETE /v1/admin/materials/selection
func (h *MaterialHandler) ClearSelection(c *gin.Context) {
	ws, ok := workspaceOf(c)
	if !ok {
		return
	}
	ws.Materials.ClearSelection()
	utils.Success(c, http.StatusOK, "Selection cleared", nil)
}

type layoutRequest struct {
	Layout string `json:"layout" binding:"required"`
}

// SetLayout handles PUT /v1/admin/materials/layout
func (h *MaterialHandler) SetLayout(c *gin.Context) {
	ws, ok := workspaceOf(c)
	if !ok {
		return
	}
	var req layoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "layout is required")
		return
	}
	layout, err := workspace.ParseLayout(req.Layout)
	if err != nil {
		respondError(c, err, "")
		return
	}
	ws.Materials.SetLayout(layout)
	utils.Success(c, http.StatusOK, "Layout updated", gin.H{"layout": layout})
}

// GetFormOptions handles GET /v1/admin/materials/form-options
// refresh=true forces a refetch.
func (h *MaterialHandler) GetFormOptions(c *gin.Context) {
	ws, ok := workspaceOf(c)
	if !ok {
		return
	}
	var (
		opts *service.FormOptions
		err  error
	)
	if c.Query("refresh") == "true" {
		opts, err = ws.Upload.Reload(c.Request.Context())
	} else {
		opts, err = ws.Upload.Options(c.Request.Context())
	}
	if err != nil && opts == nil {
		respondError(c, err, "Failed to fetch categories and series")
		return
	}
	utils.Success(c, http.StatusOK, "Form options retrieved", opts)
}

// NextCode handles GET /v1/admin/materials/next-code?category=
// A failed allocation answers with an empty code, leaving the field blank.
func (h *MaterialHandler) NextCode(c *gin.Context) {
	ws, ok := workspaceOf(c)
	if !ok {
		return
	}
	p, err := ws.Upload.ProposeCode(c.Request.Context(), c.Query("category"))
	if err != nil {
		utils.Success(c, http.StatusOK, "Code could not be generated", p)
		return
	}
	utils.Success(c, http.StatusOK, "Code generated", p)
}

// CreateMaterial handles POST /v1/admin/materials
func (h *MaterialHandler) CreateMaterial(c *gin.Context) {
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

	m, err := ws.Upload.Submit(c.Request.Context(), d)
	if err != nil {
		respondError(c, err, "Failed to upload material")
		return
	}
	if err := ws.Materials.Refresh(c.Request.Context()); err != nil {
		log.Warn().Err(err).Msg("Refresh after material upload failed")
	}
	utils.Success(c, http.StatusCreated, "Material uploaded successfully", m)
}

// UpdateMaterial handles PUT /v1/admin/materials/:code
func (h *MaterialHandler) UpdateMaterial(c *gin.Context) {
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

	m, err := ws.Materials.Update(c.Request.Context(), c.Param("code"), d)
	if err != nil {
		respondError(c, err, "Failed to update material")
		return
	}
	utils.Success(c, http.StatusOK, "Material updated", m)
}

// DeleteMaterial handles DELETE /v1/admin/materials/:code?confirm=true
func (h *MaterialHandler) DeleteMaterial(c *gin.Context) {
	ws, ok := workspaceOf(c)
	if !ok {
		return
	}
	if !requireConfirmation(c) {
		return
	}
	if err := ws.Materials.Delete(c.Request.Context(), c.Param("code")); err != nil {
		respondError(c, err, "Failed to delete material")
		return
	}
	utils.Success(c, http.StatusOK, "Material deleted", nil)
}

// draft reads a material form. Images may come as "image" plus "gallery"
// or as an ordered "images" list.
func (h *MaterialHandler) draft(c *gin.Context) (*service.MaterialDraft, func(), error) {
	form, err := parseMultipart(c, h.maxUpload)
	if err != nil {
		return nil, func() {}, err
	}
	cleanup := func() { _ = form.RemoveAll() }

	specs, err := formSpecs(form)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	images, err := formFiles(form, "image", "gallery", "images")
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	return &service.MaterialDraft{
		Code:        formValue(form, "code"),
		Name:        formValue(form, "name"),
		Category:    formValue(form, "category"),
		Series:      formValue(form, "series"),
		Price:       formOptional(form, "price"),
		Description: formValue(form, "description"),
		Specs:       specs,
		Images:      images,
	}, cleanup, nil
}
