package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/solidoro/bmw-admin/internal/service"
	"github.com/solidoro/bmw-admin/internal/utils"
)

// CategoryHandler handles the category editor.
type CategoryHandler struct {
	maxUpload int64
}

// NewCategoryHandler constructs a CategoryHandler.
func NewCategoryHandler(maxUpload int64) *CategoryHandler {
	return &CategoryHandler{maxUpload: maxUpload}
}

// ListCategories handles GET /v1/admin/categories
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	ws, ok := workspaceOf(c)
	if !ok {
		return
	}
	_ = ws.Categories.Refresh(c.Request.Context())
	utils.Success(c, http.StatusOK, "Categories retrieved", ws.Categories.View())
}

// CreateCategory handles POST /v1/admin/categories
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
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

	if err := ws.Categories.Create(c.Request.Context(), d); err != nil {
		respondError(c, err, "Failed to save category")
		return
	}
	utils.Success(c, http.StatusCreated, "Category created", ws.Categories.View())
}

// UpdateCategory handles PUT /v1/admin/categories/:id
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
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

	if err := ws.Categories.Update(c.Request.Context(), id, d); err != nil {
		respondError(c, err, "Failed to save category")
		return
	}
	utils.Success(c, http.StatusOK, "Category updated", ws.Categories.View())
}

// DeleteCategory handles DELETE /v1/admin/categories/:id?confirm=true
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	ws, ok := workspaceOf(c)
	if !ok {
		return
	}
	id, ok := intParam(c, "id")
	if !ok || !requireConfirmation(c) {
		return
	}
	if err := ws.Categories.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete category")
		return
	}
	utils.Success(c, http.StatusOK, "Category deleted", ws.Categories.View())
}

func (h *CategoryHandler) draft(c *gin.Context) (*service.CategoryDraft, func(), error) {
	form, err := parseMultipart(c, h.maxUpload)
	if err != nil {
		return nil, func() {}, err
	}
	cleanup := func() { _ = form.RemoveAll() }
	image, err := formFile(form, "image")
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return &service.CategoryDraft{
		Category:    formValue(form, "category"),
		Description: formValue(form, "description"),
		Prefix:      formValue(form, "prefix"),
		Image:       image,
	}, cleanup, nil
}
