package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/solidoro/bmw-admin/internal/middleware"
)

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health     *HealthHandler
	Session    *SessionHandler
	Materials  *MaterialHandler
	Categories *CategoryHandler
	Series     *SeriesHandler
	Messages   *MessageHandler
}

// RegisterRoutes registers all routes.
func RegisterRoutes(router *gin.Engine, h *Handlers, accessMw *middleware.AccessMiddleware, bearerMw *middleware.BearerMiddleware) {
	router.GET("/v1/health", h.Health.GetHealth)
	router.POST("/v1/session/sign-out", bearerMw.Handle(), h.Session.SignOut)

	admin := router.Group("/v1/admin")
	admin.Use(accessMw.Handle())
	{
		admin.GET("/me", h.Session.Me)
		admin.GET("/shell", h.Session.GetShell)
		admin.PUT("/shell/tab", h.Session.SetTab)

		// Building materials
		admin.GET("/materials", h.Materials.ListMaterials)
		admin.POST("/materials", h.Materials.CreateMaterial)
		admin.GET("/materials/form-options", h.Materials.GetFormOptions)
		admin.GET("/materials/next-code", h.Materials.NextCode)
		admin.PUT("/materials/layout", h.Materials.SetLayout)
		admin.DELETE("/materials/selection", h.Materials.ClearSelection)
		admin.GET("/materials/:code", h.Materials.GetMaterial)
		admin.PUT("/materials/:code", h.Materials.UpdateMaterial)
		admin.DELETE("/materials/:code", h.Materials.DeleteMaterial)

		// Categories
		admin.GET("/categories", h.Categories.ListCategories)
		admin.POST("/categories", h.Categories.CreateCategory)
		admin.PUT("/categories/:id", h.Categories.UpdateCategory)
		admin.DELETE("/categories/:id", h.Categories.DeleteCategory)

		// Series
		admin.GET("/series", h.Series.ListSeries)
		admin.POST("/series", h.Series.CreateSeries)
		admin.PUT("/series/:id", h.Series.UpdateSeries)
		admin.DELETE("/series/:id", h.Series.DeleteSeries)

		// Messages
		admin.GET("/messages", h.Messages.ListMessages)
		admin.DELETE("/messages/selection", h.Messages.ClearSelection)
		admin.GET("/messages/:id", h.Messages.GetMessage)
		admin.PATCH("/messages/:id/status", h.Messages.UpdateStatus)
	}
}
