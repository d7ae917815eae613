package routes

import (
	"catalog-admin/backend"
	"catalog-admin/handlers"
	"catalog-admin/middleware"
	"catalog-admin/sessions"

	"github.com/gin-gonic/gin"
)

// Deps are the services the routes are wired to.
type Deps struct {
	Store         *sessions.DraftStore
	Backend       backend.Backend
	MaxImages     int
	UploadLimiter *middleware.RateLimiter
}

func SetupRoutes(r *gin.Engine, deps Deps) {
	// Initialize handlers
	draftHandler := &handlers.DraftHandler{
		Store:     deps.Store,
		Backend:   deps.Backend,
		MaxImages: deps.MaxImages,
	}

	uploadHandlers := []gin.HandlerFunc{draftHandler.UploadImages}
	if deps.UploadLimiter != nil {
		uploadHandlers = append([]gin.HandlerFunc{deps.UploadLimiter.Middleware()}, uploadHandlers...)
	}

	// Catalog editing routes (require admin or catalog editor role)
	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.CatalogEditorMiddleware())
	{
		// Sessions
		admin.POST("/drafts", draftHandler.CreateDraft)
		admin.POST("/drafts/products/:productId", draftHandler.OpenProduct)
		admin.GET("/drafts/:id", draftHandler.GetDraft)
		admin.DELETE("/drafts/:id", draftHandler.DiscardDraft)
		admin.PATCH("/drafts/:id", draftHandler.UpdateProduct)

		// Variants and sizes
		admin.POST("/drafts/:id/variants", draftHandler.AddVariant)
		admin.PATCH("/drafts/:id/variants/:vi", draftHandler.UpdateVariant)
		admin.DELETE("/drafts/:id/variants/:vi", draftHandler.RemoveVariant)
		admin.POST("/drafts/:id/variants/:vi/sizes", draftHandler.AddSize)
		admin.PATCH("/drafts/:id/variants/:vi/sizes/:si", draftHandler.UpdateSize)
		admin.DELETE("/drafts/:id/variants/:vi/sizes/:si", draftHandler.RemoveSize)

		// Images
		admin.POST("/drafts/:id/variants/:vi/images", draftHandler.AddImageURL)
		admin.POST("/drafts/:id/variants/:vi/images/upload", uploadHandlers...)
		admin.POST("/drafts/:id/variants/:vi/images/reorder", draftHandler.ReorderImages)
		admin.DELETE("/drafts/:id/variants/:vi/images/:imageId", draftHandler.RemoveImage)
		admin.PATCH("/drafts/:id/variants/:vi/images/:imageId", draftHandler.UpdateImage)
		admin.PUT("/drafts/:id/variants/:vi/images/:imageId/primary", draftHandler.SetPrimaryImage)

		// Validation, submit and notices
		admin.GET("/drafts/:id/errors", draftHandler.GetErrors)
		admin.POST("/drafts/:id/validate", draftHandler.ValidateDraft)
		admin.POST("/drafts/:id/submit", draftHandler.SubmitDraft)
		admin.GET("/drafts/:id/notices", draftHandler.GetNotices)
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "drafts": deps.Store.Len()})
	})
}
