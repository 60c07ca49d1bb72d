package http

import (
	"github.com/gin-gonic/gin"
	"github.com/groceryscout/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(AccountMiddleware())
	{
		prices := v1.Group("/prices")
		{
			prices.POST("/search", handler.SearchPrices)
			prices.POST("/barcode", handler.SearchBarcode)
		}

		history := v1.Group("/history")
		{
			history.GET("/:product", handler.GetHistory)
			history.GET("/:product/export", handler.ExportHistory)
		}

		lists := v1.Group("/lists")
		{
			lists.GET("", handler.GetLists)
			lists.POST("", handler.CreateList)
			lists.DELETE("/:listId", handler.DeleteList)
			lists.POST("/:listId/items", handler.AddItem)
			lists.PATCH("/:listId/items/:itemId", handler.ToggleItem)
			lists.DELETE("/:listId/items/:itemId", handler.RemoveItem)
			lists.POST("/:listId/scout", handler.ScoutList)
		}
	}

	return router
}
