package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cleservice/backend/config"
)

// SetupRouter creates and configures the Gin router. realtime serves the
// order websocket and may be nil.
func SetupRouter(cfg *config.Config, handler *Handler, realtime gin.HandlerFunc) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check and metrics endpoints
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if realtime != nil {
		router.GET("/ws/orders", realtime)
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP, cfg.RateLimit.Burst))
	{
		// Catalog endpoints
		keys := v1.Group("/produit/cles")
		{
			keys.GET("", handler.ListByBrand)
			keys.GET("/by-name", handler.GetByName)
			keys.GET("/best-by-name", handler.GetBestByName)
			keys.GET("/search", handler.SearchByName)
			keys.GET("/all", handler.ListAll)
			keys.GET("/count", handler.Count)
			keys.GET("/index/:index", handler.GetByIndex)
			keys.GET("/brand/:brand/count", handler.CountByBrand)
			keys.GET("/brand/:brand/index/:index", handler.GetByIndex)
			keys.POST("/add", handler.AddKey)
			keys.POST("/add-many", handler.AddKeys)
			keys.PUT("/update", handler.UpdateKey)
			keys.DELETE("/delete", handler.DeleteKey)
		}

		// Order endpoints
		orders := v1.Group("/commande")
		{
			orders.POST("/create", handler.CreateOrder)
			orders.PATCH("/validate/:numero", handler.ValidateOrder)
			orders.GET("/paid", handler.ListPaidOrders)
			orders.DELETE("/cancel/:numero", handler.CancelOrder)
			orders.GET("/:numero", handler.GetOrder)
			orders.PUT("/update/:numero", handler.UpdateOrder)
		}
	}

	return router
}
