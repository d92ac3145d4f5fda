package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/molave0524/two-phase-cooling-education-sub004/internal/http/handlers"
)

type RouterConfig struct {
	CatalogHandler   *handlers.CatalogHandler
	ComponentHandler *handlers.ComponentHandler
	CheckoutHandler  *handlers.CheckoutHandler
	AllowOrigins     []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		// Catalog
		api.POST("/products", cfg.CatalogHandler.CreateProduct)
		api.GET("/products/:id", cfg.CatalogHandler.GetProduct)
		api.GET("/products/slug/:slug", cfg.CatalogHandler.GetProductBySlug)
		api.PATCH("/products/:id", cfg.CatalogHandler.UpdateProduct)

		// Versioning & lifecycle
		api.POST("/products/:id/versions", cfg.CatalogHandler.CreateProductVersion)
		api.GET("/products/:id/in-orders", cfg.CatalogHandler.IsProductInOrders)
		api.POST("/products/:id/sunset", cfg.CatalogHandler.SunsetProduct)
		api.POST("/products/:id/discontinue", cfg.CatalogHandler.DiscontinueProduct)

		// Component graph
		api.GET("/products/:id/components", cfg.ComponentHandler.GetComponentTree)
		api.GET("/products/:id/components/price", cfg.ComponentHandler.GetComponentsPrice)
		api.POST("/products/:id/components/:componentId", cfg.ComponentHandler.AddComponent)
		api.PATCH("/products/:id/components/:componentId", cfg.ComponentHandler.UpdateComponent)
		api.DELETE("/products/:id/components/:componentId", cfg.ComponentHandler.RemoveComponent)

		// Checkout
		api.POST("/availability", cfg.CheckoutHandler.ValidateAvailability)
		api.POST("/snapshots", cfg.CheckoutHandler.PreviewSnapshots)
		api.POST("/orders", cfg.CheckoutHandler.PlaceOrder)
	}

	return router
}
