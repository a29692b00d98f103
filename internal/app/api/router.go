package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIHandlers bundles the transport handlers for the HTTP surface.
type APIHandlers struct {
	OrderAPI  OrderAPI
	StockAPI  StockAPI
	RollupAPI RollupAPI
}

// NewRouter builds the gin engine with every route attached.
func NewRouter(handlers APIHandlers) *gin.Engine {
	router := gin.Default()

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	orders := router.Group("/orders")
	{
		orders.POST("", handlers.OrderAPI.CreateOrder)
		orders.GET("", handlers.OrderAPI.ListOrders)
		orders.GET("/:orderId", handlers.OrderAPI.GetOrder)
		orders.POST("/:orderId/cancel", handlers.OrderAPI.CancelOrder)
		orders.POST("/:orderId/status", handlers.OrderAPI.AdvanceStatus)
	}

	stock := router.Group("/stock")
	{
		stock.GET("/:productId", handlers.StockAPI.GetLevel)
		stock.GET("/:productId/history", handlers.StockAPI.GetHistory)
		stock.POST("/:productId/receive", handlers.StockAPI.Receive)
		stock.POST("/:productId/adjust", handlers.StockAPI.Adjust)
	}

	rollups := router.Group("/rollups")
	{
		rollups.GET("/current", handlers.RollupAPI.GetCurrent)
		rollups.POST("/rebuild", handlers.RollupAPI.Rebuild)
	}

	return router
}
