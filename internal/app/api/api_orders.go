package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	ordersdomain "github.com/northmart/go-order-processing/internal/domains/orders/domain"
	ordersports "github.com/northmart/go-order-processing/internal/domains/orders/ports"
)

// OrderAPI wires HTTP transport with the order processing service.
type OrderAPI struct {
	service ordersports.Service
}

// NewOrderAPI creates an OrderAPI backed by the provided service.
func NewOrderAPI(service ordersports.Service) OrderAPI {
	return OrderAPI{service: service}
}

// Post /orders
// Place a multi-item order
func (api *OrderAPI) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	order, err := api.service.CreateOrder(c.Request.Context(), toCreateCommand(req))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fromOrder(order))
}

// Post /orders/:orderId/cancel
// Cancel an order and restore its stock
func (api *OrderAPI) CancelOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	var req cancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	order, err := api.service.CancelOrder(c.Request.Context(), ordersports.CancelOrderCommand{
		OrderID:     id,
		Reason:      req.Reason,
		CancelledBy: req.CancelledBy,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromOrder(order))
}

// Post /orders/:orderId/status
// Advance an order one step along the fulfillment chain
func (api *OrderAPI) AdvanceStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	var req advanceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	order, err := api.service.AdvanceStatus(c.Request.Context(), id, ordersdomain.Status(req.Status))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromOrder(order))
}

// Get /orders/:orderId
// Fetch one order with its items
func (api *OrderAPI) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	order, err := api.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromOrder(order))
}

// Get /orders?userId=&status=&from=&to=
// List orders by user, status set, or time range
func (api *OrderAPI) ListOrders(c *gin.Context) {
	window, ok := parseTimeRange(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if raw := strings.TrimSpace(c.Query("userId")); raw != "" {
		userID, ok := parseQueryID(c, "userId", raw)
		if !ok {
			return
		}
		orders, err := api.service.ListByUser(ctx, userID, window)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, fromOrderList(orders))
		return
	}

	if statuses := c.QueryArray("status"); len(statuses) > 0 {
		parsed := make([]ordersdomain.Status, 0, len(statuses))
		for _, status := range statuses {
			for _, part := range strings.Split(status, ",") {
				if part = strings.TrimSpace(part); part != "" {
					parsed = append(parsed, ordersdomain.Status(part))
				}
			}
		}
		orders, err := api.service.ListByStatus(ctx, parsed, window)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, fromOrderList(orders))
		return
	}

	orders, err := api.service.ListByTimeRange(ctx, window)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromOrderList(orders))
}

// parseTimeRange reads the optional RFC 3339 from/to query bounds.
func parseTimeRange(c *gin.Context) (ordersports.TimeRange, bool) {
	var window ordersports.TimeRange
	for name, dst := range map[string]*time.Time{"from": &window.From, "to": &window.To} {
		raw := strings.TrimSpace(c.Query(name))
		if raw == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondBadRequest(c, err)
			return ordersports.TimeRange{}, false
		}
		*dst = parsed
	}
	return window, true
}
