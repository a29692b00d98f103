package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	inventorydomain "github.com/northmart/go-order-processing/internal/domains/inventory/domain"
	inventoryports "github.com/northmart/go-order-processing/internal/domains/inventory/ports"
)

var errInvalidLimit = errors.New("limit must be a non-negative integer")

// StockAPI wires HTTP transport with the stock controller.
type StockAPI struct {
	stock inventoryports.Controller
}

// NewStockAPI creates a StockAPI backed by the provided controller.
func NewStockAPI(stock inventoryports.Controller) StockAPI {
	return StockAPI{stock: stock}
}

// Get /stock/:productId
// Read the current stock level and version
func (api *StockAPI) GetLevel(c *gin.Context) {
	id, ok := parseIDParam(c, "productId")
	if !ok {
		return
	}
	level, err := api.stock.Level(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromStockLevel(level))
}

// Get /stock/:productId/history
// Read the movement ledger, newest first
func (api *StockAPI) GetHistory(c *gin.Context) {
	id, ok := parseIDParam(c, "productId")
	if !ok {
		return
	}
	query := inventoryports.HistoryQuery{ProductID: id}
	for _, kind := range c.QueryArray("kind") {
		for _, part := range strings.Split(kind, ",") {
			if part = strings.TrimSpace(part); part != "" {
				query.Kinds = append(query.Kinds, inventorydomain.MovementKind(part))
			}
		}
	}
	for name, dst := range map[string]*time.Time{"from": &query.From, "to": &query.To} {
		raw := strings.TrimSpace(c.Query(name))
		if raw == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondBadRequest(c, err)
			return
		}
		*dst = parsed
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondBadRequest(c, errInvalidLimit)
			return
		}
		query.Limit = limit
	}
	entries, err := api.stock.History(c.Request.Context(), query)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromLedgerEntries(entries))
}

// Post /stock/:productId/receive
// Book an inbound stock arrival
func (api *StockAPI) Receive(c *gin.Context) {
	id, ok := parseIDParam(c, "productId")
	if !ok {
		return
	}
	var req receiveStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	receipt, err := api.stock.Receive(c.Request.Context(), inventoryports.ReceiveCommand{
		ProductID: id,
		Quantity:  req.Quantity,
		UserID:    req.UserID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromReceipt(receipt))
}

// Post /stock/:productId/adjust
// Correct the available quantity under the optimistic version check
func (api *StockAPI) Adjust(c *gin.Context) {
	id, ok := parseIDParam(c, "productId")
	if !ok {
		return
	}
	var req adjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	receipt, err := api.stock.Adjust(c.Request.Context(), inventoryports.AdjustCommand{
		ProductID:       id,
		NewQuantity:     req.NewQuantity,
		ExpectedVersion: req.ExpectedVersion,
		UserID:          req.UserID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromReceipt(receipt))
}

func fromReceipt(receipt *inventoryports.StockReceipt) stockReceiptResponse {
	return stockReceiptResponse{
		Level: fromStockLevel(&receipt.Level),
		Entry: fromLedgerEntry(&receipt.Entry),
	}
}
