package api

import (
	"time"

	"github.com/shopspring/decimal"

	inventorydomain "github.com/northmart/go-order-processing/internal/domains/inventory/domain"
	ordersdomain "github.com/northmart/go-order-processing/internal/domains/orders/domain"
	ordersports "github.com/northmart/go-order-processing/internal/domains/orders/ports"
	rollupdomain "github.com/northmart/go-order-processing/internal/domains/rollup/domain"
)

type shippingPayload struct {
	Recipient  string `json:"recipient"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type orderLinePayload struct {
	ProductID int64           `json:"productId"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Discount  decimal.Decimal `json:"discount"`
}

type createOrderRequest struct {
	UserID        int64              `json:"userId"`
	Items         []orderLinePayload `json:"items"`
	Shipping      shippingPayload    `json:"shipping"`
	PaymentMethod string             `json:"paymentMethod"`
}

type cancelOrderRequest struct {
	Reason      string `json:"reason"`
	CancelledBy *int64 `json:"cancelledBy,omitempty"`
}

type advanceStatusRequest struct {
	Status string `json:"status"`
}

type orderItemResponse struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"productId"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Discount  decimal.Decimal `json:"discount"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type orderResponse struct {
	ID            int64               `json:"id"`
	UserID        int64               `json:"userId"`
	Status        string              `json:"status"`
	Items         []orderItemResponse `json:"items"`
	Total         decimal.Decimal     `json:"total"`
	Shipping      shippingPayload     `json:"shipping"`
	PaymentMethod string              `json:"paymentMethod,omitempty"`
	CancelReason  string              `json:"cancelReason,omitempty"`
	CancelledBy   *int64              `json:"cancelledBy,omitempty"`
	CancelledAt   *time.Time          `json:"cancelledAt,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

func toCreateCommand(req createOrderRequest) ordersports.CreateOrderCommand {
	lines := make([]ordersports.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, ordersports.OrderLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Discount:  item.Discount,
		})
	}
	return ordersports.CreateOrderCommand{
		UserID: req.UserID,
		Items:  lines,
		Shipping: ordersdomain.ShippingAddress{
			Recipient:  req.Shipping.Recipient,
			Line1:      req.Shipping.Line1,
			Line2:      req.Shipping.Line2,
			City:       req.Shipping.City,
			Region:     req.Shipping.Region,
			PostalCode: req.Shipping.PostalCode,
			Country:    req.Shipping.Country,
		},
		PaymentMethod: req.PaymentMethod,
	}
}

func fromOrder(order *ordersdomain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Discount:  item.Discount,
			LineTotal: item.LineTotal(),
		})
	}
	return orderResponse{
		ID:     order.ID,
		UserID: order.UserID,
		Status: string(order.Status),
		Items:  items,
		Total:  order.Total,
		Shipping: shippingPayload{
			Recipient:  order.Shipping.Recipient,
			Line1:      order.Shipping.Line1,
			Line2:      order.Shipping.Line2,
			City:       order.Shipping.City,
			Region:     order.Shipping.Region,
			PostalCode: order.Shipping.PostalCode,
			Country:    order.Shipping.Country,
		},
		PaymentMethod: order.PaymentMethod,
		CancelReason:  order.CancelReason,
		CancelledBy:   order.CancelledBy,
		CancelledAt:   order.CancelledAt,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
}

func fromOrderList(orders []*ordersdomain.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		out = append(out, fromOrder(order))
	}
	return out
}

type receiveStockRequest struct {
	Quantity int64  `json:"quantity"`
	UserID   *int64 `json:"userId,omitempty"`
}

type adjustStockRequest struct {
	NewQuantity     int64  `json:"newQuantity"`
	ExpectedVersion int64  `json:"expectedVersion"`
	UserID          *int64 `json:"userId,omitempty"`
}

type stockLevelResponse struct {
	ProductID int64 `json:"productId"`
	Available int64 `json:"available"`
	Version   int64 `json:"version"`
}

type ledgerEntryResponse struct {
	ID             int64     `json:"id"`
	ProductID      int64     `json:"productId"`
	QuantityBefore int64     `json:"quantityBefore"`
	QuantityAfter  int64     `json:"quantityAfter"`
	Kind           string    `json:"kind"`
	OrderID        *int64    `json:"orderId,omitempty"`
	UserID         *int64    `json:"userId,omitempty"`
	RecordedAt     time.Time `json:"recordedAt"`
}

type stockReceiptResponse struct {
	Level stockLevelResponse  `json:"level"`
	Entry ledgerEntryResponse `json:"entry"`
}

func fromStockLevel(level *inventorydomain.StockLevel) stockLevelResponse {
	return stockLevelResponse{
		ProductID: level.ProductID,
		Available: level.Available,
		Version:   level.Version,
	}
}

func fromLedgerEntry(entry *inventorydomain.LedgerEntry) ledgerEntryResponse {
	return ledgerEntryResponse{
		ID:             entry.ID,
		ProductID:      entry.ProductID,
		QuantityBefore: entry.QuantityBefore,
		QuantityAfter:  entry.QuantityAfter,
		Kind:           string(entry.Kind),
		OrderID:        entry.OrderID,
		UserID:         entry.UserID,
		RecordedAt:     entry.RecordedAt,
	}
}

func fromLedgerEntries(entries []*inventorydomain.LedgerEntry) []ledgerEntryResponse {
	out := make([]ledgerEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, fromLedgerEntry(entry))
	}
	return out
}

type totalsPayload struct {
	GrossValue    decimal.Decimal `json:"grossValue"`
	OrderCount    int64           `json:"orderCount"`
	CustomerCount int64           `json:"customerCount"`
	AverageTicket decimal.Decimal `json:"averageTicket"`
}

type dailyRollupResponse struct {
	Day string `json:"day"`
	totalsPayload
}

type categoryRollupResponse struct {
	CategoryID   *int64 `json:"categoryId,omitempty"`
	CategoryName string `json:"categoryName,omitempty"`
	totalsPayload
}

type rollupResponse struct {
	Generation  string                   `json:"generation"`
	WindowStart time.Time                `json:"windowStart"`
	WindowEnd   time.Time                `json:"windowEnd"`
	BuiltAt     time.Time                `json:"builtAt"`
	Daily       []dailyRollupResponse    `json:"daily"`
	Categories  []categoryRollupResponse `json:"categories"`
}

func fromSnapshot(snapshot *rollupdomain.Snapshot) rollupResponse {
	resp := rollupResponse{
		Generation:  snapshot.Generation.String(),
		WindowStart: snapshot.WindowStart,
		WindowEnd:   snapshot.WindowEnd,
		BuiltAt:     snapshot.BuiltAt,
		Daily:       make([]dailyRollupResponse, 0, len(snapshot.Daily)),
		Categories:  make([]categoryRollupResponse, 0, len(snapshot.Categories)),
	}
	for _, day := range snapshot.Daily {
		resp.Daily = append(resp.Daily, dailyRollupResponse{
			Day: day.Day.Format("2006-01-02"),
			totalsPayload: totalsPayload{
				GrossValue:    day.GrossValue,
				OrderCount:    day.OrderCount,
				CustomerCount: day.CustomerCount,
				AverageTicket: day.AverageTicket,
			},
		})
	}
	for _, category := range snapshot.Categories {
		resp.Categories = append(resp.Categories, categoryRollupResponse{
			CategoryID:   category.CategoryID,
			CategoryName: category.CategoryName,
			totalsPayload: totalsPayload{
				GrossValue:    category.GrossValue,
				OrderCount:    category.OrderCount,
				CustomerCount: category.CustomerCount,
				AverageTicket: category.AverageTicket,
			},
		})
	}
	return resp
}
