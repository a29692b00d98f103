package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/northmart/go-order-processing/internal/domains/orders/ports"
)

var _ ports.ProductCatalog = (*Client)(nil)

// Client resolves products against the remote catalog service. Used when the
// catalog is not replicated into the local products table.
type Client struct {
	baseURL string
	http    *http.Client
}

// New instantiates the catalog client with sane defaults.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("catalog base URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{baseURL: baseURL, http: httpClient}, nil
}

// productPayload is the catalog service's product representation.
type productPayload struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Active       bool            `json:"active"`
	Price        decimal.Decimal `json:"price"`
	CategoryID   *int64          `json:"categoryId,omitempty"`
	CategoryName string          `json:"categoryName,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// Lookup fetches one product. A catalog 404 maps to the port's not-found
// sentinel so the orchestrator treats it like a missing local row.
func (c *Client) Lookup(ctx context.Context, productID int64) (*ports.CatalogProduct, error) {
	if c == nil || c.http == nil {
		return nil, errors.New("catalog client not configured")
	}
	url := fmt.Sprintf("%s/products/%d", c.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call catalog API: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var payload productPayload
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decode catalog response: %w", err)
		}
		return &ports.CatalogProduct{
			ID:           payload.ID,
			Name:         payload.Name,
			Active:       payload.Active,
			Price:        payload.Price,
			CategoryID:   payload.CategoryID,
			CategoryName: payload.CategoryName,
		}, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, ports.ErrProductNotFound
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, fmt.Errorf("catalog API error: %s", errorMessage(resp))
	default:
		return nil, fmt.Errorf("catalog API unexpected status: %s", resp.Status)
	}
}

func errorMessage(resp *http.Response) string {
	var payload errorPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		if msg := strings.TrimSpace(payload.Message); msg != "" {
			return msg
		}
	}
	return resp.Status
}
