package http

import (
	"github.com/fyrsmithlabs/cartd/internal/catalog"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	Persistence string `json:"persistence"`
}

// CatalogResponse is the response body for GET /api/v1/catalog.
type CatalogResponse struct {
	Currency string         `json:"currency"`
	Items    []catalog.Item `json:"items"`
}

// AddItemRequest is the request body for POST /api/v1/cart/items.
type AddItemRequest struct {
	ItemID int `json:"item_id"`
}
