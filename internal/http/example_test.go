package http_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/cartd/internal/cart"
	"github.com/fyrsmithlabs/cartd/internal/cartview"
	"github.com/fyrsmithlabs/cartd/internal/catalog"
	httpserver "github.com/fyrsmithlabs/cartd/internal/http"
	"github.com/fyrsmithlabs/cartd/internal/storage"
)

// ExampleServer wires a server over an in-memory cart and adds an item.
func ExampleServer() {
	logger := zap.NewNop()

	store, err := cart.New(nil, catalog.Default(), storage.NewMemory(), logger)
	if err != nil {
		panic(err)
	}
	view, err := cartview.New(store)
	if err != nil {
		panic(err)
	}
	server, err := httpserver.NewServer(view, logger, nil)
	if err != nil {
		panic(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"item_id":2}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	var doc cartview.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		panic(err)
	}
	fmt.Println(rec.Code)
	fmt.Println(doc.Summary)
	// Output:
	// 200
	// 1 item(s) • Total: ₹499
	// Joint Care Capsules x 1 — ₹499
}
