package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/cartd/internal/cart"
	"github.com/fyrsmithlabs/cartd/internal/cartview"
)

// maxBodyBytes bounds mutation request bodies.
const maxBodyBytes = 4 << 10

// handleHealth reports liveness and whether the cart is being persisted.
func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{Status: "ok", Persistence: "ok"}
	if s.view.Render().Degraded {
		resp.Persistence = "degraded"
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCatalog(c echo.Context) error {
	return c.JSON(http.StatusOK, CatalogResponse{
		Currency: s.view.Store().Currency(),
		Items:    s.view.CatalogItems(),
	})
}

func (s *Server) handleGetCart(c echo.Context) error {
	return c.JSON(http.StatusOK, s.view.Render())
}

// handleManifest returns the plain-text order summary for form submission.
func (s *Server) handleManifest(c echo.Context) error {
	return c.String(http.StatusOK, s.view.Manifest())
}

func (s *Server) handleAddItem(c echo.Context) error {
	var req AddItemRequest
	if err := decodeBody(c, &req); err != nil {
		s.logger.Warn("invalid add item request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return s.dispatch(c, cartview.Intent{Action: cartview.ActionAdd, ItemID: req.ItemID})
}

// handleSetQuantity accepts {"quantity": 3} or {"quantity": "3"}; whatever
// the client sends is coerced by the store.
func (s *Server) handleSetQuantity(c echo.Context) error {
	var req struct {
		Quantity json.RawMessage `json:"quantity"`
	}
	if err := decodeBody(c, &req); err != nil {
		s.logger.Warn("invalid set quantity request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return s.dispatch(c, cartview.Intent{
		Action:   cartview.ActionSetQuantity,
		ItemID:   pathID(c),
		Quantity: rawQuantity(req.Quantity),
	})
}

func (s *Server) handleRemoveItem(c echo.Context) error {
	return s.dispatch(c, cartview.Intent{Action: cartview.ActionRemove, ItemID: pathID(c)})
}

func (s *Server) handleClear(c echo.Context) error {
	return s.dispatch(c, cartview.Intent{Action: cartview.ActionClear})
}

// dispatch runs intent and answers with the fresh cart. A persistence
// failure still answers 200; the document carries the degraded flag and
// warning. The mutation runs detached from the request's cancellation so a
// client hanging up cannot leave it applied but unsaved or unannounced.
func (s *Server) dispatch(c echo.Context, intent cartview.Intent) error {
	doc, err := s.view.Dispatch(context.WithoutCancel(c.Request().Context()), intent)
	if err != nil && !errors.Is(err, cart.ErrPersistence) {
		s.logger.Error("cart intent failed",
			zap.String("action", string(intent.Action)),
			zap.Error(err),
		)
		return echo.NewHTTPError(http.StatusInternalServerError, "cart update failed")
	}
	return c.JSON(http.StatusOK, doc)
}

// pathID parses the :id parameter. Anything that is not a number maps to 0,
// which matches no catalog item or cart line.
func pathID(c echo.Context) int {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0
	}
	return id
}

// rawQuantity turns a JSON string or number into the text the store parses.
func rawQuantity(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// decodeBody reads a bounded JSON body into v. An empty body leaves v untouched.
func decodeBody(c echo.Context, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes+1))
	if err != nil {
		return err
	}
	if len(body) > maxBodyBytes {
		return errors.New("request body too large")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}
