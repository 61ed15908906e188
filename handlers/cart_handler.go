package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rukhmanov/kwadro-backend/services"
)

type CartHandler struct {
	cart *services.CartService
}

func NewCartHandler(cart *services.CartService) *CartHandler {
	return &CartHandler{cart: cart}
}

func (h *CartHandler) GetCart(c echo.Context) error {
	sessionID := c.Param("sessionId")
	items, err := h.cart.List(sessionID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to fetch cart",
		})
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CartHandler) AddItem(c echo.Context) error {
	sessionID := c.Param("sessionId")
	var req struct {
		ProductID uint `json:"productId"`
		Quantity  int  `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil || req.ProductID == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}
	item, err := h.cart.AddItem(sessionID, req.ProductID, req.Quantity)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to add item",
		})
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil || req.Quantity <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	item, err := h.cart.UpdateQuantity(id, req.Quantity)
	if err != nil {
		if errors.Is(err, services.ErrCartItemNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "cart item not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to update item",
		})
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	if err := h.cart.RemoveItem(id); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to remove item",
		})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	sessionID := c.Param("sessionId")
	if err := h.cart.ClearCart(sessionID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to clear cart",
		})
	}
	return c.NoContent(http.StatusNoContent)
}
