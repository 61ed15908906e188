package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rukhmanov/kwadro-backend/models"
	"github.com/rukhmanov/kwadro-backend/services"
)

type OrderHandler struct {
	orders *services.OrderService
}

func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Checkout turns the session's cart into an order.
func (h *OrderHandler) Checkout(c echo.Context) error {
	sessionID := c.Param("sessionId")
	var in services.CheckoutInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if in.Phone == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "phone is required"})
	}
	order, err := h.orders.Checkout(sessionID, in)
	if err != nil {
		if errors.Is(err, services.ErrEmptyCart) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "cart is empty"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to create order",
		})
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrders(c echo.Context) error {
	orders, err := h.orders.List()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to fetch orders",
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"orders": orders,
		"total":  len(orders),
	})
}

func (h *OrderHandler) GetOrderByID(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	order, err := h.orders.GetByID(id)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to fetch order",
		})
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateOrderStatus(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	switch req.Status {
	case models.OrderStatusNew, models.OrderStatusConfirmed, models.OrderStatusDone, models.OrderStatusCancelled:
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid status"})
	}
	order, err := h.orders.UpdateStatus(id, req.Status)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to update order",
		})
	}
	return c.JSON(http.StatusOK, order)
}
