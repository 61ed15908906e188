package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rukhmanov/kwadro-backend/services"
)

type ContactHandler struct {
	contacts *services.ContactService
}

func NewContactHandler(contacts *services.ContactService) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

func (h *ContactHandler) CreateRequest(c echo.Context) error {
	var in services.ContactInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if in.Phone == "" && in.Email == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "phone or email is required",
		})
	}
	request, err := h.contacts.Create(in)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to create request",
		})
	}
	return c.JSON(http.StatusCreated, request)
}

func (h *ContactHandler) GetRequests(c echo.Context) error {
	requests, err := h.contacts.List()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to fetch requests",
		})
	}
	return c.JSON(http.StatusOK, requests)
}
