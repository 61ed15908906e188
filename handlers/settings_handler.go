package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rukhmanov/kwadro-backend/services"
)

type SettingsHandler struct {
	settings *services.SettingsService
}

func NewSettingsHandler(settings *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

func (h *SettingsHandler) GetSettings(c echo.Context) error {
	settings, err := h.settings.All()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to fetch settings",
		})
	}
	return c.JSON(http.StatusOK, settings)
}

func (h *SettingsHandler) GetSetting(c echo.Context) error {
	value, err := h.settings.Get(c.Param("key"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to fetch setting",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"key":   c.Param("key"),
		"value": value,
	})
}

func (h *SettingsHandler) UpdateSetting(c echo.Context) error {
	var req struct {
		Value string `json:"value"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if err := h.settings.Set(c.Param("key"), req.Value); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to update setting",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"key":   c.Param("key"),
		"value": req.Value,
	})
}
