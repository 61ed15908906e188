package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rukhmanov/kwadro-backend/services"
)

type NewsHandler struct {
	news *services.NewsService
}

func NewNewsHandler(news *services.NewsService) *NewsHandler {
	return &NewsHandler{news: news}
}

func (h *NewsHandler) GetNews(c echo.Context) error {
	news, err := h.news.List()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to fetch news",
		})
	}
	return c.JSON(http.StatusOK, news)
}

func (h *NewsHandler) GetNewsByID(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	item, err := h.news.GetByID(id)
	if err != nil {
		if errors.Is(err, services.ErrNewsNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "news not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to fetch news",
		})
	}
	return c.JSON(http.StatusOK, item)
}

func (h *NewsHandler) CreateNews(c echo.Context) error {
	var in services.NewsInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	item, err := h.news.Create(in)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to create news",
		})
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *NewsHandler) UpdateNews(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	var in services.NewsInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	item, err := h.news.Update(id, in)
	if err != nil {
		if errors.Is(err, services.ErrNewsNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "news not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to update news",
		})
	}
	return c.JSON(http.StatusOK, item)
}

func (h *NewsHandler) DeleteNews(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	if err := h.news.Delete(id); err != nil {
		if errors.Is(err, services.ErrNewsNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "news not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to delete news",
		})
	}
	return c.NoContent(http.StatusNoContent)
}
