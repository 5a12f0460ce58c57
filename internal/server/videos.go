package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/wendylzh6/youtube-chat-ai/internal/store"
)

// VideosHandler exposes stored enriched records.
type VideosHandler struct {
	Store *store.Store
}

func (h *VideosHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.GET("/:id", h.get)
}

func (h *VideosHandler) list(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	videos, err := h.Store.ListVideos(c.Request().Context(), c.QueryParam("channel_url"), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, videos)
}

func (h *VideosHandler) get(c echo.Context) error {
	video, ok, err := h.Store.GetVideo(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "video not found")
	}
	return c.JSON(http.StatusOK, video)
}
