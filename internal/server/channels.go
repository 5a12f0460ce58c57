package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorhill/cronexpr"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wendylzh6/youtube-chat-ai/internal/ingest"
	"github.com/wendylzh6/youtube-chat-ai/internal/store"
)

var channelsTracer trace.Tracer = otel.Tracer("youtube-chat-ai/internal/server/channels")

// ChannelsHandler serves channel ingestion and management.
type ChannelsHandler struct {
	Service *IngestionService
	Store   *store.Store
}

func (h *ChannelsHandler) Register(g *echo.Group) {
	g.POST("/ingest", h.ingest)
	g.GET("", h.list)
	g.PUT("/:id/refresh", h.setRefresh)
}

// ingest streams ingestion progress as server-sent event frames. Each frame
// is "data: <json>\n\n" with no other framing; the terminal frame is the done
// or error event.
func (h *ChannelsHandler) ingest(c echo.Context) error {
	var req IngestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.URL) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url required")
	}
	userID, _ := c.Get("user_id").(string)

	reqCtx := c.Request().Context()
	ctx, span := channelsTracer.Start(reqCtx, "ChannelsHandler.ingest")
	defer span.End()
	span.SetAttributes(attribute.String("channel_url", req.URL))

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	flusher, ok := resp.Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "streaming unsupported")
	}

	emit := func(ev ingest.ProgressEvent) error {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := resp.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	// ctx carries the client connection: a disconnect cancels the run after
	// the in-flight item
	err := h.Service.Run(ctx, userID, ingest.Request{URL: req.URL, MaxVideos: req.MaxVideosInt()}, emit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	// the error event already reached the client; nothing else to send
	return nil
}

func (h *ChannelsHandler) list(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	channels, err := h.Store.ListChannels(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := make([]ChannelResponse, 0, len(channels))
	for _, ch := range channels {
		out = append(out, ChannelResponse{
			ID:             ch.ID,
			URL:            ch.URL,
			Title:          ch.Title,
			RefreshCron:    ch.RefreshCron,
			LastIngestedAt: ch.LastIngestedAt,
			CreatedAt:      ch.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// setRefresh stores a cron spec for periodic re-ingestion. @daily and
// @hourly shortcuts are accepted alongside 5-field cron expressions.
func (h *ChannelsHandler) setRefresh(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cron := strings.TrimSpace(req.Cron)
	if cron != "" && cron != "@daily" && cron != "@hourly" {
		if _, err := cronexpr.Parse(cron); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid cron expression")
		}
	}
	userID, _ := c.Get("user_id").(string)
	if err := h.Store.SetChannelRefreshCron(c.Request().Context(), c.Param("id"), userID, cron); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "channel not found")
	}
	return c.NoContent(http.StatusOK)
}
