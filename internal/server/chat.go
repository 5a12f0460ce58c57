package server

import (
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wendylzh6/youtube-chat-ai/internal/agent"
	"github.com/wendylzh6/youtube-chat-ai/internal/store"
)

var chatTracer trace.Tracer = otel.Tracer("youtube-chat-ai/internal/server/chat")

// ChatHandler drives the tool-orchestration loop for one user message and
// persists the resulting turn.
type ChatHandler struct {
	Store        *store.Store
	Provider     agent.LLMProvider
	Toolbox      *agent.Toolbox
	SystemPrompt string
	MaxRounds    int
	Logger       *log.Logger
}

func (h *ChatHandler) Register(chat *echo.Group, sessions *echo.Group) {
	chat.POST("", h.chat)
	sessions.POST("", h.createSession)
	sessions.GET("", h.listSessions)
	sessions.GET("/:id/messages", h.listMessages)
}

func (h *ChatHandler) chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message required")
	}
	userID, _ := c.Get("user_id").(string)

	ctx, span := chatTracer.Start(c.Request().Context(), "ChatHandler.chat")
	defer span.End()

	sessionID := req.SessionID
	if sessionID == "" {
		title := req.Message
		if len(title) > 80 {
			title = title[:80]
		}
		id, err := h.Store.CreateSession(ctx, userID, title)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		sessionID = id
	} else if _, err := h.Store.GetSession(ctx, sessionID, userID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}

	messages, err := h.Store.ListMessages(ctx, sessionID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	history := make([]agent.Turn, 0, len(messages))
	for _, m := range messages {
		history = append(history, agent.Turn{Role: m.Role, Text: m.Content})
	}

	loop := &agent.Loop{
		Provider:     h.Provider,
		Tools:        h.Toolbox.Declarations(),
		Execute:      h.Toolbox.Execute,
		SystemPrompt: h.SystemPrompt,
		MaxRounds:    h.MaxRounds,
		Logger:       h.Logger,
	}
	result, err := loop.Run(ctx, history, req.Message)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	if _, err := h.Store.AppendMessage(ctx, sessionID, "user", req.Message, nil); err != nil {
		h.Logger.Printf("persist user message: %v", err)
	}

	var videoCard map[string]interface{}
	if len(result.VideoCards) > 0 {
		videoCard = result.VideoCards[0]
	}
	artifacts := map[string]interface{}{}
	if len(result.Charts) > 0 {
		artifacts["charts"] = result.Charts
	}
	if len(result.Images) > 0 {
		artifacts["images"] = result.Images
	}
	if videoCard != nil {
		artifacts["video_card"] = videoCard
	}
	msgID, err := h.Store.AppendMessage(ctx, sessionID, "model", result.Text, artifacts)
	if err != nil {
		h.Logger.Printf("persist model message: %v", err)
	} else {
		for _, call := range result.ToolCalls {
			if err := h.Store.RecordToolCall(ctx, msgID, call.Tool, call.Args, string(call.Kind)); err != nil {
				h.Logger.Printf("persist tool call %s: %v", call.Tool, err)
			}
		}
	}

	return c.JSON(http.StatusOK, ChatResponse{
		SessionID: sessionID,
		Reply:     result.Text,
		Charts:    result.Charts,
		Images:    result.Images,
		VideoCard: videoCard,
		ToolCalls: result.ToolCalls,
	})
}

func (h *ChatHandler) createSession(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	var body struct {
		Title string `json:"title"`
	}
	_ = c.Bind(&body)
	id, err := h.Store.CreateSession(c.Request().Context(), userID, body.Title)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, map[string]string{"id": id})
}

func (h *ChatHandler) listSessions(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	sessions, err := h.Store.ListSessions(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionResponse{ID: s.ID, Title: s.Title, CreatedAt: s.CreatedAt})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ChatHandler) listMessages(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	ctx := c.Request().Context()
	if _, err := h.Store.GetSession(ctx, c.Param("id"), userID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	messages, err := h.Store.ListMessages(ctx, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, MessageResponse{
			ID: m.ID, Role: m.Role, Content: m.Content,
			Artifacts: m.Artifacts, CreatedAt: m.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}
