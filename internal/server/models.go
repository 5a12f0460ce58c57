package server

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/wendylzh6/youtube-chat-ai/internal/agent"
)

// HTTPError is the JSON error envelope the unified error handler emits.
type HTTPError struct {
	Error string `json:"error"`
}

type AuthSignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// IngestRequest is the streaming ingestion payload. MaxVideos is declared
// loose on purpose: callers send numbers, numeric strings or garbage, and
// anything unusable falls back to the default limit.
type IngestRequest struct {
	URL       string          `json:"url"`
	MaxVideos json.RawMessage `json:"maxVideos,omitempty"`
}

// MaxVideosInt coerces the raw maxVideos value; 0 means "not provided".
func (r IngestRequest) MaxVideosInt() int {
	if len(r.MaxVideos) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(r.MaxVideos, &n); err == nil {
		return int(n)
	}
	var s string
	if err := json.Unmarshal(r.MaxVideos, &s); err == nil {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return 0
}

type ChannelResponse struct {
	ID             string     `json:"id"`
	URL            string     `json:"url"`
	Title          string     `json:"title"`
	RefreshCron    string     `json:"refresh_cron,omitempty"`
	LastIngestedAt *time.Time `json:"last_ingested_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type RefreshRequest struct {
	Cron string `json:"cron"`
}

type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

type ChatResponse struct {
	SessionID string                   `json:"session_id"`
	Reply     string                   `json:"reply"`
	Charts    []map[string]interface{} `json:"charts,omitempty"`
	Images    []agent.ImageArtifact    `json:"images,omitempty"`
	VideoCard map[string]interface{}   `json:"video_card,omitempty"`
	ToolCalls []agent.ToolCallRecord   `json:"tool_calls,omitempty"`
}

type SessionResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type MessageResponse struct {
	ID        string          `json:"id"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Artifacts json.RawMessage `json:"artifacts,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
