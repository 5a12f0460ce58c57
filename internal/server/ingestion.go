package server

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wendylzh6/youtube-chat-ai/internal/ingest"
	"github.com/wendylzh6/youtube-chat-ai/internal/search"
	"github.com/wendylzh6/youtube-chat-ai/internal/store"
)

const ingestCachePrefix = "ingest:cache:"

// IngestionService runs the pipeline for one channel and owns everything
// around it: result caching, persistence and transcript indexing. Both the
// SSE handler and the background scheduler go through it.
type IngestionService struct {
	Store    *store.Store
	Index    *search.Index
	Runner   *ingest.Runner
	Redis    *redis.Client
	CacheTTL time.Duration
	Logger   *log.Logger
}

// Run executes an ingestion for userID, forwarding events to emit. A fresh
// cached result short-circuits the pipeline straight to the done event.
func (s *IngestionService) Run(ctx context.Context, userID string, req ingest.Request, emit ingest.EmitFunc) error {
	if items, ok := s.cached(ctx, req); ok {
		return emit(ingest.ProgressEvent{Kind: ingest.EventDone, Items: items})
	}

	items, err := s.Runner.Run(ctx, req, emit)
	if err != nil {
		// terminal error event was already emitted by the runner
		return err
	}

	s.persist(ctx, userID, req.URL, items)
	s.cache(ctx, req, items)
	return nil
}

func (s *IngestionService) persist(ctx context.Context, userID, url string, items []ingest.VideoRecord) {
	if len(items) == 0 {
		return
	}
	channelID, err := s.Store.UpsertChannel(ctx, userID, url, "")
	if err != nil {
		s.Logger.Printf("persist channel %s: %v", url, err)
		return
	}
	for _, item := range items {
		if err := s.Store.UpsertVideo(ctx, channelID, item); err != nil {
			s.Logger.Printf("persist video %s: %v", item.ID, err)
			continue
		}
		if err := s.Index.IndexVideo(search.Document{
			VideoID:    item.ID,
			Title:      item.Title,
			URL:        item.URL,
			Transcript: item.Transcript,
		}); err != nil {
			s.Logger.Printf("index transcript %s: %v", item.ID, err)
		}
	}
	if err := s.Store.TouchChannelIngested(ctx, channelID); err != nil {
		s.Logger.Printf("touch channel %s: %v", channelID, err)
	}
}

func (s *IngestionService) cacheKey(req ingest.Request) string {
	return ingestCachePrefix + ingest.NormalizeChannelURL(req.URL, "")
}

func (s *IngestionService) cached(ctx context.Context, req ingest.Request) ([]ingest.VideoRecord, bool) {
	if s.Redis == nil {
		return nil, false
	}
	raw, err := s.Redis.Get(ctx, s.cacheKey(req)).Result()
	if err != nil {
		return nil, false
	}
	var items []ingest.VideoRecord
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, false
	}
	limit := s.Runner.ClampLimit(req.MaxVideos)
	if len(items) < limit {
		// cached run was smaller than what this caller wants
		return nil, false
	}
	return items[:limit], true
}

func (s *IngestionService) cache(ctx context.Context, req ingest.Request, items []ingest.VideoRecord) {
	if s.Redis == nil || len(items) == 0 {
		return
	}
	b, err := json.Marshal(items)
	if err != nil {
		return
	}
	ttl := s.CacheTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if err := s.Redis.Set(ctx, s.cacheKey(req), b, ttl).Err(); err != nil {
		s.Logger.Printf("cache set %s: %v", req.URL, err)
	}
}
