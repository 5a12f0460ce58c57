package server

import (
	"context"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"

	"github.com/wendylzh6/youtube-chat-ai/internal/ingest"
	"github.com/wendylzh6/youtube-chat-ai/internal/store"
)

const schedulerLockPrefix = "sched:lock:"

// Scheduler re-ingests channels that carry a refresh schedule. A redis lock
// per channel keeps concurrent replicas from refreshing the same channel.
type Scheduler struct {
	Store    *store.Store
	Service  *IngestionService
	Redis    *redis.Client
	Interval time.Duration
	Logger   *log.Logger
	Stop     chan struct{}
}

func (s *Scheduler) Start() {
	if s.Interval <= 0 {
		s.Interval = time.Minute
	}
	go s.loop()
}

func (s *Scheduler) loop() {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.Stop:
			return
		case <-ticker.C:
			s.tick(context.Background())
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	channels, err := s.Store.ListRefreshableChannels(ctx)
	if err != nil {
		s.Logger.Printf("list refreshable channels: %v", err)
		return
	}
	now := time.Now()
	for _, ch := range channels {
		if !due(ch, now) {
			continue
		}
		if !s.acquireLock(ctx, ch.ID) {
			continue
		}
		s.refresh(ctx, ch)
	}
}

// due reports whether the channel's next scheduled refresh, counted from the
// last ingestion, has passed.
func due(ch store.Channel, now time.Time) bool {
	if ch.LastIngestedAt == nil {
		return true
	}
	last := *ch.LastIngestedAt
	switch ch.RefreshCron {
	case "@hourly":
		return now.Sub(last) >= time.Hour
	case "@daily":
		return now.Sub(last) >= 24*time.Hour
	}
	expr, err := cronexpr.Parse(ch.RefreshCron)
	if err != nil {
		return false
	}
	next := expr.Next(last)
	return !next.IsZero() && !next.After(now)
}

func (s *Scheduler) acquireLock(ctx context.Context, channelID string) bool {
	if s.Redis == nil {
		return true
	}
	ok, err := s.Redis.SetNX(ctx, schedulerLockPrefix+channelID, "1", s.Interval).Result()
	if err != nil {
		s.Logger.Printf("scheduler lock %s: %v", channelID, err)
		return false
	}
	return ok
}

func (s *Scheduler) refresh(ctx context.Context, ch store.Channel) {
	s.Logger.Printf("refreshing channel %s (%s)", ch.ID, ch.URL)
	req := ingest.Request{URL: ch.URL}
	err := s.Service.Run(ctx, ch.UserID, req, func(ingest.ProgressEvent) error { return nil })
	if err != nil {
		s.Logger.Printf("refresh %s: %v", ch.URL, err)
		return
	}
	s.Logger.Printf("refreshed channel %s", ch.URL)
}
