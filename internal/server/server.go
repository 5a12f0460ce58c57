package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wendylzh6/youtube-chat-ai/config"
	"github.com/wendylzh6/youtube-chat-ai/internal/agent"
	"github.com/wendylzh6/youtube-chat-ai/internal/ingest"
	"github.com/wendylzh6/youtube-chat-ai/internal/runtime"
	"github.com/wendylzh6/youtube-chat-ai/internal/search"
	"github.com/wendylzh6/youtube-chat-ai/internal/store"
)

// Run wires every dependency and serves the HTTP API until the process ends.
func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}

	allowOrigins := cfg.Server.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))
	if cfg.Server.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx := context.Background()

	dsn, err := cfg.Databases.Postgres.DSN()
	if err != nil {
		return err
	}
	if err := Migrate("file://migrations", dsn, "up", 0); err != nil {
		baseLogger.Printf("migrate: %v", err)
	}
	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		return err
	}

	var rdb *redis.Client
	if cfg.Databases.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Databases.Redis.Addr(),
			Password: cfg.Databases.Redis.Password,
			DB:       cfg.Databases.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			baseLogger.Printf("redis unavailable, caching and locks disabled: %v", err)
			rdb = nil
		}
	}

	idx, err := search.Open(cfg.Search.IndexPath)
	if err != nil {
		return err
	}

	jwtSecret, err := runtime.LoadJWTSecret(cfg)
	if err != nil {
		return err
	}

	runner := buildRunner(cfg)
	svc := &IngestionService{
		Store:    st,
		Index:    idx,
		Runner:   runner,
		Redis:    rdb,
		CacheTTL: cfg.Ingest.CacheTTL,
		Logger:   log.New(log.Writer(), "[INGEST] ", log.LstdFlags),
	}

	provider, err := agent.NewProvider(cfg.LLM)
	if err != nil {
		return err
	}
	toolbox := &agent.Toolbox{
		Catalog: st,
		Index:   idx,
		Images:  provider,
		Pages:   agent.NewChromePageReader(cfg.Ingest.UserAgent, cfg.Ingest.FetchTimeout),
		Logger:  log.New(log.Writer(), "[TOOLS] ", log.LstdFlags),
	}

	authH := &AuthHandler{Store: st, Secret: jwtSecret}
	authH.Register(e.Group("/api/auth"))

	api := e.Group("/api", runtime.EchoAuthMiddleware(jwtSecret))

	channelsH := &ChannelsHandler{Service: svc, Store: st}
	channelsH.Register(api.Group("/channels"))

	videosH := &VideosHandler{Store: st}
	videosH.Register(api.Group("/videos"))

	chatH := &ChatHandler{
		Store:        st,
		Provider:     provider,
		Toolbox:      toolbox,
		SystemPrompt: cfg.LLM.SystemPrompt,
		MaxRounds:    cfg.LLM.MaxToolRounds,
		Logger:       log.New(log.Writer(), "[AGENT] ", log.LstdFlags),
	}
	chatH.Register(api.Group("/chat"), api.Group("/sessions"))

	if cfg.Scheduler.Enabled {
		sched := &Scheduler{
			Store:    st,
			Service:  svc,
			Redis:    rdb,
			Interval: cfg.Scheduler.TickInterval,
			Logger:   log.New(log.Writer(), "[SCHED] ", log.LstdFlags),
			Stop:     make(chan struct{}),
		}
		sched.Start()
		defer close(sched.Stop)
	}

	return e.Start(cfg.Server.Address)
}

// buildRunner assembles the ingestion pipeline out of config.
func buildRunner(cfg *config.Config) *ingest.Runner {
	var fetcher ingest.PageFetcher
	switch cfg.Ingest.FetcherType {
	case "chromedp":
		fetcher = ingest.NewBrowserFetcher(cfg.Ingest.UserAgent, cfg.Ingest.ListingPath, cfg.Ingest.FetchTimeout)
	default:
		fetcher = ingest.NewHTTPFetcher(cfg.Ingest.UserAgent, cfg.Ingest.AcceptLanguage, cfg.Ingest.ListingPath, cfg.Ingest.FetchTimeout)
	}
	enricher := &ingest.Enricher{
		Info:       ingest.NewInnertubeClient(cfg.Ingest.UserAgent, cfg.Ingest.FetchTimeout),
		Transcript: ingest.NewCommandTranscriptFetcher(cfg.Ingest.TranscriptCommand, cfg.Ingest.TranscriptTimeout, cfg.Ingest.TranscriptDir),
		Logger:     log.New(log.Writer(), "[ENRICH] ", log.LstdFlags),
	}
	return &ingest.Runner{
		Fetcher:      fetcher,
		Enricher:     enricher,
		Logger:       log.New(log.Writer(), "[INGEST] ", log.LstdFlags),
		DefaultLimit: cfg.Ingest.DefaultMaxVideos,
		HardLimit:    cfg.Ingest.HardMaxVideos,
	}
}
