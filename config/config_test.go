package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  address: ":9090"
  jwt_secret: "secret"
llm:
  api_key: "key-from-file"
  max_tool_rounds: 4
ingest:
  default_max_videos: 25
databases:
  postgres:
    host: db
    dbname: ytchat
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := LoadConfig(path)
	if cfg.Server.Address != ":9090" || cfg.Server.JWTSecret != "secret" {
		t.Fatalf("unexpected server config %+v", cfg.Server)
	}
	if cfg.LLM.APIKey != "key-from-file" || cfg.LLM.MaxToolRounds != 4 {
		t.Fatalf("unexpected llm config %+v", cfg.LLM)
	}
	if cfg.Ingest.DefaultMaxVideos != 25 {
		t.Fatalf("unexpected ingest config %+v", cfg.Ingest)
	}

	// values the file does not set keep their defaults
	if cfg.LLM.Provider != "gemini" {
		t.Fatalf("expected gemini default provider, got %q", cfg.LLM.Provider)
	}
	if cfg.Ingest.HardMaxVideos != 100 {
		t.Fatalf("expected default hard cap 100, got %d", cfg.Ingest.HardMaxVideos)
	}
	if cfg.Ingest.TranscriptTimeout != 20*time.Second {
		t.Fatalf("expected 20s transcript timeout, got %v", cfg.Ingest.TranscriptTimeout)
	}
	if cfg.Ingest.ListingPath != "/videos" {
		t.Fatalf("expected /videos listing path, got %q", cfg.Ingest.ListingPath)
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{URL: "postgres://u:p@h:5432/db"}
	dsn, err := p.DSN()
	if err != nil || dsn != "postgres://u:p@h:5432/db" {
		t.Fatalf("unexpected: %q %v", dsn, err)
	}

	p = PostgresConfig{Host: "db", User: "u", Password: "p", DBName: "ytchat"}
	dsn, err = p.DSN()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "postgres://u:p@db:5432/ytchat?sslmode=disable"
	if dsn != want {
		t.Fatalf("expected %q, got %q", want, dsn)
	}

	if _, err := (PostgresConfig{}).DSN(); err == nil {
		t.Fatalf("expected error for unconfigured postgres")
	}
}

func TestRedisAddr(t *testing.T) {
	if got := (RedisConfig{}).Addr(); got != "localhost:6379" {
		t.Fatalf("unexpected default addr %q", got)
	}
	if got := (RedisConfig{Host: "cache", Port: "6380"}).Addr(); got != "cache:6380" {
		t.Fatalf("unexpected addr %q", got)
	}
}
