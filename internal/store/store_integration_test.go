package store_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/wendylzh6/youtube-chat-ai/internal/ingest"
	"github.com/wendylzh6/youtube-chat-ai/internal/store"
)

func i64(n int64) *int64 { return &n }

func TestStoreRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		tcPostgres.WithDatabase("ytchat"),
		tcPostgres.WithUsername("ytchat"),
		tcPostgres.WithPassword("ytchat"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp")),
	)
	if err != nil {
		t.Fatalf("postgres container: %v", err)
	}
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	if err != nil {
		t.Fatalf("postgres host: %v", err)
	}
	port, err := pgC.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("postgres port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://ytchat:ytchat@%s:%s/ytchat?sslmode=disable", host, port.Port())

	if err := applyMigrations(ctx, dsn); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		t.Fatalf("store init: %v", err)
	}
	defer st.Close()

	if err := st.CreateUser(ctx, "a@b.c", "hash"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	userID, hash, err := st.GetUserByEmail(ctx, "a@b.c")
	if err != nil || hash != "hash" {
		t.Fatalf("get user: %v (hash %q)", err, hash)
	}

	chURL := "https://www.youtube.com/@chan/videos"
	channelID, err := st.UpsertChannel(ctx, userID, chURL, "Chan")
	if err != nil {
		t.Fatalf("upsert channel: %v", err)
	}
	again, err := st.UpsertChannel(ctx, userID, chURL, "Chan")
	if err != nil || again != channelID {
		t.Fatalf("expected idempotent channel upsert, got %q vs %q (%v)", again, channelID, err)
	}

	rec := ingest.VideoRecord{
		ID:         "vid1",
		Title:      "First Video",
		URL:        "https://www.youtube.com/watch?v=vid1",
		ViewCount:  i64(100),
		Transcript: "hello transcript",
	}
	if err := st.UpsertVideo(ctx, channelID, rec); err != nil {
		t.Fatalf("upsert video: %v", err)
	}

	// a re-ingest with no transcript must not wipe the stored one
	rec2 := rec
	rec2.Transcript = ""
	rec2.ViewCount = i64(150)
	if err := st.UpsertVideo(ctx, channelID, rec2); err != nil {
		t.Fatalf("upsert video again: %v", err)
	}

	got, ok, err := st.GetVideo(ctx, "vid1")
	if err != nil || !ok {
		t.Fatalf("get video: %v ok=%v", err, ok)
	}
	if got.Transcript != "hello transcript" {
		t.Fatalf("expected transcript preserved, got %q", got.Transcript)
	}
	if got.ViewCount == nil || *got.ViewCount != 150 {
		t.Fatalf("expected view count updated, got %v", got.ViewCount)
	}
	if got.LikeCount != nil {
		t.Fatalf("expected unknown like count to stay NULL, got %v", got.LikeCount)
	}

	if _, ok, err := st.GetVideo(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected not-found without error, got ok=%v err=%v", ok, err)
	}

	videos, err := st.ListVideos(ctx, chURL, 10)
	if err != nil || len(videos) != 1 {
		t.Fatalf("list videos: %v (%d)", err, len(videos))
	}

	sessionID, err := st.CreateSession(ctx, userID, "first chat")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := st.GetSession(ctx, sessionID, "00000000-0000-0000-0000-000000000000"); err == nil {
		t.Fatalf("expected ownership check to fail for a different user")
	}
	if _, err := st.AppendMessage(ctx, sessionID, "user", "hi", nil); err != nil {
		t.Fatalf("append user message: %v", err)
	}
	msgID, err := st.AppendMessage(ctx, sessionID, "model", "hello", map[string]interface{}{"charts": []int{1}})
	if err != nil {
		t.Fatalf("append model message: %v", err)
	}
	if err := st.RecordToolCall(ctx, msgID, "generate_chart", map[string]interface{}{"metric": "views"}, "chart"); err != nil {
		t.Fatalf("record tool call: %v", err)
	}
	messages, err := st.ListMessages(ctx, sessionID)
	if err != nil || len(messages) != 2 {
		t.Fatalf("list messages: %v (%d)", err, len(messages))
	}
	if messages[0].Role != "user" || messages[1].Role != "model" {
		t.Fatalf("unexpected message order %+v", messages)
	}
}

func applyMigrations(ctx context.Context, dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	schemaSQL, err := os.ReadFile("../../migrations/0001_init.up.sql")
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, string(schemaSQL))
	return err
}
