package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/wendylzh6/youtube-chat-ai/internal/ingest"
)

// Store wraps the postgres connection. All queries are plain SQL.
type Store struct {
	DB *sql.DB
}

// NewWithDSN opens and pings a postgres connection.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() error { return s.DB.Close() }

// User operations

func (s *Store) CreateUser(ctx context.Context, email, hash string) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO users (email, password_hash) VALUES ($1,$2)`, email, hash)
	return err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (id string, hash string, err error) {
	err = s.DB.QueryRowContext(ctx, `SELECT id, password_hash FROM users WHERE email=$1`, email).Scan(&id, &hash)
	return
}

// Channel operations

type Channel struct {
	ID             string
	UserID         string
	URL            string
	Title          string
	RefreshCron    string
	LastIngestedAt *time.Time
	CreatedAt      time.Time
}

// UpsertChannel registers a channel for a user, returning the existing row's
// id when the URL was already ingested before.
func (s *Store) UpsertChannel(ctx context.Context, userID, url, title string) (string, error) {
	var id string
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO channels (user_id, url, title) VALUES ($1,$2,$3)
		ON CONFLICT (user_id, url) DO UPDATE SET title = COALESCE(NULLIF(EXCLUDED.title,''), channels.title)
		RETURNING id`, userID, url, title).Scan(&id)
	return id, err
}

func (s *Store) ListChannels(ctx context.Context, userID string) ([]Channel, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, user_id, url, title, COALESCE(refresh_cron,''), last_ingested_at, created_at
		FROM channels WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChannels(rows)
}

// ListRefreshableChannels returns every channel with a refresh cron set,
// across users, for the background scheduler.
func (s *Store) ListRefreshableChannels(ctx context.Context) ([]Channel, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, user_id, url, title, COALESCE(refresh_cron,''), last_ingested_at, created_at
		FROM channels WHERE refresh_cron IS NOT NULL AND refresh_cron <> ''`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChannels(rows)
}

func scanChannels(rows *sql.Rows) ([]Channel, error) {
	var out []Channel
	for rows.Next() {
		var c Channel
		if err := rows.Scan(&c.ID, &c.UserID, &c.URL, &c.Title, &c.RefreshCron, &c.LastIngestedAt, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) SetChannelRefreshCron(ctx context.Context, channelID, userID, cron string) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE channels SET refresh_cron=$1 WHERE id=$2 AND user_id=$3`, cron, channelID, userID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) TouchChannelIngested(ctx context.Context, channelID string) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE channels SET last_ingested_at=now() WHERE id=$1`, channelID)
	return err
}

// Video operations

// UpsertVideo writes one enriched record. Nil counts stay NULL so "unknown"
// never collapses into zero.
func (s *Store) UpsertVideo(ctx context.Context, channelID string, v ingest.VideoRecord) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO videos (id, channel_id, title, url, thumbnail, duration, published_text,
			view_count_text, description, release_date, view_count, like_count, comment_count, transcript)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (id) DO UPDATE SET
			title=EXCLUDED.title, url=EXCLUDED.url, thumbnail=EXCLUDED.thumbnail,
			duration=EXCLUDED.duration, published_text=EXCLUDED.published_text,
			view_count_text=EXCLUDED.view_count_text, description=EXCLUDED.description,
			release_date=EXCLUDED.release_date, view_count=EXCLUDED.view_count,
			like_count=EXCLUDED.like_count, comment_count=EXCLUDED.comment_count,
			transcript=CASE WHEN EXCLUDED.transcript <> '' THEN EXCLUDED.transcript ELSE videos.transcript END,
			updated_at=now()`,
		v.ID, channelID, v.Title, v.URL, v.Thumbnail, v.Duration, v.PublishedText,
		v.ViewCountText, v.Description, v.ReleaseDate, v.ViewCount, v.LikeCount, v.CommentCount, v.Transcript)
	return err
}

const videoColumns = `id, title, url, thumbnail, duration, published_text, view_count_text,
	description, release_date, view_count, like_count, comment_count, transcript`

// ListVideos returns videos for a channel URL, or the most recently ingested
// videos overall when the URL is empty.
func (s *Store) ListVideos(ctx context.Context, channelURL string, limit int) ([]ingest.VideoRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows *sql.Rows
	var err error
	if channelURL == "" {
		rows, err = s.DB.QueryContext(ctx, `SELECT `+videoColumns+` FROM videos ORDER BY updated_at DESC LIMIT $1`, limit)
	} else {
		rows, err = s.DB.QueryContext(ctx, `
			SELECT `+videoColumns+` FROM videos
			WHERE channel_id = (SELECT id FROM channels WHERE url=$1 LIMIT 1)
			ORDER BY updated_at DESC LIMIT $2`, channelURL, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ingest.VideoRecord
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) GetVideo(ctx context.Context, videoID string) (ingest.VideoRecord, bool, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE id=$1`, videoID)
	v, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ingest.VideoRecord{}, false, nil
	}
	if err != nil {
		return ingest.VideoRecord{}, false, err
	}
	return v, true, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVideo(row rowScanner) (ingest.VideoRecord, error) {
	var v ingest.VideoRecord
	err := row.Scan(&v.ID, &v.Title, &v.URL, &v.Thumbnail, &v.Duration, &v.PublishedText,
		&v.ViewCountText, &v.Description, &v.ReleaseDate, &v.ViewCount, &v.LikeCount, &v.CommentCount, &v.Transcript)
	return v, err
}

// Chat session operations

type ChatSession struct {
	ID        string
	UserID    string
	Title     string
	CreatedAt time.Time
}

type ChatMessage struct {
	ID        string
	SessionID string
	Role      string
	Content   string
	Artifacts json.RawMessage
	CreatedAt time.Time
}

func (s *Store) CreateSession(ctx context.Context, userID, title string) (string, error) {
	var id string
	err := s.DB.QueryRowContext(ctx, `INSERT INTO chat_sessions (user_id, title) VALUES ($1,$2) RETURNING id`, userID, title).Scan(&id)
	return id, err
}

func (s *Store) ListSessions(ctx context.Context, userID string) ([]ChatSession, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, user_id, title, created_at FROM chat_sessions WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ChatSession
	for rows.Next() {
		var c ChatSession
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetSession verifies ownership before any message access.
func (s *Store) GetSession(ctx context.Context, sessionID, userID string) (ChatSession, error) {
	var c ChatSession
	err := s.DB.QueryRowContext(ctx, `SELECT id, user_id, title, created_at FROM chat_sessions WHERE id=$1 AND user_id=$2`, sessionID, userID).
		Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt)
	return c, err
}

func (s *Store) ListMessages(ctx context.Context, sessionID string) ([]ChatMessage, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, session_id, role, content, COALESCE(artifacts,'null'), created_at
		FROM chat_messages WHERE session_id=$1 ORDER BY created_at ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.Artifacts, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) AppendMessage(ctx context.Context, sessionID, role, content string, artifacts interface{}) (string, error) {
	var payload []byte
	if artifacts != nil {
		b, err := json.Marshal(artifacts)
		if err != nil {
			return "", err
		}
		payload = b
	}
	var id string
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO chat_messages (session_id, role, content, artifacts) VALUES ($1,$2,$3,$4) RETURNING id`,
		sessionID, role, content, payload).Scan(&id)
	return id, err
}

// RecordToolCall appends one audit row for a tool invocation made while
// producing a message.
func (s *Store) RecordToolCall(ctx context.Context, messageID, tool string, args interface{}, kind string) error {
	b, err := json.Marshal(args)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `INSERT INTO tool_calls (message_id, tool, args, kind) VALUES ($1,$2,$3,$4)`,
		messageID, tool, b, kind)
	return err
}
