package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func videoRendererFixture(id string) map[string]interface{} {
	return map[string]interface{}{
		"videoId": id,
		"title": map[string]interface{}{
			"runs": []interface{}{map[string]interface{}{"text": "Title " + id}},
		},
		"thumbnail": map[string]interface{}{
			"thumbnails": []interface{}{
				map[string]interface{}{"url": "https://img/low.jpg"},
				map[string]interface{}{"url": "https://img/high.jpg"},
			},
		},
		"lengthText":        map[string]interface{}{"simpleText": "10:01"},
		"publishedTimeText": map[string]interface{}{"simpleText": "2 days ago"},
		"viewCountText":     map[string]interface{}{"simpleText": "1,234 views"},
	}
}

func TestParseEntry(t *testing.T) {
	entry, ok := ParseEntry(videoRendererFixture("abc"))
	if !ok {
		t.Fatalf("expected ok")
	}
	if entry.ID != "abc" || entry.Title != "Title abc" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.Thumbnail != "https://img/high.jpg" {
		t.Fatalf("expected highest-resolution thumbnail, got %q", entry.Thumbnail)
	}
	if entry.Duration != "10:01" || entry.PublishedText != "2 days ago" || entry.ViewCountText != "1,234 views" {
		t.Fatalf("unexpected display fields %+v", entry)
	}
}

func TestParseEntry_MissingID(t *testing.T) {
	raw := videoRendererFixture("abc")
	delete(raw, "videoId")
	if _, ok := ParseEntry(raw); ok {
		t.Fatalf("expected ok=false without videoId")
	}
}

func TestParseEntry_SparseFields(t *testing.T) {
	entry, ok := ParseEntry(map[string]interface{}{"videoId": "bare"})
	if !ok {
		t.Fatalf("expected ok")
	}
	if entry.Title != "" || entry.Thumbnail != "" || entry.Duration != "" {
		t.Fatalf("expected empty display fields, got %+v", entry)
	}
}

func TestParseCount(t *testing.T) {
	cases := []struct {
		in   string
		want *int64
	}{
		{"1,234", i64(1234)},
		{"1 234 567", i64(1234567)},
		{"42", i64(42)},
		{"0", i64(0)},
		{"", nil},
		{"1.2K", nil},
		{"n/a", nil},
	}
	for _, c := range cases {
		got := parseCount(c.in)
		switch {
		case c.want == nil && got != nil:
			t.Fatalf("parseCount(%q) = %d, want nil", c.in, *got)
		case c.want != nil && (got == nil || *got != *c.want):
			t.Fatalf("parseCount(%q) = %v, want %d", c.in, got, *c.want)
		}
	}
}

func i64(n int64) *int64 { return &n }

func TestCommentCount_PanelFallback(t *testing.T) {
	info := &VideoInfo{
		EngagementPanels: []EngagementPanel{
			{PanelID: "engagement-panel-description", ContextualInfo: "ignored"},
			{PanelID: "engagement-panel-comments-section", ContextualInfo: "5,678"},
		},
	}
	got := commentCount(info)
	if got == nil || *got != 5678 {
		t.Fatalf("expected 5678 from comments panel, got %v", got)
	}

	info.CommentCount = "99"
	got = commentCount(info)
	if got == nil || *got != 99 {
		t.Fatalf("expected direct field to win, got %v", got)
	}
}

type stubInfoClient struct {
	info *VideoInfo
	err  error
}

func (s *stubInfoClient) VideoInfo(ctx context.Context, videoID string) (*VideoInfo, error) {
	return s.info, s.err
}

type stubTranscript struct {
	result TranscriptResult
}

func (s *stubTranscript) Fetch(ctx context.Context, videoID string) TranscriptResult {
	return s.result
}

func TestEnrich_AppliesInfoAndTranscript(t *testing.T) {
	likes := int64(10)
	e := &Enricher{
		Info: &stubInfoClient{info: &VideoInfo{
			Title:            "Richer Title",
			ShortDescription: "desc",
			PublishDate:      "2025-01-02",
			ViewCount:        "123456",
			Likes:            &likes,
			Thumbnails:       []string{"low", "high"},
			CommentCount:     "7",
		}},
		Transcript: &stubTranscript{result: TranscriptResult{Text: "hello world"}},
	}
	entry, _ := ParseEntry(videoRendererFixture("abc"))
	rec := e.Enrich(context.Background(), entry)

	if rec.URL != "https://www.youtube.com/watch?v=abc" {
		t.Fatalf("unexpected url %q", rec.URL)
	}
	if rec.Title != "Richer Title" {
		t.Fatalf("expected info title to win, got %q", rec.Title)
	}
	if rec.ViewCount == nil || *rec.ViewCount != 123456 {
		t.Fatalf("unexpected view count %v", rec.ViewCount)
	}
	if rec.LikeCount == nil || *rec.LikeCount != 10 {
		t.Fatalf("unexpected like count %v", rec.LikeCount)
	}
	if rec.CommentCount == nil || *rec.CommentCount != 7 {
		t.Fatalf("unexpected comment count %v", rec.CommentCount)
	}
	if rec.Thumbnail != "high" {
		t.Fatalf("expected info thumbnail, got %q", rec.Thumbnail)
	}
	if rec.Transcript != "hello world" {
		t.Fatalf("unexpected transcript %q", rec.Transcript)
	}
}

func TestEnrich_InfoFailureKeepsListingFields(t *testing.T) {
	e := &Enricher{
		Info:       &stubInfoClient{err: errors.New("boom")},
		Transcript: &stubTranscript{result: TranscriptResult{Err: errors.New("no captions")}},
	}
	entry, _ := ParseEntry(videoRendererFixture("abc"))
	rec := e.Enrich(context.Background(), entry)

	if rec.Title != "Title abc" {
		t.Fatalf("expected listing title to survive, got %q", rec.Title)
	}
	if rec.ViewCount != nil || rec.LikeCount != nil || rec.CommentCount != nil {
		t.Fatalf("expected nil counts, got %+v", rec)
	}
	if rec.Transcript != "" {
		t.Fatalf("expected empty transcript, got %q", rec.Transcript)
	}
}

func TestEnrich_TruncatesDescription(t *testing.T) {
	e := &Enricher{Info: &stubInfoClient{info: &VideoInfo{
		ShortDescription: strings.Repeat("x", maxDescriptionChars+500),
	}}}
	rec := e.Enrich(context.Background(), VideoEntry{ID: "abc"})
	if len(rec.Description) != maxDescriptionChars {
		t.Fatalf("expected description capped at %d, got %d", maxDescriptionChars, len(rec.Description))
	}
}
