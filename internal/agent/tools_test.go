package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/wendylzh6/youtube-chat-ai/internal/ingest"
	"github.com/wendylzh6/youtube-chat-ai/internal/search"
)

type fakeCatalog struct {
	videos []ingest.VideoRecord
}

func (f *fakeCatalog) ListVideos(ctx context.Context, channelURL string, limit int) ([]ingest.VideoRecord, error) {
	if limit > 0 && limit < len(f.videos) {
		return f.videos[:limit], nil
	}
	return f.videos, nil
}

func (f *fakeCatalog) GetVideo(ctx context.Context, videoID string) (ingest.VideoRecord, bool, error) {
	for _, v := range f.videos {
		if v.ID == videoID {
			return v, true, nil
		}
	}
	return ingest.VideoRecord{}, false, nil
}

type fakeImageProvider struct{}

func (fakeImageProvider) Generate(ctx context.Context, system string, contents []Content, tools []ToolDeclaration) (ModelReply, error) {
	return ModelReply{}, errors.New("not a chat provider")
}

func (fakeImageProvider) GenerateImage(ctx context.Context, prompt string) (ImageArtifact, error) {
	return ImageArtifact{MimeType: "image/png", Data: "base64-bytes", Prompt: prompt}, nil
}

func catalogFixture() *fakeCatalog {
	views := func(n int64) *int64 { return &n }
	return &fakeCatalog{videos: []ingest.VideoRecord{
		{ID: "v1", Title: "Go Concurrency Patterns", URL: "https://www.youtube.com/watch?v=v1", ViewCount: views(100), LikeCount: views(10), Transcript: "goroutines and channels explained"},
		{ID: "v2", Title: "Database Internals", URL: "https://www.youtube.com/watch?v=v2", ViewCount: views(300), Transcript: "b-trees and write-ahead logs"},
		{ID: "v3", Title: "No Counts Yet", URL: "https://www.youtube.com/watch?v=v3"},
	}}
}

func toolboxFixture(t *testing.T) *Toolbox {
	t.Helper()
	idx, err := search.OpenInMemory()
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	cat := catalogFixture()
	for _, v := range cat.videos {
		if err := idx.IndexVideo(search.Document{VideoID: v.ID, Title: v.Title, URL: v.URL, Transcript: v.Transcript}); err != nil {
			t.Fatalf("index: %v", err)
		}
	}
	return &Toolbox{Catalog: cat, Index: idx, Images: fakeImageProvider{}}
}

func TestToolbox_Declarations(t *testing.T) {
	tb := toolboxFixture(t)
	decls := tb.Declarations()
	names := map[string]bool{}
	for _, d := range decls {
		names[d.Name] = true
		if d.Parameters.Type != "OBJECT" {
			t.Fatalf("tool %s: expected OBJECT schema, got %q", d.Name, d.Parameters.Type)
		}
	}
	for _, want := range []string{
		"get_channel_videos", "get_video_transcript", "search_transcripts",
		"generate_chart", "generate_image", "find_video", "fetch_webpage",
	} {
		if !names[want] {
			t.Fatalf("missing tool declaration %s", want)
		}
	}
}

func TestToolbox_ChannelVideos(t *testing.T) {
	tb := toolboxFixture(t)
	res, err := tb.Execute(context.Background(), "get_channel_videos", map[string]interface{}{"limit": float64(2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res["count"] != 2 {
		t.Fatalf("expected 2 videos, got %v", res["count"])
	}
	if Classify(res) != KindPlain {
		t.Fatalf("expected plain result")
	}
}

func TestToolbox_VideoTranscript(t *testing.T) {
	tb := toolboxFixture(t)
	res, err := tb.Execute(context.Background(), "get_video_transcript", map[string]interface{}{"video_id": "v1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res["found"] != true || res["transcript"] != "goroutines and channels explained" {
		t.Fatalf("unexpected result %v", res)
	}

	res, err = tb.Execute(context.Background(), "get_video_transcript", map[string]interface{}{"video_id": "nope"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res["found"] != false {
		t.Fatalf("expected found=false, got %v", res)
	}
}

func TestToolbox_SearchTranscripts(t *testing.T) {
	tb := toolboxFixture(t)
	res, err := tb.Execute(context.Background(), "search_transcripts", map[string]interface{}{"query": "goroutines"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hits, _ := res["hits"].([]interface{})
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %v", res)
	}
	hit := hits[0].(map[string]interface{})
	if hit["video_id"] != "v1" {
		t.Fatalf("expected v1, got %v", hit)
	}
}

func TestToolbox_GenerateChart(t *testing.T) {
	tb := toolboxFixture(t)
	res, err := tb.Execute(context.Background(), "generate_chart", map[string]interface{}{
		"chart_type": "bar", "metric": "views", "title": "Views",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Classify(res) != KindChart {
		t.Fatalf("expected chart result, got %v", res)
	}
	data, _ := res["data"].([]interface{})
	// the video without counts contributes no data point
	if len(data) != 2 {
		t.Fatalf("expected 2 data points, got %d", len(data))
	}
	stats, ok := res["stats"].(SeriesStats)
	if !ok || stats.Count != 2 || stats.Max != 300 {
		t.Fatalf("unexpected stats %v", res["stats"])
	}
}

func TestToolbox_GenerateChart_Histogram(t *testing.T) {
	tb := toolboxFixture(t)
	res, err := tb.Execute(context.Background(), "generate_chart", map[string]interface{}{
		"chart_type": "histogram", "metric": "views",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := res["buckets"]; !ok {
		t.Fatalf("expected histogram buckets, got %v", res)
	}
}

func TestToolbox_GenerateImage(t *testing.T) {
	tb := toolboxFixture(t)
	res, err := tb.Execute(context.Background(), "generate_image", map[string]interface{}{"prompt": "a gopher"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Classify(res) != KindImage {
		t.Fatalf("expected image result, got %v", res)
	}
	if res["data"] != "base64-bytes" || res["prompt"] != "a gopher" {
		t.Fatalf("unexpected result %v", res)
	}
}

func TestToolbox_FindVideo(t *testing.T) {
	tb := toolboxFixture(t)
	res, err := tb.Execute(context.Background(), "find_video", map[string]interface{}{"title": "concurrency"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Classify(res) != KindVideo || res["id"] != "v1" {
		t.Fatalf("unexpected result %v", res)
	}

	res, err = tb.Execute(context.Background(), "find_video", map[string]interface{}{"title": "nope"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res["found"] != false {
		t.Fatalf("expected found=false, got %v", res)
	}
}

func TestToolbox_UnknownTool(t *testing.T) {
	tb := toolboxFixture(t)
	if _, err := tb.Execute(context.Background(), "rm_rf", nil); err == nil {
		t.Fatalf("expected error for unknown tool")
	}
}
