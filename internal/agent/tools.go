package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/wendylzh6/youtube-chat-ai/internal/ingest"
	"github.com/wendylzh6/youtube-chat-ai/internal/search"
)

// VideoCatalog is the stored-video lookup the tools read from.
type VideoCatalog interface {
	ListVideos(ctx context.Context, channelURL string, limit int) ([]ingest.VideoRecord, error)
	GetVideo(ctx context.Context, videoID string) (ingest.VideoRecord, bool, error)
}

// WebPageReader fetches an arbitrary page and extracts its readable text.
type WebPageReader interface {
	ReadPage(ctx context.Context, url string) (PageExtract, error)
}

// PageExtract is the readable projection of a fetched web page.
type PageExtract struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Toolbox implements the built-in tool set the chat loop exposes to the
// model.
type Toolbox struct {
	Catalog VideoCatalog
	Index   *search.Index
	Images  LLMProvider
	Pages   WebPageReader
	Logger  *log.Logger
}

// Declarations returns the schema handed to the model. The loop treats it as
// opaque and performs no argument validation of its own.
func (tb *Toolbox) Declarations() []ToolDeclaration {
	decls := []ToolDeclaration{
		{
			Name:        "get_channel_videos",
			Description: "List the ingested videos of a channel with their metadata and engagement counts.",
			Parameters: ToolSchema{
				Type: "OBJECT",
				Properties: map[string]ToolProperty{
					"channel_url": {Type: "STRING", Description: "Channel URL to list videos for. Empty lists the most recently ingested videos."},
					"limit":       {Type: "NUMBER", Description: "Maximum number of videos to return (default 25)."},
				},
			},
		},
		{
			Name:        "get_video_transcript",
			Description: "Return the stored transcript of one video.",
			Parameters: ToolSchema{
				Type: "OBJECT",
				Properties: map[string]ToolProperty{
					"video_id": {Type: "STRING", Description: "The video id."},
				},
				Required: []string{"video_id"},
			},
		},
		{
			Name:        "search_transcripts",
			Description: "Full-text search across all ingested video transcripts.",
			Parameters: ToolSchema{
				Type: "OBJECT",
				Properties: map[string]ToolProperty{
					"query": {Type: "STRING", Description: "Search query."},
					"limit": {Type: "NUMBER", Description: "Maximum hits to return (default 10)."},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        "generate_chart",
			Description: "Build a chart over a numeric metric of the ingested videos.",
			Parameters: ToolSchema{
				Type: "OBJECT",
				Properties: map[string]ToolProperty{
					"chart_type": {Type: "STRING", Description: "bar, line, scatter or histogram."},
					"metric":     {Type: "STRING", Description: "views, likes or comments."},
					"title":      {Type: "STRING", Description: "Chart title."},
				},
				Required: []string{"chart_type", "metric"},
			},
		},
		{
			Name:        "generate_image",
			Description: "Generate an image from a text prompt.",
			Parameters: ToolSchema{
				Type: "OBJECT",
				Properties: map[string]ToolProperty{
					"prompt": {Type: "STRING", Description: "Description of the image to generate."},
				},
				Required: []string{"prompt"},
			},
		},
		{
			Name:        "find_video",
			Description: "Find one ingested video by (part of) its title and return a playable card.",
			Parameters: ToolSchema{
				Type: "OBJECT",
				Properties: map[string]ToolProperty{
					"title": {Type: "STRING", Description: "Title text to look for."},
				},
				Required: []string{"title"},
			},
		},
		{
			Name:        "fetch_webpage",
			Description: "Fetch a web page and return its readable text content.",
			Parameters: ToolSchema{
				Type: "OBJECT",
				Properties: map[string]ToolProperty{
					"url": {Type: "STRING", Description: "Page URL."},
				},
				Required: []string{"url"},
			},
		},
	}
	return decls
}

// Execute dispatches one tool invocation.
func (tb *Toolbox) Execute(ctx context.Context, name string, args map[string]interface{}) (map[string]interface{}, error) {
	switch name {
	case "get_channel_videos":
		return tb.channelVideos(ctx, args)
	case "get_video_transcript":
		return tb.videoTranscript(ctx, args)
	case "search_transcripts":
		return tb.searchTranscripts(args)
	case "generate_chart":
		return tb.generateChart(ctx, args)
	case "generate_image":
		return tb.generateImage(ctx, args)
	case "find_video":
		return tb.findVideo(ctx, args)
	case "fetch_webpage":
		return tb.fetchWebpage(ctx, args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

func (tb *Toolbox) channelVideos(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	limit := argInt(args, "limit", 25)
	videos, err := tb.Catalog.ListVideos(ctx, argString(args, "channel_url"), limit)
	if err != nil {
		return nil, err
	}
	list := make([]interface{}, 0, len(videos))
	for _, v := range videos {
		list = append(list, map[string]interface{}{
			"id":             v.ID,
			"title":          v.Title,
			"url":            v.URL,
			"published":      v.ReleaseDate,
			"published_text": v.PublishedText,
			"duration":       v.Duration,
			"view_count":     v.ViewCount,
			"like_count":     v.LikeCount,
			"comment_count":  v.CommentCount,
			"description":    v.Description,
		})
	}
	return map[string]interface{}{"videos": list, "count": len(list)}, nil
}

func (tb *Toolbox) videoTranscript(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	id := argString(args, "video_id")
	video, ok, err := tb.Catalog.GetVideo(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return map[string]interface{}{"found": false, "video_id": id}, nil
	}
	return map[string]interface{}{
		"found":      true,
		"video_id":   video.ID,
		"title":      video.Title,
		"transcript": video.Transcript,
	}, nil
}

func (tb *Toolbox) searchTranscripts(args map[string]interface{}) (map[string]interface{}, error) {
	hits, err := tb.Index.Search(argString(args, "query"), argInt(args, "limit", 10))
	if err != nil {
		return nil, err
	}
	list := make([]interface{}, 0, len(hits))
	for _, h := range hits {
		list = append(list, map[string]interface{}{
			"video_id": h.VideoID,
			"title":    h.Title,
			"url":      h.URL,
			"snippet":  h.Snippet,
		})
	}
	return map[string]interface{}{"hits": list, "count": len(list)}, nil
}

func (tb *Toolbox) generateChart(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	chartType := argString(args, "chart_type")
	metric := argString(args, "metric")
	videos, err := tb.Catalog.ListVideos(ctx, "", 100)
	if err != nil {
		return nil, err
	}

	var values []float64
	data := make([]interface{}, 0, len(videos))
	for _, v := range videos {
		value, ok := metricValue(v, metric)
		if !ok {
			continue
		}
		values = append(values, value)
		data = append(data, map[string]interface{}{"label": v.Title, "value": value})
	}

	result := map[string]interface{}{
		"_chartType": chartType,
		"title":      argString(args, "title"),
		"metric":     metric,
		"data":       data,
		"stats":      Summarize(values),
	}
	if chartType == "histogram" {
		result["buckets"] = Histogram(values, 10)
	}
	return result, nil
}

func metricValue(v ingest.VideoRecord, metric string) (float64, bool) {
	var n *int64
	switch metric {
	case "views":
		n = v.ViewCount
	case "likes":
		n = v.LikeCount
	case "comments":
		n = v.CommentCount
	default:
		return 0, false
	}
	if n == nil {
		return 0, false
	}
	return float64(*n), true
}

func (tb *Toolbox) generateImage(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	prompt := argString(args, "prompt")
	img, err := tb.Images.GenerateImage(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"_imageType": "generated",
		"success":    true,
		"prompt":     prompt,
		"mimeType":   img.MimeType,
		"data":       img.Data,
	}, nil
}

func (tb *Toolbox) findVideo(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	wanted := strings.ToLower(argString(args, "title"))
	videos, err := tb.Catalog.ListVideos(ctx, "", 200)
	if err != nil {
		return nil, err
	}
	for _, v := range videos {
		if strings.Contains(strings.ToLower(v.Title), wanted) {
			return map[string]interface{}{
				"_videoType": "card",
				"id":         v.ID,
				"title":      v.Title,
				"url":        v.URL,
				"thumbnail":  v.Thumbnail,
			}, nil
		}
	}
	return map[string]interface{}{"found": false, "title": argString(args, "title")}, nil
}

func (tb *Toolbox) fetchWebpage(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	page, err := tb.Pages.ReadPage(ctx, argString(args, "url"))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"url":   page.URL,
		"title": page.Title,
		"text":  page.Text,
	}, nil
}

func argString(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

func argInt(args map[string]interface{}, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}
