package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/wendylzh6/youtube-chat-ai/internal/httpx"
)

const playerEndpoint = "https://www.youtube.com/youtubei/v1/player"

// InnertubeClient is the default VideoInfoClient. It calls the public player
// endpoint with a web client context and maps the interesting parts of the
// response.
type InnertubeClient struct {
	http      *httpx.Client
	userAgent string
	endpoint  string
}

func NewInnertubeClient(userAgent string, timeout time.Duration) *InnertubeClient {
	return &InnertubeClient{
		http:      httpx.New(timeout, 1, 300*time.Millisecond),
		userAgent: userAgent,
		endpoint:  playerEndpoint,
	}
}

type playerResponse struct {
	VideoDetails struct {
		Title            string `json:"title"`
		ShortDescription string `json:"shortDescription"`
		ViewCount        string `json:"viewCount"`
		Thumbnail        struct {
			Thumbnails []struct {
				URL string `json:"url"`
			} `json:"thumbnails"`
		} `json:"thumbnail"`
	} `json:"videoDetails"`
	Microformat struct {
		PlayerMicroformatRenderer struct {
			PublishDate  string `json:"publishDate"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"playerMicroformatRenderer"`
	} `json:"microformat"`
	EngagementPanels []struct {
		EngagementPanelSectionListRenderer struct {
			PanelIdentifier string `json:"panelIdentifier"`
			Header          struct {
				EngagementPanelTitleHeaderRenderer struct {
					ContextualInfo struct {
						Runs []struct {
							Text string `json:"text"`
						} `json:"runs"`
					} `json:"contextualInfo"`
				} `json:"engagementPanelTitleHeaderRenderer"`
			} `json:"header"`
		} `json:"engagementPanelSectionListRenderer"`
	} `json:"engagementPanels"`
}

func (c *InnertubeClient) VideoInfo(ctx context.Context, videoID string) (*VideoInfo, error) {
	body := map[string]interface{}{
		"videoId": videoID,
		"context": map[string]interface{}{
			"client": map[string]interface{}{
				"clientName":    "WEB",
				"clientVersion": "2.20240701.00.00",
			},
		},
	}
	headers := map[string]string{"User-Agent": c.userAgent}

	var resp playerResponse
	if err := c.http.DoJSON(ctx, "POST", c.endpoint, headers, body, &resp); err != nil {
		return nil, fmt.Errorf("player info for %s: %w", videoID, err)
	}

	info := &VideoInfo{
		Title:            resp.VideoDetails.Title,
		ShortDescription: resp.VideoDetails.ShortDescription,
		ViewCount:        resp.VideoDetails.ViewCount,
		PublishDate:      resp.Microformat.PlayerMicroformatRenderer.PublishDate,
		Likes:            parseCount(resp.Microformat.PlayerMicroformatRenderer.LikeCount),
		CommentCount:     resp.Microformat.PlayerMicroformatRenderer.CommentCount,
	}
	for _, t := range resp.VideoDetails.Thumbnail.Thumbnails {
		info.Thumbnails = append(info.Thumbnails, t.URL)
	}
	for _, p := range resp.EngagementPanels {
		r := p.EngagementPanelSectionListRenderer
		var contextual string
		if runs := r.Header.EngagementPanelTitleHeaderRenderer.ContextualInfo.Runs; len(runs) > 0 {
			contextual = runs[0].Text
		}
		info.EngagementPanels = append(info.EngagementPanels, EngagementPanel{
			PanelID:        r.PanelIdentifier,
			ContextualInfo: contextual,
		})
	}
	return info, nil
}
