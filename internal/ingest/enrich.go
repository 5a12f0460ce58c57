package ingest

import (
	"context"
	"log"
	"strconv"
	"strings"
)

// VideoInfo is the details object returned by the per-video info collaborator.
type VideoInfo struct {
	Title            string
	ShortDescription string
	PublishDate      string
	ViewCount        string
	Likes            *int64
	Thumbnails       []string
	CommentCount     string
	EngagementPanels []EngagementPanel
}

// EngagementPanel is one entry of the info response's engagement panel list.
// ContextualInfo carries a formatted count string (e.g. "1,234") when the
// panel is the comments section.
type EngagementPanel struct {
	PanelID        string
	ContextualInfo string
}

// VideoInfoClient fetches secondary metadata for one video id.
type VideoInfoClient interface {
	VideoInfo(ctx context.Context, videoID string) (*VideoInfo, error)
}

// Enricher turns a raw listing sub-tree into a full VideoRecord. Secondary
// info and transcript fetches are best-effort per item: their failures are
// logged and never abort the batch.
type Enricher struct {
	Info       VideoInfoClient
	Transcript TranscriptFetcher
	Logger     *log.Logger
}

// ParseEntry extracts the display fields available directly on the listing
// sub-tree. It never fails; missing fields stay empty. Entries without an id
// are unusable and signalled via ok=false.
func ParseEntry(raw map[string]interface{}) (VideoEntry, bool) {
	entry := VideoEntry{
		ID:            asString(raw["videoId"]),
		Title:         runsText(raw["title"]),
		Thumbnail:     lastThumbnail(raw["thumbnail"]),
		Duration:      simpleText(raw["lengthText"]),
		PublishedText: simpleText(raw["publishedTimeText"]),
		ViewCountText: simpleText(raw["viewCountText"]),
	}
	return entry, entry.ID != ""
}

// Enrich produces the final record for one entry. The step-1 display fields
// always survive; a successful info fetch overwrites them with richer values.
func (e *Enricher) Enrich(ctx context.Context, entry VideoEntry) VideoRecord {
	rec := VideoRecord{
		ID:            entry.ID,
		Title:         entry.Title,
		URL:           "https://www.youtube.com/watch?v=" + entry.ID,
		Thumbnail:     entry.Thumbnail,
		Duration:      entry.Duration,
		PublishedText: entry.PublishedText,
		ViewCountText: entry.ViewCountText,
	}

	if e.Info != nil {
		info, err := e.Info.VideoInfo(ctx, entry.ID)
		if err != nil {
			if e.Logger != nil {
				e.Logger.Printf("video %s: info fetch failed: %v", entry.ID, err)
			}
		} else {
			applyInfo(&rec, info)
		}
	}

	if e.Transcript != nil {
		// best-effort: the result type swallows every failure mode
		rec.Transcript = e.Transcript.Fetch(ctx, entry.ID).Text
	}
	return rec
}

func applyInfo(rec *VideoRecord, info *VideoInfo) {
	if info.Title != "" {
		rec.Title = info.Title
	}
	rec.Description = truncate(info.ShortDescription, maxDescriptionChars)
	rec.ReleaseDate = info.PublishDate
	rec.ViewCount = parseCount(info.ViewCount)
	rec.LikeCount = info.Likes
	if len(info.Thumbnails) > 0 {
		rec.Thumbnail = info.Thumbnails[len(info.Thumbnails)-1]
	}
	rec.CommentCount = commentCount(info)
}

// commentCount tries the direct field first, then scans the engagement
// panels for the comments section header.
func commentCount(info *VideoInfo) *int64 {
	if n := parseCount(info.CommentCount); n != nil {
		return n
	}
	for _, panel := range info.EngagementPanels {
		if !strings.Contains(panel.PanelID, "comment") {
			continue
		}
		if n := parseCount(panel.ContextualInfo); n != nil {
			return n
		}
	}
	return nil
}

// parseCount parses a base-10 integer from a formatted count string,
// stripping thousands separators. nil means unknown, which is distinct from
// an actual zero.
func parseCount(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// runsText reads a title node shaped either as {runs:[{text}]} or
// {simpleText}.
func runsText(v interface{}) string {
	node := asMap(v)
	if node == nil {
		return ""
	}
	if runs := asSlice(node["runs"]); len(runs) > 0 {
		return asString(asMap(runs[0])["text"])
	}
	return asString(node["simpleText"])
}

func simpleText(v interface{}) string {
	node := asMap(v)
	if node == nil {
		return ""
	}
	if s := asString(node["simpleText"]); s != "" {
		return s
	}
	if runs := asSlice(node["runs"]); len(runs) > 0 {
		return asString(asMap(runs[0])["text"])
	}
	return ""
}

// lastThumbnail picks the highest-resolution thumbnail, which the platform
// lists last.
func lastThumbnail(v interface{}) string {
	thumbs := asSlice(dig(v, "thumbnails"))
	if len(thumbs) == 0 {
		return ""
	}
	return asString(asMap(thumbs[len(thumbs)-1])["url"])
}
