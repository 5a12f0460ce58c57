package ingest

// VideoEntry holds the display fields available directly on the channel
// listing page, before any per-video enrichment. Every field except ID may be
// empty: the listing layout omits fields unpredictably.
type VideoEntry struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Thumbnail     string `json:"thumbnail"`
	Duration      string `json:"duration"`
	PublishedText string `json:"published_text"`
	ViewCountText string `json:"view_count_text"`
}

// VideoRecord is the fully enriched unit persisted to the video collection.
// Numeric counts are nil, never zero, when the source did not provide a
// parseable value; zero is a real observation.
type VideoRecord struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	URL           string `json:"url"`
	Thumbnail     string `json:"thumbnail"`
	Duration      string `json:"duration"`
	PublishedText string `json:"published_text"`
	ViewCountText string `json:"view_count_text"`
	Description   string `json:"description"`
	ReleaseDate   string `json:"release_date"`
	ViewCount     *int64 `json:"view_count"`
	LikeCount     *int64 `json:"like_count"`
	CommentCount  *int64 `json:"comment_count"`
	Transcript    string `json:"transcript"`
}

const (
	maxDescriptionChars = 1000
	maxTranscriptChars  = 5000
)
