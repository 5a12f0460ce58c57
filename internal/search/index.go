package search

import (
	"errors"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve"
)

// Document is what gets indexed per video: the transcript plus enough
// metadata to render a search hit.
type Document struct {
	VideoID    string `json:"video_id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Transcript string `json:"transcript"`
}

// Hit is one transcript search result.
type Hit struct {
	VideoID string  `json:"video_id"`
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Index is a full-text index over ingested transcripts.
type Index struct {
	idx bleve.Index
	mu  sync.RWMutex
}

// Open opens the index at path, creating it on first use.
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, bleve.NewIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("open transcript index: %w", err)
	}
	return &Index{idx: idx}, nil
}

// OpenInMemory builds a throwaway index, used by tests and by deployments
// that do not care about persistence across restarts.
func OpenInMemory() (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	return &Index{idx: idx}, nil
}

// IndexVideo adds or replaces one video's transcript document. Videos
// without a transcript are skipped.
func (i *Index) IndexVideo(doc Document) error {
	if doc.Transcript == "" {
		return nil
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.idx.Index(doc.VideoID, doc)
}

// Search runs a query-string search and returns up to k hits with
// highlighted transcript snippets.
func (i *Index) Search(q string, k int) ([]Hit, error) {
	if k <= 0 || k > 50 {
		k = 10
	}
	i.mu.RLock()
	defer i.mu.RUnlock()

	query := bleve.NewQueryStringQuery(q)
	req := bleve.NewSearchRequestOptions(query, k, 0, false)
	req.Highlight = bleve.NewHighlight()
	req.Fields = []string{"title", "url"}
	res, err := i.idx.Search(req)
	if err != nil {
		return nil, err
	}

	var out []Hit
	for _, hit := range res.Hits {
		h := Hit{VideoID: hit.ID, Score: hit.Score}
		if title, ok := hit.Fields["title"].(string); ok {
			h.Title = title
		}
		if url, ok := hit.Fields["url"].(string); ok {
			h.URL = url
		}
		if frags, ok := hit.Fragments["transcript"]; ok && len(frags) > 0 {
			h.Snippet = frags[0]
		}
		out = append(out, h)
	}
	return out, nil
}

// Close releases the underlying index.
func (i *Index) Close() error {
	return i.idx.Close()
}
