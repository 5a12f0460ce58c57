package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// The listing page embeds its data as a JSON object assigned to a global
// variable. The markup varies: the assignment is terminated either by the
// closing script tag or by the next var declaration in the same script.
const initialDataMarker = "var ytInitialData = "

var initialDataTerminators = []string{";</script>", ";var "}

// ErrNoInitialData is returned when no recognized pattern bounds the embedded
// data blob. The two plausible causes are a nonexistent channel and the
// upstream blocking the request.
var ErrNoInitialData = errors.New("embedded channel data not found: the channel may not exist, or the request was blocked upstream")

// ParseError reports that a matched blob was not valid JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("embedded channel data is not valid JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ExtractInitialData scans page HTML for the embedded data assignment, trying
// each known terminator in order, and parses the first match. There is no
// fallback to partial parsing.
func ExtractInitialData(html string) (map[string]interface{}, error) {
	start := strings.Index(html, initialDataMarker)
	if start < 0 {
		return nil, ErrNoInitialData
	}
	rest := html[start+len(initialDataMarker):]

	var blob string
	for _, term := range initialDataTerminators {
		if end := strings.Index(rest, term); end >= 0 {
			blob = rest[:end]
			break
		}
	}
	if blob == "" {
		return nil, ErrNoInitialData
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(blob), &data); err != nil {
		return nil, &ParseError{Err: err}
	}
	return data, nil
}
