package server

import (
	"encoding/json"
	"testing"
)

func TestIngestRequest_MaxVideosInt(t *testing.T) {
	cases := []struct {
		body string
		want int
	}{
		{`{"url":"u"}`, 0},
		{`{"url":"u","maxVideos":5}`, 5},
		{`{"url":"u","maxVideos":0}`, 0},
		{`{"url":"u","maxVideos":"7"}`, 7},
		{`{"url":"u","maxVideos":"abc"}`, 0},
		{`{"url":"u","maxVideos":null}`, 0},
		{`{"url":"u","maxVideos":true}`, 0},
		{`{"url":"u","maxVideos":12.9}`, 12},
	}
	for _, c := range cases {
		var req IngestRequest
		if err := json.Unmarshal([]byte(c.body), &req); err != nil {
			t.Fatalf("unmarshal %s: %v", c.body, err)
		}
		if got := req.MaxVideosInt(); got != c.want {
			t.Fatalf("MaxVideosInt for %s = %d, want %d", c.body, got, c.want)
		}
	}
}
