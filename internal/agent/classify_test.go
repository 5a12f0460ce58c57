package agent

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		result map[string]interface{}
		want   ResultKind
	}{
		{map[string]interface{}{"_chartType": "bar"}, KindChart},
		{map[string]interface{}{"_imageType": "generated"}, KindImage},
		{map[string]interface{}{"_videoType": "card"}, KindVideo},
		{map[string]interface{}{"videos": []interface{}{}}, KindPlain},
		{nil, KindPlain},
	}
	for _, c := range cases {
		if got := Classify(c.result); got != c.want {
			t.Fatalf("Classify(%v) = %v, want %v", c.result, got, c.want)
		}
	}
}

func TestSanitize_ImageDropsPayload(t *testing.T) {
	raw := map[string]interface{}{
		"_imageType": "generated",
		"prompt":     "a duck",
		"mimeType":   "image/png",
		"data":       "aaaa-very-long-base64-payload",
	}
	got := Sanitize(KindImage, raw)
	if _, ok := got["data"]; ok {
		t.Fatalf("expected encoded payload to be dropped")
	}
	if got["imageGenerated"] != true || got["prompt"] != "a duck" || got["mimeType"] != "image/png" {
		t.Fatalf("unexpected projection %v", got)
	}
}

func TestSanitize_ChartCountsDataPoints(t *testing.T) {
	raw := map[string]interface{}{
		"_chartType": "bar",
		"data":       []interface{}{1, 2, 3},
		"stats":      SeriesStats{Count: 3},
	}
	got := Sanitize(KindChart, raw)
	if got["chartGenerated"] != true || got["chartType"] != "bar" {
		t.Fatalf("unexpected projection %v", got)
	}
	if got["dataPoints"] != 3 {
		t.Fatalf("expected 3 data points, got %v", got["dataPoints"])
	}
	if _, ok := got["data"]; ok {
		t.Fatalf("expected data series to be dropped")
	}
}

func TestSanitize_VideoKeepsCardFields(t *testing.T) {
	raw := map[string]interface{}{
		"_videoType": "card",
		"title":      "Some Video",
		"url":        "https://www.youtube.com/watch?v=abc",
		"thumbnail":  "https://img/high.jpg",
	}
	got := Sanitize(KindVideo, raw)
	if got["videoFound"] != true || got["title"] != "Some Video" || got["url"] != raw["url"] {
		t.Fatalf("unexpected projection %v", got)
	}
	if _, ok := got["thumbnail"]; ok {
		t.Fatalf("expected thumbnail to be dropped")
	}
}

func TestSanitize_PlainPassesThrough(t *testing.T) {
	raw := map[string]interface{}{"videos": []interface{}{"a"}, "count": 1}
	got := Sanitize(KindPlain, raw)
	if got["count"] != 1 {
		t.Fatalf("expected plain result unchanged, got %v", got)
	}
}
