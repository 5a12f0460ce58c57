package agent

// ResultKind tags a raw tool result for context-slimming purposes.
type ResultKind string

const (
	KindChart ResultKind = "chart"
	KindImage ResultKind = "image"
	KindVideo ResultKind = "video"
	KindPlain ResultKind = "plain"
)

// Marker fields a tool result sets to participate in classification. A tool
// must set exactly one of them.
const (
	markerChart = "_chartType"
	markerImage = "_imageType"
	markerVideo = "_videoType"
)

// Classify decides a result's kind by the presence of its marker field.
// Absence of all markers means plain data.
func Classify(result map[string]interface{}) ResultKind {
	if result == nil {
		return KindPlain
	}
	if _, ok := result[markerChart]; ok {
		return KindChart
	}
	if _, ok := result[markerImage]; ok {
		return KindImage
	}
	if _, ok := result[markerVideo]; ok {
		return KindVideo
	}
	return KindPlain
}

// Sanitize maps a raw tool result to the slimmed projection that goes back to
// the model. Raw results can carry megabyte-scale encoded payloads; the model
// only needs to know that an artifact was produced, not its bytes. Plain
// results pass through unchanged.
func Sanitize(kind ResultKind, result map[string]interface{}) map[string]interface{} {
	switch kind {
	case KindImage:
		return map[string]interface{}{
			"success":        true,
			"imageGenerated": true,
			"prompt":         result["prompt"],
			"mimeType":       result["mimeType"],
		}
	case KindChart:
		points := 0
		if data, ok := result["data"].([]interface{}); ok {
			points = len(data)
		}
		return map[string]interface{}{
			"success":        true,
			"chartGenerated": true,
			"chartType":      result[markerChart],
			"dataPoints":     points,
		}
	case KindVideo:
		return map[string]interface{}{
			"success":    true,
			"videoFound": true,
			"title":      result["title"],
			"url":        result["url"],
		}
	default:
		return result
	}
}
