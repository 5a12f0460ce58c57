package ingest

// ProgressEvent is the tagged union streamed to the caller while a channel
// ingestion run is in flight. Exactly one terminal event (done or error) is
// emitted per run; progress events precede it with strictly increasing Current.
type ProgressEvent struct {
	Kind    string        `json:"kind"` // progress, done, error
	Current int           `json:"current,omitempty"`
	Total   int           `json:"total,omitempty"`
	Percent int           `json:"percent,omitempty"`
	Items   []VideoRecord `json:"items,omitempty"`
	Message string        `json:"message,omitempty"`
}

const (
	EventProgress = "progress"
	EventDone     = "done"
	EventError    = "error"
)

func progressEvent(current, total int) ProgressEvent {
	percent := 0
	if total > 0 {
		percent = int(float64(current)/float64(total)*100 + 0.5)
	}
	return ProgressEvent{Kind: EventProgress, Current: current, Total: total, Percent: percent}
}

func doneEvent(items []VideoRecord) ProgressEvent {
	if items == nil {
		items = []VideoRecord{}
	}
	return ProgressEvent{Kind: EventDone, Items: items}
}

func errorEvent(message string) ProgressEvent {
	return ProgressEvent{Kind: EventError, Message: message}
}
