package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRunsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingest_runs_completed_total",
		Help: "Channel ingestion runs that reached the done event.",
	})
	metricVideosEnriched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingest_videos_enriched_total",
		Help: "Videos that went through enrichment, including partial failures.",
	})
)
