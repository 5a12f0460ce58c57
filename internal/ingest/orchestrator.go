package ingest

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var runnerTracer trace.Tracer = otel.Tracer("youtube-chat-ai/internal/ingest")

// Request describes one channel ingestion run.
type Request struct {
	URL       string
	MaxVideos int
}

// EmitFunc pushes one progress event to the caller. Returning an error stops
// the run: with the event transport gone there is nobody left to report to.
type EmitFunc func(ProgressEvent) error

// Runner sequences fetch, extract, navigate and per-item enrichment for one
// channel, reporting progress after each item. Items are processed strictly
// sequentially so events stay ordered and percentage-monotonic.
type Runner struct {
	Fetcher      PageFetcher
	Enricher     *Enricher
	Logger       *log.Logger
	DefaultLimit int
	HardLimit    int
}

// ClampLimit resolves the effective item limit. Zero and negative values fall
// back to the default; the result always lands in [1, hard].
func (r *Runner) ClampLimit(requested int) int {
	def := r.DefaultLimit
	if def <= 0 {
		def = 10
	}
	hard := r.HardLimit
	if hard <= 0 {
		hard = 100
	}
	limit := requested
	if limit <= 0 {
		limit = def
	}
	if limit < 1 {
		limit = 1
	}
	if limit > hard {
		limit = hard
	}
	return limit
}

// Run executes the pipeline. Fetch, extract and navigate failures are fatal
// and produce the single terminal error event; per-item enrichment failures
// are absorbed by the Enricher. The returned slice mirrors the done event so
// the caller can persist it.
func (r *Runner) Run(ctx context.Context, req Request, emit EmitFunc) ([]VideoRecord, error) {
	runID := uuid.NewString()
	ctx, span := runnerTracer.Start(ctx, "Runner.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", runID),
		attribute.String("channel_url", req.URL),
	)
	if r.Logger != nil {
		r.Logger.Printf("run %s: ingesting %s", runID, req.URL)
	}

	fail := func(err error) ([]VideoRecord, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if emitErr := emit(errorEvent(err.Error())); emitErr != nil {
			return nil, emitErr
		}
		return nil, err
	}

	html, err := r.Fetcher.Fetch(ctx, req.URL)
	if err != nil {
		return fail(err)
	}

	data, err := ExtractInitialData(html)
	if err != nil {
		return fail(err)
	}

	entries, err := FindVideoEntries(data)
	if err != nil {
		return fail(err)
	}

	limit := r.ClampLimit(req.MaxVideos)
	if len(entries) < limit {
		limit = len(entries)
	}
	// total is fixed before the first item starts; id-less entries skipped
	// mid-run do not shrink it
	total := limit
	span.SetAttributes(attribute.Int("total", total))

	items := make([]VideoRecord, 0, total)
	for _, raw := range entries {
		if len(items) >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			// client disconnected: stop after the in-flight item, emit nothing
			span.SetStatus(codes.Error, "cancelled")
			return items, err
		}
		entry, ok := ParseEntry(raw)
		if !ok {
			continue
		}
		if err := emit(progressEvent(len(items)+1, total)); err != nil {
			return items, err
		}
		rec := r.Enricher.Enrich(ctx, entry)
		metricVideosEnriched.Inc()
		items = append(items, rec)
	}

	if err := emit(doneEvent(items)); err != nil {
		return items, err
	}
	metricRunsCompleted.Inc()
	if r.Logger != nil {
		r.Logger.Printf("run %s: done, %d of %d items", runID, len(items), total)
	}
	return items, nil
}

// IsFatal reports whether an ingestion error belongs to the run-level
// taxonomy (fetch, extract, parse, no-videos) rather than transport trouble.
func IsFatal(err error) bool {
	var fe *FetchError
	var pe *ParseError
	return errors.As(err, &fe) || errors.As(err, &pe) ||
		errors.Is(err, ErrNoInitialData) || errors.Is(err, ErrNoVideos)
}
