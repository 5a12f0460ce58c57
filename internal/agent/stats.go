package agent

import (
	"math"
	"sort"
)

// SeriesStats is the numeric summary attached to chart results.
type SeriesStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summarize computes the summary for a numeric series. Empty input returns a
// zero summary.
func Summarize(values []float64) SeriesStats {
	if len(values) == 0 {
		return SeriesStats{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}
	return SeriesStats{
		Count:  len(sorted),
		Mean:   sum / float64(len(sorted)),
		Median: median,
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
}

// HistogramBucket is one bar of a histogram chart.
type HistogramBucket struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// Histogram buckets a series into n equal-width ranges. The top bucket is
// closed so the maximum lands in it rather than past it.
func Histogram(values []float64, n int) []HistogramBucket {
	if len(values) == 0 || n <= 0 {
		return nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	width := (hi - lo) / float64(n)
	if width == 0 {
		return []HistogramBucket{{Low: lo, High: hi, Count: len(values)}}
	}
	buckets := make([]HistogramBucket, n)
	for i := range buckets {
		buckets[i].Low = lo + float64(i)*width
		buckets[i].High = lo + float64(i+1)*width
	}
	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= n {
			idx = n - 1
		}
		buckets[idx].Count++
	}
	return buckets
}
