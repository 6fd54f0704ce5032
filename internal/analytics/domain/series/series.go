// Package series turns raw consumption samples into windowed,
// labeled series for the dashboard chart.
package series

import (
	"errors"
	"sort"
	"time"

	telemetry "energy-dashboard/internal/telemetry/domain"
)

// View selects one of the three chart views.
type View string

const (
	ViewRecent View = "recent"
	ViewHourly View = "hourly"
	ViewDaily  View = "daily"
)

// ErrInvalidView is returned for an unrecognized view selector.
var ErrInvalidView = errors.New("series: invalid view")

const (
	recentWindow = 2 * time.Hour
	hourlyWindow = 24 * time.Hour

	labelRecent = "Consumption (Last 2 Hours)"
	labelHourly = "Hourly Consumption (Last 24 Hours)"
	labelDaily  = "Total Daily Consumption (All Time)"

	colorRecent = "rgb(75, 192, 192)"
	colorHourly = "rgb(54, 162, 235)"
	colorDaily  = "rgb(255, 99, 132)"
)

// Point is one chart point: a bucket label and its value.
type Point struct {
	Bucket string  `json:"bucket"`
	Value  float64 `json:"value"`
}

// Series is the output of one view computation. It is produced fresh
// on every evaluation and never mutated in place.
type Series struct {
	Label  string  `json:"label"`
	Color  string  `json:"color"`
	Points []Point `json:"points"`
}

// IsValid reports whether the view selector is one of the three views.
func (v View) IsValid() bool {
	switch v {
	case ViewRecent, ViewHourly, ViewDaily:
		return true
	default:
		return false
	}
}

// ForView evaluates the view against the samples.
func ForView(view View, samples []telemetry.ConsumptionSample) (Series, error) {
	switch view {
	case ViewRecent:
		return Recent(samples), nil
	case ViewHourly:
		return Hourly(samples), nil
	case ViewDaily:
		return Daily(samples), nil
	default:
		return Series{}, ErrInvalidView
	}
}

// Recent returns one point per sample within the last two hours of
// data. The window anchor is the latest SAMPLE timestamp, not wall
// clock, so the view stays meaningful against stale or simulated
// feeds.
func Recent(samples []telemetry.ConsumptionSample) Series {
	out := Series{Label: labelRecent, Color: colorRecent}
	sorted := sortedCopy(samples)
	if len(sorted) == 0 {
		return out
	}

	anchor := sorted[len(sorted)-1].Timestamp
	cutoff := anchor - recentWindow.Milliseconds()
	for _, sample := range sorted {
		if sample.Timestamp < cutoff {
			continue
		}
		out.Points = append(out.Points, Point{
			Bucket: time.UnixMilli(sample.Timestamp).Format("15:04"),
			Value:  sample.Value,
		})
	}
	return out
}

// Hourly sums samples from the last 24 hours of data into one-hour
// buckets anchored at the top of each hour. Hours with no samples are
// not synthesized: the output is sparse.
func Hourly(samples []telemetry.ConsumptionSample) Series {
	out := Series{Label: labelHourly, Color: colorHourly}
	sorted := sortedCopy(samples)
	if len(sorted) == 0 {
		return out
	}

	anchor := sorted[len(sorted)-1].Timestamp
	cutoff := anchor - hourlyWindow.Milliseconds()

	sums := make(map[int64]float64)
	keys := make([]int64, 0)
	for _, sample := range sorted {
		if sample.Timestamp < cutoff {
			continue
		}
		key := time.UnixMilli(sample.Timestamp).Truncate(time.Hour).UnixMilli()
		if _, seen := sums[key]; !seen {
			keys = append(keys, key)
		}
		sums[key] += sample.Value
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, key := range keys {
		out.Points = append(out.Points, Point{
			Bucket: time.UnixMilli(key).Format("15:04"),
			Value:  sums[key],
		})
	}
	return out
}

// Daily sums the full history into local calendar-day buckets. Like
// Hourly, days with no samples are not synthesized.
func Daily(samples []telemetry.ConsumptionSample) Series {
	out := Series{Label: labelDaily, Color: colorDaily}
	sorted := sortedCopy(samples)
	if len(sorted) == 0 {
		return out
	}

	sums := make(map[int64]float64)
	keys := make([]int64, 0)
	for _, sample := range sorted {
		at := time.UnixMilli(sample.Timestamp).Local()
		day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
		key := day.UnixMilli()
		if _, seen := sums[key]; !seen {
			keys = append(keys, key)
		}
		sums[key] += sample.Value
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, key := range keys {
		out.Points = append(out.Points, Point{
			Bucket: time.UnixMilli(key).Local().Format("2006-01-02"),
			Value:  sums[key],
		})
	}
	return out
}

// sortedCopy re-establishes timestamp order defensively; callers are
// not trusted to pre-validate monotonicity.
func sortedCopy(samples []telemetry.ConsumptionSample) []telemetry.ConsumptionSample {
	out := append([]telemetry.ConsumptionSample(nil), samples...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}
