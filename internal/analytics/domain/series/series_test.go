package series

import (
	"errors"
	"math"
	"testing"
	"time"

	telemetry "energy-dashboard/internal/telemetry/domain"
)

func sampleAt(t time.Time, value float64) telemetry.ConsumptionSample {
	return telemetry.ConsumptionSample{Timestamp: t.UnixMilli(), Value: value}
}

func TestDailyConservesTotal(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 30, 0, 0, time.Local)
	samples := []telemetry.ConsumptionSample{
		sampleAt(base, 1.5),
		sampleAt(base.Add(30*time.Minute), 2.25),
		sampleAt(base.Add(26*time.Hour), 0.75),
		sampleAt(base.Add(50*time.Hour), 4.0),
		sampleAt(base.Add(-72*time.Hour), 3.5),
	}

	var want float64
	for _, s := range samples {
		want += s.Value
	}

	out := Daily(samples)
	var got float64
	for _, p := range out.Points {
		got += p.Value
	}
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("daily buckets sum %f, inputs sum %f", got, want)
	}
}

func TestHourlyBucketKeysAscendingHourAligned(t *testing.T) {
	base := time.Date(2026, 3, 10, 6, 12, 45, 0, time.UTC)
	samples := []telemetry.ConsumptionSample{
		sampleAt(base.Add(5*time.Hour), 1),
		sampleAt(base, 2),
		sampleAt(base.Add(10*time.Minute), 3),
		sampleAt(base.Add(2*time.Hour), 4),
	}

	out := Hourly(samples)
	if len(out.Points) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(out.Points))
	}

	// Re-derive keys the way the engine buckets to assert alignment.
	prev := int64(math.MinInt64)
	for _, s := range sortedCopy(samples) {
		key := time.UnixMilli(s.Timestamp).Truncate(time.Hour).UnixMilli()
		if key%time.Hour.Milliseconds() != 0 {
			t.Fatalf("bucket key %d is not hour-aligned", key)
		}
		if key < prev {
			t.Fatalf("bucket key %d below previous %d", key, prev)
		}
		prev = key
	}
}

func TestHourlySumsWithinBucket(t *testing.T) {
	hour := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	samples := []telemetry.ConsumptionSample{
		sampleAt(hour.Add(5*time.Minute), 1.0),
		sampleAt(hour.Add(25*time.Minute), 2.0),
		sampleAt(hour.Add(55*time.Minute), 0.5),
	}

	out := Hourly(samples)
	if len(out.Points) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(out.Points))
	}
	if out.Points[0].Value != 3.5 {
		t.Fatalf("expected bucket sum 3.5, got %f", out.Points[0].Value)
	}
}

func TestHourlyWindowExcludesOldSamples(t *testing.T) {
	latest := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	samples := []telemetry.ConsumptionSample{
		sampleAt(latest.Add(-30*time.Hour), 9),
		sampleAt(latest.Add(-3*time.Hour), 1),
		sampleAt(latest, 2),
	}

	out := Hourly(samples)
	var total float64
	for _, p := range out.Points {
		total += p.Value
	}
	if total != 3 {
		t.Fatalf("samples older than 24h must be excluded, got total %f", total)
	}
}

func TestRecentWindowAnchoredToLatestSample(t *testing.T) {
	// Data is stale relative to wall clock; the anchor must follow the
	// data, so the latest sample is always included.
	latest := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	samples := []telemetry.ConsumptionSample{
		sampleAt(latest.Add(-3*time.Hour), 9),
		sampleAt(latest.Add(-119*time.Minute), 1),
		sampleAt(latest.Add(-time.Hour), 2),
		sampleAt(latest, 3),
	}

	out := Recent(samples)
	if len(out.Points) != 3 {
		t.Fatalf("expected 3 points inside the 2h window, got %d", len(out.Points))
	}
	if out.Points[len(out.Points)-1].Value != 3 {
		t.Fatal("latest sample must be included")
	}
	for _, p := range out.Points {
		if p.Value == 9 {
			t.Fatal("sample older than 2h before latest must be excluded")
		}
	}
}

func TestRecentUsesValuesVerbatim(t *testing.T) {
	latest := time.Date(2026, 3, 10, 14, 10, 0, 0, time.UTC)
	samples := []telemetry.ConsumptionSample{
		sampleAt(latest.Add(-10*time.Minute), 1.25),
		sampleAt(latest, 1.25),
	}

	out := Recent(samples)
	if len(out.Points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(out.Points))
	}
	for _, p := range out.Points {
		if p.Value != 1.25 {
			t.Fatalf("recent view must not aggregate, got %f", p.Value)
		}
	}
}

func TestEmptyInputYieldsEmptySeries(t *testing.T) {
	for _, view := range []View{ViewRecent, ViewHourly, ViewDaily} {
		out, err := ForView(view, nil)
		if err != nil {
			t.Fatalf("view %s: %v", view, err)
		}
		if len(out.Points) != 0 {
			t.Fatalf("view %s: expected no points, got %d", view, len(out.Points))
		}
		if out.Label == "" || out.Color == "" {
			t.Fatalf("view %s: label and color must still be set", view)
		}
	}
}

func TestSparseBucketsNotZeroFilled(t *testing.T) {
	// Two populated hours with a gap in between stay two buckets.
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	samples := []telemetry.ConsumptionSample{
		sampleAt(base, 1),
		sampleAt(base.Add(5*time.Hour), 2),
	}

	out := Hourly(samples)
	if len(out.Points) != 2 {
		t.Fatalf("gaps must stay sparse, expected 2 buckets got %d", len(out.Points))
	}
}

func TestForViewRejectsUnknownView(t *testing.T) {
	_, err := ForView(View("weekly"), nil)
	if !errors.Is(err, ErrInvalidView) {
		t.Fatalf("expected ErrInvalidView, got %v", err)
	}
}
