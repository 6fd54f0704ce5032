package telemetry

import (
	"errors"
	"sort"
)

// ErrEmptyStore is returned when a store holds no samples.
var ErrEmptyStore = errors.New("telemetry: empty sample store")

// ConsumptionSample is one timestamped consumption reading.
// Timestamp is epoch milliseconds; Value is kWh and never negative
// at the source.
type ConsumptionSample struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"total_consumption"`
}

// SampleStore holds the raw sample sequence for one device view.
// It is owned by a single view session; a store is recreated per
// session and never shared across sessions, so it carries no lock.
type SampleStore struct {
	samples []ConsumptionSample
}

// NewSampleStore constructs an empty store.
func NewSampleStore() *SampleStore {
	return &SampleStore{}
}

// Append accepts a sample. Out-of-order input is not rejected; the
// read contract re-establishes timestamp order.
func (s *SampleStore) Append(sample ConsumptionSample) {
	s.samples = append(s.samples, sample)
}

// Len returns the number of stored samples.
func (s *SampleStore) Len() int {
	return len(s.samples)
}

// All returns the samples in timestamp-ascending order regardless of
// insertion order. The sort is stable: equal timestamps keep their
// insertion order. The returned slice is a copy.
func (s *SampleStore) All() []ConsumptionSample {
	out := append([]ConsumptionSample(nil), s.samples...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}

// Latest returns the maximum-timestamp sample.
func (s *SampleStore) Latest() (ConsumptionSample, error) {
	if len(s.samples) == 0 {
		return ConsumptionSample{}, ErrEmptyStore
	}
	latest := s.samples[0]
	for _, sample := range s.samples[1:] {
		if sample.Timestamp >= latest.Timestamp {
			latest = sample
		}
	}
	return latest, nil
}
