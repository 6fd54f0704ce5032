// Package application loads device history into per-view sample
// stores.
package application

import (
	"context"
	"errors"

	"energy-dashboard/internal/observability/metrics"
	telemetry "energy-dashboard/internal/telemetry/domain"
)

// Source supplies the ordered-by-time sample sequence for a device.
type Source interface {
	ByDevice(ctx context.Context, deviceID int64) ([]telemetry.ConsumptionSample, error)
}

// Cache is an optional read-through layer in front of the source.
type Cache interface {
	GetHistory(ctx context.Context, deviceID int64) ([]telemetry.ConsumptionSample, bool)
	PutHistory(ctx context.Context, deviceID int64, samples []telemetry.ConsumptionSample)
}

// HistoryService builds a fresh SampleStore per device view.
type HistoryService struct {
	source Source
	cache  Cache
}

// Option configures the history service.
type Option func(*HistoryService)

// WithCache enables the read-through cache.
func WithCache(cache Cache) Option {
	return func(s *HistoryService) {
		s.cache = cache
	}
}

// NewHistoryService constructs the service.
func NewHistoryService(source Source, opts ...Option) (*HistoryService, error) {
	if source == nil {
		return nil, errors.New("history service: nil source")
	}
	service := &HistoryService{source: source}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Load builds a sample store for a device. The store is recreated per
// call and owned by the caller; an unknown device yields an empty
// store, not an error.
func (s *HistoryService) Load(ctx context.Context, deviceID int64) (*telemetry.SampleStore, error) {
	samples, err := s.fetch(ctx, deviceID)
	if err != nil {
		metrics.ObserveHistoryQuery(metrics.ResultError)
		return nil, err
	}
	metrics.ObserveHistoryQuery(metrics.ResultSuccess)

	store := telemetry.NewSampleStore()
	for _, sample := range samples {
		store.Append(sample)
	}
	return store, nil
}

func (s *HistoryService) fetch(ctx context.Context, deviceID int64) ([]telemetry.ConsumptionSample, error) {
	if s.cache != nil {
		if samples, ok := s.cache.GetHistory(ctx, deviceID); ok {
			metrics.ObserveHistoryCache("hit")
			return samples, nil
		}
		metrics.ObserveHistoryCache("miss")
	}

	samples, err := s.source.ByDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.PutHistory(ctx, deviceID, samples)
	}
	return samples, nil
}
