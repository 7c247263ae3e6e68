// Package state holds the server's in-memory usage snapshot. Refreshes
// replace the snapshot wholesale; request handlers only ever read a
// consistent copy.
package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"ccdash/internal/currency"
	"ccdash/internal/model"
	"ccdash/internal/source"
)

// ErrNoData is returned before the first successful refresh.
var ErrNoData = errors.New("no usage data loaded yet")

// RateClient fetches the USD to INR rate.
type RateClient interface {
	FetchINR(ctx context.Context) (float64, bool)
}

// Snapshot is one immutable refresh result.
type Snapshot struct {
	Usage        model.UsageResponse
	FetchedAt    time.Time
	RateFallback bool
}

// Store owns the current snapshot and the conversion rate state.
type Store struct {
	source source.Source
	rates  RateClient
	logger *zap.Logger

	mu        sync.RWMutex
	snap      *Snapshot
	converter *currency.Converter
}

// New returns an empty store. Refresh must succeed once before View
// returns data.
func New(src source.Source, rates RateClient, fallbackRate float64, logger *zap.Logger) *Store {
	return &Store{
		source:    src,
		rates:     rates,
		logger:    logger,
		converter: currency.NewConverter(fallbackRate),
	}
}

// Refresh fetches a fresh usage snapshot and one exchange rate, then
// swaps both in atomically. A failed fetch leaves the previous snapshot
// in place.
func (s *Store) Refresh(ctx context.Context) error {
	resp, err := s.source.Fetch(ctx)
	if err != nil {
		s.logger.Error("usage refresh failed", zap.Error(err))
		return err
	}

	resp, corrected := source.Normalize(resp)
	for _, date := range corrected {
		s.logger.Warn("recomputed totalTokens from component counters",
			zap.String("date", date))
	}

	rate, fallback := s.rates.FetchINR(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	// One rate lookup per refresh, recorded against the newest date.
	// Input order is not trusted, so scan for the maximum. ISO dates
	// compare correctly as strings.
	newest := ""
	for _, day := range resp.Daily {
		if day.Date > newest {
			newest = day.Date
		}
	}
	s.converter.SetRate(newest, rate)

	s.snap = &Snapshot{
		Usage:        resp,
		FetchedAt:    time.Now(),
		RateFallback: fallback,
	}

	s.logger.Info("usage snapshot refreshed",
		zap.Int("days", len(resp.Daily)),
		zap.Float64("totalCost", resp.Totals.TotalCost),
		zap.Float64("inrRate", rate),
		zap.Bool("rateFallback", fallback))
	return nil
}

// View returns the current snapshot together with an independent copy
// of the converter, safe to use for the rest of the request.
func (s *Store) View() (Snapshot, *currency.Converter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snap == nil {
		return Snapshot{}, nil, ErrNoData
	}
	return *s.snap, s.converter.Clone(), nil
}

// SetManualRate applies a user-supplied INR rate. It reports whether
// the value was accepted.
func (s *Store) SetManualRate(rate float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok := s.converter.SetManualRate(rate)
	if ok {
		s.logger.Info("manual exchange rate set", zap.Float64("rate", rate))
	}
	return ok
}

// HasData reports whether a snapshot has been loaded.
func (s *Store) HasData() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap != nil
}
