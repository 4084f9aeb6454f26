// SPDX-License-Identifier: MIT

// Package resolver runs the fetch→parse→merge→match pipeline and memoizes
// its result for a configurable time window.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/signaltv/signaltv/internal/cache"
	"github.com/signaltv/signaltv/internal/catalog"
	"github.com/signaltv/signaltv/internal/config"
	"github.com/signaltv/signaltv/internal/fetch"
	"github.com/signaltv/signaltv/internal/log"
	"github.com/signaltv/signaltv/internal/m3u"
	"github.com/signaltv/signaltv/internal/match"
	"github.com/signaltv/signaltv/internal/metrics"
)

// cacheKey stores the one resolution payload this daemon produces.
const cacheKey = "signaltv:resolved"

// Fetcher is the slice of the fetch client the resolver needs.
type Fetcher interface {
	FetchAll(ctx context.Context, sources []config.Source, concurrency int) map[string][]m3u.Entry
	Probe(ctx context.Context, sources []config.Source, concurrency int) []fetch.SourceStatus
}

// Result is the cached output of one resolution cycle.
type Result struct {
	Channels   []match.ResolvedChannel `json:"channels"`
	ProducedAt time.Time               `json:"produced_at"`
}

// Service resolves wanted channels against the configured playlist sources.
type Service struct {
	cfg     config.Config
	fetcher Fetcher
	cache   cache.Cache

	// refreshMu serializes cache refreshes so concurrent misses do not
	// fan out into parallel fetch cycles.
	refreshMu sync.Mutex

	// loader and codec seams for tests
	loadSources func() ([]config.Source, error)
	loadWanted  func() ([]config.Wanted, error)
	marshal     func(any) ([]byte, error)
}

// New creates a resolver service over the given fetcher and cache.
func New(cfg config.Config, fetcher Fetcher, c cache.Cache) *Service {
	return &Service{
		cfg:         cfg,
		fetcher:     fetcher,
		cache:       c,
		loadSources: func() ([]config.Source, error) { return config.LoadSources(cfg.SourcesPath) },
		loadWanted:  func() ([]config.Wanted, error) { return config.LoadWanted(cfg.WantedPath) },
		marshal:     json.Marshal,
	}
}

// Channels returns the resolved channel list, serving the cached payload
// when it is still inside the TTL window and running a full resolution
// cycle otherwise.
func (s *Service) Channels(ctx context.Context) (Result, error) {
	if res, ok := s.cached(); ok {
		metrics.RecordCacheHit()
		return res, nil
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// another caller may have refreshed while we waited for the lock
	if res, ok := s.cached(); ok {
		metrics.RecordCacheHit()
		return res, nil
	}

	metrics.RecordCacheMiss()
	res, err := s.resolve(ctx)
	if err != nil {
		return Result{}, err
	}

	if payload, err := s.marshal(res); err == nil {
		s.cache.Set(cacheKey, payload, s.cfg.CacheTTL)
	} else {
		// the result is still served; only the memoization is lost
		logger := log.WithComponent("resolver")
		logger.Error().
			Err(err).
			Str("event", "cache.encode_failed").
			Msg("cannot encode resolution for caching, every request will re-resolve")
	}
	return res, nil
}

// Invalidate clears the cached payload; the next Channels call refreshes.
func (s *Service) Invalidate() {
	s.cache.Delete(cacheKey)
	logger := log.WithComponent("resolver")
	logger.Info().
		Str("event", "cache.invalidated").
		Msg("resolution cache invalidated")
}

// CacheStats reports hit/miss/entry counters of the backing cache.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// Probe reports per-source availability; it never touches the cache.
func (s *Service) Probe(ctx context.Context) ([]fetch.SourceStatus, error) {
	sources, err := s.loadSources()
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}
	return s.fetcher.Probe(ctx, sources, s.cfg.FetchConcurrency), nil
}

func (s *Service) cached() (Result, bool) {
	payload, ok := s.cache.Get(cacheKey)
	if !ok {
		return Result{}, false
	}
	var res Result
	if err := json.Unmarshal(payload, &res); err != nil {
		// a corrupt payload is treated as a miss and overwritten
		logger := log.WithComponent("resolver")
		logger.Warn().
			Err(err).
			Str("event", "cache.corrupt").
			Msg("discarding unreadable cache payload")
		return Result{}, false
	}
	return res, true
}

// resolve runs one full resolution cycle. Unreachable sources degrade to
// zero entries; an empty catalog yields an all-unavailable list, never an
// error, so callers need not special-case total outage.
func (s *Service) resolve(ctx context.Context) (Result, error) {
	logger := log.WithComponentFromContext(ctx, "resolver")
	start := time.Now()

	sources, err := s.loadSources()
	if err != nil {
		return Result{}, fmt.Errorf("load sources: %w", err)
	}
	wanted, err := s.loadWanted()
	if err != nil {
		return Result{}, fmt.Errorf("load wanted channels: %w", err)
	}

	results := s.fetcher.FetchAll(ctx, sources, s.cfg.FetchConcurrency)
	cat := catalog.Merge(sources, results)
	metrics.RecordCatalogSize(cat.Len())

	channels := make([]match.ResolvedChannel, 0, len(wanted))
	available := 0
	for _, w := range wanted {
		ch := match.Resolve(w, cat)
		if ch.Status == match.StatusOK {
			available++
		}
		metrics.RecordChannelResolved(ch.Status == match.StatusOK)
		channels = append(channels, ch)
	}

	res := Result{Channels: channels, ProducedAt: time.Now()}

	if s.cfg.DataDir != "" {
		s.exportPlaylist(ctx, channels)
	}

	metrics.ObserveResolutionDuration(time.Since(start))
	logger.Info().
		Str("event", "resolve.complete").
		Int("sources", len(sources)).
		Int("reachable", len(results)).
		Int("catalog", cat.Len()).
		Int("wanted", len(wanted)).
		Int("available", available).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("resolution cycle completed")

	return res, nil
}
