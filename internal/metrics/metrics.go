// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus instrumentation for the resolver.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sourceFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signaltv_source_fetch_total",
		Help: "Playlist source fetch attempts by source and outcome",
	}, []string{"source", "outcome"}) // outcome=success|failure

	sourceEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "signaltv_source_entries",
		Help: "Entries parsed from each source in the last resolution cycle",
	}, []string{"source"})

	catalogSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signaltv_catalog_size",
		Help: "Distinct channels in the merged catalog (last resolution cycle)",
	})

	channelResolutionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signaltv_channel_resolution_total",
		Help: "Wanted-channel resolution outcomes",
	}, []string{"outcome"}) // outcome=ok|unavailable

	resolutionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "signaltv_resolution_duration_seconds",
		Help:    "Time spent on a full fetch-parse-merge-resolve cycle",
		Buckets: prometheus.DefBuckets,
	})

	cacheRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signaltv_cache_requests_total",
		Help: "Resolution cache lookups by outcome",
	}, []string{"outcome"}) // outcome=hit|miss

	playlistExportErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signaltv_playlist_export_errors_total",
		Help: "Failures writing the exported playlist file",
	})
)

func RecordSourceFetchSuccess(source string) {
	sourceFetchTotal.WithLabelValues(source, "success").Inc()
}

func RecordSourceFetchFailure(source string) {
	sourceFetchTotal.WithLabelValues(source, "failure").Inc()
}

func RecordSourceEntries(source string, n int) { sourceEntries.WithLabelValues(source).Set(float64(n)) }

func RecordCatalogSize(n int) { catalogSize.Set(float64(n)) }

func RecordChannelResolved(ok bool) {
	if ok {
		channelResolutionTotal.WithLabelValues("ok").Inc()
	} else {
		channelResolutionTotal.WithLabelValues("unavailable").Inc()
	}
}

func ObserveResolutionDuration(d time.Duration) { resolutionDuration.Observe(d.Seconds()) }

func RecordCacheHit()  { cacheRequestsTotal.WithLabelValues("hit").Inc() }
func RecordCacheMiss() { cacheRequestsTotal.WithLabelValues("miss").Inc() }

func IncPlaylistExportError() { playlistExportErrors.Inc() }
