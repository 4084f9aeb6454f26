// SPDX-License-Identifier: MIT

// Package fetch retrieves playlist documents over HTTP. Failures are a
// normal outcome at this boundary: a source that times out, answers non-2xx
// or returns something that is not a playlist simply contributes no data.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/signaltv/signaltv/internal/config"
	"github.com/signaltv/signaltv/internal/log"
	"github.com/signaltv/signaltv/internal/m3u"
	"github.com/signaltv/signaltv/internal/metrics"
)

// maxBodySize caps how much of a playlist response is read.
const maxBodySize = 50 << 20 // 50 MiB

// Client fetches playlist text with a bounded per-request timeout.
type Client struct {
	http    *http.Client
	timeout time.Duration
}

// New creates a fetch client. timeout bounds each individual request.
func New(timeout time.Duration) *Client {
	return &Client{
		// The per-request context carries the deadline; the http.Client
		// timeout is a backstop for body reads.
		http:    &http.Client{Timeout: 2 * timeout},
		timeout: timeout,
	}
}

// Fetch retrieves one playlist document. A non-2xx status, a body without
// the playlist signature, or any transport fault yields an error the caller
// is expected to downgrade, never to propagate.
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch playlist: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch playlist: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("read playlist body: %w", err)
	}

	text := string(body)
	if !strings.Contains(text, m3u.Signature) {
		return "", fmt.Errorf("response is not an extended M3U playlist")
	}

	return text, nil
}

// FetchAll retrieves every source with bounded parallelism and returns the
// parsed entries of the sources that succeeded, keyed by source URL. One
// slow source cannot serialize the cycle: total latency is bounded by the
// slowest source's own timeout, not the sum of all of them.
func (c *Client) FetchAll(ctx context.Context, sources []config.Source, concurrency int) map[string][]m3u.Entry {
	logger := log.WithComponentFromContext(ctx, "fetch")

	if concurrency < 1 {
		concurrency = 1
	}

	var mu sync.Mutex
	results := make(map[string][]m3u.Entry, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, src := range sources {
		g.Go(func() error {
			text, err := c.Fetch(gctx, src.URL)
			if err != nil {
				// SourceUnreachable: recovered here, the source just
				// contributes zero entries this cycle.
				logger.Warn().
					Err(err).
					Str("event", "source.unreachable").
					Str("source", src.Name).
					Str("url", src.URL).
					Msg("source fetch failed")
				metrics.RecordSourceFetchFailure(src.Name)
				return nil
			}

			entries := m3u.Parse(text)
			metrics.RecordSourceFetchSuccess(src.Name)
			metrics.RecordSourceEntries(src.Name, len(entries))
			logger.Debug().
				Str("event", "source.fetched").
				Str("source", src.Name).
				Int("entries", len(entries)).
				Msg("source fetched")

			mu.Lock()
			results[src.URL] = entries
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors; Wait only synchronizes.
	_ = g.Wait()

	return results
}

// SourceStatus is the availability probe result for one source.
type SourceStatus struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	Reachable bool   `json:"reachable"`
	Entries   int    `json:"entries"`
}

// Probe checks every source and reports reachability plus entry count.
// Diagnostic only; it shares the fetch path but bypasses any caching.
func (c *Client) Probe(ctx context.Context, sources []config.Source, concurrency int) []SourceStatus {
	results := c.FetchAll(ctx, sources, concurrency)

	statuses := make([]SourceStatus, 0, len(sources))
	for _, src := range sources {
		entries, ok := results[src.URL]
		statuses = append(statuses, SourceStatus{
			Name:      src.Name,
			URL:       src.URL,
			Reachable: ok,
			Entries:   len(entries),
		})
	}
	return statuses
}
