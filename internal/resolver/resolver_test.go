// SPDX-License-Identifier: MIT

package resolver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signaltv/signaltv/internal/cache"
	"github.com/signaltv/signaltv/internal/config"
	"github.com/signaltv/signaltv/internal/fetch"
	"github.com/signaltv/signaltv/internal/log"
	"github.com/signaltv/signaltv/internal/m3u"
	"github.com/signaltv/signaltv/internal/match"
)

// fakeFetcher serves canned playlist text per source URL and counts calls,
// so tests can observe whether the cache actually prevented a fetch.
type fakeFetcher struct {
	playlists map[string]string
	calls     atomic.Int32
}

func (f *fakeFetcher) FetchAll(_ context.Context, sources []config.Source, _ int) map[string][]m3u.Entry {
	f.calls.Add(1)
	results := make(map[string][]m3u.Entry)
	for _, src := range sources {
		if text, ok := f.playlists[src.URL]; ok {
			results[src.URL] = m3u.Parse(text)
		}
	}
	return results
}

func (f *fakeFetcher) Probe(_ context.Context, sources []config.Source, _ int) []fetch.SourceStatus {
	statuses := make([]fetch.SourceStatus, 0, len(sources))
	for _, src := range sources {
		text, ok := f.playlists[src.URL]
		statuses = append(statuses, fetch.SourceStatus{
			Name:      src.Name,
			URL:       src.URL,
			Reachable: ok,
			Entries:   len(m3u.Parse(text)),
		})
	}
	return statuses
}

func playlist(lines ...string) string {
	return "#EXTM3U\n" + strings.Join(lines, "\n") + "\n"
}

func newTestService(t *testing.T, cfg config.Config, f Fetcher, sources []config.Source, wanted []config.Wanted) (*Service, *cache.Memory) {
	t.Helper()
	mem := cache.NewMemory(0)
	t.Cleanup(mem.Stop)

	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = time.Minute
	}
	if cfg.FetchConcurrency == 0 {
		cfg.FetchConcurrency = 2
	}

	s := New(cfg, f, mem)
	s.loadSources = func() ([]config.Source, error) { return sources, nil }
	s.loadWanted = func() ([]config.Wanted, error) { return wanted, nil }
	return s, mem
}

func TestChannelsPriorityScenario(t *testing.T) {
	// Source A (priority 1) carries the HD variant, source B the plain
	// name plus Nova TV. The first wanted channel matches A's entry via
	// the fuzzy stage; the second reaches Nova TV by abbreviation.
	f := &fakeFetcher{playlists: map[string]string{
		"http://a": playlist(
			`#EXTINF:-1 group-title="Sport",Sport Klub 1 HD`,
			"http://a/u1",
		),
		"http://b": playlist(
			`#EXTINF:-1 group-title="Sport",Sport Klub One`,
			"http://b/u2",
			`#EXTINF:-1,Nova TV`,
			"http://b/u3",
		),
	}}
	sources := []config.Source{
		{Priority: 1, Name: "A", URL: "http://a"},
		{Priority: 2, Name: "B", URL: "http://b"},
	}
	wanted := []config.Wanted{
		{Name: "Sport Klub 1"},
		{Name: "Nova Televizija"},
	}

	s, _ := newTestService(t, config.Config{}, f, sources, wanted)
	res, err := s.Channels(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Channels, 2)

	first, second := res.Channels[0], res.Channels[1]
	require.NotNil(t, first.URL)
	assert.Equal(t, "http://a/u1", *first.URL)
	assert.Equal(t, match.StatusOK, first.Status)

	require.NotNil(t, second.URL)
	assert.Equal(t, "http://b/u3", *second.URL)
	assert.Equal(t, match.StatusOK, second.Status)
	assert.Equal(t, "Nova Televizija", second.Name)
}

func TestChannelsServedFromCache(t *testing.T) {
	f := &fakeFetcher{playlists: map[string]string{
		"http://a": playlist(`#EXTINF:-1,RTS 1`, "http://a/rts1"),
	}}
	sources := []config.Source{{Priority: 1, Name: "A", URL: "http://a"}}
	wanted := []config.Wanted{{Name: "RTS 1"}}

	s, _ := newTestService(t, config.Config{}, f, sources, wanted)

	first, err := s.Channels(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(1), f.calls.Load())

	second, err := s.Channels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.calls.Load(), "second call inside the TTL must not fetch")

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("cached payload differs from original (-first +second):\n%s", diff)
	}
}

func TestChannelsInvalidateForcesRefresh(t *testing.T) {
	f := &fakeFetcher{playlists: map[string]string{
		"http://a": playlist(`#EXTINF:-1,RTS 1`, "http://a/rts1"),
	}}
	sources := []config.Source{{Priority: 1, Name: "A", URL: "http://a"}}
	wanted := []config.Wanted{{Name: "RTS 1"}}

	s, _ := newTestService(t, config.Config{}, f, sources, wanted)

	_, err := s.Channels(context.Background())
	require.NoError(t, err)

	s.Invalidate()

	_, err = s.Channels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls.Load(), "invalidation must force a new cycle")
}

func TestChannelsAllSourcesUnreachable(t *testing.T) {
	f := &fakeFetcher{playlists: map[string]string{}} // nothing reachable
	sources := []config.Source{
		{Priority: 1, Name: "A", URL: "http://a"},
		{Priority: 2, Name: "B", URL: "http://b"},
	}
	wanted := []config.Wanted{
		{Name: "RTS 1", Logo: "http://logo/rts1.png"},
		{Name: "Nova TV", Group: "Zabava"},
	}

	s, _ := newTestService(t, config.Config{}, f, sources, wanted)

	res, err := s.Channels(context.Background())
	require.NoError(t, err, "total outage is a normal result, not an error")
	require.Len(t, res.Channels, len(wanted), "every wanted channel must appear")

	for i, ch := range res.Channels {
		assert.Nil(t, ch.URL)
		assert.Equal(t, match.StatusUnavailable, ch.Status)
		assert.Equal(t, wanted[i].Name, ch.Name, "output order must follow input order")
	}
	assert.Equal(t, "http://logo/rts1.png", res.Channels[0].Logo)
	assert.Equal(t, "Zabava", res.Channels[1].Group)
}

func TestChannelsExportsPlaylist(t *testing.T) {
	dir := t.TempDir()
	f := &fakeFetcher{playlists: map[string]string{
		"http://a": playlist(
			`#EXTINF:-1 tvg-logo="http://logo/rts1.png" group-title="Nacionalne",RTS 1`,
			"http://a/rts1",
		),
	}}
	sources := []config.Source{{Priority: 1, Name: "A", URL: "http://a"}}
	wanted := []config.Wanted{
		{Name: "RTS 1"},
		{Name: "Does Not Exist Anywhere"},
	}

	s, _ := newTestService(t, config.Config{DataDir: dir}, f, sources, wanted)

	_, err := s.Channels(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "playlist.m3u"))
	require.NoError(t, err)

	entries := m3u.Parse(string(data))
	require.Len(t, entries, 1, "unavailable channels must not be exported")
	assert.Equal(t, "RTS 1", entries[0].RawName)
	assert.Equal(t, "http://a/rts1", entries[0].URL)
}

func TestChannelsConcurrentMissesSingleCycle(t *testing.T) {
	f := &fakeFetcher{playlists: map[string]string{
		"http://a": playlist(`#EXTINF:-1,RTS 1`, "http://a/rts1"),
	}}
	sources := []config.Source{{Priority: 1, Name: "A", URL: "http://a"}}
	wanted := []config.Wanted{{Name: "RTS 1"}}

	s, _ := newTestService(t, config.Config{}, f, sources, wanted)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Channels(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), f.calls.Load(), "concurrent misses must coalesce into one cycle")
}

func TestProbeReportsPerSource(t *testing.T) {
	f := &fakeFetcher{playlists: map[string]string{
		"http://a": playlist(`#EXTINF:-1,RTS 1`, "http://a/rts1"),
	}}
	sources := []config.Source{
		{Priority: 1, Name: "A", URL: "http://a"},
		{Priority: 2, Name: "B", URL: "http://b"},
	}

	s, _ := newTestService(t, config.Config{}, f, sources, nil)

	statuses, err := s.Probe(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.True(t, statuses[0].Reachable)
	assert.Equal(t, 1, statuses[0].Entries)
	assert.False(t, statuses[1].Reachable)
}

func TestChannelsServedWhenCachingFails(t *testing.T) {
	var buf bytes.Buffer
	log.Configure(log.Config{Output: &buf})
	t.Cleanup(func() { log.Configure(log.Config{}) })

	f := &fakeFetcher{playlists: map[string]string{
		"http://a": playlist(`#EXTINF:-1,Sport Klub 1`, "http://a/u1"),
	}}
	sources := []config.Source{{Priority: 1, Name: "A", URL: "http://a"}}
	wanted := []config.Wanted{{Name: "Sport Klub 1"}}

	s, mem := newTestService(t, config.Config{}, f, sources, wanted)
	s.marshal = func(any) ([]byte, error) { return nil, errors.New("encode failure") }

	res, err := s.Channels(context.Background())
	require.NoError(t, err, "an uncacheable result must still be served")
	require.Len(t, res.Channels, 1)
	assert.Equal(t, match.StatusOK, res.Channels[0].Status)

	_, cached := mem.Get(cacheKey)
	assert.False(t, cached, "a failed encode must not leave a cache entry")
	assert.Contains(t, buf.String(), "cache.encode_failed")

	_, err = s.Channels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls.Load(), "without a cache entry every request re-resolves")
}
