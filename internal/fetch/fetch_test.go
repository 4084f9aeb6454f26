// SPDX-License-Identifier: MIT

package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/signaltv/signaltv/internal/config"
)

const samplePlaylist = "#EXTM3U\n#EXTINF:-1 group-title=\"Sport\",Sport Klub 1\nhttp://example.com/sk1\n"

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(samplePlaylist))
	}))
	defer srv.Close()

	c := New(2 * time.Second)
	text, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, samplePlaylist, text)
}

func TestFetchNon2xxIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(2 * time.Second)
	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
}

func TestFetchMissingSignatureIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>definitely not a playlist</html>"))
	}))
	defer srv.Close()

	c := New(2 * time.Second)
	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := New(50 * time.Millisecond)
	start := time.Now()
	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second, "timeout must bound the request")
}

func TestFetchAllSkipsFailedSources(t *testing.T) {
	defer goleak.VerifyNone(t)

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(samplePlaylist))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer bad.Close()

	sources := []config.Source{
		{Priority: 1, Name: "bad", URL: bad.URL},
		{Priority: 2, Name: "good", URL: good.URL},
	}

	c := New(2 * time.Second)
	defer c.http.CloseIdleConnections()
	results := c.FetchAll(context.Background(), sources, 2)

	require.Len(t, results, 1)
	entries, ok := results[good.URL]
	require.True(t, ok)
	require.Len(t, entries, 1)
	assert.Equal(t, "Sport Klub 1", entries[0].RawName)
}

func TestFetchAllBoundedParallelism(t *testing.T) {
	defer goleak.VerifyNone(t)

	const limit = 2
	var inFlight, peak atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write([]byte(samplePlaylist))
	}))
	defer srv.Close()

	sources := make([]config.Source, 6)
	for i := range sources {
		sources[i] = config.Source{Priority: i + 1, Name: "s", URL: srv.URL + "/?i=" + string(rune('a'+i))}
	}

	c := New(2 * time.Second)
	defer c.http.CloseIdleConnections()
	results := c.FetchAll(context.Background(), sources, limit)

	assert.Len(t, results, len(sources))
	assert.LessOrEqual(t, peak.Load(), int32(limit), "worker pool must bound concurrency")
}

func TestProbe(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(samplePlaylist))
	}))
	defer good.Close()

	sources := []config.Source{
		{Priority: 1, Name: "good", URL: good.URL},
		{Priority: 2, Name: "down", URL: "http://127.0.0.1:1/nope"},
	}

	c := New(500 * time.Millisecond)
	statuses := c.Probe(context.Background(), sources, 2)

	require.Len(t, statuses, 2)
	assert.Equal(t, SourceStatus{Name: "good", URL: good.URL, Reachable: true, Entries: 1}, statuses[0])
	assert.Equal(t, SourceStatus{Name: "down", URL: "http://127.0.0.1:1/nope", Reachable: false, Entries: 0}, statuses[1])
}
