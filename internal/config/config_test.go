// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSources(t *testing.T) {
	input := strings.Join([]string{
		"# primary list",
		"Big List | http://example.com/big.m3u",
		"",
		"http://example.com/bare.m3u",
		"Backup|http://example.com/backup.m3u",
	}, "\n")

	sources, err := ParseSources(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, sources, 3)

	assert.Equal(t, Source{Priority: 1, Name: "Big List", URL: "http://example.com/big.m3u"}, sources[0])
	assert.Equal(t, Source{Priority: 2, Name: "List 2", URL: "http://example.com/bare.m3u"}, sources[1])
	assert.Equal(t, Source{Priority: 3, Name: "Backup", URL: "http://example.com/backup.m3u"}, sources[2])
}

func TestParseSourcesEmpty(t *testing.T) {
	sources, err := ParseSources(strings.NewReader("# nothing here\n\n"))
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestLoadWanted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wanted.json")
	doc := `[
		{"name": "Sport Klub 1", "group": "Sport", "logo": "http://logo/sk1.png"},
		{"name": "Nova Televizija"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	wanted, err := LoadWanted(path)
	require.NoError(t, err)
	require.Len(t, wanted, 2)
	assert.Equal(t, Wanted{Name: "Sport Klub 1", Group: "Sport", Logo: "http://logo/sk1.png"}, wanted[0])
	assert.Equal(t, Wanted{Name: "Nova Televizija"}, wanted[1])
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 4, cfg.FetchConcurrency)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	file := strings.Join([]string{
		"listen: \":9000\"",
		"cache_ttl: 1m",
		"fetch_concurrency: 2",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(file), 0o644))

	t.Setenv("SIGNALTV_LISTEN", ":7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.ListenAddr, "environment must win over file")
	assert.Equal(t, time.Minute, cfg.CacheTTL, "file must win over defaults")
	assert.Equal(t, 2, cfg.FetchConcurrency)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache_ttl: soon\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := defaults()
	require.NoError(t, Validate(cfg))

	bad := cfg
	bad.FetchConcurrency = 0
	assert.Error(t, Validate(bad))

	bad = cfg
	bad.CacheTTL = 0
	assert.Error(t, Validate(bad))

	bad = cfg
	bad.SourcesPath = ""
	assert.Error(t, Validate(bad))
}
