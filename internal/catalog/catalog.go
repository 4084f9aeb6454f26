// SPDX-License-Identifier: MIT

// Package catalog merges parsed playlist entries from multiple sources into
// one deduplicated, priority-ordered channel catalog.
package catalog

import (
	"sort"

	"github.com/signaltv/signaltv/internal/config"
	"github.com/signaltv/signaltv/internal/m3u"
)

// Catalog maps normalized channel keys to their winning stream entry.
// Iteration over Keys is deterministic: source priority order first,
// then first-seen order within a source.
type Catalog struct {
	entries map[string]m3u.Entry
	keys    []string
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{entries: make(map[string]m3u.Entry)}
}

// Merge builds a catalog from fetch results, processing sources in ascending
// priority order regardless of the order their fetches completed in. For
// each key the entry from the lowest-priority-index source wins; sources
// absent from results contributed nothing and are skipped.
func Merge(sources []config.Source, results map[string][]m3u.Entry) *Catalog {
	ordered := make([]config.Source, len(sources))
	copy(ordered, sources)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	c := New()
	for _, src := range ordered {
		for _, e := range results[src.URL] {
			c.insert(e)
		}
	}
	return c
}

func (c *Catalog) insert(e m3u.Entry) {
	if e.NormalizedKey == "" {
		return
	}
	if _, exists := c.entries[e.NormalizedKey]; exists {
		return
	}
	c.entries[e.NormalizedKey] = e
	c.keys = append(c.keys, e.NormalizedKey)
}

// Get returns the entry for an exact normalized key.
func (c *Catalog) Get(key string) (m3u.Entry, bool) {
	e, ok := c.entries[key]
	return e, ok
}

// Keys returns catalog keys in deterministic merge order.
func (c *Catalog) Keys() []string {
	return c.keys
}

// Len reports the number of distinct entries.
func (c *Catalog) Len() int {
	return len(c.keys)
}
