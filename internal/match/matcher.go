// SPDX-License-Identifier: MIT

package match

import (
	"strings"

	"github.com/signaltv/signaltv/internal/catalog"
	"github.com/signaltv/signaltv/internal/config"
	"github.com/signaltv/signaltv/internal/m3u"
	"github.com/signaltv/signaltv/internal/normalize"
)

// Resolve maps one wanted channel to the best catalog entry, or to an
// "unavailable" record when no stage yields a candidate. It never fails;
// no match is a normal outcome.
//
// Stages, stopping at the first hit:
//  1. exact normalized-key lookup — always wins, so an author's precise
//     naming is never overridden by an approximate match
//  2. fuzzy similarity over all keys, quality tags optionally stripped,
//     accepted at or above Threshold; ties break by catalog order
//  3. token-subset fallback for reordered or abbreviated names
func Resolve(wanted config.Wanted, c *catalog.Catalog) ResolvedChannel {
	wantedKey := normalize.Name(wanted.Name)

	if entry, ok := c.Get(wantedKey); ok {
		return resolved(wanted, entry)
	}

	if key, ok := bestFuzzy(wantedKey, c); ok {
		entry, _ := c.Get(key)
		return resolved(wanted, entry)
	}

	if key, ok := tokenSubset(wantedKey, c); ok {
		entry, _ := c.Get(key)
		return resolved(wanted, entry)
	}

	return unavailable(wanted)
}

// bestFuzzy scores every catalog key against the wanted key and its
// tag-stripped variant, returning the highest scorer at or above Threshold.
// A later key must score strictly higher to displace an earlier one, which
// makes ties deterministic in catalog order.
func bestFuzzy(wantedKey string, c *catalog.Catalog) (string, bool) {
	wantedStripped := normalize.StripTags(wantedKey)

	bestKey := ""
	bestScore := 0.0
	for _, key := range c.Keys() {
		score := similarity(wantedKey, key)
		if s := similarity(wantedStripped, normalize.StripTags(key)); s > score {
			score = s
		}
		if score > bestScore {
			bestScore = score
			bestKey = key
		}
	}

	if bestScore >= Threshold {
		return bestKey, true
	}
	return "", false
}

// tokenSubset accepts the first catalog key whose token set is a subset of
// the wanted tokens, or vice versa.
func tokenSubset(wantedKey string, c *catalog.Catalog) (string, bool) {
	wantedTokens := strings.Fields(wantedKey)
	if len(wantedTokens) == 0 {
		return "", false
	}

	for _, key := range c.Keys() {
		keyTokens := strings.Fields(key)
		if isSubset(keyTokens, wantedTokens) || isSubset(wantedTokens, keyTokens) {
			return key, true
		}
	}
	return "", false
}

func isSubset(sub, super []string) bool {
	if len(sub) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(super))
	for _, t := range super {
		set[t] = struct{}{}
	}
	for _, t := range sub {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}

func resolved(wanted config.Wanted, entry m3u.Entry) ResolvedChannel {
	url := entry.URL

	logo := entry.Logo
	if logo == "" {
		logo = wanted.Logo
	}
	group := entry.Group
	if group == "" {
		group = wanted.Group
	}
	if group == "" {
		group = m3u.DefaultGroup
	}

	return ResolvedChannel{
		Name:     wanted.Name,
		URL:      &url,
		Logo:     logo,
		Group:    group,
		Category: Categorize(group),
		Status:   StatusOK,
	}
}

func unavailable(wanted config.Wanted) ResolvedChannel {
	group := wanted.Group
	if group == "" {
		group = m3u.DefaultGroup
	}
	return ResolvedChannel{
		Name:     wanted.Name,
		URL:      nil,
		Logo:     wanted.Logo,
		Group:    group,
		Category: Categorize(group),
		Status:   StatusUnavailable,
	}
}
