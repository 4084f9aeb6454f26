// SPDX-License-Identifier: MIT

// Package m3u parses and writes extended M3U playlist documents.
package m3u

import (
	"bufio"
	"regexp"
	"strings"

	"github.com/signaltv/signaltv/internal/normalize"
)

// Signature is the marker every conforming playlist document starts with.
const Signature = "#EXTM3U"

// DefaultGroup is assigned when an entry carries no group-title attribute.
const DefaultGroup = "Other"

// Entry is one stream parsed from a playlist document.
type Entry struct {
	RawName       string
	NormalizedKey string
	URL           string
	Group         string
	Logo          string
}

var (
	groupAttr = regexp.MustCompile(`(?i)group-title="([^"]*)"`)
	logoAttr  = regexp.MustCompile(`(?i)tvg-logo="([^"]*)"`)
)

// urlPrefixes are the schemes recognized as stream URL lines.
var urlPrefixes = []string{"http", "rtmp", "udp://"}

// Parse extracts stream entries from playlist text.
//
// It runs a two-state machine over lines: an #EXTINF line records pending
// metadata, the next URL line emits one entry. Anything else, including
// malformed metadata and orphaned URLs, is skipped without error; Parse
// only ever returns valid entries.
func Parse(text string) []Entry {
	var entries []Entry

	var (
		haveMeta     bool
		pendingName  string
		pendingGroup string
		pendingLogo  string
	)

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case !haveMeta && strings.HasPrefix(line, "#EXTINF"):
			pendingName = nameFromExtinf(line)
			pendingGroup = attrValue(groupAttr, line, DefaultGroup)
			pendingLogo = attrValue(logoAttr, line, "")
			haveMeta = true

		case haveMeta && isStreamURL(line):
			if pendingName != "" {
				entries = append(entries, Entry{
					RawName:       pendingName,
					NormalizedKey: normalize.Name(pendingName),
					URL:           line,
					Group:         pendingGroup,
					Logo:          pendingLogo,
				})
			}
			haveMeta = false
			pendingName, pendingGroup, pendingLogo = "", "", ""
		}
		// every other line is ignored
	}

	return entries
}

// nameFromExtinf returns the display name: the text after the final comma.
func nameFromExtinf(line string) string {
	idx := strings.LastIndex(line, ",")
	if idx < 0 || idx+1 >= len(line) {
		return ""
	}
	return strings.TrimSpace(line[idx+1:])
}

func attrValue(re *regexp.Regexp, line, def string) string {
	if m := re.FindStringSubmatch(line); len(m) > 1 && m[1] != "" {
		return m[1]
	}
	return def
}

func isStreamURL(line string) bool {
	for _, p := range urlPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}
