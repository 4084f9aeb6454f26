// SPDX-License-Identifier: MIT

package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Source is one configured playlist source. Priority equals the position in
// the configured list; lower means higher precedence.
type Source struct {
	Priority int    `json:"priority"`
	Name     string `json:"name"`
	URL      string `json:"url"`
}

// Wanted is one caller-specified channel the resolver must try to satisfy.
type Wanted struct {
	Name  string `json:"name"`
	Group string `json:"group,omitempty"`
	Logo  string `json:"logo,omitempty"`
}

// ParseSources reads the line-oriented source list: one "Name | URL" record
// per line, or a bare URL which gets an index-based display name. Blank
// lines and #-comments are skipped.
func ParseSources(r io.Reader) ([]Source, error) {
	var sources []Source

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, url := "", line
		if before, after, found := strings.Cut(line, "|"); found {
			name = strings.TrimSpace(before)
			url = strings.TrimSpace(after)
		}
		if url == "" {
			continue
		}
		if name == "" {
			name = fmt.Sprintf("List %d", len(sources)+1)
		}

		sources = append(sources, Source{
			Priority: len(sources) + 1,
			Name:     name,
			URL:      url,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan source list: %w", err)
	}

	return sources, nil
}

// LoadSources reads and parses the source list file at path.
func LoadSources(path string) ([]Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source list: %w", err)
	}
	defer f.Close()
	return ParseSources(f)
}

// LoadWanted reads the wanted-channel JSON document at path.
func LoadWanted(path string) ([]Wanted, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wanted list: %w", err)
	}

	var wanted []Wanted
	if err := json.Unmarshal(data, &wanted); err != nil {
		return nil, fmt.Errorf("parse wanted list: %w", err)
	}
	return wanted, nil
}
