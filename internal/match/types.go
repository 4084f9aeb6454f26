// SPDX-License-Identifier: MIT

// Package match resolves wanted channels against a merged catalog and
// classifies entries into coarse content categories.
package match

// Status reports whether a wanted channel could be resolved.
type Status string

const (
	StatusOK          Status = "ok"
	StatusUnavailable Status = "unavailable"
)

// Category is a coarse content class derived from the provider group label.
type Category string

const (
	CategoryLiveTV Category = "LiveTV"
	CategoryMovies Category = "Movies"
	CategorySeries Category = "Series"
)

// ResolvedChannel is the output unit: one per wanted channel, in input
// order. Name always echoes the wanted name unaltered; URL is nil when the
// channel is unavailable.
type ResolvedChannel struct {
	Name     string   `json:"name"`
	URL      *string  `json:"url"`
	Logo     string   `json:"logo"`
	Group    string   `json:"group"`
	Category Category `json:"category"`
	Status   Status   `json:"status"`
}
