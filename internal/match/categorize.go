// SPDX-License-Identifier: MIT

package match

import "strings"

// movieKeywords and seriesKeywords classify provider group labels; "serij"
// additionally covers the regional "Serije"/"Serija" spellings.
var (
	movieKeywords  = []string{"film", "movie"}
	seriesKeywords = []string{"series", "serij", "episode"}
)

// Categorize maps a group label to a coarse content category. It is a
// best-effort classification for output grouping and never affects matching.
func Categorize(groupLabel string) Category {
	label := strings.ToLower(groupLabel)
	for _, kw := range movieKeywords {
		if strings.Contains(label, kw) {
			return CategoryMovies
		}
	}
	for _, kw := range seriesKeywords {
		if strings.Contains(label, kw) {
			return CategorySeries
		}
	}
	return CategoryLiveTV
}
