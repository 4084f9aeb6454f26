// SPDX-License-Identifier: MIT

package match

import "strings"

// Threshold is the fuzzy acceptance threshold: the highest-scoring catalog
// key is accepted only at or above this value. 0.6 keeps abbreviated names
// matchable without letting unrelated channels through.
const Threshold = 0.6

// SubstringBonus is added to the similarity ratio when one normalized name
// contains the other, capped at 1.0.
const SubstringBonus = 0.3

// similarity scores two normalized names in [0,1]: a longest-common-
// subsequence ratio plus the substring bonus.
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	score := 2 * float64(lcsLength(a, b)) / float64(len(a)+len(b))
	if strings.Contains(a, b) || strings.Contains(b, a) {
		score += SubstringBonus
	}
	if score > 1 {
		score = 1
	}
	return score
}

// lcsLength computes the longest common subsequence length with a
// two-row table.
func lcsLength(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
