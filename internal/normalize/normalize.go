// SPDX-License-Identifier: MIT

// Package normalize derives canonical matching keys from raw channel names.
//
// Name is the single normalization policy shared by the catalog and the
// matcher; optional matching-time transforms such as StripTags are never
// baked into the shared key.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// replacer maps characters without a Unicode decomposition to their ASCII
// equivalents. The stroked đ in particular folds to "dj" by regional
// convention, not to "d".
var replacer = strings.NewReplacer(
	"š", "s",
	"č", "c",
	"ć", "c",
	"ž", "z",
	"đ", "dj",
	"ß", "ss",
)

// foldMarks decomposes accented characters and strips the combining marks,
// so that é→e, ü→u and friends without enumerating them one by one.
var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))

// Name maps a raw display name to its canonical matching key.
// The pipeline is fixed: lowercase, fold diacritics to ASCII, replace
// everything outside [a-z0-9 ] with a space, collapse whitespace runs.
// The function is pure and idempotent.
func Name(name string) string {
	s := strings.ToLower(name)
	s = replacer.Replace(s)
	if folded, _, err := transform.String(foldMarks, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// qualityTags are quality/region suffixes that carry no identity. They are
// stripped only inside the matcher's fuzzy stage, so exact matches stay
// faithful to the author's full name.
var qualityTags = map[string]struct{}{
	"hd":   {},
	"fhd":  {},
	"uhd":  {},
	"sd":   {},
	"hq":   {},
	"4k":   {},
	"8k":   {},
	"hevc": {},
	"exyu": {},
}

// StripTags removes quality/region tokens from an already-normalized key.
// If stripping would leave nothing, the input is returned unchanged.
func StripTags(key string) string {
	fields := strings.Fields(key)
	kept := fields[:0]
	for _, f := range fields {
		if _, ok := qualityTags[f]; !ok {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		return key
	}
	return strings.Join(kept, " ")
}
