package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SlugSuffix is appended by the storefront to product page slugs
const SlugSuffix = "-reproduction-cle.html"

// StripSlugSuffix removes every trailing occurrence of SlugSuffix.
// The comparison is case-sensitive.
func StripSlugSuffix(s string) string {
	for strings.HasSuffix(s, SlugSuffix) {
		s = strings.TrimSuffix(s, SlugSuffix)
	}
	return s
}

// foldAccents decomposes s and drops combining marks, so "é" becomes "e".
// transform.Chain keeps state, so a fresh chain is built per call.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Key returns the strict comparison key of raw: slug suffix stripped,
// lowercased, accents folded, and everything but letters and digits dropped.
// Blank input yields "".
func Key(raw string) string {
	s := foldAccents(strings.ToLower(StripSlugSuffix(raw)))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Loose returns the substring-filter form of raw: slug suffix stripped,
// lowercased, accents folded, runs of whitespace collapsed and the ends trimmed.
// Punctuation is kept.
func Loose(raw string) string {
	s := foldAccents(strings.ToLower(StripSlugSuffix(raw)))
	return strings.Join(strings.Fields(s), " ")
}
