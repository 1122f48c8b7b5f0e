// Package textkey builds case- and accent-insensitive comparison keys for search.
package textkey

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases s, strips diacritics and removes all whitespace.
// Keys are for comparison only and must never be stored as identities.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, folded)
}

// Contains reports whether the normalized key of s contains the normalized query.
// An empty query matches everything.
func Contains(s, query string) bool {
	q := Normalize(query)
	if q == "" {
		return true
	}
	return strings.Contains(Normalize(s), q)
}

// SplitList splits a free-text list on whitespace, commas and semicolons
// and returns the normalized, non-empty tokens.
func SplitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == ';'
	})
	var out []string
	for _, f := range fields {
		if k := Normalize(f); k != "" {
			out = append(out, k)
		}
	}
	return out
}
