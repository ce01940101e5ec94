// Package fuzzy builds normalized match keys for comparing titles and artists
// across catalogs. Original strings are always kept for display; normalized
// forms are only ever used for matching.
package fuzzy

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	punctRegex      = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize lowercases, folds accents, replaces every run of punctuation with
// a single space, collapses whitespace and trims. Pure and total; idempotent.
func (n *Normalizer) Normalize(text string) string {
	text = norm.NFKD.String(text)

	var result strings.Builder
	for _, r := range text {
		if !unicode.IsMark(r) {
			result.WriteRune(r)
		}
	}
	text = result.String()

	text = punctRegex.ReplaceAllString(text, " ")
	text = whitespaceRegex.ReplaceAllString(text, " ")

	text = strings.ToLower(text)
	text = strings.TrimSpace(text)

	return text
}

// ArtistsMatch reports whether two artist strings refer to the same artist
// loosely: one normalized form must contain the other. Catches collaborations
// ("Artist" vs "Artist & Someone") and catalog suffixes without a full
// similarity metric.
func (n *Normalizer) ArtistsMatch(a, b string) bool {
	na, nb := n.Normalize(a), n.Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}
