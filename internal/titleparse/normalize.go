package titleparse

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	leadingArticle = regexp.MustCompile(`(?i)^(?:the|an?)\s+`)
	innerSpaces    = regexp.MustCompile(`\s+`)
)

// NormalizeSeriesName prepares a series name for fuzzy comparison: NFC
// normalization, trimming, stripping a leading "The"/"A"/"An", and collapsing
// internal whitespace. Casing is preserved. This is NOT applied by Parse -
// callers comparing two series names must invoke it (or AreSeriesSimilar)
// explicitly.
func NormalizeSeriesName(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	name = leadingArticle.ReplaceAllString(name, "")
	name = innerSpaces.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// AreSeriesSimilar reports whether two series names likely refer to the same
// series: equal after normalization, or one contains the other, both
// case-insensitive. "One Piece" ~ "one piece", "Stormlight" ~ "The
// Stormlight Archive".
func AreSeriesSimilar(a, b string) bool {
	na := strings.ToLower(NormalizeSeriesName(a))
	nb := strings.ToLower(NormalizeSeriesName(b))
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}
