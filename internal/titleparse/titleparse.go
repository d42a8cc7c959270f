// Package titleparse extracts series name and volume number from free-text
// book titles. Real-world titles encode series membership in a handful of
// recurring shapes ("Blue Exorcist, Vol. 1", "The Way of Kings (The
// Stormlight Archive #1)"); the parser tries an ordered list of pattern
// strategies and returns the first hit. Order matters: later strategies are
// more permissive and would misfire on inputs the earlier, stricter ones
// are designed for.
package titleparse

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ParsedTitle is the result of a successful parse. VolumeName is empty when
// the title carries no distinct name for the volume.
type ParsedTitle struct {
	SeriesName   string
	VolumeNumber int
	VolumeName   string
}

// Strategy 1: trailing parenthetical.
// Ordered strictest-first; the bare "(Series N)" form is a last resort
// because it would swallow e.g. "(Anniversary Edition 2)".
var parenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\(([^)]+?)\s*#(\d+)\)\s*$`),
	regexp.MustCompile(`(?i)\(([^)]+?),\s*book\s+(\d+)\)\s*$`),
	regexp.MustCompile(`(?i)\(([^)]+?),\s*vol(?:\.|ume)?\s*(\d+)\)\s*$`),
	regexp.MustCompile(`\(([^)]+?)\s+(\d+)\)\s*$`),
}

// Strategy 2: colon forms.
var (
	// "Series: Title, Vol. N"
	colonSeriesFirst = regexp.MustCompile(`(?i)^(.+?):\s*(.+?),\s*(?:vol\.?|volume|book)\s*(\d+)\s*$`)
	// "Series, Vol. N: Title"
	colonVolumeFirst = regexp.MustCompile(`(?i)^(.+?),\s*(?:vol\.?|volume|book)\s*(\d+)\s*:\s*(.+)$`)
)

// Strategy 3: comma/space forms with no separate volume name.
var (
	// "Series, Vol. N" / "Series, Volume N" / "Series, Book N"
	commaVolume = regexp.MustCompile(`(?i)^(.+?),\s*(?:vol\.?|volume|book)\s*(\d+)\s*$`)
	// "Series Vol. N" / "Series Volume N" (bare "Book" without a comma is
	// left to strategy 5, which guards against degenerate prefixes)
	spaceVolume = regexp.MustCompile(`(?i)^(.+?)\s+vol(?:\.|ume)?\s*(\d+)\s*$`)
)

// Strategy 4: dash forms.
var (
	// "Title - Book N of Series"
	dashBookOf = regexp.MustCompile(`(?i)^(.+?)\s+-\s+book\s+(\d+)\s+of\s+(.+)$`)
	// "Title - Series, Book N"
	dashSeriesComma = regexp.MustCompile(`(?i)^(.+?)\s+-\s+(.+?),\s*(?:vol\.?|volume|book)\s*(\d+)\s*$`)
	// "Title - Series Book N"
	dashSeriesSpace = regexp.MustCompile(`(?i)^(.+?)\s+-\s+(.+?)\s+(?:vol\.?|volume|book)\s*(\d+)\s*$`)
)

// Strategy 5: bare trailing book number. Only accepted when the series-name
// candidate is longer than 2 characters so titles that are nothing but
// "Book 3" don't produce a junk series.
var bareBookNumber = regexp.MustCompile(`(?i)^(.+?)\s+(?:book|volume)\s+(\d+)\s*$`)

// Parse extracts series membership from a title. Returns nil when no
// strategy matches. Keyword matching is case-insensitive; extracted names
// preserve the input's casing. No whitespace normalization happens beyond
// trimming - callers comparing series names should use NormalizeSeriesName
// or AreSeriesSimilar.
func Parse(title string) *ParsedTitle {
	title = norm.NFC.String(strings.TrimSpace(title))
	if title == "" {
		return nil
	}

	if p := parseParenthetical(title); p != nil {
		return p
	}
	if p := parseColon(title); p != nil {
		return p
	}
	if p := parseCommaSpace(title); p != nil {
		return p
	}
	if p := parseDash(title); p != nil {
		return p
	}
	return parseBareNumber(title)
}

func parseParenthetical(title string) *ParsedTitle {
	for _, re := range parenPatterns {
		m := re.FindStringSubmatchIndex(title)
		if m == nil {
			continue
		}
		series := strings.TrimSpace(title[m[2]:m[3]])
		vol, err := strconv.Atoi(title[m[4]:m[5]])
		if err != nil || series == "" {
			continue
		}

		// Volume name is the title with the matched parenthetical removed.
		// An empty remainder means "no volume name", not an empty name.
		name := strings.TrimSpace(title[:m[0]] + title[m[1]:])

		return &ParsedTitle{
			SeriesName:   series,
			VolumeNumber: vol,
			VolumeName:   name,
		}
	}
	return nil
}

func parseColon(title string) *ParsedTitle {
	if m := colonSeriesFirst.FindStringSubmatch(title); m != nil {
		if vol, err := strconv.Atoi(m[3]); err == nil {
			return &ParsedTitle{
				SeriesName:   strings.TrimSpace(m[1]),
				VolumeNumber: vol,
				VolumeName:   strings.TrimSpace(m[2]),
			}
		}
	}
	if m := colonVolumeFirst.FindStringSubmatch(title); m != nil {
		if vol, err := strconv.Atoi(m[2]); err == nil {
			return &ParsedTitle{
				SeriesName:   strings.TrimSpace(m[1]),
				VolumeNumber: vol,
				VolumeName:   strings.TrimSpace(m[3]),
			}
		}
	}
	return nil
}

func parseCommaSpace(title string) *ParsedTitle {
	for _, re := range []*regexp.Regexp{commaVolume, spaceVolume} {
		m := re.FindStringSubmatch(title)
		if m == nil {
			continue
		}
		series := strings.TrimSpace(m[1])
		// A dash in the candidate means the title is really the dash form
		// "Title - Series, Book N"; let strategy 4 split it properly.
		if strings.Contains(series, " - ") {
			continue
		}
		if vol, err := strconv.Atoi(m[2]); err == nil {
			return &ParsedTitle{
				SeriesName:   series,
				VolumeNumber: vol,
			}
		}
	}
	return nil
}

func parseDash(title string) *ParsedTitle {
	if m := dashBookOf.FindStringSubmatch(title); m != nil {
		if vol, err := strconv.Atoi(m[2]); err == nil {
			return &ParsedTitle{
				SeriesName:   strings.TrimSpace(m[3]),
				VolumeNumber: vol,
				VolumeName:   strings.TrimSpace(m[1]),
			}
		}
	}
	for _, re := range []*regexp.Regexp{dashSeriesComma, dashSeriesSpace} {
		if m := re.FindStringSubmatch(title); m != nil {
			if vol, err := strconv.Atoi(m[3]); err == nil {
				return &ParsedTitle{
					SeriesName:   strings.TrimSpace(m[2]),
					VolumeNumber: vol,
					VolumeName:   strings.TrimSpace(m[1]),
				}
			}
		}
	}
	return nil
}

func parseBareNumber(title string) *ParsedTitle {
	m := bareBookNumber.FindStringSubmatch(title)
	if m == nil {
		return nil
	}
	series := strings.TrimSpace(m[1])
	if len(series) <= 2 {
		return nil
	}
	vol, err := strconv.Atoi(m[2])
	if err != nil {
		return nil
	}
	return &ParsedTitle{
		SeriesName:   series,
		VolumeNumber: vol,
	}
}
