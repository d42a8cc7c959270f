package titleparse

import (
	"strconv"
	"strings"
)

// romanNumerals covers I through X, the range that shows up in real volume
// markers. Larger numerals are vanishingly rare on book spines.
var romanNumerals = map[string]int{
	"i": 1, "ii": 2, "iii": 3, "iv": 4, "v": 5,
	"vi": 6, "vii": 7, "viii": 8, "ix": 9, "x": 10,
}

// ParseVolumeNumber converts a raw volume token to an integer, accepting
// decimal digits or roman numerals I-X (any case).
//
// Parse does not call this: its strategies only capture digit groups, so
// "Final Fantasy Vol. IV" is not recognized by the main dispatch. Keeping
// roman support out of the dispatch is intentional until there is real
// demand - a permissive roman match would collide with single-letter words
// ("Vol. I" vs the pronoun "I") in messy CSV titles.
func ParseVolumeNumber(token string) (int, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, false
	}

	if n, err := strconv.Atoi(token); err == nil && n >= 0 {
		return n, true
	}

	if n, ok := romanNumerals[strings.ToLower(token)]; ok {
		return n, true
	}

	return 0, false
}
