// Package csvx parses the kind of CSV that bulk-export tools actually
// produce: mixed line endings, quoted fields with embedded newlines and
// commas, doubled-quote escapes, and ragged column counts. The stdlib
// encoding/csv reader rejects most of that input outright (ErrFieldCount,
// bare-quote errors), so this package implements a lenient two-phase parse
// instead: rows are split first with quote-state tracking, then each row is
// split into fields.
package csvx

import (
	"fmt"
	"strings"
)

// Record is one data row keyed by header name. Values are whitespace-trimmed.
type Record map[string]string

// Get returns the value for the first alias present in the record, trying
// each spelling case-sensitively in order. Exported spreadsheets disagree on
// header casing ("ISBN" vs "isbn"), so callers list every spelling they
// accept.
func (r Record) Get(aliases ...string) string {
	for _, alias := range aliases {
		if v, ok := r[alias]; ok && v != "" {
			return v
		}
	}
	return ""
}

// Has reports whether any of the aliases is present with a non-empty value.
func (r Record) Has(aliases ...string) bool {
	return r.Get(aliases...) != ""
}

// Warning describes a tolerated irregularity in the input. Row is 1-indexed
// from the first data row.
type Warning struct {
	Row     int
	Message string
}

// Parse turns raw CSV text into header-keyed records. The first non-blank
// row is the header; each subsequent row is zipped against it positionally.
// Short rows pad missing trailing fields with empty strings; long rows have
// the excess dropped and reported as a warning. Both are deliberate leniency
// rather than errors.
func Parse(text string) ([]Record, []Warning) {
	rows := SplitRows(text)
	if len(rows) == 0 {
		return nil, nil
	}

	headers := ParseLine(rows[0])
	records := make([]Record, 0, len(rows)-1)
	var warnings []Warning

	for i, raw := range rows[1:] {
		fields := ParseLine(raw)
		if len(fields) > len(headers) {
			warnings = append(warnings, Warning{
				Row:     i + 1,
				Message: fmt.Sprintf("row has %d fields but header has %d, extra fields dropped", len(fields), len(headers)),
			})
		}

		rec := make(Record, len(headers))
		for j, h := range headers {
			if j < len(fields) {
				rec[h] = fields[j]
			} else {
				rec[h] = ""
			}
		}
		records = append(records, rec)
	}
	return records, warnings
}

// SplitRows splits raw CSV text into logical rows. A newline or carriage
// return terminates a row only outside an open quote, so quoted fields may
// span physical lines. "\r\n" counts as one terminator. Doubled quotes are
// kept verbatim here; unescaping happens in ParseLine. Whitespace-only rows
// are dropped, and a trailing row without a final newline is still emitted.
func SplitRows(text string) []string {
	var rows []string
	var cur strings.Builder
	inQuotes := false

	emit := func() {
		if strings.TrimSpace(cur.String()) != "" {
			rows = append(rows, cur.String())
		}
		cur.Reset()
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '"':
			// A doubled quote inside a quoted region stays part of the
			// row text and does not toggle quote state.
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				cur.WriteRune('"')
				cur.WriteRune('"')
				i++
				continue
			}
			inQuotes = !inQuotes
			cur.WriteRune(c)
		case (c == '\n' || c == '\r') && !inQuotes:
			if c == '\r' && i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			emit()
		default:
			cur.WriteRune(c)
		}
	}
	emit()
	return rows
}

// ParseLine splits one row into fields on commas outside quotes. Doubled
// quotes inside a quoted field unescape to a single literal quote, enclosing
// quotes are removed, and each field is trimmed of surrounding whitespace.
func ParseLine(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				cur.WriteRune('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(c)
		}
	}
	fields = append(fields, strings.TrimSpace(cur.String()))
	return fields
}
