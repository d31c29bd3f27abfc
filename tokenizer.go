package csventity

import (
	"fmt"
	"strings"
)

// Delimiters and quoting
const (
	// csvDelimiter is the delimiter for CSV lines
	csvDelimiter = ','
	// tsvDelimiter is the delimiter for TSV lines
	tsvDelimiter = '\t'
	// quoteChar opens and closes a quoted CSV field
	quoteChar = '"'
)

// TokenizerStrategy splits one line of text into fields and joins fields back
// into a line. Implementations hold no state.
type TokenizerStrategy interface {
	// Parse splits a line (without its terminator) into fields
	Parse(line string) ([]string, error)
	// Format joins fields into a line (without a terminator)
	Format(fields []string) string
}

// CSVTokenizer is the comma-delimited strategy. It tolerates a trailing
// delimiter and reads unquoted fields literally.
type CSVTokenizer struct{}

// Parse implements TokenizerStrategy
func (CSVTokenizer) Parse(line string) ([]string, error) {
	return ParseLine(line)
}

// Format implements TokenizerStrategy
func (CSVTokenizer) Format(fields []string) string {
	return FormatLine(fields)
}

// TSVTokenizer is the tab-delimited strategy. No quoting is interpreted or produced.
type TSVTokenizer struct{}

// Parse implements TokenizerStrategy
func (TSVTokenizer) Parse(line string) ([]string, error) {
	return strings.Split(line, string(tsvDelimiter)), nil
}

// Format implements TokenizerStrategy
func (TSVTokenizer) Format(fields []string) string {
	return strings.Join(fields, string(tsvDelimiter))
}

// ParseLine splits one comma-delimited line into fields.
//
// An empty line yields a single empty field. A field starting with a quote
// runs to the next quote; that closing quote must be followed by the end of
// the line, a comma, or a second quote (an escaped literal quote, after which
// the quoted field continues). A line ending with a comma has an implicit
// trailing empty field.
func ParseLine(line string) ([]string, error) {
	if line == "" {
		return []string{""}, nil
	}

	var fields []string
	n := len(line)
	i := 0
	for i < n {
		if line[i] != quoteChar {
			j := strings.IndexByte(line[i:], csvDelimiter)
			if j < 0 {
				fields = append(fields, line[i:])
				return fields, nil
			}
			fields = append(fields, line[i:i+j])
			i += j + 1
			continue
		}

		start := i
		i++
		var sb strings.Builder
		for {
			j := strings.IndexByte(line[i:], quoteChar)
			if j < 0 {
				return nil, fmt.Errorf("%w: unterminated quote starting at column %d", ErrTokenize, start+1)
			}
			sb.WriteString(line[i : i+j])
			i += j + 1
			if i == n {
				fields = append(fields, sb.String())
				return fields, nil
			}
			if line[i] == quoteChar {
				sb.WriteByte(quoteChar)
				i++
				continue
			}
			if line[i] != csvDelimiter {
				return nil, fmt.Errorf("%w: unexpected %q after closing quote at column %d", ErrTokenize, line[i], i+1)
			}
			fields = append(fields, sb.String())
			i++
			break
		}
	}

	// the loop only exits here after consuming a delimiter at end of line
	fields = append(fields, "")
	return fields, nil
}

// FormatLine joins fields with commas, quoting any field that contains a
// comma or a quote and doubling embedded quotes.
func FormatLine(fields []string) string {
	var sb strings.Builder
	for i, field := range fields {
		if i > 0 {
			sb.WriteByte(csvDelimiter)
		}
		if !strings.ContainsAny(field, `,"`) {
			sb.WriteString(field)
			continue
		}
		sb.WriteByte(quoteChar)
		sb.WriteString(strings.ReplaceAll(field, `"`, `""`))
		sb.WriteByte(quoteChar)
	}
	return sb.String()
}
