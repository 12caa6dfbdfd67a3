// Package csvfmt implements adapter.Adapter for comma-separated input.
package csvfmt

// Adapter is an RFC-4180-like CSV parser: doubled-quote escaping, commas
// and newlines inside quoted fields, bare CR ignored, and a trailing
// no-final-newline row. An unterminated quoted field at EOF is emitted
// as-is rather than dropped.
type Adapter struct{}

// New returns a CSV adapter.
func New() Adapter { return Adapter{} }

// Parse implements adapter.Adapter.
func (Adapter) Parse(data []byte) ([][]string, error) {
	input := []rune(string(data))

	var rows [][]string
	var row []string
	var field []rune
	inQuotes := false

	for i := 0; i < len(input); i++ {
		ch := input[i]
		switch {
		case ch == '"':
			if inQuotes {
				if i+1 < len(input) && input[i+1] == '"' {
					field = append(field, '"')
					i++
				} else {
					inQuotes = false
				}
			} else {
				inQuotes = true
			}
		case ch == ',' && !inQuotes:
			row = append(row, string(field))
			field = field[:0]
		case ch == '\n' && !inQuotes:
			row = append(row, string(field))
			field = field[:0]
			rows = append(rows, row)
			row = nil
		case ch == '\r':
			// ignore CR; CRLF is handled by the following LF
		default:
			field = append(field, ch)
		}
	}

	if inQuotes {
		row = append(row, string(field))
		rows = append(rows, row)
	} else if len(field) > 0 || len(row) > 0 {
		row = append(row, string(field))
		rows = append(rows, row)
	}

	return rows, nil
}
