// Package tsvfmt implements adapter.Adapter for tab-separated input.
package tsvfmt

import "strings"

// Adapter splits input on newlines, then each line on tabs. No quoting.
type Adapter struct{}

// New returns a TSV adapter.
func New() Adapter { return Adapter{} }

// Parse implements adapter.Adapter.
func (Adapter) Parse(data []byte) ([][]string, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")

	var rows [][]string
	for i, line := range lines {
		if line == "" && i == len(lines)-1 {
			continue
		}
		rows = append(rows, strings.Split(line, "\t"))
	}
	return rows, nil
}
