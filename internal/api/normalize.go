package api

import (
	"fmt"
	"sort"
	"strings"
)

// Format selects the shape of a normalized result.
type Format string

const (
	FormatStructured Format = "structured"
	FormatTabular    Format = "tabular"
)

// ParseFormat accepts "structured" (or "json") and "tabular" (or "table").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "structured", "json":
		return FormatStructured, nil
	case "tabular", "table":
		return FormatTabular, nil
	default:
		return "", &InvalidParameterError{Name: "format", Reason: fmt.Sprintf("unknown format %q (use structured or tabular)", s)}
	}
}

// Table is the flattened form of a record sequence. Rows line up with the
// input records; nested objects and arrays stay embedded in their cell.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Normalize returns records unchanged for FormatStructured and a *Table for
// FormatTabular. The input is never modified.
func Normalize(records []Record, format Format) (any, error) {
	switch format {
	case FormatStructured, "":
		return records, nil
	case FormatTabular:
		t := Tabulate(records)
		return &t, nil
	default:
		return nil, &InvalidParameterError{Name: "format", Reason: fmt.Sprintf("unknown format %q", format)}
	}
}

// Tabulate flattens the top-level fields of records into a Table. Columns
// are the union of all keys in first-seen order; keys new to a record are
// added in sorted order. Missing cells are nil.
func Tabulate(records []Record) Table {
	var columns []string
	index := map[string]int{}
	for _, r := range records {
		keys := make([]string, 0, len(r))
		for k := range r {
			if _, ok := index[k]; !ok {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			index[k] = len(columns)
			columns = append(columns, k)
		}
	}

	rows := make([][]any, len(records))
	for i, r := range records {
		row := make([]any, len(columns))
		for k, v := range r {
			row[index[k]] = v
		}
		rows[i] = row
	}
	return Table{Columns: columns, Rows: rows}
}
