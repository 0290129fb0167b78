// Package filter applies jq expressions (gojq) to command output.
package filter

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
)

// Query is a compiled jq expression, reusable across values such as the
// records of a JSONL stream.
type Query struct {
	src  string
	code *gojq.Code
}

// Compile parses expr. A backslash before "!" is dropped first, since zsh
// inserts one even inside single quotes and breaks "!=".
func Compile(expr string) (*Query, error) {
	src := strings.ReplaceAll(expr, `\!`, `!`)
	parsed, err := gojq.Parse(src)
	if err == nil {
		var code *gojq.Code
		if code, err = gojq.Compile(parsed); err == nil {
			return &Query{src: src, code: code}, nil
		}
	}
	return nil, fmt.Errorf("invalid filter expression: %w", err)
}

// All runs the query on v and collects every emitted value.
func (q *Query) All(v any) ([]any, error) {
	var out []any
	iter := q.code.Run(v)
	for {
		next, ok := iter.Next()
		if !ok {
			return out, nil
		}
		if err, isErr := next.(error); isErr {
			var halt *gojq.HaltError
			if errors.As(err, &halt) && halt.Value() == nil {
				return out, nil
			}
			return nil, fmt.Errorf("filter error: %w", err)
		}
		out = append(out, next)
	}
}

// Eval runs the query on v. One result is returned as is, several as a
// slice. Queries written against a bare array (".[]", "[.[] ...") also work
// on an {"items": [...]} listing by retrying on its items.
func (q *Query) Eval(v any) (any, error) {
	results, err := q.All(v)
	if err != nil {
		items, ok := listingItems(v)
		if !ok || !q.addressesRootArray() || !strings.Contains(err.Error(), "expected an object but got: array") {
			return nil, err
		}
		if results, err = q.All(items); err != nil {
			return nil, err
		}
	}
	if len(results) == 1 {
		return results[0], nil
	}
	return results, nil
}

func (q *Query) addressesRootArray() bool {
	expr := strings.TrimSpace(q.src)
	for _, prefix := range []string{".[]", "[.[]", "(.[]"} {
		if strings.HasPrefix(expr, prefix) {
			return true
		}
	}
	return false
}

func listingItems(v any) ([]any, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	items, ok := m["items"].([]any)
	return items, ok
}

// Apply compiles expr and evaluates it on decoded JSON data. An empty
// expression returns data unchanged.
func Apply(data any, expr string) (any, error) {
	if expr == "" {
		return data, nil
	}
	q, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	return q.Eval(data)
}

// ApplyFromJSON decodes raw JSON and applies expr to it.
func ApplyFromJSON(raw []byte, expr string) (any, error) {
	data, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return Apply(data, expr)
}

// Decode unmarshals JSON into the generic values gojq operates on.
func Decode(raw []byte) (any, error) {
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return data, nil
}
