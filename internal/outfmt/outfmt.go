// Package outfmt renders command results as a text table, JSON or JSON lines.
package outfmt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/template"
)

// Mode is the output format of a command.
type Mode int

const (
	Text Mode = iota
	JSON
	JSONL
)

var modeNames = map[string]Mode{
	"":       Text,
	"text":   Text,
	"table":  Text,
	"json":   JSON,
	"jsonl":  JSONL,
	"ndjson": JSONL,
}

// Parse parses an --output value.
func Parse(s string) (Mode, error) {
	if m, ok := modeNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return Text, fmt.Errorf("invalid output format: %q (use 'text', 'json', 'jsonl' or 'ndjson')", s)
}

func (m Mode) String() string {
	switch m {
	case JSON:
		return "json"
	case JSONL:
		return "jsonl"
	}
	return "text"
}

// Options control how a Formatter renders. The zero value is plain text.
type Options struct {
	Mode     Mode
	Compact  bool
	Query    string
	Template *template.Template
}

type optionsKey struct{}

// WithOptions stores the rendering options on ctx.
func WithOptions(ctx context.Context, o Options) context.Context {
	return context.WithValue(ctx, optionsKey{}, o)
}

// OptionsFrom returns the options stored on ctx.
func OptionsFrom(ctx context.Context) Options {
	o, _ := ctx.Value(optionsKey{}).(Options)
	return o
}

// IsJSON reports whether ctx asks for JSON or JSON lines.
func IsJSON(ctx context.Context) bool {
	m := OptionsFrom(ctx).Mode
	return m == JSON || m == JSONL
}

// WriteJSON writes v as indented JSON without HTML escaping.
func WriteJSON(w io.Writer, v any) error {
	return encodeJSON(w, v, false)
}

func encodeJSON(w io.Writer, v any, compact bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
