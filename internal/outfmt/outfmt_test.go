package outfmt

import (
	"bytes"
	"context"
	"testing"
)

func TestParse(t *testing.T) {
	for in, want := range map[string]Mode{
		"":       Text,
		"table":  Text,
		" text ": Text,
		"JSON":   JSON,
		"jsonl":  JSONL,
		"NDJSON": JSONL,
	} {
		got, err := Parse(in)
		if err != nil || got != want {
			t.Errorf("Parse(%q) = %v, %v; want %v", in, got, err, want)
		}
	}

	for _, in := range []string{"agent", "yaml", "csv"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) accepted an unknown format", in)
		}
	}
}

func TestOptionsContext(t *testing.T) {
	ctx := context.Background()
	if o := OptionsFrom(ctx); o.Mode != Text || o.Compact || o.Query != "" || o.Template != nil {
		t.Errorf("bare context options = %+v", o)
	}
	if IsJSON(ctx) {
		t.Error("text is not JSON")
	}

	ctx = WithOptions(ctx, Options{Mode: JSONL, Compact: true, Query: ".id"})
	if o := OptionsFrom(ctx); o.Mode != JSONL || !o.Compact || o.Query != ".id" {
		t.Errorf("stored options = %+v", o)
	}
	if !IsJSON(ctx) {
		t.Error("JSON lines count as JSON")
	}
	if !IsJSON(WithOptions(ctx, Options{Mode: JSON})) {
		t.Error("JSON mode not detected")
	}
}

func TestModeString(t *testing.T) {
	for mode, want := range map[Mode]string{Text: "text", JSON: "json", JSONL: "jsonl", Mode(9): "text"} {
		if got := mode.String(); got != want {
			t.Errorf("Mode(%d).String() = %q, want %q", int(mode), got, want)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	var pretty, compact bytes.Buffer
	if err := WriteJSON(&pretty, map[string]string{"key": "a<b"}); err != nil {
		t.Fatal(err)
	}
	if want := "{\n  \"key\": \"a<b\"\n}\n"; pretty.String() != want {
		t.Errorf("WriteJSON = %q, want %q", pretty.String(), want)
	}

	if err := encodeJSON(&compact, []int{1, 2}, true); err != nil {
		t.Fatal(err)
	}
	if compact.String() != "[1,2]\n" {
		t.Errorf("compact = %q", compact.String())
	}
}
