package outfmt

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/initBasti/plenty-cli/internal/api"
)

func sampleRecords() []api.Record {
	return []api.Record{
		{"id": json.Number("104"), "name": "Main"},
		{"id": json.Number("114"), "name": "Returns", "typeId": json.Number("2")},
	}
}

func TestFormatter_Output_RecordsAsTable(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(WithOptions(context.Background(), Options{Mode: Text}), &buf, &buf)

	if err := f.Output(sampleRecords()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and two rows, got %q", buf.String())
	}
	if strings.Fields(lines[0])[0] != "id" || !strings.Contains(lines[0], "typeId") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if fields := strings.Fields(lines[2]); len(fields) != 3 || fields[0] != "114" || fields[2] != "2" {
		t.Errorf("unexpected row %q", lines[2])
	}
}

func TestFormatter_Output_EmptyRecords(t *testing.T) {
	var out, errOut bytes.Buffer
	f := NewFormatter(context.Background(), &out, &errOut)

	if err := f.Output([]api.Record{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 0 || !strings.Contains(errOut.String(), "No records") {
		t.Errorf("out=%q err=%q", out.String(), errOut.String())
	}
}

func TestFormatter_Output_SingleRecord(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(context.Background(), &buf, &buf)

	if err := f.Output(api.Record{"name": "Main", "id": json.Number("104")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[1], "id") || !strings.HasPrefix(lines[2], "name") {
		t.Errorf("unexpected record output %q", buf.String())
	}
}

func TestFormatter_Output_TextWithQueryUsesJSON(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithOptions(context.Background(), Options{Query: "[.items[].id]", Compact: true})
	f := NewFormatter(ctx, &buf, &buf)

	if err := f.Output(sampleRecords()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[104,114]" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestFormatter_Output_JSONL(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(WithOptions(context.Background(), Options{Mode: JSONL}), &buf, &buf)

	if err := f.Output(sampleRecords()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "{\"id\":104,\"name\":\"Main\"}\n{\"id\":114,\"name\":\"Returns\",\"typeId\":2}\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestFormatter_Output_JSONLWithQuery(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithOptions(context.Background(), Options{Mode: JSONL, Query: "select(.typeId) | .name"})
	f := NewFormatter(ctx, &buf, &buf)

	if err := f.Output(sampleRecords()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "\"Returns\"\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestWriteJSONLines_SingleValue(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSONLines(&buf, map[string]int{"a": 1}, ""); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "{\"a\":1}\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
	if err := WriteJSONLines(&buf, []int{1}, "invalid[[["); err == nil {
		t.Error("expected query error")
	}
}

func TestWriteTable(t *testing.T) {
	table, err := api.Normalize(sampleRecords(), api.FormatTabular)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteTable(&buf, table.(*api.Table)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Returns") {
		t.Errorf("unexpected table %q", buf.String())
	}
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"a\tb\nc", "a b c"},
		{json.Number("1.50"), "1.50"},
		{true, "true"},
		{42, "42"},
		{[]any{json.Number("1"), "x"}, `[1,"x"]`},
		{map[string]any{"de": "Hemd"}, `{"de":"Hemd"}`},
	}
	for _, tt := range tests {
		if got := FormatCell(tt.in); got != tt.want {
			t.Errorf("FormatCell(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
