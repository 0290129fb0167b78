package cmd

import (
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"flagOne=1", "isActive=true", "number=S-RED", " name =Shirt, red", `tags=["a"]`})
	if err != nil {
		t.Fatalf("parseAssignments failed: %v", err)
	}
	want := map[string]any{
		"flagOne":  float64(1),
		"isActive": true,
		"number":   "S-RED",
		"name":     "Shirt, red",
		"tags":     []any{"a"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseAssignments = %#v, want %#v", got, want)
	}

	for _, bad := range []string{"novalue", "=1"} {
		if _, err := parseAssignments([]string{bad}); err == nil {
			t.Errorf("parseAssignments(%q) expected error", bad)
		}
	}
}

func TestSplitCommaList(t *testing.T) {
	got := splitCommaList(" a, ,b,c ,")
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("splitCommaList = %v", got)
	}
	if got := splitCommaList(""); got != nil {
		t.Errorf("splitCommaList(\"\") = %v, want nil", got)
	}
}

func TestParseIntList(t *testing.T) {
	got, err := parseIntList("category", []string{"12,13", "14"})
	if err != nil {
		t.Fatalf("parseIntList failed: %v", err)
	}
	if !reflect.DeepEqual(got, []int{12, 13, 14}) {
		t.Errorf("parseIntList = %v", got)
	}

	_, err = parseIntList("category", []string{"12,x"})
	if err == nil || !strings.Contains(err.Error(), "category") {
		t.Errorf("err = %v", err)
	}
	if _, err := parseIntList("category", []string{"0"}); err == nil {
		t.Error("expected error for zero ID")
	}
}

func TestDecodePayload(t *testing.T) {
	var dst struct {
		ItemType string `json:"itemType"`
		Position int    `json:"position"`
	}
	payload := map[string]any{"itemType": "default", "position": 3, "flagOne": 2}

	extra, err := decodePayload(payload, &dst, "itemType", "position")
	if err != nil {
		t.Fatalf("decodePayload failed: %v", err)
	}
	if dst.ItemType != "default" || dst.Position != 3 {
		t.Errorf("dst = %+v", dst)
	}
	if len(extra) != 1 || extra["flagOne"] != 2 {
		t.Errorf("extra = %v", extra)
	}

	extra, err = decodePayload(map[string]any{"itemType": "multiPack"}, &dst, "itemType", "position")
	if err != nil || extra != nil {
		t.Errorf("extra = %v, err = %v", extra, err)
	}

	if _, err := decodePayload(map[string]any{"position": "three"}, &dst, "position"); err == nil {
		t.Error("expected error for mistyped field")
	}
}

func TestFlagAlias(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	var out string
	var with []string
	fs.StringVar(&out, "output", "text", "")
	fs.StringSliceVar(&with, "with", nil, "")
	flagAlias(fs, "output", "out")
	flagAlias(fs, "with", "w")

	if err := fs.Parse([]string{"--out", "json", "--w", "a", "--w", "b"}); err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if out != "json" {
		t.Errorf("output = %q", out)
	}
	if !reflect.DeepEqual(with, []string{"a", "b"}) {
		t.Errorf("with = %v", with)
	}
	if !fs.Lookup("output").Changed || !fs.Lookup("with").Changed {
		t.Error("alias must mark the canonical flag as changed")
	}
	if !fs.Lookup("out").Hidden {
		t.Error("alias must be hidden")
	}
}
