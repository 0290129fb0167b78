package resolve_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/initBasti/plenty-cli/internal/resolve"
)

var warehouses = []resolve.Named{
	{ID: 104, Name: "Main Warehouse"},
	{ID: 114, Name: "Returns Warehouse"},
	{ID: 120, Name: "Main"},
}

func TestFuzzyMatch(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"Main Warehouse", 104},
		{"main warehouse", 104},
		{"retu", 114},
		{"  MAIN ", 120},
		{"rtrns", 114},
	}
	for _, tt := range tests {
		got, err := resolve.FuzzyMatch(tt.query, warehouses)
		if err != nil {
			t.Errorf("FuzzyMatch(%q) error: %v", tt.query, err)
			continue
		}
		if got != tt.want {
			t.Errorf("FuzzyMatch(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}

func TestFuzzyMatch_NoMatch(t *testing.T) {
	_, err := resolve.FuzzyMatch("ebay", warehouses)
	var nm *resolve.NoMatchError
	if !errors.As(err, &nm) || nm.Known != 3 {
		t.Fatalf("err = %v, want NoMatchError over 3 names", err)
	}

	_, err = resolve.FuzzyMatch("main", nil)
	if !errors.As(err, &nm) || !strings.Contains(err.Error(), "nothing to choose from") {
		t.Fatalf("err = %v", err)
	}

	if _, err := resolve.FuzzyMatch(" ", warehouses); !errors.Is(err, resolve.ErrEmptyQuery) {
		t.Fatalf("err = %v, want ErrEmptyQuery", err)
	}
}

func TestFuzzyMatch_Ambiguous(t *testing.T) {
	items := []resolve.Named{
		{ID: 1, Name: "Storage DE"},
		{ID: 2, Name: "Storage AT"},
	}
	_, err := resolve.FuzzyMatch("storage", items)
	var amb *resolve.AmbiguousError
	if !errors.As(err, &amb) {
		t.Fatalf("expected AmbiguousError, got %T: %v", err, err)
	}
	if len(amb.Candidates) != 2 {
		t.Fatalf("candidates = %+v", amb.Candidates)
	}
	msg := err.Error()
	if !strings.Contains(msg, `ambiguous match for "storage"`) || !strings.Contains(msg, "1: Storage DE") || !strings.Contains(msg, "2: Storage AT") {
		t.Errorf("message = %q", msg)
	}
}

func TestSuggest(t *testing.T) {
	keys := []string{"contactId", "contactEmail", "referrerId", "warehouseId"}

	tests := []struct {
		input string
		want  string
	}{
		{"contactID", "contactId"},
		{"refererId", "referrerId"},
		{"wraehouseId", "warehouseId"},
	}
	for _, tt := range tests {
		got := resolve.Suggest(tt.input, keys, 3)
		if len(got) == 0 || got[0] != tt.want {
			t.Errorf("Suggest(%q) = %v, want first %q", tt.input, got, tt.want)
		}
	}

	if got := resolve.Suggest("contact", keys, 1); len(got) != 1 {
		t.Errorf("limit not applied: %v", got)
	}
	if got := resolve.Suggest("zzzzzzzz", []string{"contactId"}, 3); len(got) != 0 {
		t.Errorf("expected no suggestions, got %v", got)
	}
	if got := resolve.Suggest("", keys, 3); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
}

func TestClosest(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ordres", "orders"},
		{"ORDRS", "orders"},
		{"itme", "items"},
		{"inventory", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := resolve.Closest(tt.input, []string{"orders", "items"}); got != tt.want {
			t.Errorf("Closest(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
