package cmd

import (
	"context"
	"strings"
	"testing"
)

func TestSuggestCommand(t *testing.T) {
	commands := []string{"orders", "items", "variations", "attributes", "redistribute"}
	tests := []struct {
		input string
		want  string
	}{
		{"ordrs", "orders"},
		{"item", "items"},
		{"varations", "variations"},
		{"zzzzzzzzzz", ""},
	}
	for _, tt := range tests {
		if got := suggestCommand(tt.input, commands); got != tt.want {
			t.Errorf("suggestCommand(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSuggestFlag(t *testing.T) {
	flagNames := []string{"--refine", "--with", "--page-size", "--dry-run"}
	tests := []struct {
		input string
		want  string
	}{
		{"--refin", "--refine"},
		{"--page-siz", "--page-size"},
		{"--dryrun", "--dry-run"},
		{"--", ""},
		{"--completely-different", ""},
	}
	for _, tt := range tests {
		if got := suggestFlag(tt.input, flagNames); got != tt.want {
			t.Errorf("suggestFlag(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestExecute_UnknownCommandSuggestion(t *testing.T) {
	setupTestEnvWithHandler(t, newRouteHandler())

	var err error
	stderr := captureStderr(t, func() {
		err = Execute(context.Background(), []string{"ordrs"})
	})
	if code := ExitCode(err); code != exitUsage {
		t.Errorf("exit code = %d, want %d", code, exitUsage)
	}
	if !strings.Contains(stderr, `Did you mean "orders"?`) {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestExecute_UnknownFlagSuggestion(t *testing.T) {
	setupTestEnvWithHandler(t, newRouteHandler())

	var err error
	stderr := captureStderr(t, func() {
		err = Execute(context.Background(), []string{"orders", "list", "--refin", "orderType=1"})
	})
	if code := ExitCode(err); code != exitUsage {
		t.Errorf("exit code = %d, want %d", code, exitUsage)
	}
	if !strings.Contains(stderr, `"--refine"`) {
		t.Errorf("stderr = %q", stderr)
	}
}
