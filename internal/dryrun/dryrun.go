// Package dryrun previews write requests without sending them.
package dryrun

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

type contextKey string

const dryRunKey contextKey = "dry_run_enabled"

// WithDryRun returns a context with dry-run mode enabled/disabled.
func WithDryRun(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, dryRunKey, enabled)
}

// IsEnabled returns true if dry-run mode is enabled.
func IsEnabled(ctx context.Context) bool {
	if v, ok := ctx.Value(dryRunKey).(bool); ok {
		return v
	}
	return false
}

// Request is one call that would be sent.
type Request struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Body   any    `json:"body,omitempty"`
}

// Preview describes a write that was not executed.
type Preview struct {
	Operation string
	Resource  string
	Requests  []Request
	Warnings  []string
}

// Payload returns the JSON form of the preview.
func (p *Preview) Payload() map[string]any {
	requests := p.Requests
	if requests == nil {
		requests = []Request{}
	}
	out := map[string]any{
		"dry_run":   true,
		"operation": p.Operation,
		"resource":  p.Resource,
		"requests":  requests,
	}
	if len(p.Warnings) > 0 {
		out["warnings"] = p.Warnings
	}
	return out
}

// Write renders the preview for a terminal.
func (p *Preview) Write(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "[DRY-RUN] Would %s %s\n", p.Operation, p.Resource)

	for _, r := range p.Requests {
		fmt.Fprintf(&b, "\n%s %s\n", r.Method, r.Path)
		if r.Body == nil {
			continue
		}
		body, err := json.MarshalIndent(r.Body, "  ", "  ")
		if err != nil {
			return fmt.Errorf("encoding preview body: %w", err)
		}
		fmt.Fprintf(&b, "  %s\n", body)
	}

	if len(p.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, warning := range p.Warnings {
			fmt.Fprintf(&b, "  ! %s\n", warning)
		}
	}
	b.WriteString("\nNo changes made (dry-run mode)\n")

	_, err := io.WriteString(w, b.String())
	return err
}
