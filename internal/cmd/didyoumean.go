package cmd

import (
	"strings"

	"github.com/initBasti/plenty-cli/internal/resolve"
)

// suggestCommand finds the closest command name to the unknown input, or ""
// when nothing is within an edit distance of 3.
func suggestCommand(unknown string, commands []string) string {
	return resolve.Closest(unknown, commands)
}

// suggestFlag finds the closest flag name to the unknown input. Leading
// dashes are ignored for the comparison; the match keeps its prefix.
func suggestFlag(unknown string, flagNames []string) string {
	stripped := strings.TrimLeft(unknown, "-")
	if stripped == "" {
		return ""
	}
	bare := make([]string, len(flagNames))
	for i, f := range flagNames {
		bare[i] = strings.TrimLeft(f, "-")
	}
	best := resolve.Closest(stripped, bare)
	if best == "" {
		return ""
	}
	for i, b := range bare {
		if b == best {
			return flagNames[i]
		}
	}
	return ""
}
