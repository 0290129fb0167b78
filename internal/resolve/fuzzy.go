// Package resolve matches user input against known names: warehouse names
// to IDs, and mistyped filter keys or commands to suggestions.
package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Named is a resource that can be looked up by display name.
type Named struct {
	ID   int
	Name string
}

// ErrEmptyQuery is returned for a blank lookup.
var ErrEmptyQuery = errors.New("empty search query")

// NoMatchError is returned when no name resembles the query.
type NoMatchError struct {
	Query string
	Known int
}

func (e *NoMatchError) Error() string {
	if e.Known == 0 {
		return fmt.Sprintf("no match for %q: nothing to choose from", e.Query)
	}
	return fmt.Sprintf("no match for %q among %d names", e.Query, e.Known)
}

// AmbiguousError is returned when the best fuzzy matches score the same.
type AmbiguousError struct {
	Query      string
	Candidates []Named
}

func (e *AmbiguousError) Error() string {
	lines := make([]string, 0, len(e.Candidates)+1)
	lines = append(lines, fmt.Sprintf("ambiguous match for %q, candidates:", e.Query))
	for _, c := range e.Candidates {
		lines = append(lines, fmt.Sprintf("  %d: %s", c.ID, c.Name))
	}
	return strings.Join(lines, "\n")
}

// lowered exposes strings to fuzzy matching case-insensitively.
type lowered []string

func (l lowered) String(i int) string { return strings.ToLower(l[i]) }
func (l lowered) Len() int            { return len(l) }

// FuzzyMatch returns the ID of the item whose name fits query best. A
// case-insensitive exact name wins outright; otherwise the top fuzzy match
// must be unique.
func FuzzyMatch(query string, items []Named) (int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, ErrEmptyQuery
	}

	names := make([]string, len(items))
	for i, item := range items {
		if strings.EqualFold(item.Name, query) {
			return item.ID, nil
		}
		names[i] = item.Name
	}

	found := fuzzy.FindFrom(strings.ToLower(query), lowered(names))
	switch {
	case len(found) == 0:
		return 0, &NoMatchError{Query: query, Known: len(items)}
	case len(found) > 1 && found[0].Score == found[1].Score:
		amb := &AmbiguousError{Query: query}
		for _, m := range found {
			if m.Score != found[0].Score || len(amb.Candidates) == 5 {
				break
			}
			amb.Candidates = append(amb.Candidates, items[m.Index])
		}
		return 0, amb
	}
	return items[found[0].Index].ID, nil
}

// Suggest returns up to limit candidates close to input: case-insensitive
// equality first, then fuzzy subsequence matches, then the closest
// candidate by edit distance.
func Suggest(input string, candidates []string, limit int) []string {
	input = strings.TrimSpace(input)
	if input == "" || limit <= 0 {
		return nil
	}

	var out []string
	add := func(s string) {
		if s != "" && len(out) < limit && !containsString(out, s) {
			out = append(out, s)
		}
	}
	for _, c := range candidates {
		if strings.EqualFold(c, input) {
			add(c)
		}
	}
	for _, m := range fuzzy.FindFrom(strings.ToLower(input), lowered(candidates)) {
		add(candidates[m.Index])
	}
	add(Closest(input, candidates))
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// maxEditDistance bounds how far a typo may be from a suggestion.
const maxEditDistance = 3

// Closest returns the candidate with the smallest edit distance to input,
// or "" when none is within maxEditDistance.
func Closest(input string, candidates []string) string {
	input = strings.ToLower(input)
	best, bestDist := "", maxEditDistance+1
	for _, c := range candidates {
		if d := editDistance(input, strings.ToLower(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// editDistance is the Levenshtein distance over bytes, kept in two rows.
func editDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			sub := prev[j-1]
			if a[i-1] != b[j-1] {
				sub++
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, sub)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
