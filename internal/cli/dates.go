// Package cli holds helpers shared by the command implementations.
package cli

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/initBasti/plenty-cli/internal/api"
)

// "7d ago", "2 weeks ago", "1mo ago"
var agoPattern = regexp.MustCompile(`^(\d+) ?([a-z]+) ago$`)

var units = map[string]func(t time.Time, n int) time.Time{
	"m":  func(t time.Time, n int) time.Time { return t.Add(-time.Duration(n) * time.Minute) },
	"h":  func(t time.Time, n int) time.Time { return t.Add(-time.Duration(n) * time.Hour) },
	"d":  func(t time.Time, n int) time.Time { return t.AddDate(0, 0, -n) },
	"w":  func(t time.Time, n int) time.Time { return t.AddDate(0, 0, -7*n) },
	"mo": func(t time.Time, n int) time.Time { return t.AddDate(0, -n, 0) },
}

var unitAliases = map[string]string{
	"min": "m", "mins": "m", "minute": "m", "minutes": "m",
	"hour": "h", "hours": "h",
	"day": "d", "days": "d",
	"week": "w", "weeks": "w",
	"month": "mo", "months": "mo",
}

// ResolveDate turns a relative expression ("7d ago", "yesterday", "monday",
// "last fri") into a W3C date string relative to now. Any other input is
// returned trimmed and left to the API date parser.
func ResolveDate(expr string, now time.Time) (string, error) {
	raw := strings.TrimSpace(expr)
	if raw == "" {
		return "", nil
	}
	t, ok, err := ParseRelativeTime(raw, now)
	switch {
	case err != nil:
		return "", err
	case !ok:
		return raw, nil
	}
	return api.FormatDate(t), nil
}

// ParseRelativeTime parses a past point in time relative to now. ok is
// false when s is not a relative expression at all.
func ParseRelativeTime(s string, now time.Time) (time.Time, bool, error) {
	input := strings.Join(strings.Fields(strings.ToLower(s)), " ")
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch input {
	case "now":
		return now, true, nil
	case "today":
		return midnight, true, nil
	case "yesterday":
		return midnight.AddDate(0, 0, -1), true, nil
	}

	if day, strict, ok := weekday(input); ok {
		back := (int(midnight.Weekday()) - int(day) + 7) % 7
		if strict && back == 0 {
			back = 7
		}
		return midnight.AddDate(0, 0, -back), true, nil
	}

	m := agoPattern.FindStringSubmatch(input)
	if m == nil {
		return time.Time{}, false, nil
	}
	num, unit := m[1], m[2]
	if alias, ok := unitAliases[unit]; ok {
		unit = alias
	}
	shift, ok := units[unit]
	if !ok {
		return time.Time{}, false, fmt.Errorf("invalid relative time unit %q", unit)
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 1 {
		return time.Time{}, false, fmt.Errorf("invalid relative time %q", s)
	}
	return shift(now, n), true, nil
}

// weekday matches "monday", "mon", "last fri". Abbreviations need at least
// three letters. strict is set for "last", which never means today.
func weekday(input string) (day time.Weekday, strict bool, ok bool) {
	name, strict := strings.CutPrefix(input, "last ")
	if len(name) < 3 {
		return 0, false, false
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.HasPrefix(strings.ToLower(d.String()), name) {
			return d, strict, true
		}
	}
	return 0, false, false
}
