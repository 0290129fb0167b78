package api

import (
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/initBasti/plenty-cli/internal/resolve"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 250
)

// ListParams are the filters shared by the list endpoints.
type ListParams struct {
	// Refine narrows the result set. Multiple values of one key are sent
	// comma separated.
	Refine map[string][]string
	// Additional embeds related objects in each record.
	Additional []string
	// LastUpdate keeps only records changed since the given date.
	LastUpdate string
	// Lang selects the language of item texts.
	Lang string
	// PageSize sets itemsPerPage; zero uses DefaultPageSize.
	PageSize int
}

// buildQuery validates p against the allow-lists of e and encodes it.
// Nothing is sent when validation fails.
func buildQuery(e Endpoint, p ListParams, loc *time.Location) (url.Values, error) {
	spec, ok := endpoints[e]
	if !ok {
		return nil, &InvalidParameterError{Name: "endpoint", Reason: fmt.Sprintf("unknown endpoint %q", e)}
	}
	q := url.Values{}

	keys := make([]string, 0, len(p.Refine))
	for k := range p.Refine {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !slices.Contains(spec.refine, k) {
			return nil, invalidKey(e, "refine", k, spec.refine)
		}
		values := nonEmpty(p.Refine[k])
		if len(values) == 0 {
			continue
		}
		q.Set(k, strings.Join(values, ","))
	}

	var with []string
	for _, a := range p.Additional {
		a = strings.TrimSpace(a)
		if a == "" || slices.Contains(with, a) {
			continue
		}
		if !slices.Contains(spec.additional, a) {
			return nil, invalidKey(e, "additional", a, spec.additional)
		}
		with = append(with, a)
	}
	if len(with) > 0 {
		switch spec.with {
		case withRepeated:
			q["with[]"] = with
		default:
			q.Set("with", strings.Join(with, ","))
		}
	}

	if p.Lang != "" {
		if !spec.lang {
			return nil, &InvalidParameterError{Name: "lang", Reason: fmt.Sprintf("not supported by %s", e)}
		}
		lang, err := NormalizeLanguage(p.Lang)
		if err != nil {
			return nil, err
		}
		q.Set("lang", lang)
	}

	if p.LastUpdate != "" {
		switch spec.lastUpdate {
		case lastUpdateDate:
			t, err := ParseDate(p.LastUpdate, loc)
			if err != nil {
				return nil, err
			}
			q.Set("updatedAt", FormatDate(t))
		case lastUpdateUnix:
			ts, err := unixTimestamp(p.LastUpdate, loc)
			if err != nil {
				return nil, err
			}
			q.Set("updatedBetween", strconv.FormatInt(ts, 10))
		default:
			return nil, &InvalidParameterError{Name: "last update", Reason: fmt.Sprintf("not supported by %s", e)}
		}
	}

	size, err := pageSize(p.PageSize)
	if err != nil {
		return nil, err
	}
	q.Set("itemsPerPage", strconv.Itoa(size))
	return q, nil
}

func pageSize(n int) (int, error) {
	if n == 0 {
		return DefaultPageSize, nil
	}
	if n < 1 || n > MaxPageSize {
		return 0, &InvalidParameterError{
			Name:   "page size",
			Reason: fmt.Sprintf("must be between 1 and %d, got %d", MaxPageSize, n),
		}
	}
	return n, nil
}

func invalidKey(e Endpoint, kind, key string, valid []string) error {
	return &InvalidRefinementKeyError{
		Endpoint:    e,
		Kind:        kind,
		Key:         key,
		Valid:       slices.Clone(valid),
		Suggestions: resolve.Suggest(key, valid, 3),
	}
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ParseRefine parses "key=value" pairs as given on the command line.
// Repeated keys accumulate values.
func ParseRefine(pairs []string) (map[string][]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string][]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, &InvalidParameterError{Name: "refine", Reason: fmt.Sprintf("expected key=value, got %q", pair)}
		}
		out[key] = append(out[key], value)
	}
	return out, nil
}
