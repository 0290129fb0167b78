package outfmt

import (
	"encoding/json"
	"io"

	"github.com/initBasti/plenty-cli/internal/filter"
)

// generic round-trips v through JSON so gojq sees plain maps and slices.
func generic(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return filter.Decode(data)
}

// ApplyQuery runs a jq query over v. Listings are wrapped as
// {"items": [...]} first; an empty query returns the wrapped value.
func ApplyQuery(v any, query string) (any, error) {
	v = wrapListing(v)
	if query == "" {
		return v, nil
	}
	decoded, err := generic(v)
	if err != nil {
		return nil, err
	}
	return filter.Apply(decoded, query)
}

// WriteJSONFiltered writes the result of ApplyQuery as JSON, indented
// unless compact is set.
func WriteJSONFiltered(w io.Writer, v any, query string, compact bool) error {
	result, err := ApplyQuery(v, query)
	if err != nil {
		return err
	}
	return encodeJSON(w, result, compact)
}

// WriteJSONLines writes every element of a listing as one compact JSON line.
// The query runs per element and each of its results gets a line.
func WriteJSONLines(w io.Writer, v any, query string) error {
	items, ok := elements(v)
	if !ok {
		items = []any{v}
	}

	var q *filter.Query
	if query != "" {
		var err error
		if q, err = filter.Compile(query); err != nil {
			return err
		}
	}

	for _, item := range items {
		results := []any{item}
		if q != nil {
			decoded, err := generic(item)
			if err != nil {
				return err
			}
			if results, err = q.All(decoded); err != nil {
				return err
			}
		}
		for _, r := range results {
			if err := encodeJSON(w, r, true); err != nil {
				return err
			}
		}
	}
	return nil
}
