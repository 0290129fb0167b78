package outfmt

import (
	"encoding/json"
	"reflect"

	"github.com/initBasti/plenty-cli/internal/api"
)

// envelope is the JSON shape of every listing. It stays a map so
// templates can address .items.
func envelope(items any) map[string]any {
	return map[string]any{"items": items}
}

// wrapListing puts slices into an {"items": [...]} envelope so jq paths like
// .items[].id work for every listing. Objects, tables and raw JSON pass
// through unchanged.
func wrapListing(v any) any {
	switch val := v.(type) {
	case nil, []byte, json.RawMessage, *api.Table, api.Record:
		return v
	case []api.Record:
		if val == nil {
			val = []api.Record{}
		}
		return envelope(val)
	}

	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return v
	}
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return envelope([]any{})
	}
	return envelope(rv.Interface())
}

// elements returns the entries of a listing, or false for single values.
func elements(v any) ([]any, bool) {
	if records, ok := v.([]api.Record); ok {
		out := make([]any, len(records))
		for i, r := range records {
			out[i] = r
		}
		return out, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
