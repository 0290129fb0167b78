package api

import "context"

// PriceParams filters the sales price configurations.
type PriceParams struct {
	LastUpdate string
	// Minimal reduces every configuration to its IDs and names.
	Minimal bool
}

// Configurations lists the sales price configurations.
func (s PricesService) Configurations(ctx context.Context, p PriceParams) ([]Record, error) {
	records, err := s.list(ctx, EndpointPrices, EndpointPrices.route(), ListParams{LastUpdate: p.LastUpdate}, nil)
	if err != nil || !p.Minimal {
		return records, err
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		out = append(out, shrinkPriceConfiguration(r))
	}
	return out, nil
}

var priceSubkeys = []struct{ key, subkey string }{
	{"referrers", "referrerId"},
	{"accounts", "accountId"},
	{"clients", "plentyId"},
	{"countries", "countryId"},
	{"currencies", "currency"},
	{"customerClasses", "customerClassId"},
}

// shrinkPriceConfiguration keeps id, type, position, the external names
// per language and the ID lists of the linked entities.
func shrinkPriceConfiguration(r Record) Record {
	out := Record{
		"id":       r["id"],
		"type":     r["type"],
		"position": r["position"],
	}
	names := map[string]any{}
	for _, raw := range asList(r["names"]) {
		if n, ok := raw.(map[string]any); ok {
			if lang, ok := n["lang"].(string); ok {
				names[lang] = n["nameExternal"]
			}
		}
	}
	out["names"] = names
	for _, ks := range priceSubkeys {
		ids := []any{}
		for _, raw := range asList(r[ks.key]) {
			if e, ok := raw.(map[string]any); ok {
				ids = append(ids, e[ks.subkey])
			}
		}
		out[ks.key] = ids
	}
	return out
}

func asList(v any) []any {
	l, _ := v.([]any)
	return l
}
