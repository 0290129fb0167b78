package api

import (
	"context"
	"slices"
	"strconv"
)

// VATEntry groups the VAT configurations of one country.
type VATEntry struct {
	Config []string `json:"config"`
	TaxID  string   `json:"TaxId"`
}

// VATMapping maps country IDs to their VAT configuration IDs and the tax
// ID registered for that country. A non-empty subset restricts the result
// to those country IDs.
func (s AccountingService) VATMapping(ctx context.Context, subset []int) (map[string]VATEntry, error) {
	records, err := s.list(ctx, EndpointVAT, EndpointVAT.route(), ListParams{}, nil)
	if err != nil {
		return nil, err
	}
	return vatMapping(records, subset), nil
}

func vatMapping(records []Record, subset []int) map[string]VATEntry {
	mapping := map[string]VATEntry{}
	for _, r := range records {
		country := idString(r["countryId"])
		if country == "" {
			continue
		}
		if len(subset) > 0 {
			id, err := strconv.Atoi(country)
			if err != nil || !slices.Contains(subset, id) {
				continue
			}
		}
		entry, ok := mapping[country]
		if !ok {
			entry.TaxID, _ = r["taxIdNumber"].(string)
		}
		entry.Config = append(entry.Config, idString(r["id"]))
		mapping[country] = entry
	}
	return mapping
}
