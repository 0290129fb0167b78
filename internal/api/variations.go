package api

import (
	"context"
	"fmt"
)

// List lists variations.
func (s VariationsService) List(ctx context.Context, p ListParams) ([]Record, error) {
	return s.list(ctx, EndpointVariations, EndpointVariations.route(), p, nil)
}

// Create adds a variation to an existing item.
func (s VariationsService) Create(ctx context.Context, itemID int, v NewVariation) (*WriteResult, error) {
	if itemID <= 0 {
		return missing("itemId"), nil
	}
	if res := s.checkPayload(v); res != nil {
		return res, nil
	}
	v.ItemID = itemID
	return s.write(ctx, Post(fmt.Sprintf("%s/%d/variations", EndpointItems.route(), itemID), v))
}

// Update changes the given fields of a variation.
func (s VariationsService) Update(ctx context.Context, itemID, variationID int, fields map[string]any) (*WriteResult, error) {
	var miss []string
	if itemID <= 0 {
		miss = append(miss, "itemId")
	}
	if variationID <= 0 {
		miss = append(miss, "variationId")
	}
	if len(fields) == 0 {
		miss = append(miss, "fields")
	}
	if len(miss) > 0 {
		return missing(miss...), nil
	}
	path := fmt.Sprintf("%s/%d/variations/%d", EndpointItems.route(), itemID, variationID)
	return s.write(ctx, Put(path, fields))
}
