package api

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"
)

// AttributesParams filters the attribute listing.
type AttributesParams struct {
	Additional []string
	LastUpdate string
	PageSize   int
	// VariationMap adds "linked_variations" to every attribute value,
	// listing the IDs of the variations carrying that value.
	VariationMap bool
}

// List lists attributes. With VariationMap the attribute values are always
// requested and all variations are fetched alongside.
func (s AttributesService) List(ctx context.Context, p AttributesParams) ([]Record, error) {
	lp := ListParams{Additional: p.Additional, LastUpdate: p.LastUpdate, PageSize: p.PageSize}
	if p.VariationMap && !slices.Contains(lp.Additional, "values") {
		lp.Additional = append(slices.Clone(lp.Additional), "values")
	}
	if !p.VariationMap {
		return s.list(ctx, EndpointAttributes, EndpointAttributes.route(), lp, nil)
	}

	var attributes, variations []Record
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		attributes, err = s.list(gctx, EndpointAttributes, EndpointAttributes.route(), lp, nil)
		return err
	})
	g.Go(func() error {
		var err error
		variations, err = s.Client.Variations().List(gctx, ListParams{
			Additional: []string{"variationAttributeValues"},
			PageSize:   p.PageSize,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return linkVariations(attributes, variations), nil
}

// linkVariations indexes variations by attribute and value ID and attaches
// the matching variation IDs to each attribute value.
func linkVariations(attributes, variations []Record) []Record {
	if len(attributes) == 0 || len(variations) == 0 {
		return attributes
	}
	index := map[string]map[string][]any{}
	for _, v := range variations {
		values, ok := v["variationAttributeValues"].([]any)
		if !ok {
			slog.Warn("variations without attribute values, skipping variation map")
			return attributes
		}
		for _, raw := range values {
			av, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			attrID, valID := idString(av["attributeId"]), idString(av["valueId"])
			if index[attrID] == nil {
				index[attrID] = map[string][]any{}
			}
			index[attrID][valID] = append(index[attrID][valID], v["id"])
		}
	}

	for _, a := range attributes {
		byValue, ok := index[idString(a["id"])]
		if !ok {
			continue
		}
		values, _ := a["values"].([]any)
		for _, raw := range values {
			val, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if linked, ok := byValue[idString(val["id"])]; ok {
				val["linked_variations"] = linked
			}
		}
	}
	return attributes
}

// idString formats a decoded JSON identifier for use as a map key.
func idString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	default:
		return fmt.Sprint(id)
	}
}

// NewAttribute is the body of an attribute creation.
type NewAttribute struct {
	BackendName                  string `json:"backendName" validate:"required"`
	Position                     int    `json:"position,omitempty"`
	IsGroupable                  bool   `json:"isGroupable,omitempty"`
	TypeOfSelectionInOnlineStore string `json:"typeOfSelectionInOnlineStore,omitempty"`
}

// Create creates an attribute.
func (s AttributesService) Create(ctx context.Context, a NewAttribute) (*WriteResult, error) {
	if res := s.checkPayload(a); res != nil {
		return res, nil
	}
	return s.write(ctx, Post(EndpointAttributes.route(), a))
}

// CreateName adds a translated name to an attribute.
func (s AttributesService) CreateName(ctx context.Context, attributeID int, lang, name string) (*WriteResult, error) {
	if res := checkName(attributeID, "attributeId", lang, name); res != nil {
		return res, nil
	}
	lang, _ = NormalizeLanguage(lang)
	body := map[string]any{"attributeId": attributeID, "lang": lang, "name": name}
	return s.write(ctx, Post(fmt.Sprintf("%s/%d/names", EndpointAttributes.route(), attributeID), body))
}

// NewAttributeValue is the body of an attribute value creation.
type NewAttributeValue struct {
	BackendName string `json:"backendName" validate:"required"`
	Position    int    `json:"position,omitempty"`
}

// CreateValue adds a value to an attribute.
func (s AttributesService) CreateValue(ctx context.Context, attributeID int, v NewAttributeValue) (*WriteResult, error) {
	if attributeID <= 0 {
		return missing("attributeId"), nil
	}
	if res := s.checkPayload(v); res != nil {
		return res, nil
	}
	return s.write(ctx, Post(fmt.Sprintf("%s/%d/values", EndpointAttributes.route(), attributeID), v))
}

// CreateValueName adds a translated name to an attribute value.
func (s AttributesService) CreateValueName(ctx context.Context, valueID int, lang, name string) (*WriteResult, error) {
	if res := checkName(valueID, "valueId", lang, name); res != nil {
		return res, nil
	}
	lang, _ = NormalizeLanguage(lang)
	body := map[string]any{"valueId": valueID, "lang": lang, "name": name}
	return s.write(ctx, Post(fmt.Sprintf("/rest/items/attribute_values/%d/names", valueID), body))
}

func checkName(id int, idField, lang, name string) *WriteResult {
	var miss []string
	if id <= 0 {
		miss = append(miss, idField)
	}
	if lang == "" {
		miss = append(miss, "lang")
	}
	if name == "" {
		miss = append(miss, "name")
	}
	if len(miss) > 0 {
		return missing(miss...)
	}
	if _, err := NormalizeLanguage(lang); err != nil {
		return &WriteResult{Error: WriteInvalidLanguage}
	}
	return nil
}
