package api

import (
	"context"
	"fmt"
	"slices"
	"strconv"
)

// List lists items. LastUpdate is sent as a unix timestamp.
func (s ItemsService) List(ctx context.Context, p ListParams) ([]Record, error) {
	return s.list(ctx, EndpointItems, EndpointItems.route(), p, nil)
}

// NewItem is the body of an item creation. An item is created together
// with its main variation.
type NewItem struct {
	ManufacturerID int            `json:"manufacturerId,omitempty"`
	ItemType       string         `json:"itemType,omitempty"`
	Variations     []NewVariation `json:"variations" validate:"required,min=1,dive"`
	// Extra holds further item fields sent as given.
	Extra map[string]any `json:"-"`
}

func (n NewItem) MarshalJSON() ([]byte, error) {
	type plain NewItem
	return withExtra(plain(n), n.Extra)
}

// NewVariation is the body of a variation creation.
type NewVariation struct {
	ItemID                   int                 `json:"itemId,omitempty"`
	Number                   string              `json:"number,omitempty"`
	Name                     string              `json:"name,omitempty"`
	IsMain                   bool                `json:"isMain,omitempty"`
	VariationCategories      []CategoryRef       `json:"variationCategories" validate:"required,min=1,dive"`
	Unit                     *Unit               `json:"unit" validate:"required"`
	VariationAttributeValues []AttributeValueRef `json:"variationAttributeValues,omitempty" validate:"dive"`
	Extra                    map[string]any      `json:"-"`
}

func (n NewVariation) MarshalJSON() ([]byte, error) {
	type plain NewVariation
	return withExtra(plain(n), n.Extra)
}

type CategoryRef struct {
	CategoryID int `json:"categoryId" validate:"required"`
}

type Unit struct {
	UnitID  int `json:"unitId" validate:"required"`
	Content int `json:"content" validate:"required"`
}

type AttributeValueRef struct {
	AttributeID int `json:"attributeId" validate:"required"`
	ValueID     int `json:"valueId" validate:"required"`
}

// Create creates an item with its variations.
func (s ItemsService) Create(ctx context.Context, item NewItem) (*WriteResult, error) {
	if res := s.checkPayload(item); res != nil {
		return res, nil
	}
	return s.write(ctx, Post(EndpointItems.route(), item))
}

// Update changes the given fields of an item.
func (s ItemsService) Update(ctx context.Context, itemID int, fields map[string]any) (*WriteResult, error) {
	var miss []string
	if itemID <= 0 {
		miss = append(miss, "itemId")
	}
	if len(fields) == 0 {
		miss = append(miss, "fields")
	}
	if len(miss) > 0 {
		return missing(miss...), nil
	}
	return s.write(ctx, Put(fmt.Sprintf("%s/%d", EndpointItems.route(), itemID), fields))
}

// ImageTargets are the kinds an image can be made available for.
var ImageTargets = []string{"marketplace", "mandant", "listing"}

// ImageTarget names where an image becomes visible, e.g. {marketplace 102}.
type ImageTarget struct {
	Type string
	ID   int
}

// SetImageAvailability makes an item image available for a marketplace,
// client (mandant) or listing.
func (s ItemsService) SetImageAvailability(ctx context.Context, itemID, imageID int, target ImageTarget) (*WriteResult, error) {
	var miss []string
	if itemID <= 0 {
		miss = append(miss, "itemId")
	}
	if imageID <= 0 {
		miss = append(miss, "imageId")
	}
	if target.Type == "" || target.ID <= 0 {
		miss = append(miss, "target")
	}
	if target.Type != "" && !slices.Contains(ImageTargets, target.Type) {
		return &WriteResult{Error: WriteInvalidTarget}, nil
	}
	if len(miss) > 0 {
		return missing(miss...), nil
	}

	body := map[string]any{
		"imageId": imageID,
		"type":    target.Type,
		"value":   strconv.Itoa(target.ID),
	}
	path := fmt.Sprintf("%s/%d/images/%d/availabilities", EndpointItems.route(), itemID, imageID)
	return s.write(ctx, Post(path, body))
}
