package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Order, item, relation and date constants of a redistribution.
const (
	orderTypeRedistribution = 15
	itemTypeVariation       = 1
	dateTypeInitiation      = 16
	dateTypeFinish          = 17
	transactionStatus       = "regular"
)

// RedistributionTemplate describes a stock movement between two warehouses.
type RedistributionTemplate struct {
	PlentyID   int                 `json:"plenty_id,omitempty" yaml:"plenty_id"`
	Sender     int                 `json:"sender" yaml:"sender" validate:"required,gt=0"`
	Receiver   int                 `json:"receiver" yaml:"receiver" validate:"required,gt=0"`
	Variations []TemplateVariation `json:"variations" yaml:"variations" validate:"required,min=1,dive"`
}

// TemplateVariation is one variation to move. Locations break the quantity
// down by the storage location it is taken from.
type TemplateVariation struct {
	VariationID   int                `json:"variation_id" yaml:"variation_id" validate:"required,gt=0"`
	TotalQuantity int                `json:"total_quantity" yaml:"total_quantity" validate:"required,gt=0"`
	Name          string             `json:"name,omitempty" yaml:"name"`
	Locations     []TemplateLocation `json:"locations,omitempty" yaml:"locations" validate:"dive"`
}

// TemplateLocation is an outgoing storage location with the target
// locations in the receiving warehouse.
type TemplateLocation struct {
	LocationID int              `json:"location_id" yaml:"location_id" validate:"gte=0"`
	Quantity   int              `json:"quantity" yaml:"quantity" validate:"required,gt=0"`
	Targets    []TemplateTarget `json:"targets,omitempty" yaml:"targets" validate:"dive"`
}

// TemplateTarget is an incoming storage location.
type TemplateTarget struct {
	LocationID int `json:"location_id" yaml:"location_id" validate:"gte=0"`
	Quantity   int `json:"quantity" yaml:"quantity" validate:"required,gt=0"`
}

// LoadTemplate reads a template from a .json, .yaml or .yml file.
func LoadTemplate(path string) (*RedistributionTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	var tmpl RedistributionTemplate
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&tmpl); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", path, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&tmpl); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", path, err)
		}
	}
	return &tmpl, nil
}

// RedistributionOrder is the order body sent to the remote system.
type RedistributionOrder struct {
	TypeID     int                  `json:"typeId"`
	PlentyID   int                  `json:"plentyId,omitempty"`
	OrderItems []RedistributionItem `json:"orderItems"`
	Relations  []OrderRelation      `json:"relations"`
	Dates      []OrderDate          `json:"dates,omitempty"`
}

type RedistributionItem struct {
	TypeID          int    `json:"typeId"`
	ItemVariationID int    `json:"itemVariationId"`
	Quantity        int    `json:"quantity"`
	OrderItemName   string `json:"orderItemName"`
}

type OrderRelation struct {
	ReferenceType string `json:"referenceType"`
	ReferenceID   int    `json:"referenceId"`
	Relation      string `json:"relation"`
}

type OrderDate struct {
	TypeID int    `json:"typeId"`
	Date   string `json:"date"`
}

// PlannedTransaction is a transaction to post once the order item of
// VariationID exists.
type PlannedTransaction struct {
	VariationID int
	Transaction Transaction
}

// RedistributionPlan is the result of transforming a template.
type RedistributionPlan struct {
	Order        RedistributionOrder
	Transactions []PlannedTransaction
	BookOut      bool
}

// Outgoing returns the planned transactions with direction out.
func (p *RedistributionPlan) Outgoing() []PlannedTransaction {
	return p.direction("out")
}

// Incoming returns the planned transactions with direction in.
func (p *RedistributionPlan) Incoming() []PlannedTransaction {
	return p.direction("in")
}

func (p *RedistributionPlan) direction(d string) []PlannedTransaction {
	var out []PlannedTransaction
	for _, t := range p.Transactions {
		if t.Transaction.Direction == d {
			out = append(out, t)
		}
	}
	return out
}

var templateValidator = newValidator()

// BuildRedistribution validates tmpl and transforms it into the order and
// the transactions to post. With bookOut the initiation and finish dates
// are stamped with now.
func BuildRedistribution(tmpl RedistributionTemplate, bookOut bool, now time.Time) (*RedistributionPlan, error) {
	if err := validateTemplate(tmpl); err != nil {
		return nil, err
	}

	plan := &RedistributionPlan{
		Order: RedistributionOrder{
			TypeID:   orderTypeRedistribution,
			PlentyID: tmpl.PlentyID,
			Relations: []OrderRelation{
				{ReferenceType: "warehouse", ReferenceID: tmpl.Sender, Relation: "sender"},
				{ReferenceType: "warehouse", ReferenceID: tmpl.Receiver, Relation: "receiver"},
			},
		},
		BookOut: bookOut,
	}

	for _, v := range tmpl.Variations {
		name := v.Name
		if name == "" {
			name = strconv.Itoa(v.VariationID)
		}
		plan.Order.OrderItems = append(plan.Order.OrderItems, RedistributionItem{
			TypeID:          itemTypeVariation,
			ItemVariationID: v.VariationID,
			Quantity:        v.TotalQuantity,
			OrderItemName:   name,
		})
		for _, loc := range v.Locations {
			plan.Transactions = append(plan.Transactions, PlannedTransaction{
				VariationID: v.VariationID,
				Transaction: Transaction{
					Quantity:            loc.Quantity,
					Direction:           "out",
					Status:              transactionStatus,
					WarehouseLocationID: loc.LocationID,
				},
			})
			for _, target := range loc.Targets {
				plan.Transactions = append(plan.Transactions, PlannedTransaction{
					VariationID: v.VariationID,
					Transaction: Transaction{
						Quantity:            target.Quantity,
						Direction:           "in",
						Status:              transactionStatus,
						WarehouseLocationID: target.LocationID,
					},
				})
			}
		}
	}

	if bookOut {
		stamp := FormatDate(now)
		plan.Order.Dates = []OrderDate{
			{TypeID: dateTypeInitiation, Date: stamp},
			{TypeID: dateTypeFinish, Date: stamp},
		}
	}
	return plan, nil
}

func validateTemplate(tmpl RedistributionTemplate) error {
	err := templateValidator.Struct(tmpl)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &InvalidTemplateError{Field: "template", Reason: err.Error()}
	}
	fe := verrs[0]
	reason := "is required"
	switch fe.Tag() {
	case "gt":
		reason = "must be positive"
	case "gte":
		reason = "must not be negative"
	case "min":
		reason = "must not be empty"
	}
	return &InvalidTemplateError{Field: fieldPath(fe), Reason: reason}
}

// Create posts the redistribution order, then one transaction per planned
// movement against the created order items. With bookOut the order is
// booked afterwards, which cannot be undone remotely.
//
// Template errors are returned before any request is sent. A remote
// rejection stops the sequence and is reported in the result. Once the order
// exists, every failure keeps it: rejections carry the order and the
// transactions posted so far in Data, other errors are a
// *PartialRedistributionError.
func (s RedistributionsService) Create(ctx context.Context, tmpl RedistributionTemplate, bookOut bool) (*WriteResult, error) {
	plan, err := BuildRedistribution(tmpl, bookOut, s.nowFunc())
	if err != nil {
		return nil, err
	}

	res, err := s.write(ctx, Post("/rest/redistributions", plan.Order))
	if err != nil || !res.OK() {
		return res, err
	}
	order := res.Record()
	orderID, _ := strconv.Atoi(idString(order["id"]))

	itemIDs := map[int]int{}
	for _, raw := range asList(order["orderItems"]) {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		variationID, _ := strconv.Atoi(idString(item["itemVariationId"]))
		itemID, _ := strconv.Atoi(idString(item["id"]))
		itemIDs[variationID] = itemID
	}

	orders := s.Client.Orders()
	var transactions []any
	created := func() Record {
		return Record{"order": order, "transactions": transactions}
	}
	for _, pt := range plan.Transactions {
		itemID, ok := itemIDs[pt.VariationID]
		if !ok || itemID == 0 {
			return nil, &PartialRedistributionError{
				OrderID: orderID,
				Created: created(),
				Err:     fmt.Errorf("no order item for variation %d", pt.VariationID),
			}
		}
		tres, err := orders.CreateTransaction(ctx, itemID, pt.Transaction)
		if err != nil {
			return nil, &PartialRedistributionError{OrderID: orderID, Created: created(), Err: err}
		}
		if !tres.OK() {
			tres.Data = created()
			return tres, nil
		}
		transactions = append(transactions, tres.Data)
	}

	result := &WriteResult{Data: created(), Status: res.Status}
	if !bookOut {
		return result, nil
	}

	bres, err := orders.Book(ctx, orderID)
	if err != nil {
		return nil, &PartialRedistributionError{OrderID: orderID, Created: created(), Err: err}
	}
	if !bres.OK() {
		bres.Data = created()
		return bres, nil
	}
	slog.Warn("redistribution booked, stock changes cannot be reverted", "order_id", orderID)
	result.Irreversible = true
	return result, nil
}
