package api

import (
	"context"
	"fmt"
)

// OrdersByDateParams selects orders whose date of the given type lies in
// [Start, End]. Refine and Additional are checked against the order
// allow-lists; LastUpdate and Lang are not accepted.
type OrdersByDateParams struct {
	Start    string
	End      string
	DateType DateType
	ListParams
}

// ByDate lists all orders in the date range.
func (s OrdersService) ByDate(ctx context.Context, p OrdersByDateParams) ([]Record, error) {
	if p.DateType == "" {
		return nil, &InvalidParameterError{Name: "date type", Reason: "required"}
	}
	r, err := NewDateRange(p.Start, p.End, p.DateType, s.location)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, EndpointOrders, EndpointOrders.route(), p.ListParams, r.apply)
}

// List lists orders filtered by refine keys only.
func (s OrdersService) List(ctx context.Context, p ListParams) ([]Record, error) {
	return s.list(ctx, EndpointOrders, EndpointOrders.route(), p, nil)
}

// Transaction moves stock for one order item.
type Transaction struct {
	OrderItemID         int    `json:"orderItemId,omitempty"`
	Quantity            int    `json:"quantity" validate:"required,gt=0"`
	Direction           string `json:"direction" validate:"required,oneof=in out"`
	Status              string `json:"status,omitempty"`
	WarehouseLocationID int    `json:"warehouseLocationId" validate:"gte=0"`
	UserID              int    `json:"userId,omitempty"`
}

// CreateTransaction posts a transaction for the order item.
func (s OrdersService) CreateTransaction(ctx context.Context, orderItemID int, t Transaction) (*WriteResult, error) {
	if orderItemID <= 0 {
		return missing("orderItemId"), nil
	}
	if res := s.checkPayload(t); res != nil {
		return res, nil
	}
	t.OrderItemID = orderItemID
	if t.Status == "" {
		t.Status = "regular"
	}
	return s.write(ctx, Post(fmt.Sprintf("/rest/orders/items/%d/transactions", orderItemID), t))
}

// Book commits the pending transactions of an order. The stock change
// cannot be undone remotely.
func (s OrdersService) Book(ctx context.Context, orderID int) (*WriteResult, error) {
	if orderID <= 0 {
		return missing("orderId"), nil
	}
	res, err := s.write(ctx, Put(fmt.Sprintf("/rest/orders/%d/booking", orderID), nil))
	if err != nil || !res.OK() {
		return res, err
	}
	res.Irreversible = true
	return res, nil
}
