package api

import (
	"context"
	"fmt"
	"strconv"

	"github.com/initBasti/plenty-cli/internal/resolve"
)

// List lists the stock of all warehouses.
func (s StockService) List(ctx context.Context, p ListParams) ([]Record, error) {
	return s.list(ctx, EndpointStock, EndpointStock.route(), p, nil)
}

// StorageLocations lists the stock per storage location of one warehouse.
func (s StockService) StorageLocations(ctx context.Context, warehouseID int, p ListParams) ([]Record, error) {
	if warehouseID <= 0 {
		return nil, &InvalidParameterError{Name: "warehouse", Reason: "warehouse ID required"}
	}
	return s.list(ctx, EndpointStorageLocations, EndpointStorageLocations.route(warehouseID), p, nil)
}

// List returns all warehouses. The listing is not paginated.
func (s WarehousesService) List(ctx context.Context) ([]Record, error) {
	return s.getRecords(ctx, Get(EndpointWarehouses.route(), nil))
}

// Resolve returns the ID of a warehouse given its ID or a (partial) name.
func (s WarehousesService) Resolve(ctx context.Context, nameOrID string) (int, error) {
	if id, err := strconv.Atoi(nameOrID); err == nil && id > 0 {
		return id, nil
	}
	warehouses, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	named := make([]resolve.Named, 0, len(warehouses))
	for _, w := range warehouses {
		id, err := strconv.Atoi(idString(w["id"]))
		if err != nil {
			continue
		}
		name, _ := w["name"].(string)
		named = append(named, resolve.Named{ID: id, Name: name})
	}
	id, err := resolve.FuzzyMatch(nameOrID, named)
	if err != nil {
		return 0, fmt.Errorf("resolving warehouse: %w", err)
	}
	return id, nil
}
