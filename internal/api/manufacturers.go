package api

import "context"

// List lists manufacturers (brands).
func (s ManufacturersService) List(ctx context.Context, p ListParams) ([]Record, error) {
	return s.list(ctx, EndpointManufacturers, EndpointManufacturers.route(), p, nil)
}
