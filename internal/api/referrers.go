package api

import (
	"context"
	"log/slog"
	"net/url"
	"slices"
)

// ReferrerColumns are the fields a referrer listing can be reduced to.
var ReferrerColumns = []string{"backendName", "id", "isEditable", "isFilterable", "name", "orderOwnderId", "origin"}

// List returns all order referrers. A column from ReferrerColumns reduces
// every record to that field; any other column is ignored with a warning.
// The remote accepts only a single column.
func (s ReferrersService) List(ctx context.Context, column string) ([]Record, error) {
	q := url.Values{}
	switch {
	case column == "":
	case slices.Contains(ReferrerColumns, column):
		q.Set("columns", column)
	default:
		slog.Warn("invalid referrer column ignored", "column", column)
	}
	return s.getRecords(ctx, Get(EndpointReferrers.route(), q))
}
