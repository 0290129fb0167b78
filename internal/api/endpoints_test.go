package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrdersByDate_Query(t *testing.T) {
	exec := &fakeExecutor{respond: pagedOrders(2, 50)}
	client := newTestClient(exec)

	records, err := client.Orders().ByDate(context.Background(), OrdersByDateParams{
		Start:    "2024-03-01",
		End:      "2024-03-02T12:00",
		DateType: DatePayment,
		ListParams: ListParams{
			Refine:     map[string][]string{"orderType": {"1", "4"}},
			Additional: []string{"addresses"},
		},
	})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	calls := exec.calls()
	require.Len(t, calls, 1)
	q := calls[0].Query
	assert.Equal(t, "/rest/orders", calls[0].Path)
	assert.Equal(t, "2024-03-01T00:00:00+00:00", q.Get("paidAtFrom"))
	assert.Equal(t, "2024-03-02T12:00:00+00:00", q.Get("paidAtTo"))
	assert.Equal(t, "1,4", q.Get("orderType"))
	assert.Equal(t, []string{"addresses"}, q["with[]"])
	assert.Equal(t, "1", q.Get("page"))
}

func TestOrdersCreateTransaction(t *testing.T) {
	exec := &fakeExecutor{respond: func(req Request) (*Response, error) {
		return jsonResponse(http.StatusOK, map[string]any{"id": 7}), nil
	}}
	client := newTestClient(exec)

	res, err := client.Orders().CreateTransaction(context.Background(), 900, Transaction{Quantity: 2, Direction: "in", WarehouseLocationID: 21})
	require.NoError(t, err)
	require.True(t, res.OK())
	body := exec.calls()[0].Body.(Transaction)
	assert.Equal(t, "regular", body.Status)
	assert.Equal(t, 900, body.OrderItemID)

	res, err = client.Orders().CreateTransaction(context.Background(), 900, Transaction{Direction: "sideways"})
	require.NoError(t, err)
	assert.Equal(t, WriteMissingParameter, res.Error)
	assert.ElementsMatch(t, []string{"quantity", "direction"}, res.Missing)

	res, err = client.Orders().CreateTransaction(context.Background(), 900, Transaction{Quantity: 1, Direction: "out"})
	require.NoError(t, err)
	require.True(t, res.OK(), "storage location 0 is the standard location")
	assert.Equal(t, 0, exec.calls()[1].Body.(Transaction).WarehouseLocationID)

	res, err = client.Orders().CreateTransaction(context.Background(), 900, Transaction{Quantity: 1, Direction: "out", WarehouseLocationID: -1})
	require.NoError(t, err)
	assert.Equal(t, []string{"warehouseLocationId"}, res.Missing)

	res, err = client.Orders().CreateTransaction(context.Background(), 0, Transaction{})
	require.NoError(t, err)
	assert.Equal(t, []string{"orderItemId"}, res.Missing)

	res, err = client.Orders().Book(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"orderId"}, res.Missing)
	assert.Len(t, exec.calls(), 2)
}

func TestItemsCreate_Validation(t *testing.T) {
	exec := &fakeExecutor{}
	client := newTestClient(exec)

	res, err := client.Items().Create(context.Background(), NewItem{
		Variations: []NewVariation{{Unit: &Unit{UnitID: 1, Content: 1}}},
	})
	require.NoError(t, err)
	assert.Equal(t, WriteMissingParameter, res.Error)
	assert.Equal(t, []string{"variations[0].variationCategories"}, res.Missing)

	res, err = client.Items().Create(context.Background(), NewItem{})
	require.NoError(t, err)
	assert.Equal(t, []string{"variations"}, res.Missing)
	assert.Empty(t, exec.calls())
}

func TestItemsCreate(t *testing.T) {
	exec := &fakeExecutor{respond: func(Request) (*Response, error) {
		return jsonResponse(http.StatusOK, map[string]any{"id": 101, "variations": []any{map[string]any{"id": 1001}}}), nil
	}}
	client := newTestClient(exec)

	res, err := client.Items().Create(context.Background(), NewItem{
		Variations: []NewVariation{{
			Number:              "SHIRT-M",
			VariationCategories: []CategoryRef{{CategoryID: 12}},
			Unit:                &Unit{UnitID: 1, Content: 1},
		}},
	})
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, json.Number("101"), res.Record()["id"])

	call := exec.calls()[0]
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Equal(t, "/rest/items", call.Path)
}

func TestItemsUpdate_Missing(t *testing.T) {
	client := newTestClient(&fakeExecutor{})
	res, err := client.Items().Update(context.Background(), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"itemId", "fields"}, res.Missing)
}

func TestSetImageAvailability(t *testing.T) {
	exec := &fakeExecutor{respond: func(Request) (*Response, error) {
		return jsonResponse(http.StatusOK, map[string]any{"id": 1}), nil
	}}
	client := newTestClient(exec)

	res, err := client.Items().SetImageAvailability(context.Background(), 10, 20, ImageTarget{Type: "marketplace", ID: 102})
	require.NoError(t, err)
	require.True(t, res.OK())
	call := exec.calls()[0]
	assert.Equal(t, "/rest/items/10/images/20/availabilities", call.Path)
	assert.Equal(t, map[string]any{"imageId": 20, "type": "marketplace", "value": "102"}, call.Body)

	res, err = client.Items().SetImageAvailability(context.Background(), 10, 20, ImageTarget{Type: "shop", ID: 1})
	require.NoError(t, err)
	assert.Equal(t, WriteInvalidTarget, res.Error)

	res, err = client.Items().SetImageAvailability(context.Background(), 10, 0, ImageTarget{Type: "listing"})
	require.NoError(t, err)
	assert.Equal(t, WriteMissingParameter, res.Error)
	assert.Equal(t, []string{"imageId", "target"}, res.Missing)
	assert.Len(t, exec.calls(), 1)
}

func TestVariationsWrites(t *testing.T) {
	exec := &fakeExecutor{respond: func(Request) (*Response, error) {
		return jsonResponse(http.StatusOK, map[string]any{"id": 5}), nil
	}}
	client := newTestClient(exec)

	res, err := client.Variations().Create(context.Background(), 10, NewVariation{
		VariationCategories: []CategoryRef{{CategoryID: 1}},
		Unit:                &Unit{UnitID: 1, Content: 1},
	})
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, "/rest/items/10/variations", exec.calls()[0].Path)
	assert.Equal(t, 10, exec.calls()[0].Body.(NewVariation).ItemID)

	res, err = client.Variations().Update(context.Background(), 10, 5, map[string]any{"isActive": true})
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, http.MethodPut, exec.calls()[1].Method)
	assert.Equal(t, "/rest/items/10/variations/5", exec.calls()[1].Path)

	res, err = client.Variations().Update(context.Background(), 0, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"itemId", "variationId", "fields"}, res.Missing)
}

func TestAttributesWrites(t *testing.T) {
	exec := &fakeExecutor{respond: func(Request) (*Response, error) {
		return jsonResponse(http.StatusOK, map[string]any{"id": 3}), nil
	}}
	client := newTestClient(exec)
	ctx := context.Background()

	res, err := client.Attributes().Create(ctx, NewAttribute{BackendName: "color"})
	require.NoError(t, err)
	assert.True(t, res.OK())

	res, err = client.Attributes().Create(ctx, NewAttribute{})
	require.NoError(t, err)
	assert.Equal(t, []string{"backendName"}, res.Missing)

	res, err = client.Attributes().CreateName(ctx, 3, "DE", "Farbe")
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, map[string]any{"attributeId": 3, "lang": "de", "name": "Farbe"}, exec.calls()[1].Body)
	assert.Equal(t, "/rest/items/attributes/3/names", exec.calls()[1].Path)

	res, err = client.Attributes().CreateName(ctx, 3, "xx", "Farbe")
	require.NoError(t, err)
	assert.Equal(t, WriteInvalidLanguage, res.Error)

	res, err = client.Attributes().CreateName(ctx, 0, "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"attributeId", "lang", "name"}, res.Missing)

	res, err = client.Attributes().CreateValue(ctx, 3, NewAttributeValue{BackendName: "red"})
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "/rest/items/attributes/3/values", exec.calls()[2].Path)

	res, err = client.Attributes().CreateValue(ctx, 0, NewAttributeValue{BackendName: "red"})
	require.NoError(t, err)
	assert.Equal(t, []string{"attributeId"}, res.Missing)

	res, err = client.Attributes().CreateValueName(ctx, 9, "en", "red")
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "/rest/items/attribute_values/9/names", exec.calls()[3].Path)
	assert.Len(t, exec.calls(), 4)
}

func TestAttributesList_VariationMap(t *testing.T) {
	exec := &fakeExecutor{respond: func(req Request) (*Response, error) {
		switch req.Path {
		case "/rest/items/attributes":
			assert.Equal(t, "values", req.Query.Get("with"))
			return &Response{StatusCode: http.StatusOK, Body: []byte(`{"page":1,"isLastPage":true,"entries":[
				{"id":1,"backendName":"color","values":[{"id":10,"backendName":"red"},{"id":11,"backendName":"blue"}]},
				{"id":2,"backendName":"size","values":[{"id":20,"backendName":"M"}]}
			]}`)}, nil
		case "/rest/items/variations":
			assert.Equal(t, "variationAttributeValues", req.Query.Get("with"))
			return &Response{StatusCode: http.StatusOK, Body: []byte(`{"page":1,"isLastPage":true,"entries":[
				{"id":1001,"variationAttributeValues":[{"attributeId":1,"valueId":10},{"attributeId":2,"valueId":20}]},
				{"id":1002,"variationAttributeValues":[{"attributeId":1,"valueId":10}]}
			]}`)}, nil
		}
		return &Response{StatusCode: http.StatusNotFound}, nil
	}}
	client := newTestClient(exec)

	records, err := client.Attributes().List(context.Background(), AttributesParams{VariationMap: true})
	require.NoError(t, err)
	require.Len(t, records, 2)

	colors := records[0]["values"].([]any)
	red := colors[0].(map[string]any)
	assert.Equal(t, []any{json.Number("1001"), json.Number("1002")}, red["linked_variations"])
	blue := colors[1].(map[string]any)
	assert.NotContains(t, blue, "linked_variations")
	sizes := records[1]["values"].([]any)
	assert.Equal(t, []any{json.Number("1001")}, sizes[0].(map[string]any)["linked_variations"])
	assert.Len(t, exec.calls(), 2)
}

func TestLinkVariations_MissingValues(t *testing.T) {
	attributes := []Record{{"id": 1, "values": []any{map[string]any{"id": 10}}}}
	variations := []Record{{"id": 1001}}
	out := linkVariations(attributes, variations)
	assert.NotContains(t, out[0]["values"].([]any)[0], "linked_variations")
	assert.Equal(t, attributes, linkVariations(attributes, nil))
}

func TestVATMapping(t *testing.T) {
	exec := &fakeExecutor{respond: func(Request) (*Response, error) {
		return &Response{StatusCode: http.StatusOK, Body: []byte(`{"page":1,"isLastPage":true,"entries":[
			{"id":1,"countryId":1,"taxIdNumber":"DE123"},
			{"id":4,"countryId":1,"taxIdNumber":"DE999"},
			{"id":2,"countryId":2,"taxIdNumber":"ATU1"},
			{"id":3,"countryId":12}
		]}`)}, nil
	}}
	client := newTestClient(exec)

	mapping, err := client.Accounting().VATMapping(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]VATEntry{
		"1":  {Config: []string{"1", "4"}, TaxID: "DE123"},
		"2":  {Config: []string{"2"}, TaxID: "ATU1"},
		"12": {Config: []string{"3"}},
	}, mapping)

	mapping, err = client.Accounting().VATMapping(context.Background(), []int{2, 12})
	require.NoError(t, err)
	assert.Len(t, mapping, 2)
	assert.NotContains(t, mapping, "1")

	b, err := json.Marshal(mapping["2"])
	require.NoError(t, err)
	assert.JSONEq(t, `{"config":["2"],"TaxId":"ATU1"}`, string(b))
}

func TestPriceConfigurations_Minimal(t *testing.T) {
	body := `{"page":1,"isLastPage":true,"entries":[{
		"id":1,"type":"default","position":0,"isDisplayedByDefault":true,
		"names":[{"lang":"de","nameExternal":"Preis"},{"lang":"en","nameExternal":"Price"}],
		"referrers":[{"referrerId":1.01},{"referrerId":4}],
		"accounts":[{"accountId":7}],
		"clients":[{"plentyId":41614}],
		"countries":[{"countryId":1}],
		"currencies":[{"currency":"EUR"}],
		"customerClasses":[]
	}]}`
	exec := &fakeExecutor{respond: func(Request) (*Response, error) {
		return &Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil
	}}
	client := newTestClient(exec)

	records, err := client.Prices().Configurations(context.Background(), PriceParams{Minimal: true, LastUpdate: "2024-01-01"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	r := records[0]
	assert.NotContains(t, r, "isDisplayedByDefault")
	assert.Equal(t, map[string]any{"de": "Preis", "en": "Price"}, r["names"])
	assert.Equal(t, []any{json.Number("1.01"), json.Number("4")}, r["referrers"])
	assert.Equal(t, []any{"EUR"}, r["currencies"])
	assert.Equal(t, []any{}, r["customerClasses"])
	assert.Equal(t, "2024-01-01T00:00:00+00:00", exec.calls()[0].Query.Get("updatedAt"))

	full, err := client.Prices().Configurations(context.Background(), PriceParams{})
	require.NoError(t, err)
	assert.Contains(t, full[0], "isDisplayedByDefault")
}

func TestReferrersList(t *testing.T) {
	exec := &fakeExecutor{respond: func(Request) (*Response, error) {
		return &Response{StatusCode: http.StatusOK, Body: []byte(`[{"id":1,"name":"Mandant"},{"id":4.01,"name":"Amazon DE"}]`)}, nil
	}}
	client := newTestClient(exec)

	records, err := client.Referrers().List(context.Background(), "name")
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, "name", exec.calls()[0].Query.Get("columns"))

	_, err = client.Referrers().List(context.Background(), "bogus")
	require.NoError(t, err)
	assert.False(t, exec.calls()[1].Query.Has("columns"))
}

func TestWarehousesResolve(t *testing.T) {
	exec := &fakeExecutor{respond: func(Request) (*Response, error) {
		return &Response{StatusCode: http.StatusOK, Body: []byte(`[{"id":104,"name":"Main warehouse"},{"id":114,"name":"Returns"}]`)}, nil
	}}
	client := newTestClient(exec)
	ctx := context.Background()

	id, err := client.Warehouses().Resolve(ctx, "114")
	require.NoError(t, err)
	assert.Equal(t, 114, id)
	assert.Empty(t, exec.calls())

	id, err = client.Warehouses().Resolve(ctx, "returns")
	require.NoError(t, err)
	assert.Equal(t, 114, id)

	id, err = client.Warehouses().Resolve(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, 104, id)

	_, err = client.Warehouses().Resolve(ctx, "xyz")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "resolving warehouse"))
}

func TestStockStorageLocations(t *testing.T) {
	exec := &fakeExecutor{respond: pagedOrders(1, 50)}
	client := newTestClient(exec)

	_, err := client.Stock().StorageLocations(context.Background(), 104, ListParams{Refine: map[string][]string{"variationId": {"1234"}}})
	require.NoError(t, err)
	call := exec.calls()[0]
	assert.Equal(t, "/rest/stockmanagement/warehouses/104/stock/storageLocations", call.Path)
	assert.Equal(t, "1234", call.Query.Get("variationId"))
}

func TestContactsList(t *testing.T) {
	exec := &fakeExecutor{respond: pagedOrders(1, 50)}
	client := newTestClient(exec)

	_, err := client.Contacts().List(context.Background(), ListParams{Refine: map[string][]string{"email": {"a@example.com"}}, PageSize: 100})
	require.NoError(t, err)
	q := exec.calls()[0].Query
	assert.Equal(t, "a@example.com", q.Get("email"))
	assert.Equal(t, "100", q.Get("itemsPerPage"))
}
