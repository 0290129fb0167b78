package api

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuery_Defaults(t *testing.T) {
	q, err := buildQuery(EndpointItems, ListParams{}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "50", q.Get("itemsPerPage"))
	assert.Len(t, q, 1)
}

func TestBuildQuery_RefineJoinsValues(t *testing.T) {
	q, err := buildQuery(EndpointOrders, ListParams{
		Refine: map[string][]string{
			"orderType":  {"1", " 4 ", ""},
			"referrerId": {"1.01"},
			"contactId":  {""},
		},
	}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "1,4", q.Get("orderType"))
	assert.Equal(t, "1.01", q.Get("referrerId"))
	assert.False(t, q.Has("contactId"))
}

func TestBuildQuery_WithStyles(t *testing.T) {
	q, err := buildQuery(EndpointOrders, ListParams{Additional: []string{"addresses", "payments", "addresses"}}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []string{"addresses", "payments"}, q["with[]"])
	assert.False(t, q.Has("with"))

	q, err = buildQuery(EndpointVariations, ListParams{Additional: []string{"stock", "images"}}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "stock,images", q.Get("with"))
	assert.False(t, q.Has("with[]"))
}

func TestBuildQuery_InvalidKeys(t *testing.T) {
	_, err := buildQuery(EndpointOrders, ListParams{Refine: map[string][]string{"refferrerId": {"1"}}}, time.UTC)
	var keyErr *InvalidRefinementKeyError
	require.ErrorAs(t, err, &keyErr)
	assert.Equal(t, "refine", keyErr.Kind)
	assert.Equal(t, "refferrerId", keyErr.Key)
	assert.Contains(t, keyErr.Suggestions, "referrerId")
	assert.True(t, slices.Contains(keyErr.Valid, "orderType"))

	_, err = buildQuery(EndpointItems, ListParams{Additional: []string{"variation"}}, time.UTC)
	require.ErrorAs(t, err, &keyErr)
	assert.Equal(t, "additional", keyErr.Kind)
	assert.Equal(t, EndpointItems, keyErr.Endpoint)

	_, err = buildQuery(EndpointVAT, ListParams{Refine: map[string][]string{"countryId": {"1"}}}, time.UTC)
	assert.True(t, IsValidationError(err))
}

func TestBuildQuery_Lang(t *testing.T) {
	q, err := buildQuery(EndpointItems, ListParams{Lang: "DE"}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "de", q.Get("lang"))

	_, err = buildQuery(EndpointItems, ListParams{Lang: "xx"}, time.UTC)
	var langErr *InvalidLanguageCodeError
	assert.ErrorAs(t, err, &langErr)

	_, err = buildQuery(EndpointOrders, ListParams{Lang: "de"}, time.UTC)
	var paramErr *InvalidParameterError
	require.ErrorAs(t, err, &paramErr)
	assert.Equal(t, "lang", paramErr.Name)
}

func TestBuildQuery_LastUpdate(t *testing.T) {
	q, err := buildQuery(EndpointItems, ListParams{LastUpdate: "2024-03-01"}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "1709251200", q.Get("updatedBetween"))

	q, err = buildQuery(EndpointAttributes, ListParams{LastUpdate: "2024-03-01T10:00"}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T10:00:00+00:00", q.Get("updatedAt"))

	_, err = buildQuery(EndpointItems, ListParams{LastUpdate: "1998-01-01"}, time.UTC)
	assert.True(t, IsValidationError(err))

	_, err = buildQuery(EndpointOrders, ListParams{LastUpdate: "2024-03-01"}, time.UTC)
	var paramErr *InvalidParameterError
	assert.ErrorAs(t, err, &paramErr)

	_, err = buildQuery(EndpointManufacturers, ListParams{LastUpdate: "March"}, time.UTC)
	var dateErr *InvalidDateFormatError
	assert.ErrorAs(t, err, &dateErr)
}

func TestBuildQuery_PageSize(t *testing.T) {
	q, err := buildQuery(EndpointStock, ListParams{PageSize: 250}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "250", q.Get("itemsPerPage"))

	for _, n := range []int{-1, 251} {
		_, err := buildQuery(EndpointStock, ListParams{PageSize: n}, time.UTC)
		assert.True(t, IsValidationError(err), "page size %d", n)
	}
}

func TestBuildQuery_UnknownEndpoint(t *testing.T) {
	_, err := buildQuery(Endpoint("invoices"), ListParams{}, time.UTC)
	assert.True(t, IsValidationError(err))
}

func TestList_ValidationFailsBeforeRequest(t *testing.T) {
	exec := &fakeExecutor{}
	client := newTestClient(exec)

	_, err := client.Orders().List(context.Background(), ListParams{Refine: map[string][]string{"bogus": {"1"}}})
	require.Error(t, err)
	_, err = client.Items().List(context.Background(), ListParams{Lang: "klingon"})
	require.Error(t, err)
	_, err = client.Orders().ByDate(context.Background(), OrdersByDateParams{Start: "2024-02-01", End: "2024-01-01", DateType: DateCreation})
	require.Error(t, err)
	_, err = client.Orders().ByDate(context.Background(), OrdersByDateParams{Start: "2024-01-01", End: "2024-02-01"})
	require.Error(t, err)
	_, err = client.Stock().StorageLocations(context.Background(), 0, ListParams{})
	require.Error(t, err)

	assert.Empty(t, exec.calls())
}

func TestParseRefine(t *testing.T) {
	got, err := ParseRefine([]string{"orderType=1", "orderType=4", "referrerId=1.01", "orderItemName=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"orderType":     {"1", "4"},
		"referrerId":    {"1.01"},
		"orderItemName": {"a=b"},
	}, got)

	got, err = ParseRefine(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseRefine([]string{"orderType"})
	var paramErr *InvalidParameterError
	assert.True(t, errors.As(err, &paramErr))
	_, err = ParseRefine([]string{"=1"})
	assert.Error(t, err)
}

func TestEndpointMetadata(t *testing.T) {
	all := Endpoints()
	assert.Len(t, all, 12)
	assert.True(t, slices.IsSorted(all))
	assert.Contains(t, RefineKeys(EndpointOrders), "orderType")
	assert.Contains(t, AdditionalKeys(EndpointVariations), "stock")
	assert.Empty(t, RefineKeys(EndpointVAT))

	keys := RefineKeys(EndpointStock)
	keys[0] = "mutated"
	assert.Equal(t, "variationId", RefineKeys(EndpointStock)[0])

	assert.Equal(t, "/rest/stockmanagement/warehouses/104/stock/storageLocations", EndpointStorageLocations.route(104))
	assert.Equal(t, "/rest/orders", EndpointOrders.route())
}

func TestNormalizeLanguage(t *testing.T) {
	lang, err := NormalizeLanguage(" EN ")
	require.NoError(t, err)
	assert.Equal(t, "en", lang)
	_, err = NormalizeLanguage("english")
	assert.Error(t, err)
	assert.Contains(t, Languages(), "de")
}

func TestCountryID(t *testing.T) {
	id, err := CountryID("de")
	require.NoError(t, err)
	assert.Equal(t, 1, id)
	id, err = CountryID("GB")
	require.NoError(t, err)
	assert.Equal(t, 12, id)
	_, err = CountryID("ZZ")
	assert.True(t, IsValidationError(err))
}
