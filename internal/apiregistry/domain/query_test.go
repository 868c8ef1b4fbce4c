package domain

import (
	"encoding/json"
	"testing"

	"github.com/smallbiznis/mainservice/internal/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDefaults = ListDefaults{Page: 1, Limit: 10, MaxLimit: 250}

func TestBuildQueryWithoutFiltersOnlyRestrictsActive(t *testing.T) {
	q := BuildQuery(NormalizeFilter(ListRequest{}, testDefaults))

	assert.Equal(t, []Clause{{Column: "is_active", Values: []any{true}}}, q.Where.Clauses)
	assert.Nil(t, q.Where.Units)
	assert.Equal(t, "updated_at DESC", q.Order)
	assert.Nil(t, q.UnitSort)
	assert.Equal(t, 0, q.Offset)
	assert.Equal(t, 10, q.Limit)
}

func TestBuildQueryFromLooseJSON(t *testing.T) {
	body := `{
		"clientIds": ["7", 8, "x", null],
		"title": "  Foo  ",
		"healthStatus": ["RED", ""],
		"unitIds": [],
		"unitNames": ["Loja 1"],
		"isTest": "true",
		"status": false,
		"orderBy": "clientName",
		"orderDirection": "DESC",
		"page": "3",
		"limit": 20
	}`
	var req ListRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	q := BuildQuery(NormalizeFilter(req, testDefaults))

	assert.Equal(t, []Clause{
		{Column: "is_active", Values: []any{true}},
		{Column: "client_id", Values: []any{int64(7), int64(8)}},
		{Column: "title", Values: []any{"Foo"}},
		{Column: "health_status", Values: []any{"RED"}},
		{Column: "is_test", Values: []any{true}},
		{Column: "status", Values: []any{false}},
	}, q.Where.Clauses)
	require.NotNil(t, q.Where.Units)
	assert.Equal(t, Clause{Column: "unit_name", Values: []any{"Loja 1"}}, *q.Where.Units)
	assert.Equal(t, "client_name DESC", q.Order)
	assert.Equal(t, 40, q.Offset)
	assert.Equal(t, 20, q.Limit)
}

func TestBuildQueryUnitIDsWinOverUnitNames(t *testing.T) {
	f := NormalizeFilter(ListRequest{
		UnitIDs:   []string{"12"},
		UnitNames: []string{"Loja 1"},
	}, testDefaults)

	p := BuildPredicate(f)
	require.NotNil(t, p.Units)
	assert.Equal(t, "unit_id", p.Units.Column)
	assert.Equal(t, []any{int64(12)}, p.Units.Values)
}

func TestBuildQueryUnitOrderingIsInMemory(t *testing.T) {
	for _, orderBy := range []string{"UNIT_ID", "unitId"} {
		q := BuildQuery(NormalizeFilter(ListRequest{OrderBy: filterValue(orderBy)}, testDefaults))
		assert.Equal(t, "updated_at DESC", q.Order)
		require.NotNil(t, q.UnitSort)
		assert.Equal(t, UnitSort{Field: UnitFieldID}, *q.UnitSort)
	}

	q := BuildQuery(NormalizeFilter(ListRequest{OrderBy: "UNIT_NAME", OrderDirection: "desc"}, testDefaults))
	require.NotNil(t, q.UnitSort)
	assert.Equal(t, UnitSort{Field: UnitFieldName, Desc: true}, *q.UnitSort)
}

func TestBuildQueryIgnoresUnknownOrderColumn(t *testing.T) {
	q := BuildQuery(NormalizeFilter(ListRequest{OrderBy: "title; DROP TABLE x"}, testDefaults))
	assert.Equal(t, "updated_at DESC", q.Order)

	q = BuildQuery(NormalizeFilter(ListRequest{OrderBy: "TITLE"}, testDefaults))
	assert.Equal(t, "title ASC", q.Order)
}

func TestBuildQueryPaging(t *testing.T) {
	q := BuildQuery(NormalizeFilter(ListRequest{Limit: "1000"}, testDefaults))
	assert.Equal(t, 250, q.Limit)

	q = BuildQuery(NormalizeFilter(ListRequest{Page: "abc"}, testDefaults))
	assert.Equal(t, 0, q.Offset)
	assert.Equal(t, 10, q.Limit)

	q = BuildQuery(NormalizeFilter(ListRequest{Limit: "-5"}, testDefaults))
	assert.Equal(t, 10, q.Limit)

	q = BuildQuery(NormalizeFilter(ListRequest{Limit: "0"}, testDefaults))
	assert.Equal(t, 10, q.Limit)

	q = BuildQuery(NormalizeFilter(ListRequest{Limit: "-3", Page: "2"}, testDefaults))
	assert.Equal(t, 10, q.Offset)
	assert.Equal(t, 10, q.Limit)
}

func TestUpperSnake(t *testing.T) {
	assert.Equal(t, "CLIENT_ID", upperSnake("clientId"))
	assert.Equal(t, "CLIENT_ID", upperSnake("client_id"))
	assert.Equal(t, "CLIENT_ID", upperSnake("CLIENT_ID"))
	assert.Equal(t, "UPDATED_AT", upperSnake(" updatedAt "))
}

func filterValue(s string) filter.Value { return filter.Value(s) }
