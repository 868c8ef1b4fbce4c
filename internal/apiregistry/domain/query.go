package domain

import (
	"strings"
	"unicode"

	"github.com/smallbiznis/mainservice/internal/filter"
	"github.com/smallbiznis/mainservice/pkg/db/pagination"
)

// ListDefaults bounds list paging.
type ListDefaults struct {
	Page     int
	Limit    int
	MaxLimit int
}

// Filter is the normalized form of a ListRequest. Nil slices and nil
// pointers mean "no constraint".
type Filter struct {
	ClientIDs        []int64
	ClientNames      []string
	Titles           []string
	UnitNames        []string
	UnitIDs          []int64
	NotifyConditions []string
	HealthStatuses   []string
	IntegrationTypes []string
	TriggerIDs       []string
	IsTest           *bool
	Status           *bool
	OrderBy          string
	OrderDesc        bool
	Page             int
	Limit            int
}

// NormalizeFilter converts raw list parameters. Read-side status has no
// default: an absent status does not constrain the list.
func NormalizeFilter(req ListRequest, defaults ListDefaults) Filter {
	f := Filter{
		ClientIDs:        filter.IDs(req.ClientIDs),
		ClientNames:      filter.Strings(req.ClientName),
		Titles:           filter.Strings(req.Title),
		UnitNames:        filter.Strings(req.UnitNames),
		UnitIDs:          filter.IDs(req.UnitIDs),
		NotifyConditions: filter.Strings(req.NotifyCondition),
		HealthStatuses:   filter.Strings(req.HealthStatus),
		IntegrationTypes: filter.Strings(req.IntegrationType),
		TriggerIDs:       filter.Strings(req.TriggerID),
		IsTest:           filter.Bool(string(req.IsTest)),
		Status:           filter.Bool(string(req.Status)),
		OrderBy:          strings.TrimSpace(string(req.OrderBy)),
		OrderDesc:        strings.EqualFold(strings.TrimSpace(string(req.OrderDirection)), "desc"),
	}
	page := pagination.Page{
		Page:  filter.PositiveInt(string(req.Page), defaults.Page),
		Limit: filter.PositiveInt(string(req.Limit), defaults.Limit),
	}.Clamp(defaults.MaxLimit)
	f.Page, f.Limit = page.Page, page.Limit
	return f
}

// Clause constrains Column to one of Values.
type Clause struct {
	Column string
	Values []any
}

// Predicate is the storage predicate of a list query. Clauses apply to the
// registration row; Units, when set, requires at least one unit relation
// whose column matches.
type Predicate struct {
	Clauses []Clause
	Units   *Clause
}

type UnitField string

const (
	UnitFieldID   UnitField = "unit_id"
	UnitFieldName UnitField = "unit_name"
)

type UnitSort struct {
	Field UnitField
	Desc  bool
}

// Query is a complete list query. Limit 0 means unbounded.
type Query struct {
	Where    Predicate
	Order    string
	UnitSort *UnitSort
	Offset   int
	Limit    int
}

const defaultOrder = "updated_at DESC"

var sortableColumns = map[string]string{
	"ID":               "id",
	"CLIENT_ID":        "client_id",
	"CLIENT_NAME":      "client_name",
	"TITLE":            "title",
	"NOTIFY_CONDITION": "notify_condition",
	"HEALTH_STATUS":    "health_status",
	"INTEGRATION_TYPE": "integration_type",
	"TRIGGER_ID":       "trigger_id",
	"IS_TEST":          "is_test",
	"STATUS":           "status",
	"CREATED_AT":       "created_at",
	"UPDATED_AT":       "updated_at",
}

var unitSortFields = map[string]UnitField{
	"UNIT_ID":   UnitFieldID,
	"UNIT_NAME": UnitFieldName,
}

// BuildQuery turns a normalized filter into a storage query. It always
// restricts to active rows and adds one clause per present filter.
func BuildQuery(f Filter) Query {
	q := Query{Where: BuildPredicate(f), Order: defaultOrder}

	key := upperSnake(f.OrderBy)
	if field, ok := unitSortFields[key]; ok {
		q.UnitSort = &UnitSort{Field: field, Desc: f.OrderDesc}
	} else if column, ok := sortableColumns[key]; ok {
		q.Order = column + " ASC"
		if f.OrderDesc {
			q.Order = column + " DESC"
		}
	}

	if page := (pagination.Page{Page: f.Page, Limit: f.Limit}); page.Enabled() {
		q.Offset = page.Offset()
		q.Limit = page.Limit
	}
	return q
}

// BuildPredicate is shared by the list and its count.
func BuildPredicate(f Filter) Predicate {
	p := Predicate{Clauses: []Clause{{Column: "is_active", Values: []any{true}}}}

	add := func(column string, values []any) {
		if len(values) > 0 {
			p.Clauses = append(p.Clauses, Clause{Column: column, Values: values})
		}
	}
	add("client_id", anyInts(f.ClientIDs))
	add("client_name", anyStrings(f.ClientNames))
	add("title", anyStrings(f.Titles))
	add("health_status", anyStrings(f.HealthStatuses))
	add("notify_condition", anyStrings(f.NotifyConditions))
	add("integration_type", anyStrings(f.IntegrationTypes))
	add("trigger_id", anyStrings(f.TriggerIDs))
	if f.IsTest != nil {
		add("is_test", []any{*f.IsTest})
	}
	if f.Status != nil {
		add("status", []any{*f.Status})
	}

	// unitIds wins over unitNames when both are given.
	switch {
	case len(f.UnitIDs) > 0:
		p.Units = &Clause{Column: string(UnitFieldID), Values: anyInts(f.UnitIDs)}
	case len(f.UnitNames) > 0:
		p.Units = &Clause{Column: string(UnitFieldName), Values: anyStrings(f.UnitNames)}
	}
	return p
}

func anyInts(values []int64) []any {
	if len(values) == 0 {
		return nil
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func anyStrings(values []string) []any {
	if len(values) == 0 {
		return nil
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// upperSnake maps "clientId", "client_id" and "CLIENT_ID" to "CLIENT_ID".
func upperSnake(s string) string {
	var b strings.Builder
	runes := []rune(strings.TrimSpace(s))
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 && unicode.IsLower(runes[i-1]) {
			b.WriteRune('_')
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
