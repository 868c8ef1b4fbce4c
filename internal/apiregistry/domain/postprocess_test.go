package domain

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
)

func idOf(v int64) snowflake.ID { return snowflake.ID(v) }

func withUnits(id int64, units ...UnitRelation) Registration {
	return Registration{ID: idOf(id), UnitRelations: units}
}

func unit(id int64, name string) UnitRelation {
	return UnitRelation{UnitID: id, UnitName: name}
}

func ids(rows []Registration) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = int64(r.ID)
	}
	return out
}

func TestSortByFirstUnitAscending(t *testing.T) {
	rows := []Registration{
		withUnits(1, unit(30, "C")),
		withUnits(2),
		withUnits(3, unit(10, "Z"), unit(99, "A")),
		withUnits(4, unit(20, "B")),
		withUnits(5, unit(10, "Y")),
	}
	SortByFirstUnit(rows, UnitSort{Field: UnitFieldID})

	assert.Equal(t, []int64{3, 5, 4, 1, 2}, ids(rows))
	for i := 1; i < len(rows)-1; i++ {
		assert.LessOrEqual(t, rows[i-1].UnitRelations[0].UnitID, rows[i].UnitRelations[0].UnitID)
	}
}

func TestSortByFirstUnitDescendingPutsMissingFirst(t *testing.T) {
	rows := []Registration{
		withUnits(1, unit(30, "C")),
		withUnits(2),
		withUnits(3, unit(10, "A")),
	}
	SortByFirstUnit(rows, UnitSort{Field: UnitFieldName, Desc: true})

	assert.Equal(t, []int64{2, 1, 3}, ids(rows))
}

func TestBuildComboOptionsDeduplicates(t *testing.T) {
	rows := []Registration{
		{ClientID: 7, ClientName: "Acme", Title: "Foo", TriggerID: "T1",
			UnitRelations: []UnitRelation{unit(1, "Loja 1"), unit(2, "Loja 2")}},
		{ClientID: 8, ClientName: "Beta", Title: "Bar", TriggerID: "T1",
			UnitRelations: []UnitRelation{unit(2, "Loja 2")}},
		{ClientID: 7, ClientName: "Acme", Title: "Baz", TriggerID: "T2"},
	}

	opts := BuildComboOptions(rows)

	assert.Equal(t, []ClientOption{{7, "Acme"}, {8, "Beta"}}, opts.Clients)
	assert.Equal(t, []UnitOption{{1, "Loja 1"}, {2, "Loja 2"}}, opts.UnitRelations)
	assert.Equal(t, []string{"Foo", "Bar", "Baz"}, opts.Titles)
	assert.Equal(t, []string{"T1", "T2"}, opts.TriggerIDs)
}

func TestBuildComboOptionsEmpty(t *testing.T) {
	opts := BuildComboOptions(nil)
	assert.NotNil(t, opts.Clients)
	assert.Empty(t, opts.Clients)
	assert.Empty(t, opts.TriggerIDs)
}
