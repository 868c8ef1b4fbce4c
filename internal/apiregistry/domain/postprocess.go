package domain

import (
	"cmp"
	"slices"
)

// SortByFirstUnit orders rows by the given field of their first unit
// relation. Rows without relations sort last ascending and first descending.
// The sort is stable so ties keep storage order.
func SortByFirstUnit(rows []Registration, sort UnitSort) {
	slices.SortStableFunc(rows, func(a, b Registration) int {
		c := compareFirstUnit(a, b, sort.Field)
		if sort.Desc {
			return -c
		}
		return c
	})
}

func compareFirstUnit(a, b Registration, field UnitField) int {
	aHas, bHas := len(a.UnitRelations) > 0, len(b.UnitRelations) > 0
	switch {
	case !aHas && !bHas:
		return 0
	case !aHas:
		return 1
	case !bHas:
		return -1
	}
	ua, ub := a.UnitRelations[0], b.UnitRelations[0]
	if field == UnitFieldName {
		return cmp.Compare(ua.UnitName, ub.UnitName)
	}
	return cmp.Compare(ua.UnitID, ub.UnitID)
}

// BuildComboOptions deduplicates filter options across rows keeping
// first-seen order.
func BuildComboOptions(rows []Registration) ComboOptions {
	opts := ComboOptions{
		Clients:       []ClientOption{},
		UnitRelations: []UnitOption{},
		Titles:        []string{},
		TriggerIDs:    []string{},
	}
	seenClients := map[int64]struct{}{}
	seenUnits := map[int64]struct{}{}
	seenTitles := map[string]struct{}{}
	seenTriggers := map[string]struct{}{}

	for _, row := range rows {
		if _, ok := seenClients[row.ClientID]; !ok {
			seenClients[row.ClientID] = struct{}{}
			opts.Clients = append(opts.Clients, ClientOption{ClientID: row.ClientID, ClientName: row.ClientName})
		}
		for _, unit := range row.UnitRelations {
			if _, ok := seenUnits[unit.UnitID]; ok {
				continue
			}
			seenUnits[unit.UnitID] = struct{}{}
			opts.UnitRelations = append(opts.UnitRelations, UnitOption{UnitID: unit.UnitID, UnitName: unit.UnitName})
		}
		if _, ok := seenTitles[row.Title]; !ok {
			seenTitles[row.Title] = struct{}{}
			opts.Titles = append(opts.Titles, row.Title)
		}
		if _, ok := seenTriggers[row.TriggerID]; !ok {
			seenTriggers[row.TriggerID] = struct{}{}
			opts.TriggerIDs = append(opts.TriggerIDs, row.TriggerID)
		}
	}
	return opts
}
