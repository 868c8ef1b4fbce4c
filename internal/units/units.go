// Package units resolves the units a caller may see through the unit
// directory service.
package units

import (
	"context"
)

// Unit is one directory entry. Field names follow the directory payload.
type Unit struct {
	UnitID       int64   `json:"UNIT_ID"`
	UnitName     string  `json:"UNIT_NAME"`
	ClientName   string  `json:"CLIENT_NAME"`
	TimezoneArea string  `json:"timezoneArea"`
	GMT          float64 `json:"gmt"`
}

// Filter narrows the directory lookup. Empty slices are sent as null.
type Filter struct {
	ClientIDs []int64  `json:"clientIds"`
	UnitIDs   []int64  `json:"unitIds"`
	StateIDs  []string `json:"stateIds"`
	CityIDs   []string `json:"cityIds"`
}

//go:generate mockgen -destination=mock/directory_mock.go -package=mock github.com/smallbiznis/mainservice/internal/units Directory

// Directory lists the units visible to the bearer of authorization.
type Directory interface {
	ListUnits(ctx context.Context, authorization string, filter Filter) ([]Unit, error)
}

// Index maps unit ids to units.
func Index(list []Unit) map[int64]Unit {
	out := make(map[int64]Unit, len(list))
	for _, u := range list {
		if _, ok := out[u.UnitID]; !ok {
			out[u.UnitID] = u
		}
	}
	return out
}

// IDs returns the unit ids of list in order.
func IDs(list []Unit) []int64 {
	out := make([]int64, 0, len(list))
	for _, u := range list {
		out = append(out, u.UnitID)
	}
	return out
}
