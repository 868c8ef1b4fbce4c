package domain

import (
	"testing"
	"time"

	"github.com/smallbiznis/mainservice/internal/units"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeListFilterDateWindow(t *testing.T) {
	loc := time.FixedZone("-03:00", -3*3600)

	f, err := NormalizeListFilter(ListRequest{DateStart: "2024-03-01", DateEnd: "2024-03-02"}, loc)
	require.NoError(t, err)
	require.NotNil(t, f.Start)
	require.NotNil(t, f.End)
	assert.Equal(t, time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC), *f.Start)
	assert.Equal(t, time.Date(2024, 3, 3, 2, 59, 59, 0, time.UTC), *f.End)

	f, err = NormalizeListFilter(ListRequest{DateStart: "2024-03-01"}, loc)
	require.NoError(t, err)
	assert.Nil(t, f.Start)

	_, err = NormalizeListFilter(ListRequest{DateStart: "01/03/2024", DateEnd: "2024-03-02"}, loc)
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestNormalizeListFilterParams(t *testing.T) {
	f, err := NormalizeListFilter(ListRequest{
		IsViewed:   "false",
		TypeIDs:    []string{"2", "x"},
		SubtypeIDs: []string{},
		ClientIDs:  []string{"7"},
		StateIDs:   []string{" SP ", ""},
		Skip:       "-4",
	}, nil)
	require.NoError(t, err)

	require.NotNil(t, f.IsViewed)
	assert.False(t, *f.IsViewed)
	assert.Equal(t, []int64{2}, f.TypeIDs)
	assert.Nil(t, f.SubtypeIDs)
	assert.Equal(t, 0, f.Skip)
	assert.Equal(t, units.Filter{ClientIDs: []int64{7}, StateIDs: []string{"SP"}}, f.Units)

	q := f.Query("u1", []int64{10}, 10)
	assert.Equal(t, "u1", q.DestinataryID)
	assert.Equal(t, []int64{10}, q.UnitIDs)
	assert.Equal(t, 10, q.Limit)
}

func TestBuildListItemsFiltersDetectionsByAllowList(t *testing.T) {
	allowed := units.Index([]units.Unit{
		{UnitID: 11, UnitName: "Loja 11", ClientName: "Acme", TimezoneArea: "America/Sao_Paulo", GMT: -3},
	})
	rows := []Notification{
		{
			ID:       1,
			DateSend: detectedAt,
			Subtype:  &Subtype{SubtypeName: "Energia"},
			Energy: []EnergyDetection{
				{UnitID: 10, Consumption: 1, Conditions: &EnergyConditions{Setpoint: 5, IsGreater: true}},
				{UnitID: 11, Consumption: 2, Conditions: &EnergyConditions{Setpoint: 5, IsGreater: true}},
			},
		},
		{
			ID:    2,
			Water: []WaterDetection{{UnitID: 99}},
		},
		{
			ID:      3,
			Subtype: &Subtype{SubtypeName: "Indice de Saude"},
			MachineHealth: []MachineHealthDetection{{
				UnitID:      11,
				MachineName: "Chiller",
				Conditions: &MachineHealthConditions{
					IsInstantaneous: true,
					HealthIndexID:   2,
					HealthIndex:     &HealthIndex{ID: 2, HealthIndexName: "Risco iminente"},
				},
			}},
		},
	}

	items := BuildListItems(rows, allowed)
	require.Len(t, items, 2)

	energy := items[0]
	assert.Equal(t, "Energia", energy.TypeName)
	assert.Equal(t, "America/Sao_Paulo", energy.TimezoneArea)
	assert.Equal(t, -3.0, energy.GMT)
	require.NotNil(t, energy.Energy)
	require.Len(t, energy.Energy.Detections, 1)
	assert.Equal(t, "Loja 11", energy.Energy.Detections[0].UnitName)
	assert.Equal(t, "Acme", energy.Energy.Detections[0].ClientName)
	assert.Equal(t, 5.0, energy.Energy.Setpoint)
	assert.Nil(t, energy.Water)

	machine := items[1]
	require.NotNil(t, machine.MachineHealth)
	assert.Equal(t, int64(2), machine.MachineHealth.HealthIndex)
	assert.Equal(t, "Risco iminente", machine.MachineHealth.HealthIndexName)
	assert.Equal(t, "Chiller", machine.MachineHealth.Detections[0].MachineName)
}
