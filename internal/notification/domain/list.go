package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/mainservice/internal/filter"
	"github.com/smallbiznis/mainservice/internal/units"
)

const dateLayout = "2006-01-02"

// ListFilter is the normalized form of a ListRequest.
type ListFilter struct {
	IsViewed   *bool
	TypeIDs    []int64
	SubtypeIDs []int64
	Start      *time.Time
	End        *time.Time
	Skip       int
	Units      units.Filter
}

// NormalizeListFilter parses raw list parameters. The date window applies
// only when both bounds are given; it spans whole days in loc and is
// returned in UTC.
func NormalizeListFilter(req ListRequest, loc *time.Location) (ListFilter, error) {
	if loc == nil {
		loc = time.UTC
	}
	f := ListFilter{
		IsViewed:   filter.Bool(req.IsViewed),
		TypeIDs:    filter.IDs(req.TypeIDs),
		SubtypeIDs: filter.IDs(req.SubtypeIDs),
		Skip:       filter.NonNegativeInt(req.Skip),
		Units: units.Filter{
			ClientIDs: filter.IDs(req.ClientIDs),
			UnitIDs:   filter.IDs(req.UnitIDs),
			StateIDs:  filter.Strings(req.StateIDs),
			CityIDs:   filter.Strings(req.CityIDs),
		},
	}

	startRaw, endRaw := strings.TrimSpace(req.DateStart), strings.TrimSpace(req.DateEnd)
	if startRaw != "" && endRaw != "" {
		startDay, err := time.ParseInLocation(dateLayout, startRaw, loc)
		if err != nil {
			return ListFilter{}, ErrInvalidDateRange
		}
		endDay, err := time.ParseInLocation(dateLayout, endRaw, loc)
		if err != nil {
			return ListFilter{}, ErrInvalidDateRange
		}
		start := startDay.UTC()
		end := endDay.Add(23*time.Hour + 59*time.Minute + 59*time.Second).UTC()
		f.Start, f.End = &start, &end
	}
	return f, nil
}

// Query builds the storage query for one recipient over the allowed units.
func (f ListFilter) Query(destinataryID string, allowed []int64, pageSize int) ListQuery {
	return ListQuery{
		DestinataryID: destinataryID,
		IsViewed:      f.IsViewed,
		SubtypeIDs:    f.SubtypeIDs,
		TypeIDs:       f.TypeIDs,
		Start:         f.Start,
		End:           f.End,
		UnitIDs:       allowed,
		Offset:        f.Skip,
		Limit:         pageSize,
	}
}

type UtilityDetectionView struct {
	DateDetection time.Time `json:"dateDetection"`
	UnitID        int64     `json:"unitId"`
	UnitName      string    `json:"unitName"`
	ClientName    string    `json:"clientName"`
	Consumption   float64   `json:"consumption"`
}

type MachineHealthDetectionView struct {
	DateDetection time.Time `json:"dateDetection"`
	UnitID        int64     `json:"unitId"`
	UnitName      string    `json:"unitName"`
	ClientName    string    `json:"clientName"`
	MachineName   string    `json:"machineName"`
	MachineID     int64     `json:"machineId"`
	AssetName     string    `json:"assetName"`
	AssetID       int64     `json:"assetId"`
	DeviceCode    string    `json:"deviceCode"`
	Report        string    `json:"report"`
}

type EnergyView struct {
	Detections      []UtilityDetectionView `json:"detections"`
	Setpoint        float64                `json:"setpoint"`
	IsGreater       bool                   `json:"isGreater"`
	IsInstantaneous bool                   `json:"isInstantaneous"`
}

type WaterView struct {
	Detections      []UtilityDetectionView `json:"detections"`
	IsInstantaneous bool                   `json:"isInstantaneous"`
}

type MachineHealthView struct {
	Detections      []MachineHealthDetectionView `json:"detections"`
	IsInstantaneous bool                         `json:"isInstantaneous"`
	HealthIndex     int64                        `json:"healthIndex"`
	HealthIndexName string                       `json:"healthIndexName"`
}

type ListItem struct {
	ID            snowflake.ID       `json:"id"`
	TypeName      string             `json:"typeName"`
	DateSend      time.Time          `json:"dateSend"`
	TimezoneArea  string             `json:"timezoneArea"`
	GMT           float64            `json:"gmt"`
	Energy        *EnergyView        `json:"energy,omitempty"`
	Water         *WaterView         `json:"water,omitempty"`
	MachineHealth *MachineHealthView `json:"machineHealth,omitempty"`
}

// BuildListItems keeps only detections in allowed units and enriches them
// with directory data. Rows left without detections are dropped. The
// timezone comes from the unit of the first kept detection.
func BuildListItems(rows []Notification, allowed map[int64]units.Unit) []ListItem {
	items := make([]ListItem, 0, len(rows))
	for _, row := range rows {
		item := ListItem{ID: row.ID, DateSend: row.DateSend}
		if row.Subtype != nil {
			item.TypeName = row.Subtype.SubtypeName
		}

		var first *units.Unit
		switch {
		case len(row.Energy) > 0:
			view := &EnergyView{}
			for _, d := range row.Energy {
				u, ok := allowed[d.UnitID]
				if !ok {
					continue
				}
				if first == nil {
					first = &u
				}
				view.Detections = append(view.Detections, UtilityDetectionView{
					DateDetection: d.DateDetection,
					UnitID:        d.UnitID,
					UnitName:      u.UnitName,
					ClientName:    u.ClientName,
					Consumption:   d.Consumption,
				})
			}
			if c := row.Energy[0].Conditions; c != nil {
				view.Setpoint, view.IsGreater, view.IsInstantaneous = c.Setpoint, c.IsGreater, c.IsInstantaneous
			}
			if len(view.Detections) > 0 {
				item.Energy = view
			}
		case len(row.Water) > 0:
			view := &WaterView{}
			for _, d := range row.Water {
				u, ok := allowed[d.UnitID]
				if !ok {
					continue
				}
				if first == nil {
					first = &u
				}
				view.Detections = append(view.Detections, UtilityDetectionView{
					DateDetection: d.DateDetection,
					UnitID:        d.UnitID,
					UnitName:      u.UnitName,
					ClientName:    u.ClientName,
					Consumption:   d.Consumption,
				})
			}
			if c := row.Water[0].Conditions; c != nil {
				view.IsInstantaneous = c.IsInstantaneous
			}
			if len(view.Detections) > 0 {
				item.Water = view
			}
		case len(row.MachineHealth) > 0:
			view := &MachineHealthView{}
			for _, d := range row.MachineHealth {
				u, ok := allowed[d.UnitID]
				if !ok {
					continue
				}
				if first == nil {
					first = &u
				}
				view.Detections = append(view.Detections, MachineHealthDetectionView{
					DateDetection: d.DateDetection,
					UnitID:        d.UnitID,
					UnitName:      u.UnitName,
					ClientName:    u.ClientName,
					MachineName:   d.MachineName,
					MachineID:     d.MachineID,
					AssetName:     d.AssetName,
					AssetID:       d.AssetID,
					DeviceCode:    d.DeviceCode,
					Report:        d.Report,
				})
			}
			if c := row.MachineHealth[0].Conditions; c != nil {
				view.IsInstantaneous = c.IsInstantaneous
				view.HealthIndex = c.HealthIndexID
				if c.HealthIndex != nil {
					view.HealthIndexName = c.HealthIndex.HealthIndexName
				}
			}
			if len(view.Detections) > 0 {
				item.MachineHealth = view
			}
		}

		if first == nil {
			continue
		}
		item.TimezoneArea = first.TimezoneArea
		item.GMT = first.GMT
		items = append(items, item)
	}
	return items
}
