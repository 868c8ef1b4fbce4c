package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const EventCreated = "notification.created"

// NewEnergy builds an energy notification and its conditions row.
func NewEnergy(req CreateEnergyRequest, subtypeID int64, newID func() snowflake.ID, now time.Time) (Notification, EnergyConditions, error) {
	if err := validateUtility(req.Detections); err != nil {
		return Notification{}, EnergyConditions{}, err
	}
	n, err := newNotification(req.DestinataryIDs, subtypeID, newID, now)
	if err != nil {
		return Notification{}, EnergyConditions{}, err
	}

	conditions := EnergyConditions{
		ID:              newID(),
		Setpoint:        req.Setpoint,
		IsGreater:       req.IsGreater,
		IsInstantaneous: req.IsInstantaneous,
	}
	for _, d := range req.Detections {
		n.Energy = append(n.Energy, EnergyDetection{
			ID:             newID(),
			NotificationID: n.ID,
			ConditionsID:   conditions.ID,
			UnitID:         d.UnitID,
			DateDetection:  d.DateDetection.UTC(),
			Consumption:    d.Consumption,
		})
	}
	return n, conditions, nil
}

func NewWater(req CreateWaterRequest, subtypeID int64, newID func() snowflake.ID, now time.Time) (Notification, WaterConditions, error) {
	if err := validateUtility(req.Detections); err != nil {
		return Notification{}, WaterConditions{}, err
	}
	n, err := newNotification(req.DestinataryIDs, subtypeID, newID, now)
	if err != nil {
		return Notification{}, WaterConditions{}, err
	}

	conditions := WaterConditions{ID: newID(), IsInstantaneous: req.IsInstantaneous}
	for _, d := range req.Detections {
		n.Water = append(n.Water, WaterDetection{
			ID:             newID(),
			NotificationID: n.ID,
			ConditionsID:   conditions.ID,
			UnitID:         d.UnitID,
			DateDetection:  d.DateDetection.UTC(),
			Consumption:    d.Consumption,
		})
	}
	return n, conditions, nil
}

func NewMachineHealth(req CreateMachineHealthRequest, subtypeID int64, newID func() snowflake.ID, now time.Time) (Notification, MachineHealthConditions, error) {
	if len(req.Detections) == 0 {
		return Notification{}, MachineHealthConditions{}, ErrDetectionsEmpty
	}
	for _, d := range req.Detections {
		if d.UnitID <= 0 || d.DateDetection.IsZero() {
			return Notification{}, MachineHealthConditions{}, ErrInvalidDetection
		}
	}
	if req.HealthIndex <= 0 {
		return Notification{}, MachineHealthConditions{}, ErrInvalidHealthIndex
	}
	n, err := newNotification(req.DestinataryIDs, subtypeID, newID, now)
	if err != nil {
		return Notification{}, MachineHealthConditions{}, err
	}

	conditions := MachineHealthConditions{
		ID:              newID(),
		IsInstantaneous: req.IsInstantaneous,
		HealthIndexID:   req.HealthIndex,
	}
	for _, d := range req.Detections {
		n.MachineHealth = append(n.MachineHealth, MachineHealthDetection{
			ID:             newID(),
			NotificationID: n.ID,
			ConditionsID:   conditions.ID,
			UnitID:         d.UnitID,
			DateDetection:  d.DateDetection.UTC(),
			MachineName:    d.MachineName,
			MachineID:      d.MachineID,
			AssetName:      d.AssetName,
			AssetID:        d.AssetID,
			DeviceCode:     d.DeviceCode,
			Report:         d.Report,
		})
	}
	return n, conditions, nil
}

// NewCreatedEvent is the outbox row announcing n.
func NewCreatedEvent(n Notification, kind string, id snowflake.ID, now time.Time) Event {
	recipients := make([]string, 0, len(n.Destinataries))
	for _, d := range n.Destinataries {
		recipients = append(recipients, d.DestinataryID)
	}
	return Event{
		ID:             id,
		NotificationID: n.ID,
		EventType:      EventCreated,
		Payload: datatypes.JSONMap{
			"notificationId": n.ID.String(),
			"kind":           kind,
			"subtypeId":      n.SubtypeID,
			"dateSend":       n.DateSend.Format(time.RFC3339),
			"destinataryIds": recipients,
			"unitIds":        n.UnitIDs(),
		},
		CreatedAt: now,
	}
}

// UnitIDs lists the distinct units of n's detections in order.
func (n Notification) UnitIDs() []int64 {
	seen := map[int64]struct{}{}
	var out []int64
	add := func(id int64) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, d := range n.Energy {
		add(d.UnitID)
	}
	for _, d := range n.Water {
		add(d.UnitID)
	}
	for _, d := range n.MachineHealth {
		add(d.UnitID)
	}
	return out
}

func validateUtility(detections []UtilityDetectionInput) error {
	if len(detections) == 0 {
		return ErrDetectionsEmpty
	}
	for _, d := range detections {
		if d.UnitID <= 0 || d.DateDetection.IsZero() {
			return ErrInvalidDetection
		}
	}
	return nil
}

// newNotification dedupes recipients; a repeated recipient gets one row. At
// least one recipient is required.
func newNotification(recipients []string, subtypeID int64, newID func() snowflake.ID, now time.Time) (Notification, error) {
	n := Notification{
		ID:        newID(),
		SubtypeID: subtypeID,
		DateSend:  now.UTC(),
	}
	seen := map[string]struct{}{}
	for _, raw := range recipients {
		id := strings.TrimSpace(raw)
		if id == "" {
			return Notification{}, ErrInvalidDestinatary
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		n.Destinataries = append(n.Destinataries, Destinatary{
			ID:             newID(),
			NotificationID: n.ID,
			DestinataryID:  id,
		})
	}
	if len(n.Destinataries) == 0 {
		return Notification{}, ErrInvalidDestinatary
	}
	return n, nil
}
