package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type UtilityDetectionInput struct {
	UnitID        int64
	DateDetection time.Time
	Consumption   float64
}

type MachineHealthDetectionInput struct {
	UnitID        int64
	DateDetection time.Time
	MachineName   string
	MachineID     int64
	AssetName     string
	AssetID       int64
	DeviceCode    string
	Report        string
}

type CreateEnergyRequest struct {
	Detections      []UtilityDetectionInput
	DestinataryIDs  []string
	Setpoint        float64
	IsGreater       bool
	IsInstantaneous bool
}

type CreateWaterRequest struct {
	Detections      []UtilityDetectionInput
	DestinataryIDs  []string
	IsInstantaneous bool
}

type CreateMachineHealthRequest struct {
	Detections      []MachineHealthDetectionInput
	DestinataryIDs  []string
	IsInstantaneous bool
	HealthIndex     int64
}

// ListRequest carries raw list parameters. Authorization is forwarded to the
// unit directory.
type ListRequest struct {
	DestinataryID string
	Authorization string
	IsViewed      string
	ClientIDs     []string
	UnitIDs       []string
	StateIDs      []string
	CityIDs       []string
	TypeIDs       []string
	SubtypeIDs    []string
	DateStart     string
	DateEnd       string
	Skip          string
}

type ListResponse struct {
	Notifications []ListItem `json:"notifications"`
	TotalItems    int64      `json:"totalItems"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type Service interface {
	CreateEnergy(ctx context.Context, req CreateEnergyRequest) (Notification, error)
	CreateWater(ctx context.Context, req CreateWaterRequest) (Notification, error)
	CreateMachineHealth(ctx context.Context, req CreateMachineHealthRequest) (Notification, error)
	View(ctx context.Context, destinataryID string, notificationID snowflake.ID) (MessageResponse, error)
	ViewAll(ctx context.Context, destinataryID string) (MessageResponse, error)
	CountUnviewed(ctx context.Context, destinataryID string) (int64, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
}

const (
	KindEnergy        = "energy"
	KindWater         = "water"
	KindMachineHealth = "machine_health"
)

var (
	ErrDetectionsEmpty    = errors.New("detections_empty")
	ErrInvalidDetection   = errors.New("invalid_detection")
	ErrInvalidDestinatary = errors.New("invalid_destinatary")
	ErrInvalidHealthIndex = errors.New("invalid_health_index")
	ErrInvalidDateRange   = errors.New("invalid_date_range")
	ErrMissingAuthToken   = errors.New("missing_authorization_token")
	ErrInvalidID          = errors.New("invalid_id")
	ErrNotFound           = errors.New("not_found")
)
