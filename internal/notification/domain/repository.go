package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ListQuery selects notifications of one recipient whose detections touch at
// least one of UnitIDs. Zero values of the optional fields add no constraint.
type ListQuery struct {
	DestinataryID string
	IsViewed      *bool
	SubtypeIDs    []int64
	TypeIDs       []int64
	Start         *time.Time
	End           *time.Time
	UnitIDs       []int64
	Offset        int
	Limit         int
}

type Repository interface {
	InsertEnergyConditions(ctx context.Context, db *gorm.DB, conditions *EnergyConditions) error
	InsertWaterConditions(ctx context.Context, db *gorm.DB, conditions *WaterConditions) error
	InsertMachineHealthConditions(ctx context.Context, db *gorm.DB, conditions *MachineHealthConditions) error
	// Insert writes the notification with its destinataries and detections.
	Insert(ctx context.Context, db *gorm.DB, notification *Notification) error
	InsertEvent(ctx context.Context, db *gorm.DB, event *Event) error
	MarkEventPublished(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error
	// ListUnpublishedEvents returns outbox rows created before the cutoff, oldest first.
	ListUnpublishedEvents(ctx context.Context, db *gorm.DB, before time.Time, limit int) ([]Event, error)
	HealthIndexExists(ctx context.Context, db *gorm.DB, id int64) (bool, error)

	FindDestinatary(ctx context.Context, db *gorm.DB, destinataryID string, notificationID snowflake.ID) (*Destinatary, error)
	MarkViewed(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	MarkAllViewed(ctx context.Context, db *gorm.DB, destinataryID string) (int64, error)
	CountUnviewed(ctx context.Context, db *gorm.DB, destinataryID string) (int64, error)

	List(ctx context.Context, db *gorm.DB, query ListQuery) ([]Notification, error)
	Count(ctx context.Context, db *gorm.DB, query ListQuery) (int64, error)
}
