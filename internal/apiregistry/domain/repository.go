package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// FindActiveMatching returns active rows sharing the client, trigger or title.
	FindActiveMatching(ctx context.Context, db *gorm.DB, clientID int64, triggerID, title string) ([]Registration, error)
	// FindActiveEnabledForClient returns another active+enabled row of the
	// client in the given mode, or nil.
	FindActiveEnabledForClient(ctx context.Context, db *gorm.DB, clientID int64, isTest bool, excludeID snowflake.ID) (*Registration, error)
	// FindActiveTriggerHolder returns another active row using triggerID
	// under a different client, or nil.
	FindActiveTriggerHolder(ctx context.Context, db *gorm.DB, triggerID string, clientID int64, excludeID snowflake.ID) (*Registration, error)
	FindActiveByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Registration, error)
	Insert(ctx context.Context, db *gorm.DB, registration *Registration) error
	Update(ctx context.Context, db *gorm.DB, registration *Registration) error
	ReplaceUnitRelations(ctx context.Context, db *gorm.DB, registrationID snowflake.ID, relations []UnitRelation) error
	FindExistingIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]snowflake.ID, error)
	Retire(ctx context.Context, db *gorm.DB, ids []snowflake.ID, now time.Time) (int64, error)
	List(ctx context.Context, db *gorm.DB, query Query) ([]Registration, error)
	Count(ctx context.Context, db *gorm.DB, predicate Predicate) (int64, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]Registration, error)
}
