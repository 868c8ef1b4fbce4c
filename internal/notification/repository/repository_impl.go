package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/mainservice/internal/notification/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertEnergyConditions(ctx context.Context, db *gorm.DB, conditions *domain.EnergyConditions) error {
	return db.WithContext(ctx).Create(conditions).Error
}

func (r *repo) InsertWaterConditions(ctx context.Context, db *gorm.DB, conditions *domain.WaterConditions) error {
	return db.WithContext(ctx).Create(conditions).Error
}

func (r *repo) InsertMachineHealthConditions(ctx context.Context, db *gorm.DB, conditions *domain.MachineHealthConditions) error {
	return db.WithContext(ctx).Omit(clause.Associations).Create(conditions).Error
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, notification *domain.Notification) error {
	tx := db.WithContext(ctx)
	if err := tx.Omit(clause.Associations).Create(notification).Error; err != nil {
		return err
	}
	if len(notification.Destinataries) > 0 {
		if err := tx.Create(&notification.Destinataries).Error; err != nil {
			return err
		}
	}
	if len(notification.Energy) > 0 {
		if err := tx.Omit(clause.Associations).Create(&notification.Energy).Error; err != nil {
			return err
		}
	}
	if len(notification.Water) > 0 {
		if err := tx.Omit(clause.Associations).Create(&notification.Water).Error; err != nil {
			return err
		}
	}
	if len(notification.MachineHealth) > 0 {
		if err := tx.Omit(clause.Associations).Create(&notification.MachineHealth).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, event *domain.Event) error {
	return db.WithContext(ctx).Create(event).Error
}

func (r *repo) MarkEventPublished(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Event{}).
		Where("id = ? AND published_at IS NULL", id).
		Update("published_at", at).Error
}

func (r *repo) ListUnpublishedEvents(ctx context.Context, db *gorm.DB, before time.Time, limit int) ([]domain.Event, error) {
	var events []domain.Event
	err := db.WithContext(ctx).
		Where("published_at IS NULL AND created_at < ?", before).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *repo) HealthIndexExists(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.HealthIndex{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *repo) FindDestinatary(ctx context.Context, db *gorm.DB, destinataryID string, notificationID snowflake.ID) (*domain.Destinatary, error) {
	var rows []domain.Destinatary
	err := db.WithContext(ctx).
		Where("destinatary_id = ? AND notification_id = ?", destinataryID, notificationID).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *repo) MarkViewed(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&domain.Destinatary{}).
		Where("id = ?", id).
		Update("is_viewed", true).Error
}

func (r *repo) MarkAllViewed(ctx context.Context, db *gorm.DB, destinataryID string) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Destinatary{}).
		Where("destinatary_id = ? AND is_viewed = ?", destinataryID, false).
		Update("is_viewed", true)
	return res.RowsAffected, res.Error
}

func (r *repo) CountUnviewed(ctx context.Context, db *gorm.DB, destinataryID string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Destinatary{}).
		Where("destinatary_id = ? AND is_viewed = ?", destinataryID, false).
		Count(&count).Error
	return count, err
}

func (r *repo) List(ctx context.Context, db *gorm.DB, query domain.ListQuery) ([]domain.Notification, error) {
	var rows []domain.Notification
	byID := func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }

	stmt := applyListQuery(db.WithContext(ctx).Model(&domain.Notification{}), query).
		Preload("Subtype.Type").
		Preload("Destinataries", func(db *gorm.DB) *gorm.DB {
			db = db.Where("destinatary_id = ?", query.DestinataryID)
			if query.IsViewed != nil {
				db = db.Where("is_viewed = ?", *query.IsViewed)
			}
			return db
		}).
		Preload("Energy", byID).
		Preload("Energy.Conditions").
		Preload("Water", byID).
		Preload("Water.Conditions").
		Preload("MachineHealth", byID).
		Preload("MachineHealth.Conditions.HealthIndex").
		Order("notifications.date_send DESC").
		Order("notifications.id DESC").
		Offset(query.Offset)
	if query.Limit > 0 {
		stmt = stmt.Limit(query.Limit)
	}
	if err := stmt.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB, query domain.ListQuery) (int64, error) {
	var total int64
	err := applyListQuery(db.WithContext(ctx).Model(&domain.Notification{}), query).
		Count(&total).Error
	return total, err
}

func applyListQuery(stmt *gorm.DB, query domain.ListQuery) *gorm.DB {
	if query.IsViewed != nil {
		stmt = stmt.Where(`EXISTS (SELECT 1 FROM notification_destinataries d
			WHERE d.notification_id = notifications.id AND d.destinatary_id = ? AND d.is_viewed = ?)`,
			query.DestinataryID, *query.IsViewed)
	} else {
		stmt = stmt.Where(`EXISTS (SELECT 1 FROM notification_destinataries d
			WHERE d.notification_id = notifications.id AND d.destinatary_id = ?)`,
			query.DestinataryID)
	}
	if len(query.SubtypeIDs) > 0 {
		stmt = stmt.Where("notifications.notification_subtype_id IN ?", query.SubtypeIDs)
	}
	if len(query.TypeIDs) > 0 {
		stmt = stmt.Where(`notifications.notification_subtype_id IN
			(SELECT s.id FROM notification_subtypes s WHERE s.notification_type_id IN ?)`, query.TypeIDs)
	}
	if query.Start != nil && query.End != nil {
		stmt = stmt.Where("notifications.date_send >= ? AND notifications.date_send <= ?", *query.Start, *query.End)
	}
	return stmt.Where(`(EXISTS (SELECT 1 FROM notification_energy e WHERE e.notification_id = notifications.id AND e.unit_id IN ?)
		OR EXISTS (SELECT 1 FROM notification_water w WHERE w.notification_id = notifications.id AND w.unit_id IN ?)
		OR EXISTS (SELECT 1 FROM notification_machine_health m WHERE m.notification_id = notifications.id AND m.unit_id IN ?))`,
		query.UnitIDs, query.UnitIDs, query.UnitIDs)
}
