package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/mainservice/internal/audit/domain"
	"github.com/smallbiznis/mainservice/internal/audit/repository"
	"github.com/smallbiznis/mainservice/internal/clock"
	obscontext "github.com/smallbiznis/mainservice/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setup(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.AuditLog{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Clock: clock.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)),
	}), db
}

func TestAuditLogCapturesActorAndRequest(t *testing.T) {
	svc, db := setup(t)

	ctx := obscontext.WithUserID(context.Background(), "user@diel")
	ctx = obscontext.WithRequestID(ctx, "req-1")
	require.NoError(t, svc.AuditLog(ctx, "api_registry.update", "api_registry", "42", map[string]any{"title": "Weather", "": "dropped"}))

	logs, err := repository.Provide().ListByTarget(context.Background(), db, "api_registry", "42")
	require.NoError(t, err)
	require.Len(t, logs, 1)

	entry := logs[0]
	assert.Equal(t, "user", entry.ActorType)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, "user@diel", *entry.ActorID)
	assert.Equal(t, "req-1", entry.Metadata["request_id"])
	assert.Equal(t, "Weather", entry.Metadata["title"])
	assert.NotContains(t, entry.Metadata, "")
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), entry.CreatedAt.UTC())
}

func TestAuditLogDefaults(t *testing.T) {
	svc, db := setup(t)

	require.ErrorIs(t, svc.AuditLog(context.Background(), " ", "api_registry", "1", nil), domain.ErrInvalidAction)

	require.NoError(t, svc.AuditLog(context.Background(), "api_registry.delete", "", " ", nil))
	var entry domain.AuditLog
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, "system", entry.ActorType)
	assert.Nil(t, entry.ActorID)
	assert.Equal(t, "unknown", entry.TargetType)
	assert.Nil(t, entry.TargetID)
}
