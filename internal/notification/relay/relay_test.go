package relay

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/mainservice/internal/clock"
	"github.com/smallbiznis/mainservice/internal/notification/domain"
	"github.com/smallbiznis/mainservice/internal/notification/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type flakyPublisher struct {
	failures int
	sent     []any
}

func (p *flakyPublisher) Publish(_ context.Context, _ string, payload any) error {
	if p.failures > 0 {
		p.failures--
		return errors.New("nats: timeout")
	}
	p.sent = append(p.sent, payload)
	return nil
}

var created = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T, publisher *flakyPublisher) (*Relay, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Event{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	clk := clock.NewFakeClock(created)
	r := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		Repo:      repository.Provide(),
		Clock:     clk,
		Publisher: publisher,
		Config:    Config{Batch: 2, Grace: time.Minute},
	})
	return r, db, clk
}

func insertEvents(t *testing.T, db *gorm.DB, n int) {
	t.Helper()
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		event := domain.Event{
			ID:             node.Generate(),
			NotificationID: node.Generate(),
			EventType:      domain.EventCreated,
			Payload:        datatypes.JSONMap{"seq": i},
			CreatedAt:      created.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, db.Create(&event).Error)
	}
}

func unpublished(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&domain.Event{}).Where("published_at IS NULL").Count(&n).Error)
	return n
}

func TestRunOnceWaitsForGracePeriod(t *testing.T) {
	publisher := &flakyPublisher{}
	r, db, _ := setup(t, publisher)
	insertEvents(t, db, 1)

	n, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, publisher.sent)
}

func TestRunOncePublishesInBatches(t *testing.T) {
	publisher := &flakyPublisher{}
	r, db, clk := setup(t, publisher)
	insertEvents(t, db, 3)
	clk.Advance(time.Hour)

	n, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(1), unpublished(t, db))

	n, err = r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Zero(t, unpublished(t, db))
	require.Len(t, publisher.sent, 3)
}

func TestRunOnceStopsAtFirstFailure(t *testing.T) {
	publisher := &flakyPublisher{failures: 1}
	r, db, clk := setup(t, publisher)
	insertEvents(t, db, 2)
	clk.Advance(time.Hour)

	n, err := r.RunOnce(context.Background())
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Equal(t, int64(2), unpublished(t, db))

	n, err = r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
