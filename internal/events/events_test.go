package events

import (
	"context"
	"testing"

	"github.com/smallbiznis/mainservice/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func TestNewPublisherWithoutURLIsNoop(t *testing.T) {
	pub, err := NewPublisher(Params{
		Lifecycle: fxtest.NewLifecycle(t),
		Config:    config.Config{},
		Log:       zap.NewNop(),
	})
	require.NoError(t, err)
	assert.IsType(t, Noop{}, pub)
	assert.NoError(t, pub.Publish(context.Background(), SubjectNotificationCreated, map[string]any{"id": "1"}))
}

func TestClosedPublisherRejects(t *testing.T) {
	pub := &NATSPublisher{}
	assert.ErrorIs(t, pub.Publish(context.Background(), SubjectNotificationCreated, nil), ErrPublisherClosed)
	assert.NoError(t, pub.Close())
}
