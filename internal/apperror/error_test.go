package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMatchingSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", Conflict("apiregistry.create", "API name already in use"))

	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, ErrConflict, KindOf(err))
	assert.Equal(t, "API name already in use", Message(err))
}

func TestUpstreamKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Upstream("notification.list", "error getting units list", cause)

	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "notification.list: error getting units list: connection refused", err.Error())
}

func TestMessageOnForeignError(t *testing.T) {
	assert.Equal(t, "", Message(errors.New("boom")))
	assert.Nil(t, KindOf(errors.New("boom")))
}
