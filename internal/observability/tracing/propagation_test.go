package tracing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsCredentials(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/mainservice/notifications/get-notifications"),
		attribute.String("http.request.header.authorization", "Bearer abc"),
		attribute.String("session_token", "abc"),
	)
	assert.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("http.route"), attrs[0].Key)
}

func TestSafeErrorRedactsBearer(t *testing.T) {
	err := SafeError(errors.New("session lookup failed for Bearer eyJhbGciOi"))
	assert.Equal(t, "session lookup failed for bearer [redacted]", err.Error())

	plain := errors.New("boom")
	assert.Same(t, plain, SafeError(plain))
	assert.Nil(t, SafeError(nil))
}
