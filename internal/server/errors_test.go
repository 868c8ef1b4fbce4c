package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	apiregistrydomain "github.com/smallbiznis/mainservice/internal/apiregistry/domain"
	"github.com/smallbiznis/mainservice/internal/apperror"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorStatuses(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", apperror.Validation("op", "bad"), http.StatusBadRequest},
		{"invalid request", invalidRequestError(), http.StatusBadRequest},
		{"unauthorized", apperror.Unauthorized("op", "unauthorized"), http.StatusUnauthorized},
		{"forbidden", apperror.Forbidden("op", "forbidden"), http.StatusForbidden},
		{"not found", apperror.NotFound("op", "gone"), http.StatusNotFound},
		{"conflict", apperror.Conflict("op", "taken"), http.StatusConflict},
		{"storage", apperror.Upstream("op", "error creating API", errors.New("disk")), http.StatusInternalServerError},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests},
		{"unavailable", ErrServiceUnavailable, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := mapError(fmt.Errorf("wrapped: %w", tc.err))
			assert.Equal(t, tc.status, status)
		})
	}
}

func TestMapErrorHidesUnknownMessages(t *testing.T) {
	_, payload := mapError(errors.New("pq: password authentication failed"))
	assert.Equal(t, "internal server error", payload.Message)
}

func TestClassifyErrorForLog(t *testing.T) {
	err := &apperror.Error{Kind: apperror.ErrValidation, Message: "title is required", Err: apiregistrydomain.ErrInvalidTitle}
	typ, code := classifyErrorForLog(err)
	assert.Equal(t, "validation_error", typ)
	assert.Equal(t, "invalid_title", code)

	typ, code = classifyErrorForLog(ErrRateLimited)
	assert.Equal(t, "rate_limited", typ)
	assert.Equal(t, "too many requests", code)

	typ, code = classifyErrorForLog(nil)
	assert.Empty(t, typ)
	assert.Empty(t, code)
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, "1", retryAfterSeconds(0))
	assert.Equal(t, "1", retryAfterSeconds(200*time.Millisecond))
	assert.Equal(t, "3", retryAfterSeconds(2100*time.Millisecond))
}
