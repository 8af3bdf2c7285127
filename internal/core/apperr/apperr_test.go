package apperr_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"instafeed/internal/core/apperr"

	"github.com/stretchr/testify/assert"
)

func TestStoreWrapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		want    error
		notWant error
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: apperr.ErrTimeout, notWant: apperr.ErrStoreUnavailable},
		{name: "canceled", err: context.Canceled, want: apperr.ErrTimeout, notWant: apperr.ErrStoreUnavailable},
		{name: "driver failure", err: errors.New("connection refused"), want: apperr.ErrStoreUnavailable, notWant: apperr.ErrTimeout},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := apperr.Store("load feed", tt.err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.err)
			assert.NotErrorIs(t, err, tt.notWant)
		})
	}

	assert.NoError(t, apperr.Store("noop", nil))
}

func TestTypedErrors(t *testing.T) {
	t.Parallel()

	err := apperr.Invalid("parent_id", "replies cannot be nested")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "parent_id: replies cannot be nested", err.Error())

	var rl error = &apperr.RateLimitError{Scope: "post", Limit: 2, RetryAfter: 30 * time.Second}
	assert.ErrorIs(t, rl, apperr.ErrRateLimited)

	var target *apperr.RateLimitError
	assert.True(t, errors.As(rl, &target))
	assert.Equal(t, 30*time.Second, target.RetryAfter)
}
