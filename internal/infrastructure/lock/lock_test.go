package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocalRunsFn(t *testing.T) {
	called := false

	ok, err := Local{}.WithLock(context.Background(), "stock-audit:t1", time.Minute, func(context.Context) error {
		called = true
		return nil
	})

	assert.True(t, ok)
	assert.NoError(t, err)
	assert.True(t, called)
}

func TestLocalReturnsFnError(t *testing.T) {
	boom := errors.New("boom")

	ok, err := Local{}.WithLock(context.Background(), "k", time.Minute, func(context.Context) error { return boom })

	assert.True(t, ok)
	assert.ErrorIs(t, err, boom)
}
