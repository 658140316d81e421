package tx

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	wrapped := fmt.Errorf("%w: %w", ErrRetryable, errors.New("40001"))
	assert.True(t, IsRetryable(wrapped))
	assert.False(t, IsRetryable(errors.New("boom")))
	assert.False(t, IsRetryable(nil))
}
