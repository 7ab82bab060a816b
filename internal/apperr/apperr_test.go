package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := OutOfStock("Insufficient stock for %s teff. Available: %s kg", "White", "12")
	assert.Equal(t, KindOutOfStock, KindOf(err))
	assert.Equal(t, "Insufficient stock for White teff. Available: 12 kg", err.Error())

	wrapped := fmt.Errorf("create order: %w", err)
	assert.Equal(t, KindOutOfStock, KindOf(wrapped))
	assert.Equal(t, "Insufficient stock for White teff. Available: 12 kg", MessageOf(wrapped))

	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Empty(t, MessageOf(errors.New("boom")))
}

func TestSentinelMatching(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NotFound("Order not found"))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrForbidden))
	assert.True(t, errors.Is(Forbidden("This order is not assigned to you"), ErrForbidden))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &Error{Kind: KindNotFound, Message: "Product not found", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Product not found: connection reset", err.Error())
}
