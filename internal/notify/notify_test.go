package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueue_DrainOrder(t *testing.T) {
	q := NewQueue(10, nil)
	q.Success("Item added to cart")
	q.Error("Failed to update cart")

	toasts := q.Drain()
	assert.Len(t, toasts, 2)
	assert.Equal(t, LevelSuccess, toasts[0].Level)
	assert.Equal(t, "Failed to update cart", toasts[1].Message)
	assert.Equal(t, 0, q.Len())
	assert.Empty(t, q.Drain())
}

func TestQueue_DropsOldest(t *testing.T) {
	q := NewQueue(2, nil)
	q.Success("one")
	q.Success("two")
	q.Success("three")

	toasts := q.Drain()
	assert.Len(t, toasts, 2)
	assert.Equal(t, "two", toasts[0].Message)
	assert.Equal(t, "three", toasts[1].Message)
}
