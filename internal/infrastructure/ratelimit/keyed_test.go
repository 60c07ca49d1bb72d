package ratelimit

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestPerMinute(t *testing.T) {
	t.Run("allows burst then blocks", func(t *testing.T) {
		k := PerMinute(3)
		for i := 0; i < 3; i++ {
			assert.True(t, k.Allow("acct-1"), "event %d", i+1)
		}
		assert.False(t, k.Allow("acct-1"))
	})

	t.Run("keys are independent", func(t *testing.T) {
		k := PerMinute(1)
		assert.True(t, k.Allow("a"))
		assert.False(t, k.Allow("a"))
		assert.True(t, k.Allow("b"))
		assert.Equal(t, 2, k.Len())
	})

	t.Run("non-positive rate disables limiting", func(t *testing.T) {
		k := PerMinute(0)
		assert.Nil(t, k)
		for i := 0; i < 100; i++ {
			assert.True(t, k.Allow("a"))
		}
		assert.Equal(t, 0, k.Len())
	})
}

func TestKeyed_EvictsIdleKeys(t *testing.T) {
	current := time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)
	k := PerMinute(2)
	k.now = func() time.Time { return current }

	for i := 0; i < 50; i++ {
		k.Allow(fmt.Sprintf("rotating-%d", i))
	}
	assert.True(t, k.Allow("steady"))
	assert.True(t, k.Allow("steady"))
	assert.False(t, k.Allow("steady"))
	assert.Equal(t, 51, k.Len())

	// half a window later nothing is old enough to drop
	current = current.Add(30 * time.Second)
	k.Allow("steady")
	assert.Equal(t, 51, k.Len())

	// a full refill window after the burst, only the key still in use remains
	current = current.Add(45 * time.Second)
	assert.True(t, k.Allow("fresh"))
	assert.Equal(t, 2, k.Len())
}

func TestRefillDuration(t *testing.T) {
	assert.Equal(t, time.Minute, refillDuration(rate.Limit(0.5), 30))
	assert.Equal(t, time.Minute, refillDuration(rate.Inf, 5))
	assert.Equal(t, 2*time.Second, refillDuration(rate.Limit(1), 2))
}
