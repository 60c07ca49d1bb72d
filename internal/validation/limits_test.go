package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckShoppingListLimits(t *testing.T) {
	assert.True(t, CheckShoppingListLimits(0, 0).Valid)
	assert.True(t, CheckShoppingListLimits(MaxShoppingLists-1, MaxItemsPerList).Valid)

	got := CheckShoppingListLimits(MaxShoppingLists, 0)
	assert.False(t, got.Valid)
	assert.Equal(t, "Maximum 20 shopping lists allowed", got.Error)

	got = CheckShoppingListLimits(1, MaxItemsPerList+1)
	assert.False(t, got.Valid)
	assert.Equal(t, "Maximum 100 items per list allowed", got.Error)
}

func TestCheckItemLimit(t *testing.T) {
	assert.True(t, CheckItemLimit(MaxItemsPerList-1).Valid)
	assert.False(t, CheckItemLimit(MaxItemsPerList).Valid)
}

func TestCheckPriceHistoryLimits(t *testing.T) {
	assert.True(t, CheckPriceHistoryLimits(999, 0).Valid)
	assert.False(t, CheckPriceHistoryLimits(1000, 0).Valid)

	got := CheckPriceHistoryLimits(3, 3)
	assert.False(t, got.Valid)
	assert.Contains(t, got.Error, "Maximum 3 price history entries")
}
