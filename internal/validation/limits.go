package validation

import "fmt"

// System limits that keep a single account document bounded.
const (
	MaxShoppingLists           = 20
	MaxItemsPerList            = 100
	MaxHistoryEntriesPerStore  = 1000
	MaxHistoryDocumentBytes    = 1048576 // 1MB
	MaxSearchRequestsPerMinute = 10
)

// CheckShoppingListLimits rejects creating a list once MaxShoppingLists exist,
// or a new list that already carries more than MaxItemsPerList items.
func CheckShoppingListLimits(currentListCount, itemsInNewList int) Result {
	if currentListCount >= MaxShoppingLists {
		return invalid(fmt.Sprintf("Maximum %d shopping lists allowed", MaxShoppingLists))
	}
	if itemsInNewList > MaxItemsPerList {
		return invalid(fmt.Sprintf("Maximum %d items per list allowed", MaxItemsPerList))
	}
	return Result{Valid: true}
}

// CheckItemLimit rejects adding an item to a list that is already full
func CheckItemLimit(currentItemCount int) Result {
	if currentItemCount >= MaxItemsPerList {
		return invalid(fmt.Sprintf("Maximum %d items per list allowed", MaxItemsPerList))
	}
	return Result{Valid: true}
}

// CheckPriceHistoryLimits reports whether a store's history has reached its cap.
// A non-positive limit falls back to MaxHistoryEntriesPerStore.
func CheckPriceHistoryLimits(currentEntryCount, limit int) Result {
	if limit <= 0 {
		limit = MaxHistoryEntriesPerStore
	}
	if currentEntryCount >= limit {
		return invalid(fmt.Sprintf("Maximum %d price history entries per store", limit))
	}
	return Result{Valid: true}
}
