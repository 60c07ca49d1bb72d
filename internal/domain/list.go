package domain

// ShoppingListItem is a free-text entry on a shopping list.
// BestPrice and BestStore cache the best known quote for display only;
// the HistoryIndex stays authoritative.
type ShoppingListItem struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Checked   bool     `json:"checked"`
	AddedAt   int64    `json:"addedAt"` // unix millis
	BestPrice *float64 `json:"bestPrice,omitempty"`
	BestStore *string  `json:"bestStore,omitempty"`
}

// ShoppingList is a named collection of items
type ShoppingList struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Items     []ShoppingListItem `json:"items"`
	CreatedAt int64              `json:"createdAt"` // unix millis
}

// ListMatch records which quote was assigned to a list item and by which tier
type ListMatch struct {
	ItemID     string     `json:"itemId"`
	ItemName   string     `json:"itemName"` // name before any rename
	Tier       string     `json:"tier"`
	QuoteIndex int        `json:"quoteIndex"`
	Quote      PriceQuote `json:"quote"`
}

// FindList returns the index of the list with the given ID, or -1
func FindList(lists []ShoppingList, listID string) int {
	for i, l := range lists {
		if l.ID == listID {
			return i
		}
	}
	return -1
}
