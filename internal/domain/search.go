package domain

// GeoLocation is a pair of coordinates supplied by the client
type GeoLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location narrows a provider search. Both fields are optional.
type Location struct {
	Description string       `json:"description,omitempty"`
	Coordinates *GeoLocation `json:"coordinates,omitempty"`
}

// SearchRequest represents a manual price search
type SearchRequest struct {
	Query       string       `json:"query" binding:"required"`
	Location    string       `json:"location,omitempty"`
	Coordinates *GeoLocation `json:"coordinates,omitempty"`
}

// BarcodeRequest represents a barcode-derived price search
type BarcodeRequest struct {
	Barcode     string       `json:"barcode" binding:"required"`
	Location    string       `json:"location,omitempty"`
	Coordinates *GeoLocation `json:"coordinates,omitempty"`
}

// ScoutRequest asks for prices for every item on a list
type ScoutRequest struct {
	Location    string       `json:"location,omitempty"`
	Coordinates *GeoLocation `json:"coordinates,omitempty"`
}

// AddItemRequest adds an item to a list. BestPrice and BestStore seed the
// cached quote when the item comes from a search result; they go together.
type AddItemRequest struct {
	Name      string   `json:"name" binding:"required"`
	BestPrice *float64 `json:"bestPrice,omitempty"`
	BestStore *string  `json:"bestStore,omitempty"`
}

// SearchResult is returned for a manual or barcode search
type SearchResult struct {
	Text        string       `json:"text"`
	ProductName string       `json:"productName"`
	Quotes      []PriceQuote `json:"quotes"`
	Warnings    []string     `json:"warnings,omitempty"`
}

// ScoutResult is returned after scouting a shopping list
type ScoutResult struct {
	List     ShoppingList `json:"list"`
	Matches  []ListMatch  `json:"matches"`
	Quotes   []PriceQuote `json:"quotes"`
	Warnings []string     `json:"warnings,omitempty"`
}

// Snapshot is the whole persisted state of one account.
type Snapshot struct {
	Lists   []ShoppingList `json:"lists"`
	History HistoryIndex   `json:"history"`
}

// NewSnapshot returns an empty snapshot with non-nil collections
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Lists:   []ShoppingList{},
		History: HistoryIndex{},
	}
}

// Normalize replaces nil collections with empty ones
func (s *Snapshot) Normalize() *Snapshot {
	if s.Lists == nil {
		s.Lists = []ShoppingList{}
	}
	if s.History == nil {
		s.History = HistoryIndex{}
	}
	return s
}
