package domain

import (
	"sort"
	"strings"
)

// PriceQuote is one store/price observation extracted from provider text.
// Store and Price are always set once a quote leaves the parser; the two
// optional fields are nil when the provider did not supply them.
type PriceQuote struct {
	Store               string  `json:"store"`
	Price               float64 `json:"price"`
	ResolvedProductName *string `json:"resolvedProductName,omitempty"`
	OriginatingQuery    *string `json:"originatingQuery,omitempty"`
}

// ResolvedName returns the resolved product name or "" when absent
func (q PriceQuote) ResolvedName() string {
	if q.ResolvedProductName == nil {
		return ""
	}
	return *q.ResolvedProductName
}

// Query returns the originating query or "" when absent
func (q PriceQuote) Query() string {
	if q.OriginatingQuery == nil {
		return ""
	}
	return *q.OriginatingQuery
}

// PricePoint is a single price observed within one hour bucket.
type PricePoint struct {
	Date  string  `json:"date"` // YYYY-MM-DDTHH:00 (UTC)
	Price float64 `json:"price"`
}

// ProductHistory maps a store name to its price points.
// Points are not guaranteed to be sorted in storage.
type ProductHistory map[string][]PricePoint

// HistoryIndex maps a normalized product key to that product's history.
type HistoryIndex map[string]ProductHistory

// StoreSeries is one store's points ordered by time bucket
type StoreSeries struct {
	Store  string       `json:"store"`
	Points []PricePoint `json:"points"`
}

// Clone returns a deep copy of the product history
func (h ProductHistory) Clone() ProductHistory {
	if h == nil {
		return ProductHistory{}
	}
	out := make(ProductHistory, len(h))
	for store, points := range h {
		out[store] = append([]PricePoint(nil), points...)
	}
	return out
}

// StoreNames returns the store names in lexical order
func (h ProductHistory) StoreNames() []string {
	names := make([]string, 0, len(h))
	for store := range h {
		names = append(names, store)
	}
	sort.Strings(names)
	return names
}

// SortedSeries returns each store's points ordered by time bucket, stores by name.
func (h ProductHistory) SortedSeries() []StoreSeries {
	series := make([]StoreSeries, 0, len(h))
	for _, store := range h.StoreNames() {
		points := append([]PricePoint(nil), h[store]...)
		sort.SliceStable(points, func(i, j int) bool {
			return points[i].Date < points[j].Date
		})
		series = append(series, StoreSeries{Store: store, Points: points})
	}
	return series
}

// PointCount returns the total number of points across all stores
func (h ProductHistory) PointCount() int {
	total := 0
	for _, points := range h {
		total += len(points)
	}
	return total
}

// Clone returns a deep copy of the index
func (idx HistoryIndex) Clone() HistoryIndex {
	out := make(HistoryIndex, len(idx))
	for key, history := range idx {
		out[key] = history.Clone()
	}
	return out
}

// NormalizeProductKey lower-cases and trims a search phrase or product name
// so that it can be used as a HistoryIndex key.
func NormalizeProductKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// BestDeal is the globally lowest price point for a product
type BestDeal struct {
	Store string  `json:"store"`
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// HistoryStats summarizes a product's history across every store and bucket.
type HistoryStats struct {
	Min        float64  `json:"min"`
	Max        float64  `json:"max"`
	Avg        float64  `json:"avg"`
	Median     float64  `json:"median"`
	BestDeal   BestDeal `json:"bestDeal"`
	PointCount int      `json:"pointCount"`
	StoreCount int      `json:"storeCount"`
}

// HistoryView is the read-side projection returned to clients.
// Stats is nil when there is not enough data.
type HistoryView struct {
	Product string        `json:"product"`
	Stats   *HistoryStats `json:"stats"`
	Series  []StoreSeries `json:"series"`
}
