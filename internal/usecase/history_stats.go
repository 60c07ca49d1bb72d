package usecase

import (
	"sort"

	"github.com/groceryscout/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// ComputeStats summarizes every point of a product's history across all stores
// and all time. It returns nil when there are no points, which callers should
// treat as insufficient data rather than an error.
//
// Points are flattened store by store in lexical store order, each store's
// points in stored order; BestDeal is the first lowest-priced point in that order.
func ComputeStats(history domain.ProductHistory) *domain.HistoryStats {
	stores := history.StoreNames()

	var (
		prices     []decimal.Decimal
		best       domain.BestDeal
		storeCount int
	)

	for _, store := range stores {
		points := history[store]
		if len(points) > 0 {
			storeCount++
		}
		for _, p := range points {
			if len(prices) == 0 || p.Price < best.Price {
				best = domain.BestDeal{Store: store, Date: p.Date, Price: p.Price}
			}
			prices = append(prices, decimal.NewFromFloat(p.Price))
		}
	}

	if len(prices) == 0 {
		return nil
	}

	sorted := append([]decimal.Decimal(nil), prices...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	return &domain.HistoryStats{
		Min:        sorted[0].InexactFloat64(),
		Max:        sorted[len(sorted)-1].InexactFloat64(),
		Avg:        decimal.Avg(prices[0], prices[1:]...).InexactFloat64(),
		Median:     median(sorted).InexactFloat64(),
		BestDeal:   best,
		PointCount: len(prices),
		StoreCount: storeCount,
	}
}

// median expects an ascending, non-empty slice
func median(sorted []decimal.Decimal) decimal.Decimal {
	mid := len(sorted) / 2
	if len(sorted)%2 != 0 {
		return sorted[mid]
	}
	return sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2))
}
