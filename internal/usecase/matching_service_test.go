package usecase

import (
	"testing"

	"github.com/groceryscout/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newQuote(store string, price float64, resolved, query string) domain.PriceQuote {
	q := domain.PriceQuote{Store: store, Price: price}
	if resolved != "" {
		q.ResolvedProductName = strPtr(resolved)
	}
	if query != "" {
		q.OriginatingQuery = strPtr(query)
	}
	return q
}

func TestMatchingService_TierNames(t *testing.T) {
	svc := NewMatchingService(MatchConfig{})
	assert.Equal(t, []string{TierExactQuery, TierQueryContains, TierResolvedContains}, svc.TierNames())
}

func TestMatchQuotesToListItems(t *testing.T) {
	svc := NewMatchingService(MatchConfig{EnableDebugLogging: true})

	t.Run("renames item to resolved product and caches best quote", func(t *testing.T) {
		items := []domain.ShoppingListItem{{ID: "1", Name: "eggs"}}
		quotes := []domain.PriceQuote{newQuote("Safeway", 5.99, "Lucerne Large Eggs 12ct", "eggs")}

		updated, matches := svc.MatchQuotesToListItems(items, quotes)

		assert.Equal(t, "Lucerne Large Eggs 12ct", updated[0].Name)
		require.NotNil(t, updated[0].BestPrice)
		assert.Equal(t, 5.99, *updated[0].BestPrice)
		require.NotNil(t, updated[0].BestStore)
		assert.Equal(t, "Safeway", *updated[0].BestStore)
		require.Len(t, matches, 1)
		assert.Equal(t, TierExactQuery, matches[0].Tier)
		assert.Equal(t, "eggs", matches[0].ItemName)
	})

	t.Run("prefers a higher tier over a lower price", func(t *testing.T) {
		items := []domain.ShoppingListItem{{ID: "1", Name: "milk"}}
		quotes := []domain.PriceQuote{
			newQuote("Aldi", 1.99, "Whole Milk Gallon", ""),
			newQuote("Safeway", 4.49, "", "Milk"),
		}

		updated, matches := svc.MatchQuotesToListItems(items, quotes)

		assert.Equal(t, "Safeway", *updated[0].BestStore)
		assert.Equal(t, TierExactQuery, matches[0].Tier)
		assert.Equal(t, 1, matches[0].QuoteIndex)
		// chosen quote has no resolved name
		assert.Equal(t, "milk", updated[0].Name)
	})

	t.Run("takes the first quote within a tier", func(t *testing.T) {
		items := []domain.ShoppingListItem{{ID: "1", Name: "bread"}}
		quotes := []domain.PriceQuote{
			newQuote("Kroger", 3.49, "", "bread"),
			newQuote("Aldi", 1.99, "", "bread"),
		}

		updated, _ := svc.MatchQuotesToListItems(items, quotes)
		assert.Equal(t, "Kroger", *updated[0].BestStore)
	})

	t.Run("matches by containment in either direction", func(t *testing.T) {
		items := []domain.ShoppingListItem{
			{ID: "1", Name: "organic bananas"},
			{ID: "2", Name: "apple"},
		}
		quotes := []domain.PriceQuote{
			newQuote("Aldi", 0.59, "", "bananas"),
			newQuote("Kroger", 1.29, "", "Apples Gala"),
		}

		_, matches := svc.MatchQuotesToListItems(items, quotes)
		require.Len(t, matches, 2)
		for _, m := range matches {
			assert.Equal(t, TierQueryContains, m.Tier, "item %q", m.ItemName)
		}
	})

	t.Run("falls back to resolved name containment", func(t *testing.T) {
		items := []domain.ShoppingListItem{{ID: "1", Name: "Butter"}}
		quotes := []domain.PriceQuote{newQuote("Target", 4.99, "Kerrygold Pure Irish Butter", "")}

		updated, matches := svc.MatchQuotesToListItems(items, quotes)
		require.Len(t, matches, 1)
		assert.Equal(t, TierResolvedContains, matches[0].Tier)
		assert.Equal(t, "Kerrygold Pure Irish Butter", updated[0].Name)
	})

	t.Run("leaves unmatched items and input slice untouched", func(t *testing.T) {
		items := []domain.ShoppingListItem{
			{ID: "1", Name: "eggs"},
			{ID: "2", Name: "coffee", Checked: true},
		}
		quotes := []domain.PriceQuote{newQuote("Safeway", 5.99, "Lucerne Large Eggs 12ct", "eggs")}

		updated, matches := svc.MatchQuotesToListItems(items, quotes)

		assert.Len(t, matches, 1)
		assert.Equal(t, "eggs", items[0].Name)
		assert.Nil(t, items[0].BestPrice)
		assert.Equal(t, items[1], updated[1])
	})

	t.Run("empty item names never match", func(t *testing.T) {
		items := []domain.ShoppingListItem{{ID: "1", Name: "  "}}
		quotes := []domain.PriceQuote{newQuote("Aldi", 1.00, "Anything", "")}

		_, matches := svc.MatchQuotesToListItems(items, quotes)
		assert.Empty(t, matches)
	})

	t.Run("handles no quotes", func(t *testing.T) {
		items := []domain.ShoppingListItem{{ID: "1", Name: "eggs"}}
		updated, matches := svc.MatchQuotesToListItems(items, nil)
		assert.Len(t, updated, 1)
		assert.Empty(t, matches)
	})
}
