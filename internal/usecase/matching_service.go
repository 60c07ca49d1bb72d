package usecase

import (
	"log"
	"strings"

	"github.com/groceryscout/backend/internal/domain"
)

// Match tier names, in priority order
const (
	TierExactQuery       = "exact-query"
	TierQueryContains    = "query-containment"
	TierResolvedContains = "resolved-name-containment"
)

// matchTier is one step of the reconciliation policy. Predicates receive the
// lower-cased, trimmed item name.
type matchTier struct {
	name  string
	match func(item string, quote domain.PriceQuote) bool
}

// matchTiers is evaluated top to bottom; the first tier with any matching
// quote wins, and within a tier the first quote in input order wins.
var matchTiers = []matchTier{
	{
		name: TierExactQuery,
		match: func(item string, quote domain.PriceQuote) bool {
			query := normalizeForMatch(quote.Query())
			return query != "" && query == item
		},
	},
	{
		// Covers truncation and pluralization drift between the list entry and
		// the query the provider echoed back
		name: TierQueryContains,
		match: func(item string, quote domain.PriceQuote) bool {
			query := normalizeForMatch(quote.Query())
			if query == "" {
				return false
			}
			return strings.Contains(item, query) || strings.Contains(query, item)
		},
	},
	{
		name: TierResolvedContains,
		match: func(item string, quote domain.PriceQuote) bool {
			resolved := normalizeForMatch(quote.ResolvedName())
			return resolved != "" && strings.Contains(resolved, item)
		},
	},
}

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	EnableDebugLogging bool
}

// MatchingService reconciles free-text shopping list items with parsed quotes
type MatchingService struct {
	enableDebugLogging bool
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig) *MatchingService {
	return &MatchingService{
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// TierNames returns the reconciliation tiers in the order they are tried
func (s *MatchingService) TierNames() []string {
	names := make([]string, len(matchTiers))
	for i, tier := range matchTiers {
		names[i] = tier.name
	}
	return names
}

// MatchQuotesToListItems assigns at most one quote to each item and returns a
// new slice of items plus the matches made. Matched items get BestPrice and
// BestStore from the quote and are renamed to its resolved product name when
// one is present. Unmatched items are copied through unchanged; the input
// slice is never modified.
func (s *MatchingService) MatchQuotesToListItems(
	items []domain.ShoppingListItem,
	quotes []domain.PriceQuote,
) ([]domain.ShoppingListItem, []domain.ListMatch) {
	updated := make([]domain.ShoppingListItem, len(items))
	copy(updated, items)

	var matches []domain.ListMatch

	for i, item := range items {
		quoteIdx, tier := findQuoteForItem(item.Name, quotes)
		if quoteIdx < 0 {
			if s.enableDebugLogging {
				log.Printf("[MATCH] No quote for item %q", item.Name)
			}
			continue
		}

		quote := quotes[quoteIdx]
		updated[i] = applyQuote(item, quote)
		matches = append(matches, domain.ListMatch{
			ItemID:     item.ID,
			ItemName:   item.Name,
			Tier:       tier,
			QuoteIndex: quoteIdx,
			Quote:      quote,
		})

		if s.enableDebugLogging {
			log.Printf("[MATCH] Item %q -> %s %.2f (%s)", item.Name, quote.Store, quote.Price, tier)
		}
	}

	return updated, matches
}

// findQuoteForItem returns the index of the chosen quote and its tier, or -1
func findQuoteForItem(name string, quotes []domain.PriceQuote) (int, string) {
	item := normalizeForMatch(name)
	if item == "" {
		return -1, ""
	}

	for _, tier := range matchTiers {
		for i, quote := range quotes {
			if tier.match(item, quote) {
				return i, tier.name
			}
		}
	}
	return -1, ""
}

func applyQuote(item domain.ShoppingListItem, quote domain.PriceQuote) domain.ShoppingListItem {
	price := quote.Price
	store := quote.Store
	item.BestPrice = &price
	item.BestStore = &store
	if resolved := quote.ResolvedName(); resolved != "" {
		item.Name = resolved
	}
	return item
}

func normalizeForMatch(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
