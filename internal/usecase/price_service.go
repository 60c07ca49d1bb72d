package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/groceryscout/backend/internal/domain"
	"github.com/groceryscout/backend/internal/infrastructure/ratelimit"
	"github.com/groceryscout/backend/internal/validation"
)

// PriceServiceConfig holds configuration for the price service
type PriceServiceConfig struct {
	MaxEntriesPerStore int
	MaxDocumentBytes   int
	SearchesPerMinute  int
	EnableDebugLogging bool
	Clock              func() time.Time
}

// PriceService runs searches end to end: validate, call the provider, parse,
// reconcile with lists, accumulate history and commit the account snapshot.
type PriceService struct {
	store        domain.DocumentStore
	provider     domain.SearchProvider
	matcher      *MatchingService
	accumulator  *HistoryAccumulator
	preprocessor *QueryPreprocessor
	limiter      *ratelimit.Keyed
}

// NewPriceService creates a new price service with dependencies
func NewPriceService(
	store domain.DocumentStore,
	provider domain.SearchProvider,
	config PriceServiceConfig,
) *PriceService {
	searches := config.SearchesPerMinute
	if searches == 0 {
		searches = validation.MaxSearchRequestsPerMinute
	}

	return &PriceService{
		store:    store,
		provider: provider,
		matcher:  NewMatchingService(MatchConfig{EnableDebugLogging: config.EnableDebugLogging}),
		accumulator: NewHistoryAccumulator(HistoryConfig{
			MaxEntriesPerStore: config.MaxEntriesPerStore,
			MaxDocumentBytes:   config.MaxDocumentBytes,
			Clock:              config.Clock,
			EnableDebugLogging: config.EnableDebugLogging,
		}),
		preprocessor: NewQueryPreprocessor(config.EnableDebugLogging),
		limiter:      ratelimit.PerMinute(searches),
	}
}

// Search looks up prices for a free-text query.
// Flow: validate -> provider -> parse -> record history -> commit -> return.
// A rejected query never reaches the provider, and a provider failure writes nothing.
func (s *PriceService) Search(
	ctx context.Context,
	accountID string,
	request *domain.SearchRequest,
) (*domain.SearchResult, error) {
	if request == nil || strings.TrimSpace(accountID) == "" {
		return nil, domain.ErrInvalidRequest
	}

	query := validation.Validate(request.Query, validation.SearchQuery)
	if err := query.Err(validation.SearchQuery); err != nil {
		return nil, err
	}

	loc, err := buildLocation(request.Location, request.Coordinates)
	if err != nil {
		return nil, err
	}

	if !s.limiter.Allow(accountID) {
		return nil, domain.ErrRateLimited
	}

	return s.search(ctx, accountID, query.Sanitized, loc)
}

// SearchBarcode identifies the product behind a barcode and searches for it
func (s *PriceService) SearchBarcode(
	ctx context.Context,
	accountID string,
	request *domain.BarcodeRequest,
) (*domain.SearchResult, error) {
	if request == nil || strings.TrimSpace(accountID) == "" {
		return nil, domain.ErrInvalidRequest
	}

	barcode := validation.Validate(request.Barcode, validation.Barcode)
	if err := barcode.Err(validation.Barcode); err != nil {
		return nil, err
	}

	loc, err := buildLocation(request.Location, request.Coordinates)
	if err != nil {
		return nil, err
	}

	if !s.limiter.Allow(accountID) {
		return nil, domain.ErrRateLimited
	}

	name, err := s.provider.IdentifyProduct(ctx, barcode.Sanitized)
	if err != nil {
		return nil, wrapProviderError(err)
	}

	// The identified name is provider output that will be echoed into the next
	// prompt, so it goes through the same gate as a typed query
	query := validation.Validate(validation.SanitizeAIResponse(name), validation.SearchQuery)
	if !query.Valid {
		log.Printf("[SEARCH] Barcode %s identified as unusable name: %s", barcode.Sanitized, query.Error)
		return nil, domain.ErrProductNotIdentified
	}

	return s.search(ctx, accountID, query.Sanitized, loc)
}

// search runs one provider call; callers validate and rate limit first
func (s *PriceService) search(ctx context.Context, accountID, query string, loc *domain.Location) (*domain.SearchResult, error) {
	raw, err := s.provider.Search(ctx, query, loc)
	if err != nil {
		return nil, wrapProviderError(err)
	}

	quotes := ParsePriceData(raw)
	result := &domain.SearchResult{
		Text:        validation.SanitizeAIResponse(StripPriceData(raw)),
		ProductName: query,
		Quotes:      quotes,
	}

	if len(quotes) == 0 {
		log.Printf("[SEARCH] No price data for %q", query)
		return result, nil
	}

	snapshot, err := s.loadSnapshot(ctx, accountID)
	if err != nil {
		return nil, err
	}

	history, warnings := s.accumulator.RecordObservations(snapshot.History, query, quotes)
	history, ceiling := s.accumulator.FitToCeiling(history)
	snapshot.History = history

	if err := s.store.Put(ctx, accountID, snapshot); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	result.Warnings = append(warnings, ceiling...)
	return result, nil
}

// ScoutList prices every item of a list in one provider call, reconciles the
// quotes with the items and records every quote in the history.
func (s *PriceService) ScoutList(
	ctx context.Context,
	accountID string,
	listID string,
	request *domain.ScoutRequest,
) (*domain.ScoutResult, error) {
	if strings.TrimSpace(accountID) == "" || listID == "" {
		return nil, domain.ErrInvalidRequest
	}
	if request == nil {
		request = &domain.ScoutRequest{}
	}

	loc, err := buildLocation(request.Location, request.Coordinates)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.loadSnapshot(ctx, accountID)
	if err != nil {
		return nil, err
	}

	idx := domain.FindList(snapshot.Lists, listID)
	if idx < 0 {
		return nil, domain.ErrListNotFound
	}
	list := snapshot.Lists[idx]

	names := make([]string, len(list.Items))
	for i, item := range list.Items {
		names[i] = item.Name
	}
	if err := validation.ValidateBatch(names, validation.ItemName).Err(validation.ItemName); err != nil {
		return nil, err
	}

	items := s.preprocessor.PrepareBatchItems(names)
	if len(items) == 0 {
		return &domain.ScoutResult{List: list, Matches: []domain.ListMatch{}, Quotes: []domain.PriceQuote{}}, nil
	}

	if !s.limiter.Allow(accountID) {
		return nil, domain.ErrRateLimited
	}

	raw, err := s.provider.SearchBatch(ctx, items, loc)
	if err != nil {
		return nil, wrapProviderError(err)
	}

	quotes := ParsePriceData(raw)
	updatedItems, matches := s.matcher.MatchQuotesToListItems(list.Items, quotes)

	lists := make([]domain.ShoppingList, len(snapshot.Lists))
	copy(lists, snapshot.Lists)
	lists[idx].Items = updatedItems
	snapshot.Lists = lists

	var warnings []string
	history := snapshot.History
	for _, group := range groupQuotesByKey(quotes, matches) {
		var w []string
		history, w = s.accumulator.RecordObservations(history, group.key, group.quotes)
		warnings = append(warnings, w...)
	}
	history, ceiling := s.accumulator.FitToCeiling(history)
	snapshot.History = history
	warnings = append(warnings, ceiling...)

	if err := s.store.Put(ctx, accountID, snapshot); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	log.Printf("[SCOUT] List %s: %d items, %d quotes, %d matched", listID, len(list.Items), len(quotes), len(matches))

	if matches == nil {
		matches = []domain.ListMatch{}
	}
	return &domain.ScoutResult{
		List:     lists[idx],
		Matches:  matches,
		Quotes:   quotes,
		Warnings: warnings,
	}, nil
}

// History returns the statistics and time-ordered series for one product key
func (s *PriceService) History(ctx context.Context, accountID, product string) (*domain.HistoryView, error) {
	key := domain.NormalizeProductKey(product)
	if strings.TrimSpace(accountID) == "" || key == "" {
		return nil, domain.ErrInvalidRequest
	}

	snapshot, err := s.loadSnapshot(ctx, accountID)
	if err != nil {
		return nil, err
	}

	history := snapshot.History[key]
	return &domain.HistoryView{
		Product: key,
		Stats:   ComputeStats(history),
		Series:  history.SortedSeries(),
	}, nil
}

func (s *PriceService) loadSnapshot(ctx context.Context, accountID string) (*domain.Snapshot, error) {
	snapshot, err := s.store.Get(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	if snapshot == nil {
		return domain.NewSnapshot(), nil
	}
	return snapshot.Normalize(), nil
}

type quoteGroup struct {
	key    string
	quotes []domain.PriceQuote
}

// groupQuotesByKey picks the history key for each batch quote: its
// originating query, else the name of the list item it matched, else its
// resolved product name. Groups and the quotes in them keep input order.
func groupQuotesByKey(quotes []domain.PriceQuote, matches []domain.ListMatch) []quoteGroup {
	matchedItem := make(map[int]string, len(matches))
	for _, m := range matches {
		if _, ok := matchedItem[m.QuoteIndex]; !ok {
			matchedItem[m.QuoteIndex] = m.ItemName
		}
	}

	var groups []quoteGroup
	position := make(map[string]int)

	for i, quote := range quotes {
		key := quote.Query()
		if key == "" {
			key = matchedItem[i]
		}
		if key == "" {
			key = quote.ResolvedName()
		}
		key = domain.NormalizeProductKey(key)
		if key == "" {
			continue
		}

		pos, ok := position[key]
		if !ok {
			pos = len(groups)
			position[key] = pos
			groups = append(groups, quoteGroup{key: key})
		}
		groups[pos].quotes = append(groups[pos].quotes, quote)
	}

	return groups
}

func buildLocation(description string, coords *domain.GeoLocation) (*domain.Location, error) {
	if strings.TrimSpace(description) == "" && coords == nil {
		return nil, nil
	}

	if coords != nil && (coords.Latitude < -90 || coords.Latitude > 90 || coords.Longitude < -180 || coords.Longitude > 180) {
		return nil, domain.NewInputRejected("coordinates", "coordinates must be a valid latitude and longitude")
	}

	loc := &domain.Location{Coordinates: coords}
	if strings.TrimSpace(description) != "" {
		r := validation.Validate(description, validation.Location)
		if err := r.Err(validation.Location); err != nil {
			return nil, err
		}
		loc.Description = r.Sanitized
	}
	return loc, nil
}

// wrapProviderError marks provider failures as upstream unavailable.
// Cancellations and deadlines pass through so callers can tell them apart.
func wrapProviderError(err error) error {
	switch {
	case errors.Is(err, domain.ErrProductNotIdentified),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
}
