package usecase

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/groceryscout/backend/internal/domain"
	"github.com/groceryscout/backend/internal/validation"
)

// TimeBucketLayout formats an hour-granularity bucket key
const TimeBucketLayout = "2006-01-02T15:00"

// ceilingRatio is the fraction of the document ceiling at which trimming starts
const ceilingRatio = 0.9

// TimeBucket returns the UTC hour bucket containing t
func TimeBucket(t time.Time) string {
	return t.UTC().Format(TimeBucketLayout)
}

// HistoryConfig holds configuration for the history accumulator
type HistoryConfig struct {
	MaxEntriesPerStore int
	MaxDocumentBytes   int
	Clock              func() time.Time
	EnableDebugLogging bool
}

// HistoryAccumulator folds quotes into the per-product, per-store price history.
type HistoryAccumulator struct {
	maxEntriesPerStore int
	maxDocumentBytes   int
	clock              func() time.Time
	enableDebugLogging bool
}

// NewHistoryAccumulator creates an accumulator, applying defaults for unset limits
func NewHistoryAccumulator(config HistoryConfig) *HistoryAccumulator {
	maxEntries := config.MaxEntriesPerStore
	if maxEntries <= 0 {
		maxEntries = validation.MaxHistoryEntriesPerStore
	}

	maxBytes := config.MaxDocumentBytes
	if maxBytes <= 0 {
		maxBytes = validation.MaxHistoryDocumentBytes
	}

	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}

	return &HistoryAccumulator{
		maxEntriesPerStore: maxEntries,
		maxDocumentBytes:   maxBytes,
		clock:              clock,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// RecordObservations writes every quote into the history under the normalized
// query key and, when it differs, the normalized resolved product name.
// A point already present for the same store and hour bucket is overwritten,
// so later quotes in the batch win. The input index is left untouched; the
// returned index shares only the products this call did not write.
// The returned warnings describe any per-store trimming that took place.
func (a *HistoryAccumulator) RecordObservations(
	history domain.HistoryIndex,
	productQueryKey string,
	quotes []domain.PriceQuote,
) (domain.HistoryIndex, []string) {
	next := make(domain.HistoryIndex, len(history)+1)
	for key, product := range history {
		next[key] = product
	}

	w := &historyWriter{
		index:    next,
		cloned:   make(map[string]bool),
		bucket:   TimeBucket(a.clock()),
		maxStore: a.maxEntriesPerStore,
	}

	queryKey := domain.NormalizeProductKey(productQueryKey)

	for _, quote := range quotes {
		if quote.Store == "" || !usablePrice(quote.Price) {
			log.Printf("[HISTORY] Skipping unusable quote: store=%q price=%v", quote.Store, quote.Price)
			continue
		}
		for _, key := range historyKeys(queryKey, quote) {
			w.writePoint(key, quote.Store, quote.Price)
		}
	}

	if a.enableDebugLogging {
		log.Printf("[HISTORY] Recorded %d quotes for %q in bucket %s", len(quotes), queryKey, w.bucket)
	}

	return next, w.warnings
}

// historyKeys returns the keys a quote is written under: the query key and
// the resolved product name when present and different.
func historyKeys(queryKey string, quote domain.PriceQuote) []string {
	keys := make([]string, 0, 2)
	if queryKey != "" {
		keys = append(keys, queryKey)
	}
	if resolved := domain.NormalizeProductKey(quote.ResolvedName()); resolved != "" && resolved != queryKey {
		keys = append(keys, resolved)
	}
	return keys
}

// historyWriter is the single write path for every key of every quote.
type historyWriter struct {
	index    domain.HistoryIndex
	cloned   map[string]bool
	bucket   string
	maxStore int
	warnings []string
}

func (w *historyWriter) writePoint(key, store string, price float64) {
	if !w.cloned[key] {
		w.index[key] = w.index[key].Clone()
		w.cloned[key] = true
	}
	product := w.index[key]
	points := product[store]

	found := false
	for i := range points {
		if points[i].Date == w.bucket {
			points[i].Price = price
			found = true
			break
		}
	}
	if !found {
		points = append(points, domain.PricePoint{Date: w.bucket, Price: price})
	}

	// checked on overwrite too: a sequence stored under a higher cap is
	// brought down on its next write
	if len(points) > w.maxStore {
		r := validation.CheckPriceHistoryLimits(len(points), w.maxStore)
		points = trimOldest(points, w.maxStore)
		msg := fmt.Sprintf("%s: history for %q at %s trimmed to %d entries", r.Error, key, store, w.maxStore)
		log.Printf("[HISTORY] WARNING: %s", msg)
		w.warnings = append(w.warnings, msg)
	}
	product[store] = points
}

// FitToCeiling trims the oldest points across the whole index until its JSON
// encoding fits under 90% of the document ceiling. History is best-effort,
// so this never fails: if even one point per store is too large, the
// smallest achievable index is returned with a warning.
func (a *HistoryAccumulator) FitToCeiling(history domain.HistoryIndex) (domain.HistoryIndex, []string) {
	limit := int(float64(a.maxDocumentBytes) * ceilingRatio)

	size, err := encodedSize(history)
	if err != nil || size <= limit {
		return history, nil
	}

	trimmed := history.Clone()
	perStore := longestSequence(trimmed)
	for size > limit && perStore > 1 {
		perStore = perStore * 3 / 4
		if perStore < 1 {
			perStore = 1
		}
		for _, product := range trimmed {
			for store, points := range product {
				product[store] = trimOldest(points, perStore)
			}
		}
		if size, err = encodedSize(trimmed); err != nil {
			break
		}
	}

	msg := fmt.Sprintf("price history approached the %d byte ceiling; kept the newest %d entries per store", a.maxDocumentBytes, perStore)
	if size > limit {
		msg = fmt.Sprintf("price history still exceeds %d bytes after trimming to %d entry per store", limit, perStore)
	}
	log.Printf("[HISTORY] WARNING: %s", msg)
	return trimmed, []string{msg}
}

// trimOldest keeps the newest max points, ordered by bucket
func trimOldest(points []domain.PricePoint, max int) []domain.PricePoint {
	if len(points) <= max {
		return points
	}
	sorted := append([]domain.PricePoint(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date < sorted[j].Date
	})
	return sorted[len(sorted)-max:]
}

func longestSequence(history domain.HistoryIndex) int {
	longest := 0
	for _, product := range history {
		for _, points := range product {
			if len(points) > longest {
				longest = len(points)
			}
		}
	}
	return longest
}

func encodedSize(history domain.HistoryIndex) (int, error) {
	data, err := json.Marshal(history)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

func usablePrice(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}
