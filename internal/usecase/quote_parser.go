package usecase

import (
	"log"
	"strings"

	"github.com/groceryscout/backend/internal/domain"
	"github.com/groceryscout/backend/internal/validation"
	"github.com/shopspring/decimal"
)

// PriceDataDelimiter separates the provider's prose from its structured block
const PriceDataDelimiter = "---PRICE_DATA---"

// ParsePriceData extracts quotes from the structured block that follows
// PriceDataDelimiter. Each record is "Store|Price|ResolvedProductName|OriginatingQuery",
// the last two fields optional. Lines that cannot be parsed or fail validation
// are dropped one at a time; the rest of the block is still returned.
// Duplicate lines are kept as-is.
func ParsePriceData(raw string) []domain.PriceQuote {
	idx := strings.Index(raw, PriceDataDelimiter)
	if idx < 0 {
		return []domain.PriceQuote{}
	}

	block := strings.TrimSpace(raw[idx+len(PriceDataDelimiter):])
	quotes := make([]domain.PriceQuote, 0)

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		quote, ok := parseQuoteLine(line)
		if !ok {
			continue
		}
		quotes = append(quotes, quote)
	}

	return quotes
}

// StripPriceData returns the display portion of provider text, before the delimiter
func StripPriceData(raw string) string {
	if idx := strings.Index(raw, PriceDataDelimiter); idx >= 0 {
		raw = raw[:idx]
	}
	return strings.TrimSpace(raw)
}

func parseQuoteLine(line string) (domain.PriceQuote, bool) {
	fields := strings.Split(line, "|")
	if len(fields) > 4 {
		fields = fields[:4]
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
		return domain.PriceQuote{}, false
	}

	price, ok := coercePrice(fields[1])
	if !ok {
		return domain.PriceQuote{}, false
	}

	store := validation.Validate(fields[0], validation.StoreName)
	if !store.Valid {
		log.Printf("[PARSE] Dropping line, store rejected: %s", store.Error)
		return domain.PriceQuote{}, false
	}
	// the unrounded value is checked so that 0.005 or 5.999 cannot round into range
	if r := validation.Validate(price.String(), validation.Price); !r.Valid {
		log.Printf("[PARSE] Dropping line for %q, price rejected: %s", store.Sanitized, r.Error)
		return domain.PriceQuote{}, false
	}

	quote := domain.PriceQuote{
		Store: validation.SanitizeAIResponse(store.Sanitized),
		Price: price.InexactFloat64(),
	}
	if quote.Store == "" {
		return domain.PriceQuote{}, false
	}
	if len(fields) > 2 {
		quote.ResolvedProductName = optionalField(fields[2])
	}
	if len(fields) > 3 {
		quote.OriginatingQuery = optionalField(fields[3])
	}

	return quote, true
}

// coercePrice keeps digits and the first decimal point, ignoring everything
// from a second decimal point on. The result is not rounded.
func coercePrice(s string) (decimal.Decimal, bool) {
	var b strings.Builder
	seenPoint := false
scan:
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.':
			if seenPoint {
				break scan
			}
			seenPoint = true
			b.WriteRune(r)
		}
	}

	cleaned := strings.TrimSuffix(b.String(), ".")
	if cleaned == "" {
		return decimal.Zero, false
	}
	if strings.HasPrefix(cleaned, ".") {
		cleaned = "0" + cleaned
	}

	price, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return price, true
}

func optionalField(s string) *string {
	s = validation.SanitizeAIResponse(s)
	if s == "" {
		return nil
	}
	return &s
}
