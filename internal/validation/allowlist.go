// Package validation holds the allowlist rules that gate every value crossing
// an external boundary: queries going to the search provider, quotes coming
// back from it, and user-authored list content going into storage.
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/groceryscout/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// FieldKind names a semantic field with its own rule
type FieldKind string

const (
	SearchQuery FieldKind = "searchQuery"
	Barcode     FieldKind = "barcode"
	ItemName    FieldKind = "itemName"
	ListName    FieldKind = "listName"
	DisplayName FieldKind = "displayName"
	Price       FieldKind = "price"
	StoreName   FieldKind = "storeName"
	Location    FieldKind = "location"
)

// RiskLevel ranks how much damage an unchecked value could do
type RiskLevel string

const (
	RiskCritical RiskLevel = "CRITICAL" // reaches provider prompts
	RiskHigh     RiskLevel = "HIGH"     // stored and shown to users
	RiskMedium   RiskLevel = "MEDIUM"
	RiskLow      RiskLevel = "LOW"
)

// Rule is the allowlist definition for one field kind.
// Numeric rules set HasRange and are coerced before any other check.
type Rule struct {
	Pattern     *regexp.Regexp
	MinLength   int
	MaxLength   int
	HasRange    bool
	Min         decimal.Decimal
	Max         decimal.Decimal
	Description string
	RiskLevel   RiskLevel
}

// Result is the outcome of a validation call
type Result struct {
	Valid     bool   `json:"valid"`
	Error     string `json:"error,omitempty"`
	Sanitized string `json:"sanitized,omitempty"`
}

// Err converts a failed result into a *domain.ValidationError, or nil when valid
func (r Result) Err(kind FieldKind) error {
	if r.Valid {
		return nil
	}
	return domain.NewInputRejected(string(kind), r.Error)
}

var (
	basicTextPattern   = regexp.MustCompile(`^[a-zA-Z0-9\s\-&'().,]+$`)
	displayNamePattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-'.]+$`)
	barcodePattern     = regexp.MustCompile(`^\d{8,14}$`)
	pricePattern       = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
	locationPattern    = regexp.MustCompile(`^[a-zA-Z0-9\s\-,.']+$`)

	// nonNumericRegex strips currency symbols and approximation markers from prices
	nonNumericRegex = regexp.MustCompile(`[^0-9.]`)
)

var rules = map[FieldKind]Rule{
	SearchQuery: {
		Pattern:     basicTextPattern,
		MinLength:   1,
		MaxLength:   100,
		Description: "Search queries: alphanumeric, spaces, and basic punctuation only",
		RiskLevel:   RiskCritical,
	},
	Barcode: {
		Pattern:     barcodePattern,
		MinLength:   8,
		MaxLength:   14,
		Description: "UPC/EAN barcodes: 8-14 digits only",
		RiskLevel:   RiskCritical,
	},
	ItemName: {
		Pattern:     basicTextPattern,
		MinLength:   1,
		MaxLength:   100,
		Description: "Shopping list items: alphanumeric and basic punctuation",
		RiskLevel:   RiskHigh,
	},
	ListName: {
		Pattern:     basicTextPattern,
		MinLength:   1,
		MaxLength:   50,
		Description: "Shopping list titles",
		RiskLevel:   RiskHigh,
	},
	DisplayName: {
		Pattern:     displayNamePattern,
		MinLength:   1,
		MaxLength:   50,
		Description: "User display names: alphanumeric, spaces, hyphens, apostrophes, periods",
		RiskLevel:   RiskHigh,
	},
	Price: {
		Pattern:     pricePattern,
		HasRange:    true,
		Min:         decimal.RequireFromString("0.01"),
		Max:         decimal.RequireFromString("9999.99"),
		Description: "Valid prices: 0.01 to 9999.99",
		RiskLevel:   RiskHigh,
	},
	StoreName: {
		Pattern:     basicTextPattern,
		MinLength:   1,
		MaxLength:   100,
		Description: "Store names: alphanumeric and basic punctuation",
		RiskLevel:   RiskMedium,
	},
	Location: {
		Pattern:     locationPattern,
		MinLength:   2,
		MaxLength:   100,
		Description: "Location strings: city, state, zip",
		RiskLevel:   RiskMedium,
	},
}

// blockedPatterns mark prompt injection, markup injection and destructive
// query fragments. Only CRITICAL fields are checked against them.
var blockedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(previous|prior|all)\s+instructions?`),
	regexp.MustCompile(`(?i)disregard\s+(previous|prior|all)`),
	regexp.MustCompile(`(?i)forget\s+(previous|prior|all)`),
	regexp.MustCompile(`(?i)new\s+instructions?:`),
	regexp.MustCompile(`(?i)system\s*:`),
	regexp.MustCompile(`(?i)you\s+are\s+now`),
	regexp.MustCompile(`(?i)act\s+as`),
	regexp.MustCompile(`(?i)pretend\s+(you\s+are|to\s+be)`),
	regexp.MustCompile(`(?i)<script\b`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on(load|error|click)\s*=`),
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)DROP\s+TABLE`),
	regexp.MustCompile(`(?i)DELETE\s+FROM`),
	regexp.MustCompile(`(?i)INSERT\s+INTO`),
	regexp.MustCompile(`(?i)UPDATE\s+.*SET`),
}

// RuleFor returns the rule for a field kind
func RuleFor(kind FieldKind) (Rule, bool) {
	rule, ok := rules[kind]
	return rule, ok
}

// Validate checks input against the rule for kind and returns the trimmed
// (and, for numeric kinds, coerced) value on success.
func Validate(input string, kind FieldKind) Result {
	rule, ok := RuleFor(kind)
	if !ok {
		return invalid(fmt.Sprintf("unknown field kind %q", kind))
	}

	value := strings.TrimSpace(input)

	if rule.HasRange {
		value = nonNumericRegex.ReplaceAllString(value, "")
		if value == "" {
			return invalid(fmt.Sprintf("%s must contain a numeric value", kind))
		}
	}

	if value == "" && rule.MinLength > 0 {
		return invalid(fmt.Sprintf("%s cannot be empty", kind))
	}

	length := utf8.RuneCountInString(value)
	if rule.MinLength > 0 && length < rule.MinLength {
		return invalid(fmt.Sprintf("%s must be at least %d characters", kind, rule.MinLength))
	}
	if rule.MaxLength > 0 && length > rule.MaxLength {
		return invalid(fmt.Sprintf("%s must be at most %d characters", kind, rule.MaxLength))
	}

	if rule.Pattern != nil && !rule.Pattern.MatchString(value) {
		return invalid(fmt.Sprintf("%s contains invalid characters. %s", kind, rule.Description))
	}

	if rule.HasRange {
		n, err := decimal.NewFromString(value)
		if err != nil {
			return invalid(fmt.Sprintf("%s must be a number", kind))
		}
		if n.LessThan(rule.Min) {
			return invalid(fmt.Sprintf("%s must be at least %s", kind, rule.Min.String()))
		}
		if n.GreaterThan(rule.Max) {
			return invalid(fmt.Sprintf("%s must be at most %s", kind, rule.Max.String()))
		}
	}

	if rule.RiskLevel == RiskCritical && containsBlockedPattern(value) {
		return invalid(fmt.Sprintf("%s contains blocked pattern (potential security risk)", kind))
	}

	return Result{Valid: true, Sanitized: value}
}

// ValidatePrice validates a numeric price against the price rule
func ValidatePrice(price float64) Result {
	return Validate(decimal.NewFromFloat(price).String(), Price)
}

// ValidateBatch validates every item and stops at the first failure,
// reporting its 1-based position.
func ValidateBatch(items []string, kind FieldKind) Result {
	for i, item := range items {
		if r := Validate(item, kind); !r.Valid {
			return invalid(fmt.Sprintf("Item %d: %s", i+1, r.Error))
		}
	}
	return Result{Valid: true}
}

// NamedRule pairs a rule with its field kind
type NamedRule struct {
	Kind FieldKind
	Rule Rule
}

// HighRiskRules returns the CRITICAL and HIGH rules ordered by kind, for review tooling
func HighRiskRules() []NamedRule {
	var out []NamedRule
	for kind, rule := range rules {
		if rule.RiskLevel == RiskCritical || rule.RiskLevel == RiskHigh {
			out = append(out, NamedRule{Kind: kind, Rule: rule})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

func containsBlockedPattern(s string) bool {
	for _, pattern := range blockedPatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

func invalid(msg string) Result {
	return Result{Valid: false, Error: msg}
}
