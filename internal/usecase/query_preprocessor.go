package usecase

import (
	"log"
	"regexp"
	"strings"
)

var multiSpacePattern = regexp.MustCompile(`\s+`)

// QueryPreprocessor prepares list item names before they are sent to the
// search provider as one batch
type QueryPreprocessor struct {
	enableDebugLogging bool
}

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(enableDebugLogging bool) *QueryPreprocessor {
	return &QueryPreprocessor{
		enableDebugLogging: enableDebugLogging,
	}
}

// PrepareBatchItems collapses whitespace, drops empty names and removes
// case-insensitive duplicates, keeping the first spelling seen.
func (p *QueryPreprocessor) PrepareBatchItems(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))

	for _, name := range names {
		cleaned := strings.TrimSpace(multiSpacePattern.ReplaceAllString(name, " "))
		if cleaned == "" {
			continue
		}
		key := strings.ToLower(cleaned)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, cleaned)
	}

	if p.enableDebugLogging {
		log.Printf("[PREPROCESS] Batch: %d names -> %d queries", len(names), len(out))
	}

	return out
}
