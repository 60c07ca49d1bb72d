package validation

import (
	"regexp"
	"strings"
)

var (
	scriptElementRegex = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	eventHandlerRegex  = regexp.MustCompile(`(?i)on\w+\s*=\s*["'][^"']*["']`)
	jsProtocolRegex    = regexp.MustCompile(`(?i)javascript:`)
)

// SanitizeAIResponse strips script elements, inline event handlers and
// javascript: URLs from provider output. It never rejects: provider text is
// always returned, minus anything that could execute as markup.
func SanitizeAIResponse(response string) string {
	sanitized := scriptElementRegex.ReplaceAllString(response, "")
	sanitized = eventHandlerRegex.ReplaceAllString(sanitized, "")
	sanitized = jsProtocolRegex.ReplaceAllString(sanitized, "")
	return strings.TrimSpace(sanitized)
}
