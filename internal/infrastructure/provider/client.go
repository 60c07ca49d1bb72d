package provider

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/groceryscout/backend/internal/domain"
	"golang.org/x/time/rate"
)

const (
	maxAttempts      = 3
	defaultBaseDelay = 500 * time.Millisecond
	maxProductName   = 80
)

// Config holds the settings for the search provider client
type Config struct {
	BaseURL           string
	APIKey            string
	Model             string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	ProductLookupURL  string // empty disables the barcode database lookup
}

// Client talks to the natural-language search provider over HTTP
type Client struct {
	http        *resty.Client
	apiKey      string
	baseURL     string
	model       string
	lookupURL   string
	rateLimiter *rate.Limiter
	baseDelay   time.Duration
	debug       bool
}

type generateLocation struct {
	Description string   `json:"description,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

type generateRequest struct {
	Model    string            `json:"model,omitempty"`
	Prompt   string            `json:"prompt"`
	Tools    []string          `json:"tools,omitempty"`
	Location *generateLocation `json:"location,omitempty"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// NewClient creates a new search provider client
func NewClient(config Config) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 5
	}

	httpClient := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "GroceryScout/1.0").
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:        httpClient,
		apiKey:      config.APIKey,
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		model:       config.Model,
		lookupURL:   strings.TrimRight(config.ProductLookupURL, "/"),
		rateLimiter: rate.NewLimiter(rate.Limit(rps), burst),
		baseDelay:   defaultBaseDelay,
	}
}

// SetDebug enables or disables request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// Search asks the provider for prices of a single product near the location
func (c *Client) Search(ctx context.Context, query string, loc *domain.Location) (string, error) {
	log.Printf("[PROVIDER] Search called with query: %q", query)
	return c.generate(ctx, searchPrompt(query, loc), loc)
}

// SearchBatch asks the provider for the best price of every item in one call
func (c *Client) SearchBatch(ctx context.Context, items []string, loc *domain.Location) (string, error) {
	if len(items) == 0 {
		return "", nil
	}
	log.Printf("[PROVIDER] SearchBatch called with %d items", len(items))
	return c.generate(ctx, batchPrompt(items, loc), loc)
}

// IdentifyProduct resolves a barcode to a product name. The product database is
// tried first; the provider is asked only when the database has no usable name.
func (c *Client) IdentifyProduct(ctx context.Context, barcode string) (string, error) {
	if name, err := c.lookupBarcode(ctx, barcode); err == nil && name != "" {
		log.Printf("[PROVIDER] Barcode %s found in product database: %q", barcode, name)
		return name, nil
	} else if err != nil {
		log.Printf("[PROVIDER] Product database lookup failed for %s: %v", barcode, err)
	}

	text, err := c.generate(ctx, barcodePrompt(barcode), nil)
	if err != nil {
		return "", err
	}
	return cleanIdentifiedName(text)
}

// cleanIdentifiedName rejects answers that are explanations or refusals
// rather than a product name, and drops a trailing period.
func cleanIdentifiedName(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" ||
		len(text) > maxProductName ||
		strings.Contains(strings.ToUpper(text), "UNKNOWN") ||
		strings.Contains(strings.ToLower(text), "unable to") {
		return "", domain.ErrProductNotIdentified
	}
	return strings.TrimSuffix(text, "."), nil
}

// generate posts a prompt and returns the generated text, retrying transient failures
func (c *Client) generate(ctx context.Context, prompt string, loc *domain.Location) (string, error) {
	body := generateRequest{
		Model:    c.model,
		Prompt:   prompt,
		Tools:    []string{"search", "maps"},
		Location: toGenerateLocation(loc),
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			log.Printf("[PROVIDER] Rate limiter error: %v", err)
			return "", fmt.Errorf("rate limiter error: %w", err)
		}

		var result generateResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetHeader("Authorization", "Bearer "+c.apiKey).
			SetBody(body).
			SetResult(&result).
			Post(c.baseURL + "/v1/generate")

		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			log.Printf("[PROVIDER] Request error (attempt %d): %v", attempt, err)
			lastErr = fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
		} else if resp.StatusCode() != http.StatusOK {
			log.Printf("[PROVIDER] API error (attempt %d) - Status: %d, Body: %s", attempt, resp.StatusCode(), resp.String())
			lastErr = fmt.Errorf("%w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode())
			if !retryable(resp.StatusCode()) {
				return "", lastErr
			}
		} else {
			if c.debug {
				log.Printf("[PROVIDER] Generated %d bytes in %v", len(result.Text), resp.Time())
			}
			return result.Text, nil
		}

		if attempt < maxAttempts {
			if err := sleepContext(ctx, c.backoff(attempt)); err != nil {
				return "", err
			}
		}
	}

	log.Printf("[PROVIDER] All retries failed")
	return "", lastErr
}

func toGenerateLocation(loc *domain.Location) *generateLocation {
	if loc == nil {
		return nil
	}
	out := &generateLocation{Description: loc.Description}
	if loc.Coordinates != nil {
		lat, lng := loc.Coordinates.Latitude, loc.Coordinates.Longitude
		out.Latitude = &lat
		out.Longitude = &lng
	}
	return out
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func (c *Client) backoff(attempt int) time.Duration {
	return exponentialBackoff(attempt, c.baseDelay)
}

// exponentialBackoff returns base, 2*base, 4*base ... for attempts 1, 2, 3 ...
func exponentialBackoff(attempt int, base time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(1<<uint(attempt-1))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
