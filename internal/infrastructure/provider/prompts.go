package provider

import (
	"fmt"
	"strings"

	"github.com/groceryscout/backend/internal/domain"
)

func locationHint(loc *domain.Location) string {
	if loc == nil {
		return "near me"
	}
	if loc.Description != "" {
		return "near " + loc.Description
	}
	if loc.Coordinates != nil {
		return fmt.Sprintf("near latitude %.4f, longitude %.4f", loc.Coordinates.Latitude, loc.Coordinates.Longitude)
	}
	return "near me"
}

func searchPrompt(query string, loc *domain.Location) string {
	return fmt.Sprintf(`I am looking for "%s" at grocery stores %s.

Please perform the following actions:
1. Find nearby grocery stores that likely carry this item.
2. Find recent pricing information or weekly ads for these specific stores if available.
3. List the stores found.
4. For each store, provide an estimated price for the item. If an exact real-time price is not available, provide a high-confidence estimate based on typical local pricing or recent data.
5. Clearly identify which store has the lowest price.

Format the response as a clear, readable list and end with a short summary recommendation.

CRITICAL INSTRUCTION:
At the very end of your response, after your summary, output a separator line "---PRICE_DATA---" followed by one line per store with its SINGLE best numeric price (no ranges) and the specific product name for that price. Format each line as: "Store Name|Price|Product Name|%s".
Example:
---PRICE_DATA---
Safeway|5.99|Lucerne Large Eggs 12ct|eggs
Trader Joe's|4.49|Trader Joe's Large White Eggs|eggs
`, query, locationHint(loc), query)
}

func batchPrompt(items []string, loc *domain.Location) string {
	return fmt.Sprintf(`I have a shopping list with these items: %s.
Find the current best prices for each of these items at grocery stores %s.

CRITICAL OUTPUT FORMAT:
Return ONLY a separator line "---PRICE_DATA---" followed by the best price found for each item.
Format each line as: "Store Name|Price|Specific Product Found|Original List Item Name".

Example:
---PRICE_DATA---
Safeway|5.99|Lucerne Large Eggs 12ct|Eggs
Walmart|2.49|Great Value White Bread|Bread
Target|3.29|Gala Apples 3lb|Apples
`, strings.Join(items, ", "), locationHint(loc))
}

func barcodePrompt(barcode string) string {
	return fmt.Sprintf(`I have a barcode number: %s.
Search the web to identify the exact product name and brand.
Return ONLY the product name.
If you cannot identify the product with high certainty, return "UNKNOWN".
Do not provide any introductory text or explanation.
`, barcode)
}
