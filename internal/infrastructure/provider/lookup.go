package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var errNoProduct = errors.New("no product for barcode")

type productLookupResponse struct {
	Status  int `json:"status"`
	Product *struct {
		ProductName string `json:"product_name"`
		Brands      string `json:"brands"`
	} `json:"product"`
}

// lookupBarcode queries the open product database for a "brand name" string.
// It returns errNoProduct when the database does not know the barcode.
func (c *Client) lookupBarcode(ctx context.Context, barcode string) (string, error) {
	if c.lookupURL == "" {
		return "", nil
	}

	var result productLookupResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get(fmt.Sprintf("%s/api/v0/product/%s.json", c.lookupURL, barcode))
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("product database status %d", resp.StatusCode())
	}
	if result.Status != 1 || result.Product == nil || strings.TrimSpace(result.Product.ProductName) == "" {
		return "", errNoProduct
	}

	name := strings.TrimSpace(result.Product.ProductName)
	if brand := strings.TrimSpace(result.Product.Brands); brand != "" {
		name = brand + " " + name
	}
	return name, nil
}
