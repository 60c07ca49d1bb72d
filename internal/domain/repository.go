package domain

import "context"

// DocumentStore persists the whole state of an account.
// Reads and writes are whole-document and last-write-wins.
type DocumentStore interface {
	Get(ctx context.Context, accountID string) (*Snapshot, error)
	Put(ctx context.Context, accountID string, snapshot *Snapshot) error
}

// SearchProvider is the external natural-language price search service.
// Search and SearchBatch return raw text that may contain a ---PRICE_DATA--- block.
type SearchProvider interface {
	Search(ctx context.Context, query string, loc *Location) (string, error)
	SearchBatch(ctx context.Context, items []string, loc *Location) (string, error)
	IdentifyProduct(ctx context.Context, barcode string) (string, error)
}
