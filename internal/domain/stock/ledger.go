package stock

import "context"

// Ledger is the authoritative record of available quantity per product.
// Operations are atomic per product key; multi-product atomicity is the
// caller's responsibility.
type Ledger interface {
	Add(ctx context.Context, productID string, quantity int) error
	Remove(ctx context.Context, productID string) error
	Get(ctx context.Context, productID string) (int, error)
	CheckAvailable(ctx context.Context, productID string, quantity int) bool
	Reserve(ctx context.Context, productID string, quantity int) error
	Release(ctx context.Context, productID string, quantity int) error
}
