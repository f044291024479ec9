package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/Zhima-Mochi/orderflow/internal/domain/stock"
)

// StockLedger keeps per-product quantities in memory. The outer mutex guards
// the product map; each product carries its own lock, so reserve/release on
// different products never contend.
type StockLedger struct {
	mu       sync.RWMutex
	products map[string]*productEntry
}

type productEntry struct {
	mu   sync.Mutex
	item *domain.Item
}

func NewStockLedger() *StockLedger {
	return &StockLedger{
		products: make(map[string]*productEntry),
	}
}

func (l *StockLedger) Add(ctx context.Context, productID string, quantity int) error {
	_ = ctx
	if quantity <= 0 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, quantity)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.products[productID]
	if !ok {
		item, err := domain.NewItem(productID, quantity)
		if err != nil {
			return err
		}
		l.products[productID] = &productEntry{item: item}
		return nil
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.item.Add(quantity)
}

func (l *StockLedger) Remove(ctx context.Context, productID string) error {
	_ = ctx

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.products[productID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, productID)
	}
	delete(l.products, productID)
	return nil
}

func (l *StockLedger) Get(ctx context.Context, productID string) (int, error) {
	_ = ctx

	entry, ok := l.entry(productID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrNotFound, productID)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.item.Quantity, nil
}

// CheckAvailable reports whether the product has at least the requested
// quantity. Unknown products report false rather than an error.
func (l *StockLedger) CheckAvailable(ctx context.Context, productID string, quantity int) bool {
	current, err := l.Get(ctx, productID)
	if err != nil {
		return false
	}
	return current >= quantity
}

func (l *StockLedger) Reserve(ctx context.Context, productID string, quantity int) error {
	_ = ctx
	if quantity <= 0 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, quantity)
	}

	entry, ok := l.entry(productID)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, productID)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := entry.item.Reserve(quantity); err != nil {
		if err == domain.ErrInsufficientStock {
			return fmt.Errorf("%w: product %s has %d, need %d",
				domain.ErrInsufficientStock, productID, entry.item.Quantity, quantity)
		}
		return err
	}
	return nil
}

func (l *StockLedger) Release(ctx context.Context, productID string, quantity int) error {
	_ = ctx
	if quantity <= 0 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, quantity)
	}

	entry, ok := l.entry(productID)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, productID)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.item.Release(quantity)
}

func (l *StockLedger) entry(productID string) (*productEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.products[productID]
	return entry, ok
}
