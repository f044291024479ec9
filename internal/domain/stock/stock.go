package stock

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("stock: product not found")
	ErrInvalidQuantity   = errors.New("stock: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("stock: insufficient stock")
)

// Item is the per-product ledger entry. Quantity never goes below zero.
type Item struct {
	ProductID string
	Quantity  int
	UpdatedAt time.Time
}

func NewItem(productID string, quantity int) (*Item, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	return &Item{
		ProductID: productID,
		Quantity:  quantity,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func (i *Item) Add(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	i.Quantity += quantity
	i.touch()
	return nil
}

// Reserve decrements the quantity, leaving it unchanged when stock is short.
func (i *Item) Reserve(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > i.Quantity {
		return ErrInsufficientStock
	}
	i.Quantity -= quantity
	i.touch()
	return nil
}

// Release increments the quantity back. It is used only for compensations,
// so no upper bound is enforced.
func (i *Item) Release(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	i.Quantity += quantity
	i.touch()
	return nil
}

func (i *Item) touch() {
	i.UpdatedAt = time.Now().UTC()
}
