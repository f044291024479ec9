package order

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound        = errors.New("order: not found")
	ErrDuplicateID     = errors.New("order: id already exists")
	ErrNoItems         = errors.New("order: order has no items")
	ErrInvalidQuantity = errors.New("order: quantity must be greater than zero")
	ErrInvalidPrice    = errors.New("order: price must be zero or greater")
)

// Item is an order line. Items are append-only until the order is confirmed.
type Item struct {
	ProductID string
	Quantity  int
	Price     float64
}

func NewItem(productID string, quantity int, price float64) (Item, error) {
	if quantity <= 0 {
		return Item{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	if price < 0 {
		return Item{}, fmt.Errorf("%w: %v", ErrInvalidPrice, price)
	}
	return Item{ProductID: productID, Quantity: quantity, Price: price}, nil
}

func (i Item) Total() float64 {
	return float64(i.Quantity) * i.Price
}

type Order struct {
	ID         string
	CustomerID string
	Items      []Item
	Status     Status
	PaymentID  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func New(id, customerID string) *Order {
	now := time.Now().UTC()
	return &Order{
		ID:         id,
		CustomerID: customerID,
		Status:     StatusCreated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// AddItem appends a line to the order; legal only while the order is still created.
func (o *Order) AddItem(productID string, quantity int, price float64) error {
	if o.Status != StatusCreated {
		return fmt.Errorf("%w: cannot add items in status %s", ErrInvalidState, o.Status)
	}
	item, err := NewItem(productID, quantity, price)
	if err != nil {
		return err
	}
	o.Items = append(o.Items, item)
	o.touch()
	return nil
}

func (o *Order) TotalAmount() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.Total()
	}
	return total
}

func (o *Order) ItemCount() int { return len(o.Items) }

// Confirm transitions created -> confirmed. Stock reservation is the
// workflow's job; the entity only guards the transition.
func (o *Order) Confirm() error {
	if len(o.Items) == 0 {
		return ErrNoItems
	}
	return o.apply(actionConfirm)
}

// MarkPaid records the payment reference and transitions confirmed -> paid.
func (o *Order) MarkPaid(paymentID string) error {
	if err := o.apply(actionPay); err != nil {
		return err
	}
	o.PaymentID = paymentID
	return nil
}

func (o *Order) Ship() error { return o.apply(actionShip) }

func (o *Order) Complete() error { return o.apply(actionComplete) }

func (o *Order) Cancel() error { return o.apply(actionCancel) }

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]Item(nil), o.Items...)
	return &clone
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
