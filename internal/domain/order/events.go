package order

import "time"

// Lifecycle events published on the in-memory bus. They carry enough context
// for subscribers (notifications, projections) without re-reading the order.

type CreatedEvent struct {
	OrderID    string
	CustomerID string
	OccurredAt time.Time
}

func (CreatedEvent) EventName() string { return "order.created" }

type ConfirmedEvent struct {
	OrderID     string
	ItemCount   int
	TotalAmount float64
	OccurredAt  time.Time
}

func (ConfirmedEvent) EventName() string { return "order.confirmed" }

type PaidEvent struct {
	OrderID    string
	PaymentID  string
	Amount     float64
	OccurredAt time.Time
}

func (PaidEvent) EventName() string { return "order.paid" }

type ShippedEvent struct {
	OrderID    string
	OccurredAt time.Time
}

func (ShippedEvent) EventName() string { return "order.shipped" }

type CompletedEvent struct {
	OrderID    string
	OccurredAt time.Time
}

func (CompletedEvent) EventName() string { return "order.completed" }

type CancelledEvent struct {
	OrderID string
	// FromStatus records which status the order was cancelled from, which
	// tells subscribers what compensations ran.
	FromStatus Status
	Refunded   bool
	OccurredAt time.Time
}

func (CancelledEvent) EventName() string { return "order.cancelled" }

func NewCreatedEvent(o *Order) CreatedEvent {
	return CreatedEvent{OrderID: o.ID, CustomerID: o.CustomerID, OccurredAt: time.Now().UTC()}
}

func NewConfirmedEvent(o *Order) ConfirmedEvent {
	return ConfirmedEvent{
		OrderID:     o.ID,
		ItemCount:   o.ItemCount(),
		TotalAmount: o.TotalAmount(),
		OccurredAt:  time.Now().UTC(),
	}
}

func NewPaidEvent(o *Order) PaidEvent {
	return PaidEvent{
		OrderID:    o.ID,
		PaymentID:  o.PaymentID,
		Amount:     o.TotalAmount(),
		OccurredAt: time.Now().UTC(),
	}
}

func NewShippedEvent(o *Order) ShippedEvent {
	return ShippedEvent{OrderID: o.ID, OccurredAt: time.Now().UTC()}
}

func NewCompletedEvent(o *Order) CompletedEvent {
	return CompletedEvent{OrderID: o.ID, OccurredAt: time.Now().UTC()}
}

func NewCancelledEvent(o *Order, from Status, refunded bool) CancelledEvent {
	return CancelledEvent{
		OrderID:    o.ID,
		FromStatus: from,
		Refunded:   refunded,
		OccurredAt: time.Now().UTC(),
	}
}
