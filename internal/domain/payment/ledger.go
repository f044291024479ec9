package payment

import "context"

// Ledger owns payment records and per-method balances. Payments are
// referenced, never mutated, by the order context.
type Ledger interface {
	Create(ctx context.Context, id, orderID string, amount float64, method Method) (*Payment, error)
	// Process debits the method's balance and moves the payment to success,
	// or moves it to failed and returns ErrInsufficientFunds when the
	// balance is short. This is the durable-write path callers are expected
	// to route through the resilient executor.
	Process(ctx context.Context, id string) error
	// Refund credits the balance back and moves a successful payment to refunded.
	Refund(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Payment, error)
	Balance(ctx context.Context, method Method) (float64, error)
	// SetBalance exists for test setup only.
	SetBalance(ctx context.Context, method Method, balance float64) error
}
