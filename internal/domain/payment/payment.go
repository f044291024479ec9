package payment

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound          = errors.New("payment: not found")
	ErrDuplicateID       = errors.New("payment: id already exists")
	ErrInvalidAmount     = errors.New("payment: amount must be greater than zero")
	ErrInvalidMethod     = errors.New("payment: unsupported payment method")
	ErrInvalidState      = errors.New("payment: invalid state transition")
	ErrInsufficientFunds = errors.New("payment: insufficient funds")
	ErrInvalidBalance    = errors.New("payment: balance must be zero or greater")
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
	StatusRefunded   Status = "refunded"
)

type Method string

const (
	MethodCreditCard Method = "credit_card"
	MethodDebitCard  Method = "debit_card"
	MethodAlipay     Method = "alipay"
	MethodWechat     Method = "wechat"
	MethodPaypal     Method = "paypal"
)

// Methods lists every supported payment channel.
func Methods() []Method {
	return []Method{MethodCreditCard, MethodDebitCard, MethodAlipay, MethodWechat, MethodPaypal}
}

// ParseMethod validates a wire-level method string.
func ParseMethod(s string) (Method, error) {
	for _, m := range Methods() {
		if Method(s) == m {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMethod, s)
}

// transitions is the single source of truth for the payment state machine.
// Anything not listed here is rejected with ErrInvalidState.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusSuccess, StatusFailed},
	StatusSuccess:    {StatusRefunded},
	StatusFailed:     {},
	StatusRefunded:   {},
}

type Payment struct {
	ID        string
	OrderID   string
	Amount    float64
	Method    Method
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(id, orderID string, amount float64, method Method) (*Payment, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Payment{
		ID:        id,
		OrderID:   orderID,
		Amount:    amount,
		Method:    method,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// BeginProcessing moves the payment from pending to processing.
func (p *Payment) BeginProcessing() error { return p.transition(StatusProcessing) }

// MarkSucceeded completes a processing payment.
func (p *Payment) MarkSucceeded() error { return p.transition(StatusSuccess) }

// MarkFailed terminates the payment; legal from pending and processing.
func (p *Payment) MarkFailed() error { return p.transition(StatusFailed) }

// MarkRefunded moves a successful payment to refunded.
func (p *Payment) MarkRefunded() error { return p.transition(StatusRefunded) }

func (p *Payment) transition(next Status) error {
	for _, allowed := range transitions[p.Status] {
		if next == allowed {
			p.Status = next
			p.touch()
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidState, p.Status, next)
}

func (p *Payment) Clone() *Payment {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

func (p *Payment) touch() {
	p.UpdatedAt = time.Now().UTC()
}
