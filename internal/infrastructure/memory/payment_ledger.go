package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/Zhima-Mochi/orderflow/internal/domain/payment"
)

// Auditor records the discrete named steps of a payment attempt. The
// resilient package provides the concrete trail store.
type Auditor interface {
	Record(paymentID, step, detail string)
}

type nopAuditor struct{}

func (nopAuditor) Record(string, string, string) {}

// Seed balances per payment channel, matching the simulated accounts the
// demo environment ships with.
var seedBalances = map[domain.Method]float64{
	domain.MethodCreditCard: 10000.0,
	domain.MethodDebitCard:  5000.0,
	domain.MethodAlipay:     8000.0,
	domain.MethodWechat:     6000.0,
	domain.MethodPaypal:     15000.0,
}

// PaymentLedger keeps payment records and per-method balances in memory.
// Balances carry their own locks so debits on different methods never contend.
type PaymentLedger struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment
	balances map[domain.Method]*balanceEntry
	audit    Auditor
}

type balanceEntry struct {
	mu     sync.Mutex
	amount float64
}

func NewPaymentLedger(audit Auditor) *PaymentLedger {
	if audit == nil {
		audit = nopAuditor{}
	}
	balances := make(map[domain.Method]*balanceEntry, len(seedBalances))
	for method, amount := range seedBalances {
		balances[method] = &balanceEntry{amount: amount}
	}
	return &PaymentLedger{
		payments: make(map[string]*domain.Payment),
		balances: balances,
		audit:    audit,
	}
}

func (l *PaymentLedger) Create(ctx context.Context, id, orderID string, amount float64, method domain.Method) (*domain.Payment, error) {
	_ = ctx

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.payments[id]; exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateID, id)
	}

	p, err := domain.New(id, orderID, amount, method)
	if err != nil {
		return nil, err
	}
	l.payments[id] = p
	l.audit.Record(id, "created", fmt.Sprintf("payment created for order %s, amount %.2f", orderID, amount))
	return p.Clone(), nil
}

// Process is the durable-write path: it debits the method balance and walks
// the payment through processing to a terminal status, recording every step.
func (l *PaymentLedger) Process(ctx context.Context, id string) error {
	_ = ctx

	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.payments[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	if err := p.BeginProcessing(); err != nil {
		return err
	}
	l.audit.Record(id, "processing_started", fmt.Sprintf("method %s", p.Method))

	balance := l.balances[p.Method]
	balance.mu.Lock()
	defer balance.mu.Unlock()

	l.audit.Record(id, "balance_checked", fmt.Sprintf("need %.2f, available %.2f", p.Amount, balance.amount))
	if balance.amount < p.Amount {
		if err := p.MarkFailed(); err != nil {
			return err
		}
		l.audit.Record(id, "failed", "insufficient funds")
		return fmt.Errorf("%w: method %s needs %.2f, available %.2f",
			domain.ErrInsufficientFunds, p.Method, p.Amount, balance.amount)
	}

	balance.amount -= p.Amount
	l.audit.Record(id, "debit_committed", fmt.Sprintf("debited %.2f", p.Amount))

	if err := p.MarkSucceeded(); err != nil {
		// Debit already happened; put the money back before surfacing.
		balance.amount += p.Amount
		return err
	}
	l.audit.Record(id, "completed", "payment succeeded")
	return nil
}

// Refund credits the balance back and moves a successful payment to refunded.
func (l *PaymentLedger) Refund(ctx context.Context, id string) error {
	_ = ctx

	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.payments[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	if err := p.MarkRefunded(); err != nil {
		return err
	}

	balance := l.balances[p.Method]
	balance.mu.Lock()
	balance.amount += p.Amount
	balance.mu.Unlock()

	l.audit.Record(id, "refunded", fmt.Sprintf("credited %.2f back to %s", p.Amount, p.Method))
	return nil
}

func (l *PaymentLedger) Get(ctx context.Context, id string) (*domain.Payment, error) {
	_ = ctx

	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.payments[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return p.Clone(), nil
}

func (l *PaymentLedger) Balance(ctx context.Context, method domain.Method) (float64, error) {
	_ = ctx
	if _, err := domain.ParseMethod(string(method)); err != nil {
		return 0, err
	}

	balance := l.balances[method]
	balance.mu.Lock()
	defer balance.mu.Unlock()
	return balance.amount, nil
}

func (l *PaymentLedger) SetBalance(ctx context.Context, method domain.Method, amount float64) error {
	_ = ctx
	if _, err := domain.ParseMethod(string(method)); err != nil {
		return err
	}
	if amount < 0 {
		return fmt.Errorf("%w: %v", domain.ErrInvalidBalance, amount)
	}

	balance := l.balances[method]
	balance.mu.Lock()
	defer balance.mu.Unlock()
	balance.amount = amount
	return nil
}
