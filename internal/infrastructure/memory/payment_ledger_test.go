package memory

import (
	"context"
	"testing"

	domain "github.com/Zhima-Mochi/orderflow/internal/domain/payment"
	"github.com/Zhima-Mochi/orderflow/internal/infrastructure/resilient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePayment(t *testing.T) {
	ctx := context.Background()
	ledger := NewPaymentLedger(nil)

	p, err := ledger.Create(ctx, "PAY-1", "O1", 100.0, domain.MethodCreditCard)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, p.Status)
	assert.InDelta(t, 100.0, p.Amount, 1e-9)

	_, err = ledger.Create(ctx, "PAY-1", "O2", 50.0, domain.MethodAlipay)
	require.ErrorIs(t, err, domain.ErrDuplicateID)

	_, err = ledger.Create(ctx, "PAY-2", "O2", 0, domain.MethodAlipay)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestProcessDebitsBalance(t *testing.T) {
	ctx := context.Background()
	ledger := NewPaymentLedger(nil)

	before, err := ledger.Balance(ctx, domain.MethodCreditCard)
	require.NoError(t, err)

	_, err = ledger.Create(ctx, "PAY-1", "O1", 100.0, domain.MethodCreditCard)
	require.NoError(t, err)
	require.NoError(t, ledger.Process(ctx, "PAY-1"))

	p, err := ledger.Get(ctx, "PAY-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, p.Status)

	after, err := ledger.Balance(ctx, domain.MethodCreditCard)
	require.NoError(t, err)
	assert.InDelta(t, before-100.0, after, 1e-9)
}

func TestProcessInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	ledger := NewPaymentLedger(nil)
	require.NoError(t, ledger.SetBalance(ctx, domain.MethodWechat, 50.0))

	_, err := ledger.Create(ctx, "PAY-1", "O1", 100.0, domain.MethodWechat)
	require.NoError(t, err)

	err = ledger.Process(ctx, "PAY-1")
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	p, err := ledger.Get(ctx, "PAY-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, p.Status)

	// Balance untouched on a failed debit.
	balance, err := ledger.Balance(ctx, domain.MethodWechat)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, balance, 1e-9)
}

func TestProcessCannotReenterTerminalStates(t *testing.T) {
	ctx := context.Background()
	ledger := NewPaymentLedger(nil)

	_, err := ledger.Create(ctx, "PAY-1", "O1", 10.0, domain.MethodPaypal)
	require.NoError(t, err)
	require.NoError(t, ledger.Process(ctx, "PAY-1"))

	require.ErrorIs(t, ledger.Process(ctx, "PAY-1"), domain.ErrInvalidState)
}

func TestRefundRestoresBalance(t *testing.T) {
	ctx := context.Background()
	ledger := NewPaymentLedger(nil)

	before, err := ledger.Balance(ctx, domain.MethodAlipay)
	require.NoError(t, err)

	_, err = ledger.Create(ctx, "PAY-1", "O1", 200.0, domain.MethodAlipay)
	require.NoError(t, err)
	require.NoError(t, ledger.Process(ctx, "PAY-1"))
	require.NoError(t, ledger.Refund(ctx, "PAY-1"))

	p, err := ledger.Get(ctx, "PAY-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRefunded, p.Status)

	after, err := ledger.Balance(ctx, domain.MethodAlipay)
	require.NoError(t, err)
	assert.InDelta(t, before, after, 1e-9)
}

func TestRefundRequiresSuccess(t *testing.T) {
	ctx := context.Background()
	ledger := NewPaymentLedger(nil)

	_, err := ledger.Create(ctx, "PAY-1", "O1", 10.0, domain.MethodDebitCard)
	require.NoError(t, err)

	require.ErrorIs(t, ledger.Refund(ctx, "PAY-1"), domain.ErrInvalidState)
	require.ErrorIs(t, ledger.Refund(ctx, "missing"), domain.ErrNotFound)
}

func TestSetBalanceValidation(t *testing.T) {
	ctx := context.Background()
	ledger := NewPaymentLedger(nil)

	require.ErrorIs(t, ledger.SetBalance(ctx, domain.MethodAlipay, -1), domain.ErrInvalidBalance)
	require.ErrorIs(t, ledger.SetBalance(ctx, domain.Method("cash"), 10), domain.ErrInvalidMethod)
	_, err := ledger.Balance(ctx, domain.Method("cash"))
	require.ErrorIs(t, err, domain.ErrInvalidMethod)
}

func TestProcessRecordsAuditSteps(t *testing.T) {
	ctx := context.Background()
	trail := resilient.NewAuditTrail()
	ledger := NewPaymentLedger(trail)

	_, err := ledger.Create(ctx, "PAY-1", "O1", 10.0, domain.MethodCreditCard)
	require.NoError(t, err)
	require.NoError(t, ledger.Process(ctx, "PAY-1"))

	steps := trail.Steps("PAY-1")
	names := make([]string, 0, len(steps))
	for _, step := range steps {
		names = append(names, step.Name)
	}
	assert.Equal(t, []string{"created", "processing_started", "balance_checked", "debit_committed", "completed"}, names)
}

func TestFailedProcessAuditShowsNoDebit(t *testing.T) {
	ctx := context.Background()
	trail := resilient.NewAuditTrail()
	ledger := NewPaymentLedger(trail)
	require.NoError(t, ledger.SetBalance(ctx, domain.MethodWechat, 1.0))

	_, err := ledger.Create(ctx, "PAY-1", "O1", 10.0, domain.MethodWechat)
	require.NoError(t, err)
	require.Error(t, ledger.Process(ctx, "PAY-1"))

	for _, step := range trail.Steps("PAY-1") {
		assert.NotEqual(t, "debit_committed", step.Name)
	}
}
