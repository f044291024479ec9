package order

import (
	"context"
	"fmt"
	"testing"
	"time"

	domain "github.com/Zhima-Mochi/orderflow/internal/domain/order"
	dompayment "github.com/Zhima-Mochi/orderflow/internal/domain/payment"
	domstock "github.com/Zhima-Mochi/orderflow/internal/domain/stock"
	"github.com/Zhima-Mochi/orderflow/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/orderflow/internal/infrastructure/resilient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seqIDs struct{ n int }

func (s *seqIDs) NewID() string {
	s.n++
	return fmt.Sprintf("%04d", s.n)
}

type fixture struct {
	svc      *Service
	stock    *memory.StockLedger
	payments *memory.PaymentLedger
	conn     *resilient.Connection
	trail    *resilient.AuditTrail
}

func newFixture(t *testing.T, cfg resilient.Config) *fixture {
	t.Helper()

	trail := resilient.NewAuditTrail()
	stockLedger := memory.NewStockLedger()
	payments := memory.NewPaymentLedger(trail)
	conn := resilient.NewConnection()
	exec := resilient.NewExecutor(conn, cfg, nil, nil)

	svc := NewService(
		memory.NewOrderRepository(),
		stockLedger,
		payments,
		exec,
		&seqIDs{},
		nil,
		nil,
	)
	return &fixture{svc: svc, stock: stockLedger, payments: payments, conn: conn, trail: trail}
}

func fastConfig() resilient.Config {
	return resilient.Config{MaxAttempts: 3, RetryDelay: time.Millisecond, AutoReconnect: false}
}

func (f *fixture) confirmedOrder(t *testing.T, ctx context.Context, orderID string) *domain.Order {
	t.Helper()
	require.NoError(t, f.stock.Add(ctx, "P001", 100))
	_, err := f.svc.CreateOrder(ctx, orderID, "C001")
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, orderID, "P001", 2, 50.0)
	require.NoError(t, err)
	o, err := f.svc.Confirm(ctx, orderID)
	require.NoError(t, err)
	return o
}

func TestCreateOrderValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fastConfig())

	_, err := f.svc.CreateOrder(ctx, "", "C001")
	require.ErrorIs(t, err, ErrOrderIDRequired)

	_, err = f.svc.CreateOrder(ctx, "O001", "")
	require.ErrorIs(t, err, ErrCustomerIDRequired)

	_, err = f.svc.CreateOrder(ctx, "O001", "C001")
	require.NoError(t, err)
	_, err = f.svc.CreateOrder(ctx, "O001", "C002")
	require.ErrorIs(t, err, domain.ErrDuplicateID)
}

func TestAddItemUnknownOrder(t *testing.T) {
	f := newFixture(t, fastConfig())

	_, err := f.svc.AddItem(context.Background(), "missing", "P001", 1, 5.0)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFullWorkflowHappyPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fastConfig())
	f.confirmedOrder(t, ctx, "O001")

	balanceBefore, err := f.payments.Balance(ctx, dompayment.MethodCreditCard)
	require.NoError(t, err)

	o, p, err := f.svc.Pay(ctx, "O001", "credit_card")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, o.Status)
	assert.Equal(t, dompayment.StatusSuccess, p.Status)
	assert.Equal(t, p.ID, o.PaymentID)

	balanceAfter, err := f.payments.Balance(ctx, dompayment.MethodCreditCard)
	require.NoError(t, err)
	assert.InDelta(t, balanceBefore-100.0, balanceAfter, 1e-9)

	quantity, err := f.stock.Get(ctx, "P001")
	require.NoError(t, err)
	assert.Equal(t, 98, quantity)

	o, err = f.svc.Ship(ctx, "O001")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, o.Status)

	o, err = f.svc.Complete(ctx, "O001")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, o.Status)
}

func TestConfirmInsufficientStockReservesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fastConfig())
	require.NoError(t, f.stock.Add(ctx, "P001", 100))
	require.NoError(t, f.stock.Add(ctx, "P002", 1))

	_, err := f.svc.CreateOrder(ctx, "O001", "C001")
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, "O001", "P001", 5, 10.0)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, "O001", "P002", 2, 10.0)
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, "O001")
	require.ErrorIs(t, err, domstock.ErrInsufficientStock)

	// Order stays created and the first line was never reserved.
	o, err := f.svc.GetOrder(ctx, "O001")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, o.Status)

	quantity, err := f.stock.Get(ctx, "P001")
	require.NoError(t, err)
	assert.Equal(t, 100, quantity)
}

func TestPayInsufficientFundsKeepsOrderConfirmed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fastConfig())
	f.confirmedOrder(t, ctx, "O001")
	require.NoError(t, f.payments.SetBalance(ctx, dompayment.MethodWechat, 10.0))

	_, _, err := f.svc.Pay(ctx, "O001", "wechat")
	require.ErrorIs(t, err, dompayment.ErrInsufficientFunds)

	o, err := f.svc.GetOrder(ctx, "O001")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, o.Status)
	assert.Empty(t, o.PaymentID)

	// Balance untouched, stock still reserved.
	balance, err := f.payments.Balance(ctx, dompayment.MethodWechat)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, balance, 1e-9)

	quantity, err := f.stock.Get(ctx, "P001")
	require.NoError(t, err)
	assert.Equal(t, 98, quantity)

	// A second attempt with a funded method goes through on a fresh payment.
	o, p, err := f.svc.Pay(ctx, "O001", "credit_card")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, o.Status)
	assert.Equal(t, dompayment.StatusSuccess, p.Status)
}

func TestPayRejectsUnknownMethodAndWrongStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fastConfig())

	_, err := f.svc.CreateOrder(ctx, "O001", "C001")
	require.NoError(t, err)

	// Unconfirmed order cannot be paid.
	_, _, err = f.svc.Pay(ctx, "O001", "credit_card")
	require.ErrorIs(t, err, domain.ErrInvalidState)

	f.confirmedOrder(t, ctx, "O002")
	_, _, err = f.svc.Pay(ctx, "O002", "cash")
	require.ErrorIs(t, err, dompayment.ErrInvalidMethod)
}

func TestPayWhileDependencyDown(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fastConfig())
	f.confirmedOrder(t, ctx, "O001")

	balanceBefore, err := f.payments.Balance(ctx, dompayment.MethodCreditCard)
	require.NoError(t, err)

	f.conn.Disconnect()
	_, _, err = f.svc.Pay(ctx, "O001", "credit_card")
	require.ErrorIs(t, err, resilient.ErrUnavailable)

	o, err := f.svc.GetOrder(ctx, "O001")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, o.Status)

	balance, err := f.payments.Balance(ctx, dompayment.MethodCreditCard)
	require.NoError(t, err)
	assert.InDelta(t, balanceBefore, balance, 1e-9)

	// Once the dependency recovers the same order pays normally.
	f.conn.Connect()
	o, p, err := f.svc.Pay(ctx, "O001", "credit_card")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, o.Status)
	assert.Equal(t, dompayment.StatusSuccess, p.Status)
}

func TestCancelCreatedOrderHasNoCompensation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fastConfig())

	_, err := f.svc.CreateOrder(ctx, "O001", "C001")
	require.NoError(t, err)

	o, err := f.svc.Cancel(ctx, "O001")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, o.Status)

	_, err = f.svc.Cancel(ctx, "O001")
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestCancelConfirmedOrderReleasesStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fastConfig())
	f.confirmedOrder(t, ctx, "O001")

	o, err := f.svc.Cancel(ctx, "O001")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, o.Status)

	quantity, err := f.stock.Get(ctx, "P001")
	require.NoError(t, err)
	assert.Equal(t, 100, quantity)
}

func TestCancelPaidOrderRefundsAndReleases(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fastConfig())
	f.confirmedOrder(t, ctx, "O001")

	balanceBefore, err := f.payments.Balance(ctx, dompayment.MethodCreditCard)
	require.NoError(t, err)

	_, p, err := f.svc.Pay(ctx, "O001", "credit_card")
	require.NoError(t, err)

	o, err := f.svc.Cancel(ctx, "O001")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, o.Status)

	refunded, err := f.svc.GetPayment(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, dompayment.StatusRefunded, refunded.Status)

	balance, err := f.payments.Balance(ctx, dompayment.MethodCreditCard)
	require.NoError(t, err)
	assert.InDelta(t, balanceBefore, balance, 1e-9)

	quantity, err := f.stock.Get(ctx, "P001")
	require.NoError(t, err)
	assert.Equal(t, 100, quantity)
}

func TestCancelPaidOrderAbortsWhenRefundUnavailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fastConfig())
	f.confirmedOrder(t, ctx, "O001")

	_, _, err := f.svc.Pay(ctx, "O001", "credit_card")
	require.NoError(t, err)

	f.conn.Disconnect()
	_, err = f.svc.Cancel(ctx, "O001")
	require.ErrorIs(t, err, resilient.ErrUnavailable)

	// Nothing moved: order still paid, stock still reserved.
	o, err := f.svc.GetOrder(ctx, "O001")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, o.Status)

	quantity, err := f.stock.Get(ctx, "P001")
	require.NoError(t, err)
	assert.Equal(t, 98, quantity)
}

func TestShippedOrderCannotBeCancelled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fastConfig())
	f.confirmedOrder(t, ctx, "O001")

	_, _, err := f.svc.Pay(ctx, "O001", "credit_card")
	require.NoError(t, err)
	_, err = f.svc.Ship(ctx, "O001")
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, "O001")
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestPaymentAuditTrailCoversLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fastConfig())
	f.confirmedOrder(t, ctx, "O001")

	_, p, err := f.svc.Pay(ctx, "O001", "credit_card")
	require.NoError(t, err)

	steps := f.trail.Steps(p.ID)
	names := make([]string, 0, len(steps))
	for _, step := range steps {
		names = append(names, step.Name)
	}
	assert.Equal(t, []string{"created", "processing_started", "balance_checked", "debit_committed", "completed"}, names)
}
