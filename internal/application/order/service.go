package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/Zhima-Mochi/orderflow/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/orderflow/internal/domain/outbox"
	dompayment "github.com/Zhima-Mochi/orderflow/internal/domain/payment"
	domstock "github.com/Zhima-Mochi/orderflow/internal/domain/stock"
	"github.com/Zhima-Mochi/orderflow/internal/infrastructure/resilient"
	"github.com/Zhima-Mochi/orderflow/internal/observability"
	"github.com/Zhima-Mochi/orderflow/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	componentWorkflow = "order_workflow"
	spanPrefix        = "WF."
)

var (
	ErrOrderIDRequired    = errors.New("order: order id is required")
	ErrCustomerIDRequired = errors.New("order: customer id is required")
	ErrProductIDRequired  = errors.New("order: product id is required")
)

// Service owns the order state machine. It reserves and releases stock
// directly, and routes every payment-ledger write through the resilient
// executor. All transitions go through the domain transition table, so an
// illegal call leaves the order unchanged and surfaces a typed error.
type Service struct {
	orders    domain.Repository
	stock     domstock.Ledger
	payments  dompayment.Ledger
	exec      *resilient.Executor
	ids       IDGenerator
	publisher domoutbox.Publisher
	tel       observability.Observability
	log       observability.Logger
}

func NewService(
	orders domain.Repository,
	stockLedger domstock.Ledger,
	payments dompayment.Ledger,
	exec *resilient.Executor,
	ids IDGenerator,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Service{
		orders:    orders,
		stock:     stockLedger,
		payments:  payments,
		exec:      exec,
		ids:       ids,
		publisher: publisher,
		tel:       tel,
		log:       tel.Logger().With(observability.F("component", componentWorkflow)),
	}
}

// CreateOrder registers an empty order for a customer.
func (s *Service) CreateOrder(ctx context.Context, orderID, customerID string) (*domain.Order, error) {
	ctx, done := s.observe(ctx, "order.create", attribute.String("order_id", orderID))
	logger := logctx.FromOr(ctx, s.log).With(observability.F("order_id", orderID))

	if orderID == "" {
		return nil, done(ErrOrderIDRequired)
	}
	if customerID == "" {
		return nil, done(ErrCustomerIDRequired)
	}

	o := domain.New(orderID, customerID)
	if err := s.orders.Insert(ctx, o); err != nil {
		logger.Warn("order_create_rejected", observability.F("error", err.Error()))
		return nil, done(err)
	}

	s.publish(ctx, domain.NewCreatedEvent(o))
	logger.Info("order_created", observability.F("customer_id", customerID))
	return o, done(nil)
}

// AddItem appends a line to an order still in the created status.
func (s *Service) AddItem(ctx context.Context, orderID, productID string, quantity int, price float64) (*domain.Order, error) {
	ctx, done := s.observe(ctx, "order.add_item", attribute.String("order_id", orderID))
	logger := logctx.FromOr(ctx, s.log).With(observability.F("order_id", orderID))

	if productID == "" {
		return nil, done(ErrProductIDRequired)
	}

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, done(err)
	}
	if err := o.AddItem(productID, quantity, price); err != nil {
		logger.Warn("order_add_item_rejected", observability.F("error", err.Error()))
		return nil, done(err)
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, done(err)
	}

	logger.Info("order_item_added",
		observability.F("product_id", productID),
		observability.F("quantity", quantity),
		observability.F("total_amount", o.TotalAmount()),
	)
	return o, done(nil)
}

// Confirm checks availability for every item before reserving anything, so a
// short item on a multi-line order reserves nothing.
func (s *Service) Confirm(ctx context.Context, orderID string) (*domain.Order, error) {
	ctx, done := s.observe(ctx, "order.confirm", attribute.String("order_id", orderID))
	logger := logctx.FromOr(ctx, s.log).With(observability.F("order_id", orderID))

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, done(err)
	}
	if err := o.Confirm(); err != nil {
		logger.Warn("order_confirm_rejected", observability.F("error", err.Error()))
		return nil, done(err)
	}

	// Phase one: fail fast if any line is short.
	for _, item := range o.Items {
		if !s.stock.CheckAvailable(ctx, item.ProductID, item.Quantity) {
			logger.Warn("order_confirm_insufficient_stock",
				observability.F("product_id", item.ProductID),
				observability.F("quantity", item.Quantity),
			)
			return nil, done(fmt.Errorf("%w: product %s, need %d",
				domstock.ErrInsufficientStock, item.ProductID, item.Quantity))
		}
	}

	// Phase two: reserve every line. A mid-way failure (concurrent confirm
	// against the same product) releases what was already taken.
	reserved := make([]domain.Item, 0, len(o.Items))
	for _, item := range o.Items {
		if err := s.stock.Reserve(ctx, item.ProductID, item.Quantity); err != nil {
			s.releaseItems(ctx, logger, reserved)
			return nil, done(err)
		}
		reserved = append(reserved, item)
	}

	if err := s.orders.Update(ctx, o); err != nil {
		s.releaseItems(ctx, logger, reserved)
		return nil, done(err)
	}

	s.publish(ctx, domain.NewConfirmedEvent(o))
	logger.Info("order_confirmed",
		observability.F("items", o.ItemCount()),
		observability.F("total_amount", o.TotalAmount()),
	)
	return o, done(nil)
}

// Pay creates a payment for the order total and processes it through the
// resilient executor. On insufficient funds or an unavailable dependency the
// order stays confirmed and the typed error is surfaced.
func (s *Service) Pay(ctx context.Context, orderID, method string) (*domain.Order, *dompayment.Payment, error) {
	ctx, done := s.observe(ctx, "order.pay", attribute.String("order_id", orderID))
	logger := logctx.FromOr(ctx, s.log).With(observability.F("order_id", orderID))

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, nil, done(err)
	}
	if err := o.CanPay(); err != nil {
		logger.Warn("order_pay_rejected", observability.F("error", err.Error()))
		return nil, nil, done(err)
	}
	parsedMethod, err := dompayment.ParseMethod(method)
	if err != nil {
		return nil, nil, done(err)
	}

	paymentID := "PAY-" + s.ids.NewID()
	if _, err := s.payments.Create(ctx, paymentID, o.ID, o.TotalAmount(), parsedMethod); err != nil {
		return nil, nil, done(err)
	}
	logger.Info("payment_created",
		observability.F("payment_id", paymentID),
		observability.F("method", method),
		observability.F("amount", o.TotalAmount()),
	)

	err = s.exec.ExecuteTransaction(ctx, []resilient.Operation{{
		Name: "process_payment",
		Do: func(ctx context.Context) error {
			return s.payments.Process(ctx, paymentID)
		},
	}})
	if err != nil {
		logger.Warn("payment_processing_failed",
			observability.F("payment_id", paymentID),
			observability.F("error", err.Error()),
		)
		return nil, nil, done(err)
	}

	if err := o.MarkPaid(paymentID); err != nil {
		return nil, nil, done(err)
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, nil, done(err)
	}

	p, err := s.payments.Get(ctx, paymentID)
	if err != nil {
		return nil, nil, done(err)
	}

	s.publish(ctx, domain.NewPaidEvent(o))
	logger.Info("order_paid", observability.F("payment_id", paymentID))
	return o, p, done(nil)
}

func (s *Service) Ship(ctx context.Context, orderID string) (*domain.Order, error) {
	ctx, done := s.observe(ctx, "order.ship", attribute.String("order_id", orderID))
	logger := logctx.FromOr(ctx, s.log).With(observability.F("order_id", orderID))

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, done(err)
	}
	if err := o.Ship(); err != nil {
		logger.Warn("order_ship_rejected", observability.F("error", err.Error()))
		return nil, done(err)
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, done(err)
	}

	s.publish(ctx, domain.NewShippedEvent(o))
	logger.Info("order_shipped")
	return o, done(nil)
}

func (s *Service) Complete(ctx context.Context, orderID string) (*domain.Order, error) {
	ctx, done := s.observe(ctx, "order.complete", attribute.String("order_id", orderID))
	logger := logctx.FromOr(ctx, s.log).With(observability.F("order_id", orderID))

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, done(err)
	}
	if err := o.Complete(); err != nil {
		logger.Warn("order_complete_rejected", observability.F("error", err.Error()))
		return nil, done(err)
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, done(err)
	}

	s.publish(ctx, domain.NewCompletedEvent(o))
	logger.Info("order_completed")
	return o, done(nil)
}

// Cancel aborts the workflow with the compensations its progress requires:
// nothing from created, stock release from confirmed, stock release plus
// refund from paid. The refund runs first so a failed refund leaves the
// order (and the stock ledger) untouched.
func (s *Service) Cancel(ctx context.Context, orderID string) (*domain.Order, error) {
	ctx, done := s.observe(ctx, "order.cancel", attribute.String("order_id", orderID))
	logger := logctx.FromOr(ctx, s.log).With(observability.F("order_id", orderID))

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, done(err)
	}

	from := o.Status
	if err := o.Cancel(); err != nil {
		logger.Warn("order_cancel_rejected", observability.F("error", err.Error()))
		return nil, done(err)
	}

	refunded := false
	if from == domain.StatusPaid && o.PaymentID != "" {
		err := s.exec.Execute(ctx, "refund_payment", func(ctx context.Context) error {
			return s.payments.Refund(ctx, o.PaymentID)
		})
		if err != nil {
			logger.Error("refund_failed",
				observability.F("payment_id", o.PaymentID),
				observability.F("error", err.Error()),
			)
			return nil, done(err)
		}
		refunded = true
		logger.Info("payment_refunded", observability.F("payment_id", o.PaymentID))
	}

	if from == domain.StatusConfirmed || from == domain.StatusPaid {
		s.releaseItems(ctx, logger, o.Items)
	}

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, done(err)
	}

	s.publish(ctx, domain.NewCancelledEvent(o, from, refunded))
	logger.Info("order_cancelled",
		observability.F("from_status", string(from)),
		observability.F("refunded", refunded),
	)
	return o, done(nil)
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, ErrOrderIDRequired
	}
	return s.orders.Get(ctx, orderID)
}

func (s *Service) GetPayment(ctx context.Context, paymentID string) (*dompayment.Payment, error) {
	return s.payments.Get(ctx, paymentID)
}

// releaseItems puts reserved quantities back. Release failures are logged and
// skipped: the product may have been removed, and a partial release must not
// block the remaining compensations.
func (s *Service) releaseItems(ctx context.Context, logger observability.Logger, items []domain.Item) {
	for _, item := range items {
		if err := s.stock.Release(ctx, item.ProductID, item.Quantity); err != nil {
			logger.Warn("stock_release_failed",
				observability.F("product_id", item.ProductID),
				observability.F("quantity", item.Quantity),
				observability.F("error", err.Error()),
			)
		}
	}
}

func (s *Service) publish(ctx context.Context, e domoutbox.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.tel.Metrics().Counter(observability.MEventPublishFailed).
			Add(1, observability.L("event", e.EventName()))
		logctx.FromOr(ctx, s.log).Warn("event_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err.Error()),
		)
	}
}

// observe opens a span and returns a closer that records the RED metrics for
// the operation and stamps the span status from the returned error.
func (s *Service) observe(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error) error) {
	start := time.Now()
	ctx, span := s.tel.Tracer().Start(ctx, spanPrefix+op, attrs...)

	return ctx, func(err error) error {
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		s.tel.Metrics().Counter(observability.MWorkflowOps).
			Add(1, observability.L("operation", op), observability.L("outcome", outcome))
		s.tel.Metrics().Histogram(observability.MWorkflowOpDuration).
			Observe(time.Since(start).Seconds(), observability.L("operation", op))
		return err
	}
}
