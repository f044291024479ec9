package notification

import (
	"context"
	"fmt"

	domainOrder "github.com/Zhima-Mochi/orderflow/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/orderflow/internal/domain/outbox"
	"github.com/Zhima-Mochi/orderflow/internal/observability"
	"github.com/Zhima-Mochi/orderflow/internal/observability/logctx"
)

// Worker consumes order lifecycle events and emits customer-facing
// notifications. Here that means structured log lines; a real deployment
// would push to mail/SMS providers.
type Worker struct {
	subscriber domoutbox.Subscriber
	log        observability.Logger
}

func New(subscriber domoutbox.Subscriber, logger observability.Logger) *Worker {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Worker{
		subscriber: subscriber,
		log:        logger.With(observability.F("component", "notification_worker")),
	}
}

func (w *Worker) Start() {
	w.subscriber.Subscribe(domainOrder.ConfirmedEvent{}.EventName(), w.handle)
	w.subscriber.Subscribe(domainOrder.PaidEvent{}.EventName(), w.handle)
	w.subscriber.Subscribe(domainOrder.ShippedEvent{}.EventName(), w.handle)
	w.subscriber.Subscribe(domainOrder.CompletedEvent{}.EventName(), w.handle)
	w.subscriber.Subscribe(domainOrder.CancelledEvent{}.EventName(), w.handle)
}

func (w *Worker) handle(ctx context.Context, e domoutbox.Event) error {
	logger := logctx.FromOr(ctx, w.log)

	switch ev := e.(type) {
	case domainOrder.ConfirmedEvent:
		logger.Info("notify_order_confirmed",
			observability.F("order_id", ev.OrderID),
			observability.F("total_amount", ev.TotalAmount),
		)
	case domainOrder.PaidEvent:
		logger.Info("notify_order_paid",
			observability.F("order_id", ev.OrderID),
			observability.F("payment_id", ev.PaymentID),
			observability.F("amount", ev.Amount),
		)
	case domainOrder.ShippedEvent:
		logger.Info("notify_order_shipped", observability.F("order_id", ev.OrderID))
	case domainOrder.CompletedEvent:
		logger.Info("notify_order_completed", observability.F("order_id", ev.OrderID))
	case domainOrder.CancelledEvent:
		logger.Info("notify_order_cancelled",
			observability.F("order_id", ev.OrderID),
			observability.F("from_status", string(ev.FromStatus)),
			observability.F("refunded", ev.Refunded),
		)
	default:
		return fmt.Errorf("notification: unexpected event %s", e.EventName())
	}
	return nil
}
