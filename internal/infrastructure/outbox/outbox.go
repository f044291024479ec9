package outbox

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	domoutbox "github.com/Zhima-Mochi/orderflow/internal/domain/outbox"
	"github.com/Zhima-Mochi/orderflow/internal/observability"
	"github.com/Zhima-Mochi/orderflow/internal/observability/logctx"
)

const (
	queueDepth     = 1024
	workerCount    = 4
	handlerTimeout = 30 * time.Second
)

// Bus is an in-memory event bus for order lifecycle events. Publishing
// enqueues; a small worker pool drains the queue and runs the subscribed
// handlers. Not durable; a production deployment would persist events and
// dispatch from a store (true outbox pattern).
type Bus struct {
	mu        sync.RWMutex
	subs      map[string][]domoutbox.Handler
	queue     chan domoutbox.Event
	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	log       observability.Logger
}

func NewBus(logger observability.Logger) *Bus {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Bus{
		subs:  make(map[string][]domoutbox.Handler),
		queue: make(chan domoutbox.Event, queueDepth),
		log:   logger.With(observability.F("component", "outbox")),
	}
}

func (b *Bus) Subscribe(eventName string, h domoutbox.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[eventName] = append(b.subs[eventName], h)
}

func (b *Bus) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		bg, cancel := context.WithCancel(context.WithoutCancel(ctx))
		b.cancel = cancel
		for i := 0; i < workerCount; i++ {
			b.wg.Add(1)
			go b.worker(bg)
		}
		logctx.FromOr(ctx, b.log).Info("event_bus_started", observability.F("workers", workerCount))
	})
}

// Stop closes the queue and waits for in-flight handlers to finish.
func (b *Bus) Stop(ctx context.Context) {
	b.stopOnce.Do(func() {
		close(b.queue)
		b.wg.Wait()
		if b.cancel != nil {
			b.cancel()
		}
		logctx.FromOr(ctx, b.log).Info("event_bus_stopped")
	})
}

func (b *Bus) Publish(ctx context.Context, e domoutbox.Event) error {
	if e == nil {
		return nil
	}
	select {
	case b.queue <- e:
		return nil
	case <-ctx.Done():
		logctx.FromOr(ctx, b.log).Warn("event_enqueue_aborted",
			observability.F("event", e.EventName()),
			observability.F("error", ctx.Err()),
		)
		return ctx.Err()
	}
}

func (b *Bus) worker(ctx context.Context) {
	defer b.wg.Done()
	for e := range b.queue {
		b.dispatch(ctx, e)
	}
}

func (b *Bus) dispatch(ctx context.Context, e domoutbox.Event) {
	name := e.EventName()

	b.mu.RLock()
	handlers := append([]domoutbox.Handler(nil), b.subs[name]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.log.Debug("event_dropped_no_subscriber", observability.F("event", name))
		return
	}

	logger := b.log.With(observability.F("event", name))
	for _, h := range handlers {
		b.invoke(ctx, logger, name, h, e)
	}
}

// invoke runs one handler with a timeout and panic isolation, so a bad
// subscriber never takes a worker down or stalls the queue forever.
func (b *Bus) invoke(ctx context.Context, logger observability.Logger, name string, h domoutbox.Handler, e domoutbox.Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event_handler_panic",
				observability.F("panic", r),
				observability.F("stack", string(debug.Stack())),
			)
		}
	}()

	hctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()
	hctx = logctx.With(hctx, logger)

	if err := h(hctx, e); err != nil {
		logger.Warn("event_handler_error",
			observability.F("error", err.Error()),
		)
	}
}
