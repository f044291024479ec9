package resilient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/orderflow/internal/observability"
	"github.com/cenkalti/backoff/v5"
)

var (
	// ErrUnavailable means the retry budget exhausted against a
	// disconnected dependency. Distinct from domain errors so callers can
	// retry the whole operation later.
	ErrUnavailable = errors.New("resilient: dependency unavailable")
	// ErrOperationFailed wraps non-connectivity failures, which are never retried.
	ErrOperationFailed = errors.New("resilient: operation failed")
)

const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = time.Second
)

// Config carries the retry tunables. The policy is fixed-count with fixed
// inter-attempt delay; no jitter or exponential growth.
type Config struct {
	MaxAttempts   int
	RetryDelay    time.Duration
	AutoReconnect bool
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	return c
}

// Operation is one step of a grouped transaction.
type Operation struct {
	Name string
	Do   func(ctx context.Context) error
}

// Executor wraps calls to the external dependency with bounded retries and
// grouped rollback-on-failure transactions.
type Executor struct {
	conn    *Connection
	cfg     Config
	log     observability.Logger
	retries observability.Counter
}

func NewExecutor(conn *Connection, cfg Config, log observability.Logger, retries observability.Counter) *Executor {
	if log == nil {
		log = observability.NopLogger()
	}
	if retries == nil {
		retries = observability.NopCounter()
	}
	return &Executor{
		conn:    conn,
		cfg:     cfg.withDefaults(),
		log:     log.With(observability.F("component", "resilient_executor")),
		retries: retries,
	}
}

// Execute runs op, retrying connectivity failures up to the configured
// attempt count with a fixed delay. Non-connectivity failures propagate
// immediately wrapped in ErrOperationFailed; exhausted retries surface as
// ErrUnavailable carrying the last underlying error.
func (e *Executor) Execute(ctx context.Context, name string, op func(ctx context.Context) error) error {
	attempt := 0

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		logger := e.log.With(
			observability.F("operation", name),
			observability.F("attempt", attempt),
		)

		if !e.conn.IsConnected() && e.cfg.AutoReconnect {
			logger.Info("dependency_reconnect_attempt")
			e.conn.Connect()
		}

		if err := e.conn.Check(); err != nil {
			logger.Warn("dependency_unreachable", observability.F("error", err.Error()))
			e.retries.Add(1, observability.L("operation", name))
			return struct{}{}, err
		}

		if err := op(ctx); err != nil {
			logger.Warn("operation_rejected", observability.F("error", err.Error()))
			return struct{}{}, backoff.Permanent(err)
		}

		logger.Debug("operation_succeeded")
		return struct{}{}, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(e.cfg.RetryDelay)),
		backoff.WithMaxTries(uint(e.cfg.MaxAttempts)),
	)

	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotConnected) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s failed after %d attempts: %w", ErrUnavailable, name, attempt, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrOperationFailed, name, err)
}

// ExecuteTransaction begins a transaction handle, runs each operation through
// Execute, and commits on full success. On any failure it attempts a rollback
// and re-raises the triggering error; a rollback failure is logged but never
// masks the original error.
func (e *Executor) ExecuteTransaction(ctx context.Context, ops []Operation) error {
	var txnID string
	if err := e.Execute(ctx, "begin_transaction", func(context.Context) error {
		id, beginErr := e.conn.Begin()
		txnID = id
		return beginErr
	}); err != nil {
		return err
	}

	logger := e.log.With(observability.F("txn_id", txnID))
	logger.Info("transaction_started", observability.F("operations", len(ops)))

	for _, op := range ops {
		if err := e.Execute(ctx, op.Name, op.Do); err != nil {
			logger.Error("transaction_operation_failed",
				observability.F("operation", op.Name),
				observability.F("error", err.Error()),
			)
			e.rollback(txnID, logger)
			return err
		}
	}

	if err := e.Execute(ctx, "commit_transaction", func(context.Context) error {
		return e.conn.Commit(txnID)
	}); err != nil {
		e.rollback(txnID, logger)
		return err
	}

	logger.Info("transaction_committed")
	return nil
}

func (e *Executor) rollback(txnID string, logger observability.Logger) {
	if err := e.conn.Rollback(txnID); err != nil {
		logger.Warn("transaction_rollback_failed", observability.F("error", err.Error()))
		return
	}
	logger.Info("transaction_rolled_back")
}

// Connection exposes the underlying dependency handle for status endpoints.
func (e *Executor) Connection() *Connection { return e.conn }
