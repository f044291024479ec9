package resilient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(autoReconnect bool) Config {
	return Config{MaxAttempts: 3, RetryDelay: time.Millisecond, AutoReconnect: autoReconnect}
}

func TestExecuteSucceedsFirstAttempt(t *testing.T) {
	conn := NewConnection()
	exec := NewExecutor(conn, fastConfig(false), nil, nil)

	calls := 0
	err := exec.Execute(context.Background(), "noop", func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestExecuteExhaustsRetriesAgainstDisconnectedDependency(t *testing.T) {
	conn := NewConnection()
	conn.Disconnect()
	exec := NewExecutor(conn, fastConfig(false), nil, nil)

	calls := 0
	err := exec.Execute(context.Background(), "charge", func(context.Context) error {
		calls++
		return nil
	})

	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, err, ErrNotConnected)
	// Connectivity fails before the operation body ever runs.
	assert.Zero(t, calls)

	info := conn.Info()
	assert.Equal(t, 3, info.Operations)
	assert.Equal(t, 3, info.Errors)
}

func TestExecuteAutoReconnects(t *testing.T) {
	conn := NewConnection()
	conn.Disconnect()
	exec := NewExecutor(conn, fastConfig(true), nil, nil)

	calls := 0
	err := exec.Execute(context.Background(), "charge", func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, conn.IsConnected())
	assert.Equal(t, 1, conn.Info().Connects)
}

func TestExecuteDoesNotRetryOperationErrors(t *testing.T) {
	conn := NewConnection()
	exec := NewExecutor(conn, fastConfig(false), nil, nil)

	sentinel := errors.New("card declined")
	calls := 0
	err := exec.Execute(context.Background(), "charge", func(context.Context) error {
		calls++
		return sentinel
	})

	require.ErrorIs(t, err, ErrOperationFailed)
	require.ErrorIs(t, err, sentinel)
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 1, calls)
}

func TestExecuteTransactionCommits(t *testing.T) {
	conn := NewConnection()
	exec := NewExecutor(conn, fastConfig(false), nil, nil)

	var order []string
	err := exec.ExecuteTransaction(context.Background(), []Operation{
		{Name: "reserve", Do: func(context.Context) error { order = append(order, "reserve"); return nil }},
		{Name: "charge", Do: func(context.Context) error { order = append(order, "charge"); return nil }},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"reserve", "charge"}, order)
}

func TestExecuteTransactionRollsBackOnFailure(t *testing.T) {
	conn := NewConnection()
	exec := NewExecutor(conn, fastConfig(false), nil, nil)

	sentinel := errors.New("charge rejected")
	secondRan := false
	err := exec.ExecuteTransaction(context.Background(), []Operation{
		{Name: "charge", Do: func(context.Context) error { return sentinel }},
		{Name: "never", Do: func(context.Context) error { secondRan = true; return nil }},
	})

	require.ErrorIs(t, err, sentinel)
	assert.False(t, secondRan)

	// Rollback released the handle; the next transaction starts clean.
	require.NoError(t, exec.ExecuteTransaction(context.Background(), []Operation{
		{Name: "noop", Do: func(context.Context) error { return nil }},
	}))
}

func TestExecuteTransactionFailsWhenBeginUnreachable(t *testing.T) {
	conn := NewConnection()
	conn.SimulateFailure()
	exec := NewExecutor(conn, fastConfig(false), nil, nil)

	ran := false
	err := exec.ExecuteTransaction(context.Background(), []Operation{
		{Name: "charge", Do: func(context.Context) error { ran = true; return nil }},
	})

	require.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, ran)
}

func TestConnectionLifecycle(t *testing.T) {
	conn := NewConnection()
	assert.True(t, conn.IsConnected())

	conn.Disconnect()
	assert.False(t, conn.IsConnected())
	require.ErrorIs(t, conn.Check(), ErrNotConnected)

	conn.SimulateFailure()
	info := conn.Info()
	assert.Equal(t, StateError, info.State)
	assert.NotEmpty(t, info.LastError)

	conn.Connect()
	assert.True(t, conn.IsConnected())
	require.NoError(t, conn.Check())
	assert.Empty(t, conn.Info().LastError)

	// Reconnecting while connected is a no-op.
	conn.Connect()
	assert.Equal(t, 1, conn.Info().Connects)
}

func TestTransactionHandlesAreTracked(t *testing.T) {
	conn := NewConnection()

	id, err := conn.Begin()
	require.NoError(t, err)
	require.NoError(t, conn.Commit(id))
	require.ErrorIs(t, conn.Commit(id), ErrNoTransaction)
	require.ErrorIs(t, conn.Rollback("txn-unknown"), ErrNoTransaction)
}

func TestAuditTrailOrdering(t *testing.T) {
	trail := NewAuditTrail()
	trail.Record("PAY-1", "created", "")
	trail.Record("PAY-1", "completed", "")
	trail.Record("PAY-2", "created", "")

	steps := trail.Steps("PAY-1")
	require.Len(t, steps, 2)
	assert.Equal(t, "created", steps[0].Name)
	assert.Equal(t, "completed", steps[1].Name)
	assert.Empty(t, trail.Steps("missing"))
}
