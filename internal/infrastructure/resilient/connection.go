package resilient

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrNotConnected = errors.New("resilient: dependency not connected")
	ErrNoTransaction = errors.New("resilient: unknown transaction handle")
)

type State string

const (
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateError        State = "error"
)

// Connection models the availability of the external system consulted during
// payment processing. It tracks running counters the way a driver would.
type Connection struct {
	mu         sync.Mutex
	state      State
	connects   int
	operations int
	errors     int
	lastErr    string
	open       map[string]struct{}
}

// Info is a point-in-time snapshot of the connection.
type Info struct {
	State       State  `json:"state"`
	Connects    int    `json:"connection_count"`
	Operations  int    `json:"operation_count"`
	Errors      int    `json:"error_count"`
	LastError   string `json:"last_error,omitempty"`
}

func NewConnection() *Connection {
	return &Connection{
		state: StateConnected,
		open:  make(map[string]struct{}),
	}
}

// Connect transitions to connected. Idempotent when already connected.
func (c *Connection) Connect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateConnected {
		return
	}
	c.state = StateConnecting
	c.connects++
	c.state = StateConnected
	c.lastErr = ""
}

func (c *Connection) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateDisconnected
	c.lastErr = "connection manually disconnected"
}

// SimulateFailure forces the connection into the error state.
func (c *Connection) SimulateFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateError
	c.errors++
	c.lastErr = "simulated connection failure"
}

func (c *Connection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateConnected
}

// Check counts an operation attempt and fails when the dependency is
// unreachable.
func (c *Connection) Check() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.operations++
	if c.state != StateConnected {
		c.errors++
		c.lastErr = fmt.Sprintf("dependency not connected, state %s", c.state)
		return fmt.Errorf("%w: state %s", ErrNotConnected, c.state)
	}
	return nil
}

func (c *Connection) Info() Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Info{
		State:      c.state,
		Connects:   c.connects,
		Operations: c.operations,
		Errors:     c.errors,
		LastError:  c.lastErr,
	}
}

// Begin opens a transaction handle. Fails when not connected.
func (c *Connection) Begin() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateConnected {
		return "", fmt.Errorf("%w: cannot begin transaction, state %s", ErrNotConnected, c.state)
	}
	id := "txn-" + uuid.NewString()
	c.open[id] = struct{}{}
	return id, nil
}

func (c *Connection) Commit(txnID string) error {
	return c.finish(txnID)
}

func (c *Connection) Rollback(txnID string) error {
	return c.finish(txnID)
}

func (c *Connection) finish(txnID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateConnected {
		return fmt.Errorf("%w: cannot finish transaction, state %s", ErrNotConnected, c.state)
	}
	if _, ok := c.open[txnID]; !ok {
		return fmt.Errorf("%w: %s", ErrNoTransaction, txnID)
	}
	delete(c.open, txnID)
	return nil
}
