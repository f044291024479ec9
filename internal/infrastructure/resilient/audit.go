package resilient

import (
	"sync"
	"time"
)

// Step is one named entry in a payment attempt's audit trail.
type Step struct {
	Name   string    `json:"step"`
	Detail string    `json:"description,omitempty"`
	At     time.Time `json:"timestamp"`
}

// AuditTrail stores the ordered steps recorded per payment id. Callers use it
// to tell "failed before any money moved" apart from "failed after partial
// commitment".
type AuditTrail struct {
	mu    sync.RWMutex
	steps map[string][]Step
}

func NewAuditTrail() *AuditTrail {
	return &AuditTrail{steps: make(map[string][]Step)}
}

func (t *AuditTrail) Record(paymentID, step, detail string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.steps[paymentID] = append(t.steps[paymentID], Step{
		Name:   step,
		Detail: detail,
		At:     time.Now().UTC(),
	})
}

// Steps returns a copy of the trail for the given payment id, oldest first.
func (t *AuditTrail) Steps(paymentID string) []Step {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Step(nil), t.steps[paymentID]...)
}
