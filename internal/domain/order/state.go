package order

import (
	"errors"
	"fmt"
)

var ErrInvalidState = errors.New("order: invalid state transition")

type Status string

const (
	StatusCreated   Status = "created"
	StatusConfirmed Status = "confirmed"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type action string

const (
	actionConfirm  action = "confirm"
	actionPay      action = "pay"
	actionShip     action = "ship"
	actionComplete action = "complete"
	actionCancel   action = "cancel"
)

// transitions is the single transition table for the order lifecycle:
// current status x action -> next status. Every guard in the workflow goes
// through this table, so an illegal transition has exactly one code path.
var transitions = map[Status]map[action]Status{
	StatusCreated: {
		actionConfirm: StatusConfirmed,
		actionCancel:  StatusCancelled,
	},
	StatusConfirmed: {
		actionPay:    StatusPaid,
		actionCancel: StatusCancelled,
	},
	StatusPaid: {
		actionShip:   StatusShipped,
		actionCancel: StatusCancelled,
	},
	StatusShipped: {
		actionComplete: StatusCompleted,
	},
	StatusCompleted: {},
	StatusCancelled: {},
}

func (o *Order) apply(a action) error {
	if err := o.can(a); err != nil {
		return err
	}
	o.Status = transitions[o.Status][a]
	o.touch()
	return nil
}

func (o *Order) can(a action) error {
	if _, ok := transitions[o.Status][a]; !ok {
		return fmt.Errorf("%w: cannot %s order %s in status %s", ErrInvalidState, a, o.ID, o.Status)
	}
	return nil
}

// CanPay checks the pay guard without applying it, so the workflow can
// reject before creating a payment record.
func (o *Order) CanPay() error { return o.can(actionPay) }
