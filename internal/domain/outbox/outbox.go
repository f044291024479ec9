// Package outbox defines the event ports the workflow publishes through.
// Infrastructure supplies the bus; the domain only names the contract.
package outbox

import "context"

// Event is a domain event identified by name. Names are dot-scoped, e.g.
// "order.paid".
type Event interface {
	EventName() string
}

// Handler consumes one event. Returning an error marks the delivery failed;
// redelivery is up to the bus implementation.
type Handler func(ctx context.Context, e Event) error

// Publisher accepts events for delivery to subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber registers a handler for an event name. Multiple handlers per
// name are allowed.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
