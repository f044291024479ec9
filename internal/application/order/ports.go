package order

// IDGenerator produces unique identifiers for payment records.
type IDGenerator interface {
	NewID() string
}
