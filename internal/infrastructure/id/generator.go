package id

import "github.com/google/uuid"

// Generator produces unique identifiers for payments and transactions.
type Generator struct{}

func NewUUIDGenerator() Generator { return Generator{} }

func (Generator) NewID() string { return uuid.NewString() }
