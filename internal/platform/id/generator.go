package id

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates opaque IDs suitable for external references
// (refresh runs, audit events).
type Generator interface {
	NewID() (string, error)
}

// UUIDGenerator issues UUIDv7 strings. The embedded timestamp makes IDs
// sort by creation time, so run and event listings stay in insert order.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}

	return u.String(), nil
}
