// Package uuid is a simple id generator that allows mocking
package uuid

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator is an interface for generating ids
type Generator interface {
	New() string
}

// GoogleUUIDGenerator implements the Generator interface using Google's UUID package
type GoogleUUIDGenerator struct{}

// New generates a new UUID string
func (g *GoogleUUIDGenerator) New() string {
	return uuid.New().String()
}

// NewGoogleUUIDGenerator creates a new GoogleUUIDGenerator
func NewGoogleUUIDGenerator() *GoogleUUIDGenerator {
	return &GoogleUUIDGenerator{}
}

// SequentialGenerator produces predictable ids for tests
type SequentialGenerator struct {
	Prefix string
	next   int
}

// New returns "<prefix>-N" with N incrementing from 1
func (g *SequentialGenerator) New() string {
	g.next++
	return fmt.Sprintf("%s-%d", g.Prefix, g.next)
}
