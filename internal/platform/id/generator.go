package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Generator produces the public identifiers stored on pools, participants
// and predictions.
type Generator interface {
	NewID() (string, error)
}

// RandomGenerator emits 32-char hex ids from crypto/rand.
type RandomGenerator struct{}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

func (g *RandomGenerator) NewID() (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	return hex.EncodeToString(buf[:]), nil
}
