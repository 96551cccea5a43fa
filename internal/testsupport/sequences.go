package testsupport

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Global counter for generating unique sequential IDs in tests
var testSequence atomic.Uint64

func init() {
	// Start from the clock so parallel packages sharing a database do not collide
	testSequence.Store(uint64(time.Now().UnixNano() % 1000000))
}

// NextSequence returns next unique sequence number
func NextSequence() uint64 {
	return testSequence.Add(1)
}

// UniqueName generates a unique name with given prefix
// Example: UniqueName("voter") -> "voter_123456"
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, NextSequence())
}

// UniqueSymbol generates a ticker that no real watchlist uses, e.g. "T123456"
func UniqueSymbol() string {
	return fmt.Sprintf("T%d", NextSequence()%10000000)
}
