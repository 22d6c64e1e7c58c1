package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionID_Varies(t *testing.T) {
	seen := make(map[uint16]struct{})
	for range 64 {
		seen[TransactionID()] = struct{}{}
	}
	// 64 draws from a 16-bit space may collide, but never down to one value.
	assert.Greater(t, len(seen), 1)
}
