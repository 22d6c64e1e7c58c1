// Package random provides cryptographically secure randomization for DNS
// queries. Predictable transaction IDs let an off-path attacker spoof
// upstream responses, so math/rand is never an option here.
package random

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// TransactionID generates a random 16-bit DNS transaction ID.
func TransactionID() uint16 {
	var buf [2]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// Proceeding with predictable IDs would silently break the
		// spoofing defense, so failing hard is the right call.
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return binary.BigEndian.Uint16(buf[:])
}
