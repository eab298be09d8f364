// Package xid mints prefixed, time-ordered identifiers for ledger records,
// e.g. "sale-1767225600000000000-9f2c4ab1d0e7c3f2".
package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// New returns "<prefix>-<unixnano>-<16 hex chars>". The random suffix keeps
// ids unique even when two records are minted in the same nanosecond.
func New(prefix string) string {
	var suffix [8]byte
	if _, err := rand.Read(suffix[:]); err != nil {
		// Without entropy the timestamp alone still orders and distinguishes
		// records within a single process.
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixNano(), hex.EncodeToString(suffix[:]))
}
