package escrow

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// synthesizeHash deterministically names a processed transaction that the
// chain client returned without an explicit top-level hash, per
// the design: prefer the signature, then a nonce/timestamp composite,
// then a content hash derived from whatever identifying material is
// available, and only "hash-unavailable" when none of that exists.
func synthesizeHash(signature string, nonce int64, timestampUnix int64, fallbackSeed string) string {
	if signature != "" {
		return "0x" + signature
	}
	if nonce != 0 || timestampUnix != 0 {
		composite := fmt.Sprintf("%d-%d", nonce, timestampUnix)
		return "0x" + hex.EncodeToString([]byte(composite))
	}
	if fallbackSeed != "" {
		sum := sha3.Sum256([]byte(fallbackSeed))
		return "0x" + hex.EncodeToString(sum[:])
	}
	return "hash-unavailable"
}
