package escrow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSynthesizeHash_PrefersSignature(t *testing.T) {
	assert.Equal(t, "0xsig123", synthesizeHash("sig123", 5, 1000, "seed"))
}

func TestSynthesizeHash_FallsBackToNonceTimestampComposite(t *testing.T) {
	got := synthesizeHash("", 5, 1000, "seed")
	assert.NotEqual(t, "hash-unavailable", got)
	assert.Regexp(t, "^0x[0-9a-f]+$", got)
}

func TestSynthesizeHash_FallsBackToSeedDigest(t *testing.T) {
	got := synthesizeHash("", 0, 0, "esc_123")
	assert.NotEqual(t, "hash-unavailable", got)
	assert.Regexp(t, "^0x[0-9a-f]{64}$", got)
}

func TestSynthesizeHash_MarksUnavailableWhenNothingToGoOn(t *testing.T) {
	assert.Equal(t, "hash-unavailable", synthesizeHash("", 0, 0, ""))
}
