package escrow

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_HashNormalizationRoundTrip checks property 9: given the
// same (signature, nonce, timestamp), the adapter always produces the
// same synthesised hash.
func TestProperty_HashNormalizationRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("synthesizeHash is a pure function of its inputs", prop.ForAll(
		func(signature string, nonce, timestamp int64) bool {
			first := synthesizeHash(signature, nonce, timestamp, "seed")
			second := synthesizeHash(signature, nonce, timestamp, "seed")
			return first == second
		},
		gen.AlphaString(),
		gen.Int64Range(-1000, 1000),
		gen.Int64Range(-1000, 1000),
	))

	properties.TestingRun(t)
}
