package escrow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToUnits_ConvertsDecimalToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(150), ToUnits("1.50"))
	assert.Equal(t, int64(100), ToUnits("1"))
}

func TestToUnits_NegativeAndMalformedConvertToZero(t *testing.T) {
	assert.Equal(t, int64(0), ToUnits("-1.50"))
	assert.Equal(t, int64(0), ToUnits("not-a-number"))
	assert.Equal(t, int64(0), ToUnits(""))
}

func TestFromUnits_StringifiesTwoDecimals(t *testing.T) {
	assert.Equal(t, "1.50", FromUnits(150))
	assert.Equal(t, "0.05", FromUnits(5))
}
