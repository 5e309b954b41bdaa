package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   int64
	}{
		{name: "whole dollars", amount: "20", want: 2000},
		{name: "cents", amount: "48.19", want: 4819},
		{name: "fraction rounds up", amount: "19.999", want: 2000},
		{name: "fraction rounds down", amount: "19.991", want: 1999},
		{name: "half cent rounds away from zero", amount: "10.005", want: 1001},
		{name: "zero", amount: "0", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToMinorUnits(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestToMinorUnitsFromFloatTotal(t *testing.T) {
	// 19.999 * 100 in binary floating point lands just below 1999.9.
	assert.Equal(t, int64(2000), ToMinorUnits(decimal.NewFromFloat(19.999)))
}

func TestFormatting(t *testing.T) {
	amount := decimal.RequireFromString("64.8")
	assert.Equal(t, "$64.80", Format(amount))
	assert.Equal(t, "64.80", Fixed2(amount))
}
