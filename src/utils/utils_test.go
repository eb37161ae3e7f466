package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"5", "5.00"},
		{"999.999", "1,000.00"},
		{"1234.5", "1,234.50"},
		{"105000", "105,000.00"},
		{"1234567.891", "1,234,567.89"},
		{"-42500.75", "-42,500.75"},
		{"146925.412003125", "146,925.41"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatCurrency(decimal.RequireFromString(tc.in)), "input %s", tc.in)
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "11.75%", FormatPercent(decimal.RequireFromString("11.75")))
	assert.Equal(t, "10.00%", FormatPercent(decimal.RequireFromString("10")))
	assert.Equal(t, "0.00%", FormatPercent(decimal.Zero))
}

func TestRoundFloat(t *testing.T) {
	assert.Equal(t, 1.23, RoundFloat(1.2345, 2))
	assert.Equal(t, -1.23, RoundFloat(-1.2345, 2))
	assert.Equal(t, 100.0, RoundFloat(99.999, 2))
}
