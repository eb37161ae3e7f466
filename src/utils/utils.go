package utils

import (
	"encoding/json"
	"math"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fortivest/quotations/backend/src/logger"
)

// SendJSONError writes a JSON error body with the given status code.
func SendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		logger.L.Error("Error encoding JSON error response", "error", err)
	}
}

// RoundFloat rounds val to the given number of decimal places.
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// FormatCurrency renders a monetary amount with two decimals and thousands
// separators, e.g. "1,234,567.89". Rounding happens here, at display time.
func FormatCurrency(amount decimal.Decimal) string {
	s := amount.StringFixed(2)

	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")

	var sb strings.Builder
	if negative {
		sb.WriteByte('-')
	}
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(d)
	}
	sb.WriteByte('.')
	sb.WriteString(fracPart)
	return sb.String()
}

// FormatPercent renders a rate percentage with two decimals and a sign,
// e.g. "11.75%".
func FormatPercent(rate decimal.Decimal) string {
	return rate.StringFixed(2) + "%"
}
