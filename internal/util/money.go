package util

import (
	"fmt"
	"strconv"
	"strings"
)

// Amounts are held as int64 cents everywhere; parsing and formatting happen
// only at the API boundary so sums never go through binary floats.

// ParseAmount converts a decimal string like "12.34" to cents.
// At most two decimal places are accepted.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("amount is empty")
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	var f int64
	if hasFrac {
		if len(frac) == 0 || len(frac) > 2 {
			return 0, fmt.Errorf("amount %q must have at most two decimal places", s)
		}
		f, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		if len(frac) == 1 {
			f *= 10
		}
	}

	cents := w*100 + f
	if neg {
		cents = -cents
	}
	return cents, nil
}

// FormatAmount renders cents as a plain two-decimal string, e.g. 1234 -> "12.34".
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

var currencySymbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
	"BRL": "R$",
}

// FormatCurrency renders cents with the symbol of the given ISO currency,
// falling back to the code itself for unknown currencies.
func FormatCurrency(cents int64, currency string) string {
	sym, ok := currencySymbols[strings.ToUpper(currency)]
	if !ok {
		sym = currency + " "
	}
	return sym + FormatAmount(cents)
}
