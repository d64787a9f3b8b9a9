package domain

import (
	"fmt"
	"math"
	"strings"
)

const minorUnitsPerMajor = 100

// currencySymbols maps ISO currency codes to display symbols.
// Codes without an entry are rendered as a suffix.
//
//nolint:gochecknoglobals // Static lookup table
var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// Money is an immutable monetary amount stored in integer minor units
// (cents for USD). All arithmetic stays in integers; conversion to and
// from decimal is an explicit, lossy boundary operation.
type Money struct {
	amount   int64
	currency string
}

// NewMoney creates a Money value from an amount in minor units.
func NewMoney(amount int64, currency string) Money {
	return Money{
		amount:   amount,
		currency: strings.ToUpper(currency),
	}
}

// MoneyFromFloat converts a decimal major-unit value into Money,
// rounding half away from zero. This is the lossy entry boundary.
func MoneyFromFloat(value float64, currency string) Money {
	return NewMoney(int64(math.Round(value*minorUnitsPerMajor)), currency)
}

// Amount returns the amount in minor units.
func (m Money) Amount() int64 {
	return m.amount
}

// Currency returns the ISO currency code.
func (m Money) Currency() string {
	return m.currency
}

// Float64 converts the amount to decimal major units. This is the lossy
// exit boundary used for feature extraction and display only.
func (m Money) Float64() float64 {
	return float64(m.amount) / minorUnitsPerMajor
}

// Add returns the sum of two amounts in the same currency.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.currency, other.currency)
	}
	return Money{amount: m.amount + other.amount, currency: m.currency}, nil
}

// Cmp compares two amounts in the same currency.
// Returns -1, 0 or 1; an error on currency mismatch.
func (m Money) Cmp(other Money) (int, error) {
	if m.currency != other.currency {
		return 0, fmt.Errorf("currency mismatch: %s vs %s", m.currency, other.currency)
	}

	switch {
	case m.amount < other.amount:
		return -1, nil
	case m.amount > other.amount:
		return 1, nil
	default:
		return 0, nil
	}
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.amount == 0
}

// String formats the amount for display, e.g. "$12.99" or "12.99 SEK".
func (m Money) String() string {
	major := m.amount / minorUnitsPerMajor
	minor := m.amount % minorUnitsPerMajor
	if minor < 0 {
		minor = -minor
	}

	sign := ""
	if m.amount < 0 {
		sign = "-"
		if major < 0 {
			major = -major
		}
	}

	if symbol, ok := currencySymbols[m.currency]; ok {
		return fmt.Sprintf("%s%s%d.%02d", sign, symbol, major, minor)
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, major, minor, m.currency)
}
