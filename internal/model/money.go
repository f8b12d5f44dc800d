package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Money is an amount in US cents.
// Amounts are integers so that billed = paid + adjustments + outstanding
// can be checked exactly.
type Money int64

// ErrAmountOutOfRange is returned when an amount does not fit in Money.
var ErrAmountOutOfRange = errors.New("money amount out of range")

// maxCents bounds decoded amounts to ±math.MaxInt64 cents.
const maxCents = float64(math.MaxInt64)

// currencyPrinter formats numbers with US digit grouping.
var currencyPrinter = message.NewPrinter(language.AmericanEnglish)

// Dollars converts a dollar amount to Money, rounding to the nearest cent.
func Dollars(d float64) Money {
	return Money(math.Round(d * 100))
}

// FromDollars is Dollars for decoded input. Amounts that are not finite or
// whose cents fall outside ±math.MaxInt64 return ErrAmountOutOfRange.
func FromDollars(d float64) (Money, error) {
	cents := math.Round(d * 100)
	if math.IsNaN(cents) || cents >= maxCents || cents <= -maxCents {
		return 0, fmt.Errorf("%w: %g", ErrAmountOutOfRange, d)
	}
	return Money(cents), nil
}

// magnitude returns the sign prefix and absolute value of m.
// It is exact for math.MinInt64.
func (m Money) magnitude() (string, uint64) {
	if m < 0 {
		return "-", uint64(-(m + 1)) + 1
	}
	return "", uint64(m)
}

// Float returns the amount in dollars.
func (m Money) Float() float64 {
	return float64(m) / 100
}

// IsZero reports whether the amount is zero.
// A zero amount is treated as "not populated" throughout the model.
func (m Money) IsZero() bool {
	return m == 0
}

// String formats the amount as "$6,290.00".
func (m Money) String() string {
	sign, v := m.magnitude()
	return sign + "$" + currencyPrinter.Sprintf("%d", v/100) + fmt.Sprintf(".%02d", v%100)
}

// Whole formats the amount without cents, e.g. "$100,000".
// Policy limits are whole dollars; any cents are truncated.
func (m Money) Whole() string {
	sign, v := m.magnitude()
	return sign + "$" + currencyPrinter.Sprintf("%d", v/100)
}

// Scale multiplies the amount by f, rounding to the nearest cent.
func (m Money) Scale(f float64) Money {
	return Money(math.Round(float64(m) * f))
}

// RoundTo rounds the amount to the nearest multiple of step.
func (m Money) RoundTo(step Money) Money {
	if step <= 0 {
		return m
	}
	return Money(math.Round(float64(m)/float64(step))) * step
}

// Sum adds the given amounts.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total += a
	}
	return total
}

// MarshalJSON encodes the amount as a decimal number with two fraction digits.
func (m Money) MarshalJSON() ([]byte, error) {
	sign, v := m.magnitude()
	return []byte(fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)), nil
}

// UnmarshalJSON accepts a JSON number or a string such as "$6,290.00".
// null and the empty string decode to zero.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseMoney(s)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	}

	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid money amount %s: %w", string(data), err)
	}
	parsed, err := FromDollars(f)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMoney parses "$6,290.00", "6290" or "-$5.00" into Money.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = strings.TrimPrefix(s, "-")
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid money amount %q: %w", s, err)
	}
	if negative {
		f = -f
	}
	return FromDollars(f)
}
