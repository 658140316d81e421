// Package types provides common type aliases and utilities.
package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// Percent returns part/whole*100 rounded to 2 places, or zero when whole is zero.
func Percent(part, whole Money) Money {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(2)
}

// Quantity is a fixed-point quantity with 4 decimal places (scale = 1e4).
//
// Matches Postgres NUMERIC(15,4) semantics without floating point errors and
// is stored as a scaled BIGINT. Used for raw material stock, lot quantities
// and recipe amounts (kg, l, pcs).
type Quantity int64

const QuantityScale int64 = 10_000

// maxQuantityUnits is the largest whole-unit magnitude accepted from input.
const maxQuantityUnits int64 = 100_000_000_000

// MaxQuantity bounds parsed quantities so that sums and small multiples
// stay inside int64.
const MaxQuantity = Quantity(maxQuantityUnits * QuantityScale)

// ErrQuantityOutOfRange is returned when a quantity would exceed int64 scaling.
var ErrQuantityOutOfRange = errors.New("quantity out of range")

func NewQuantityFromFloat64(v float64) Quantity {
	return Quantity(math.Round(v * float64(QuantityScale)))
}

// NewQuantity creates a whole-unit quantity (5 -> 5.0000).
func NewQuantity(units int64) Quantity { return Quantity(units * QuantityScale) }

// NewQuantityFromDecimal rounds d to 4 places.
func NewQuantityFromDecimal(d decimal.Decimal) Quantity {
	return Quantity(d.Shift(4).Round(0).IntPart())
}

// MustQuantity parses s, panics on error. Use only for constants and tests.
func MustQuantity(s string) Quantity {
	q, err := ParseQuantity(s)
	if err != nil {
		panic(err)
	}
	return q
}

// Decimal returns the exact decimal value of q.
func (q Quantity) Decimal() decimal.Decimal { return decimal.New(int64(q), -4) }

func (q Quantity) IsZero() bool { return q == 0 }

func (q Quantity) IsPositive() bool { return q > 0 }

func (q Quantity) IsNegative() bool { return q < 0 }

func (q Quantity) Neg() Quantity { return -q }

func (q Quantity) Abs() Quantity {
	if q < 0 {
		return -q
	}
	return q
}

// MulInt scales q by a whole multiplier (recipe amount x portions sold).
func (q Quantity) MulInt(n int64) (Quantity, error) {
	if q == 0 || n == 0 {
		return 0, nil
	}
	r := q * Quantity(n)
	if r/Quantity(n) != q || (n == -1 && q == math.MinInt64) {
		return 0, fmt.Errorf("%s x %d: %w", q, n, ErrQuantityOutOfRange)
	}
	return r, nil
}

// Add returns q+o, failing instead of wrapping around.
func (q Quantity) Add(o Quantity) (Quantity, error) {
	r := q + o
	if (o > 0 && r < q) || (o < 0 && r > q) {
		return 0, fmt.Errorf("%s + %s: %w", q, o, ErrQuantityOutOfRange)
	}
	return r, nil
}

// Cost prices q at unitCost per whole unit.
func (q Quantity) Cost(unitCost Money) Money {
	return q.Decimal().Mul(unitCost)
}

// MinQuantity returns the smaller of a and b.
func MinQuantity(a, b Quantity) Quantity {
	if a < b {
		return a
	}
	return b
}

// String returns a decimal string with 4 fractional digits.
func (q Quantity) String() string {
	neg := q < 0
	v := q
	if neg {
		v = -v
	}
	intPart := int64(v) / QuantityScale
	frac := int64(v) % QuantityScale
	if neg {
		return fmt.Sprintf("-%d.%04d", intPart, frac)
	}
	return fmt.Sprintf("%d.%04d", intPart, frac)
}

// MarshalJSON encodes Quantity as JSON number (not string), preserving 4 digits.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalJSON accepts either a JSON number or string and parses to fixed-point (4 digits).
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*q = 0
		return nil
	}

	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseQuantity(s)
		if err != nil {
			return err
		}
		*q = parsed
		return nil
	}

	parsed, err := ParseQuantity(string(data))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// ParseQuantity parses a decimal string into a Quantity, truncating past 4 places.
// Values beyond MaxQuantity in either direction are rejected.
func ParseQuantity(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty quantity")
	}

	// Exponent form goes through float parsing.
	if strings.ContainsAny(s, "eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("parse quantity: %w", err)
		}
		if math.IsNaN(f) || math.Abs(f) > float64(maxQuantityUnits) {
			return 0, fmt.Errorf("parse quantity %q: %w", s, ErrQuantityOutOfRange)
		}
		return NewQuantityFromFloat64(f), nil
	}

	sign := int64(1)
	if strings.HasPrefix(s, "-") {
		sign = -1
		s = strings.TrimPrefix(s, "-")
	} else if strings.HasPrefix(s, "+") {
		s = strings.TrimPrefix(s, "+")
	}

	intPartStr, fracStr, _ := strings.Cut(s, ".")
	if intPartStr == "" && fracStr == "" {
		return 0, fmt.Errorf("parse quantity %q: no digits", s)
	}
	if !isDigits(intPartStr) || !isDigits(fracStr) {
		return 0, fmt.Errorf("parse quantity %q: invalid digits", s)
	}

	if intPartStr == "" {
		intPartStr = "0"
	}
	intPart, err := strconv.ParseInt(intPartStr, 10, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("parse quantity integer part: %w", err)
	}
	if err != nil || intPart > maxQuantityUnits {
		return 0, fmt.Errorf("parse quantity %q: %w", s, ErrQuantityOutOfRange)
	}

	if len(fracStr) > 4 {
		fracStr = fracStr[:4]
	}
	for len(fracStr) < 4 {
		fracStr += "0"
	}
	frac, err := strconv.ParseInt(fracStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse quantity fractional part: %w", err)
	}

	q := Quantity(sign * (intPart*QuantityScale + frac))
	if q.Abs() > MaxQuantity {
		return 0, fmt.Errorf("parse quantity %q: %w", s, ErrQuantityOutOfRange)
	}
	return q, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
