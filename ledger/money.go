/*
money.go - Fixed-precision monetary amounts

PURPOSE:
  Every amount flowing through the posting engine is a Money value:
  an arbitrary-precision decimal carried at a fixed internal precision.
  Binary floating point is never used for amounts - a posting that is
  off by 2^-40 is an unbalanced posting.

INTERNAL vs DISPLAY PRECISION:
  Amounts are computed and compared at the internal precision
  (default 11 fraction digits). Display precision (default 2) only
  matters for rendering and for the round-off tolerance: the smallest
  display fraction is the largest difference a posting is allowed to
  absorb into the round-off account.

WHY ROUND AFTER MUL/DIV:
  Addition and subtraction of fixed-scale decimals are exact, but
  multiplication and division grow the scale without bound. Rounding
  the result back to the internal precision keeps every amount on the
  same grid, so equality checks between independently computed totals
  behave predictably.

USAGE:
  rate := ledger.MustMoney("99.995")
  qty := ledger.FromInt(2)
  total := rate.Mul(qty)       // exactly 199.99
  total.Eq(other)              // exact comparison, no epsilon

SEE ALSO:
  - posting.go: balance checks built on Money comparisons
  - types.go: Entry rows carrying one-sided Money amounts
*/
package ledger

import (
	"github.com/shopspring/decimal"
)

// InternalPrecision is the number of fraction digits amounts are
// carried at. Chosen to comfortably exceed any display currency.
const InternalPrecision = 11

// DisplayPrecision is the default number of fraction digits shown to
// users; it also defines the round-off tolerance.
const DisplayPrecision = 2

// Money is a fixed-precision decimal amount.
//
// The zero value is a valid zero amount.
type Money struct {
	value decimal.Decimal
}

// Zero returns a zero amount.
func Zero() Money {
	return Money{}
}

// FromString parses a decimal string into Money.
func FromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{value: d.Round(InternalPrecision)}, nil
}

// MustMoney parses a decimal string and panics on failure.
// For literals in tests and seed data only.
func MustMoney(s string) Money {
	m, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

// FromFloat converts a float64 into Money. Use only at system
// boundaries (JSON input); internal code should stay in Money.
func FromFloat(f float64) Money {
	return Money{value: decimal.NewFromFloat(f).Round(InternalPrecision)}
}

// FromInt converts an integer into Money.
func FromInt(n int64) Money {
	return Money{value: decimal.NewFromInt(n)}
}

// Add returns m + b. Exact.
func (m Money) Add(b Money) Money { return Money{value: m.value.Add(b.value)} }

// Sub returns m - b. Exact.
func (m Money) Sub(b Money) Money { return Money{value: m.value.Sub(b.value)} }

// Mul returns m * b rounded to the internal precision.
func (m Money) Mul(b Money) Money {
	return Money{value: m.value.Mul(b.value).Round(InternalPrecision)}
}

// Div returns m / b rounded to the internal precision.
func (m Money) Div(b Money) Money {
	return Money{value: m.value.DivRound(b.value, InternalPrecision)}
}

// Neg returns -m.
func (m Money) Neg() Money { return Money{value: m.value.Neg()} }

// Abs returns |m|.
func (m Money) Abs() Money { return Money{value: m.value.Abs()} }

func (m Money) IsZero() bool     { return m.value.IsZero() }
func (m Money) IsNegative() bool { return m.value.IsNegative() }
func (m Money) IsPositive() bool { return m.value.IsPositive() }

func (m Money) Eq(b Money) bool  { return m.value.Equal(b.value) }
func (m Money) Lt(b Money) bool  { return m.value.LessThan(b.value) }
func (m Money) Gt(b Money) bool  { return m.value.GreaterThan(b.value) }
func (m Money) Lte(b Money) bool { return m.value.LessThanOrEqual(b.value) }
func (m Money) Gte(b Money) bool { return m.value.GreaterThanOrEqual(b.value) }

// Round returns m rounded to the given number of fraction digits.
// Used for display; never feed the result back into balance math.
func (m Money) Round(places int32) Money {
	return Money{value: m.value.Round(places)}
}

// String renders the amount at full internal precision with trailing
// zeros trimmed.
func (m Money) String() string { return m.value.String() }

// Display renders the amount at the default display precision.
func (m Money) Display() string { return m.value.StringFixed(DisplayPrecision) }

// SmallestFraction returns 10^-places, the round-off tolerance for a
// currency displayed with that many fraction digits.
func SmallestFraction(places int32) Money {
	return Money{value: decimal.New(1, -places)}
}

// MarshalJSON encodes the amount as a JSON string to avoid float
// round-tripping in clients.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.value.String() + `"`), nil
}

// UnmarshalJSON accepts either a JSON string or a bare number.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		*m = Zero()
		return nil
	}
	parsed, err := FromString(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
