package domain

import (
	"fmt"
	"strings"

	"github.com/SscSPs/booking_settlement/internal/apperrors"
	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 currency code.
type Currency string

// supportedCurrencies maps each accepted code to its number of minor units.
var supportedCurrencies = map[Currency]int32{
	"AUD": 2,
	"CAD": 2,
	"CHF": 2,
	"DKK": 2,
	"EUR": 2,
	"GBP": 2,
	"JPY": 0,
	"KES": 2,
	"MXN": 2,
	"NOK": 2,
	"NZD": 2,
	"SEK": 2,
	"USD": 2,
	"ZAR": 2,
}

// ParseCurrency normalizes and validates a currency code.
func ParseCurrency(code string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	if len(c) != 3 {
		return "", fmt.Errorf("%w: currency code %q must have 3 letters", apperrors.ErrInvalidAmount, code)
	}
	if _, ok := supportedCurrencies[c]; !ok {
		return "", fmt.Errorf("%w: currency %q is not supported", apperrors.ErrInvalidAmount, code)
	}
	return c, nil
}

// MinorUnits returns the number of decimal places used when displaying the currency.
func (c Currency) MinorUnits() int32 {
	return supportedCurrencies[c]
}

// Money is a non-negative amount of integer minor units ("cents") in a single currency.
// The zero value is not a valid Money; use NewMoney.
type Money struct {
	cents    int64
	currency Currency
}

// NewMoney validates and builds a Money value.
func NewMoney(cents int64, currency string) (Money, error) {
	if cents < 0 {
		return Money{}, fmt.Errorf("%w: %d cents is negative", apperrors.ErrInvalidAmount, cents)
	}
	c, err := ParseCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	return Money{cents: cents, currency: c}, nil
}

// MustMoney is NewMoney for constants known to be valid; it panics otherwise.
func MustMoney(cents int64, currency string) Money {
	m, err := NewMoney(cents, currency)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Cents() int64 { return m.cents }
func (m Money) Currency() Currency { return m.currency }
func (m Money) IsZero() bool { return m.cents == 0 }

func (m Money) sameCurrency(o Money) error {
	if m.currency != o.currency {
		return fmt.Errorf("%w: %s vs %s", apperrors.ErrCurrencyMismatch, m.currency, o.currency)
	}
	return nil
}

// Add returns m + o.
func (m Money) Add(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return Money{cents: m.cents + o.cents, currency: m.currency}, nil
}

// Subtract returns m - o. A negative result is an InvalidAmount error.
func (m Money) Subtract(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	if o.cents > m.cents {
		return Money{}, fmt.Errorf("%w: cannot subtract %d from %d", apperrors.ErrInvalidAmount, o.cents, m.cents)
	}
	return Money{cents: m.cents - o.cents, currency: m.currency}, nil
}

// MultiplyByRate returns m * rate rounded half away from zero to whole cents.
// This is the only place fee rounding happens.
func (m Money) MultiplyByRate(rate decimal.Decimal) (Money, error) {
	if rate.IsNegative() {
		return Money{}, fmt.Errorf("%w: rate %s is negative", apperrors.ErrInvalidAmount, rate)
	}
	// decimal.Round rounds half away from zero.
	product := decimal.NewFromInt(m.cents).Mul(rate).Round(0)
	if !product.IsInteger() {
		return Money{}, fmt.Errorf("%w: rounding produced fractional cents", apperrors.ErrInvalidAmount)
	}
	return Money{cents: product.IntPart(), currency: m.currency}, nil
}

// SplitFee splits m into the fee taken at rate and the remainder.
// fee + remainder always equals m exactly.
func (m Money) SplitFee(rate decimal.Decimal) (fee Money, remainder Money, err error) {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return Money{}, Money{}, fmt.Errorf("%w: fee rate %s must be between 0 and 1", apperrors.ErrInvalidAmount, rate)
	}
	fee, err = m.MultiplyByRate(rate)
	if err != nil {
		return Money{}, Money{}, err
	}
	remainder, err = m.Subtract(fee)
	if err != nil {
		return Money{}, Money{}, err
	}
	return fee, remainder, nil
}

// LessThan compares amounts of the same currency.
func (m Money) LessThan(o Money) (bool, error) {
	if err := m.sameCurrency(o); err != nil {
		return false, err
	}
	return m.cents < o.cents, nil
}

// GreaterThan compares amounts of the same currency.
func (m Money) GreaterThan(o Money) (bool, error) {
	if err := m.sameCurrency(o); err != nil {
		return false, err
	}
	return m.cents > o.cents, nil
}

// Decimal returns the amount in major units, e.g. 8500 EUR cents -> 85.00.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.cents, -m.currency.MinorUnits())
}

// String formats the amount with the currency precision, e.g. "85.00 EUR".
func (m Money) String() string {
	return m.Decimal().StringFixed(m.currency.MinorUnits()) + " " + string(m.currency)
}
