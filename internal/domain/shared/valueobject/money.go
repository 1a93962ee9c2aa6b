package valueobject

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/erp/credit/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	USD Currency = "USD" // US Dollar
	EUR Currency = "EUR" // Euro
	GBP Currency = "GBP" // British Pound
	CNY Currency = "CNY" // Chinese Yuan
	JPY Currency = "JPY" // Japanese Yen
	HKD Currency = "HKD" // Hong Kong Dollar
)

// DefaultCurrency is used when configuration does not name one
const DefaultCurrency = USD

var currencyMinorDigits = map[Currency]int32{
	USD: 2,
	EUR: 2,
	GBP: 2,
	CNY: 2,
	JPY: 0,
	HKD: 2,
}

// IsValid reports whether c is a supported currency
func (c Currency) IsValid() bool {
	_, ok := currencyMinorDigits[c]
	return ok
}

// String returns the ISO code
func (c Currency) String() string {
	return string(c)
}

// MinorDigits returns the number of minor-unit digits of the currency
func (c Currency) MinorDigits() int32 {
	return currencyMinorDigits[c]
}

// ParseCurrency parses an ISO code. Matching is exact: "usd" is rejected.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(s)
	if !c.IsValid() {
		return "", shared.NewCategorizedError(shared.CategoryValidation, shared.ErrInvalidCurrency.Code,
			fmt.Sprintf("unsupported currency %q", s))
	}
	return c, nil
}

// Money is an immutable amount in minor units (cents for USD) tagged with a currency.
// Arithmetic between different currencies fails instead of converting.
type Money struct {
	amount   int64
	currency Currency
}

// NewMoney creates Money from a minor-unit amount
func NewMoney(amount int64, currency Currency) (Money, error) {
	if !currency.IsValid() {
		return Money{}, shared.NewCategorizedError(shared.CategoryValidation, shared.ErrInvalidCurrency.Code,
			fmt.Sprintf("unsupported currency %q", currency))
	}
	return Money{amount: amount, currency: currency}, nil
}

// MustNewMoney is NewMoney for constants and tests; it panics on an invalid currency
func MustNewMoney(amount int64, currency Currency) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero-value Money in the specified currency
func Zero(currency Currency) Money {
	return Money{currency: currency}
}

// Unlimited returns the largest representable amount in the currency
func Unlimited(currency Currency) Money {
	return Money{amount: math.MaxInt64, currency: currency}
}

// Amount returns the minor-unit amount
func (m Money) Amount() int64 {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// Decimal returns the minor-unit amount as a decimal, for ratio arithmetic
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(m.amount)
}

func (m Money) IsZero() bool     { return m.amount == 0 }
func (m Money) IsPositive() bool { return m.amount > 0 }
func (m Money) IsNegative() bool { return m.amount < 0 }

// SameCurrency returns an INVALID_CURRENCY validation error when the currencies differ
func (m Money) SameCurrency(other Money) error {
	if m.currency != other.currency {
		return currencyMismatch(m.currency, other.currency)
	}
	return nil
}

// Add returns m + other
func (m Money) Add(other Money) (Money, error) {
	if err := m.SameCurrency(other); err != nil {
		return Money{}, err
	}
	sum := m.amount + other.amount
	if (other.amount > 0 && sum < m.amount) || (other.amount < 0 && sum > m.amount) {
		return Money{}, overflow()
	}
	return Money{amount: sum, currency: m.currency}, nil
}

// Subtract returns m - other
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.SameCurrency(other); err != nil {
		return Money{}, err
	}
	if other.amount == math.MinInt64 {
		return Money{}, overflow()
	}
	return m.Add(Money{amount: -other.amount, currency: other.currency})
}

// Negate returns -m
func (m Money) Negate() Money {
	return Money{amount: -m.amount, currency: m.currency}
}

// FloorZero returns m, or zero when m is negative
func (m Money) FloorZero() Money {
	if m.amount < 0 {
		return Zero(m.currency)
	}
	return m
}

// Equals returns true if both amount and currency are equal
func (m Money) Equals(other Money) bool {
	return m.amount == other.amount && m.currency == other.currency
}

// Compare returns -1, 0 or 1. It fails on a currency mismatch.
func (m Money) Compare(other Money) (int, error) {
	if err := m.SameCurrency(other); err != nil {
		return 0, err
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

// GreaterThan reports m > other
func (m Money) GreaterThan(other Money) (bool, error) {
	c, err := m.Compare(other)
	return c > 0, err
}

// LessThan reports m < other
func (m Money) LessThan(other Money) (bool, error) {
	c, err := m.Compare(other)
	return c < 0, err
}

// String formats the amount in major units, e.g. "USD 1234.50"
func (m Money) String() string {
	d := decimal.New(m.amount, -m.currency.MinorDigits())
	return fmt.Sprintf("%s %s", m.currency, d.StringFixed(m.currency.MinorDigits()))
}

type moneyJSON struct {
	Amount   int64    `json:"amount"`
	Currency Currency `json:"currency"`
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount, Currency: m.currency})
}

// UnmarshalJSON implements json.Unmarshaler; the currency is parsed strictly
func (m *Money) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid money: %w", err)
	}
	parsed, err := NewMoney(v.Amount, Currency(strings.TrimSpace(string(v.Currency))))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func currencyMismatch(a, b Currency) error {
	return shared.NewCategorizedError(shared.CategoryValidation, shared.ErrInvalidCurrency.Code,
		fmt.Sprintf("currency mismatch: %s and %s", a, b))
}

// ErrAmountOverflow is returned when arithmetic leaves the int64 minor-unit range
var ErrAmountOverflow = shared.NewCategorizedError(shared.CategoryValidation, "AMOUNT_OVERFLOW", "amount out of range")

func overflow() error {
	return ErrAmountOverflow
}
