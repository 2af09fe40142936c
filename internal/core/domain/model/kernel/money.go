package kernel

import (
	"fmt"
	"strings"

	"tradeflow/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when neither the order payload nor its source names one.
const DefaultCurrency = "USD"

// Money is a non-negative decimal amount in an ISO-4217 currency.
// Amounts are kept at full precision and rounded to cents only on output.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney validates amount >= 0 and normalises the currency code.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if amount.IsNegative() {
		return Money{}, errs.NewValueIsInvalidErrorWithCause("amount", fmt.Errorf("%s is negative", amount))
	}
	return Money{amount: amount, currency: NormalizeCurrency(currency)}, nil
}

// ZeroMoney returns 0 in the given currency.
func ZeroMoney(currency string) Money {
	return Money{amount: decimal.Zero, currency: NormalizeCurrency(currency)}
}

func (m Money) Amount() decimal.Decimal {
	return m.amount
}

func (m Money) Currency() string {
	if m.currency == "" {
		return DefaultCurrency
	}
	return m.currency
}

// Rounded returns the amount rounded half-up to two decimals.
func (m Money) Rounded() decimal.Decimal {
	return m.amount.Round(2)
}

func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// Add sums two amounts; the receiver's currency wins.
func (m Money) Add(amount decimal.Decimal) Money {
	return Money{amount: m.amount.Add(amount), currency: m.Currency()}
}

func (m Money) String() string {
	return m.Rounded().StringFixed(2) + " " + m.Currency()
}

// NormalizeCurrency picks the first non-blank candidate, upper-cases it and
// truncates it to three letters. Falls back to DefaultCurrency.
func NormalizeCurrency(candidates ...string) string {
	for _, c := range candidates {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if len(c) > 3 {
			c = c[:3]
		}
		return c
	}
	return DefaultCurrency
}
