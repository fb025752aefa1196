package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Money is an amount in the smallest currency unit (kopecks, cents).
// All arithmetic is integer-only.
//
//   - RUB(199000) = 1990.00 ₽
//   - USD(4900) = $49.00
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"` // ISO 4217, lowercase
}

// RUB creates a Money value in Russian rubles (kopecks).
func RUB(kopecks int64) Money { return Money{Amount: kopecks, Currency: "rub"} }

// USD creates a Money value in US dollars (cents).
func USD(cents int64) Money { return Money{Amount: cents, Currency: "usd"} }

// EUR creates a Money value in euros (cents).
func EUR(cents int64) Money { return Money{Amount: cents, Currency: "eur"} }

// Zero returns a zero Money value in the given currency.
func Zero(currency string) Money { return Money{Currency: strings.ToLower(currency)} }

// Add adds two Money values. Panics if currencies don't match.
func (m Money) Add(other Money) Money {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money: currency mismatch: %s != %s", m.Currency, other.Currency))
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}
}

// IsPositive returns true if the amount is greater than zero.
func (m Money) IsPositive() bool { return m.Amount > 0 }

// Equal reports whether amount and currency match.
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

// CurrencyCode returns the uppercase ISO code payment providers expect.
func (m Money) CurrencyCode() string { return strings.ToUpper(m.Currency) }

// Major returns the amount in major units, truncating the minor part.
func (m Money) Major() int64 {
	return m.Amount / pow10(currencyDecimals(m.Currency))
}

// FormatMajor returns the amount in major units without a symbol:
// "1990.00" for RUB(199000), "100" for zero-decimal currencies.
func (m Money) FormatMajor() string {
	decimals := currencyDecimals(m.Currency)
	if decimals == 0 {
		return fmt.Sprintf("%d", m.Amount)
	}

	abs := m.Amount
	sign := ""
	if abs < 0 {
		abs = -abs
		sign = "-"
	}
	divisor := pow10(decimals)
	return fmt.Sprintf("%s%d.%0*d", sign, abs/divisor, decimals, abs%divisor)
}

// String renders the amount with its currency symbol. Ruble amounts put
// the symbol after the number.
func (m Money) String() string {
	if m.Currency == "rub" {
		return m.FormatMajor() + " ₽"
	}
	return currencySymbol(m.Currency) + m.FormatMajor()
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{
		Amount:   m.Amount,
		Currency: m.Currency,
		Display:  m.String(),
	})
}

func currencySymbol(currency string) string {
	symbols := map[string]string{
		"usd": "$",
		"eur": "€",
		"gbp": "£",
	}
	if sym, ok := symbols[strings.ToLower(currency)]; ok {
		return sym
	}
	return strings.ToUpper(currency) + " "
}

func currencyDecimals(currency string) int {
	zeroDecimal := map[string]bool{
		"jpy": true,
		"krw": true,
		"vnd": true,
	}
	if zeroDecimal[strings.ToLower(currency)] {
		return 0
	}
	return 2
}

func pow10(n int) int64 {
	v := int64(1)
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}
