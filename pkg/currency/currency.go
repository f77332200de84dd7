// Package currency normalises ISO 4217 codes and renders amounts for
// notification text. There is no conversion between currencies.
package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is an upper-case ISO 4217 code.
type Currency string

const (
	INR Currency = "INR"
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	SGD Currency = "SGD"
	AED Currency = "AED"
)

// Default is applied to accounts created without a currency.
const Default = INR

type info struct {
	symbol   string
	decimals int32
}

var known = map[Currency]info{
	INR: {symbol: "₹", decimals: 2},
	USD: {symbol: "$", decimals: 2},
	EUR: {symbol: "€", decimals: 2},
	GBP: {symbol: "£", decimals: 2},
	JPY: {symbol: "¥", decimals: 0},
	SGD: {symbol: "S$", decimals: 2},
	AED: {symbol: "AED ", decimals: 2},
}

// Normalize upper-cases code and substitutes Default for an empty value.
func Normalize(code string) Currency {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return Default
	}
	return Currency(code)
}

// IsValid reports whether code is a three-letter alphabetic code. Codes
// outside the symbol table are accepted and formatted with their code.
func IsValid(code string) bool {
	c := string(Normalize(code))
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// Format renders amount for human-readable messages, e.g. "₹1,250.50".
func Format(amount decimal.Decimal, code Currency) string {
	if amount.IsNegative() {
		return "-" + Format(amount.Neg(), code)
	}
	inf, ok := known[code]
	if !ok {
		return fmt.Sprintf("%s %s", groupThousands(amount.StringFixed(2)), code)
	}
	return inf.symbol + groupThousands(amount.Round(inf.decimals).StringFixed(inf.decimals))
}

func groupThousands(s string) string {
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	if len(intPart) <= 3 {
		return intPart + frac
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return b.String() + frac
}
