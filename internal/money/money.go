package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts travel through the core as fixed-point integers in the currency's
// smallest unit. Decimal strings exist only at the API boundary and are
// converted here, exactly, without ever touching a float.

var ErrInvalidAmount = errors.New("invalid amount")

// Decimals per supported currency. Native 18-decimal chains are accounted
// at 9 decimals so amounts stay inside int64 range.
var currencyDecimals = map[string]int32{
	"BTC":  8,
	"ETH":  9,
	"SOL":  9,
	"USDC": 6,
	"USDT": 6,
	"FUN":  2,
}

func Decimals(currency string) (int32, error) {
	const op = "money.Decimals"

	dp, ok := currencyDecimals[strings.ToUpper(currency)]
	if !ok {
		return 0, fmt.Errorf("%s: unsupported currency %q: %w", op, currency, ErrInvalidAmount)
	}

	return dp, nil
}

// ToSmallestUnits converts a decimal string into smallest units. The input
// may carry at most the currency's precision in fractional digits; anything
// beyond that is rejected rather than silently rounded.
func ToSmallestUnits(amount string, currency string) (int64, error) {
	const op = "money.ToSmallestUnits"

	dp, err := Decimals(currency)
	if err != nil {
		return 0, err
	}

	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0, fmt.Errorf("%s: empty amount: %w", op, ErrInvalidAmount)
	}

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("%s: %q: %w", op, amount, ErrInvalidAmount)
	}

	if dec.Exponent() < -dp {
		return 0, fmt.Errorf("%s: %q exceeds %d decimal places: %w", op, amount, dp, ErrInvalidAmount)
	}

	scaled := dec.Shift(dp)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("%s: %q exceeds %d decimal places: %w", op, amount, dp, ErrInvalidAmount)
	}

	if !scaled.BigInt().IsInt64() {
		return 0, fmt.Errorf("%s: %q out of range: %w", op, amount, ErrInvalidAmount)
	}

	return scaled.BigInt().Int64(), nil
}

// ToPositiveSmallestUnits is ToSmallestUnits restricted to amounts > 0,
// used wherever a stake or deposit is parsed.
func ToPositiveSmallestUnits(amount string, currency string) (int64, error) {
	const op = "money.ToPositiveSmallestUnits"

	units, err := ToSmallestUnits(amount, currency)
	if err != nil {
		return 0, err
	}

	if units <= 0 {
		return 0, fmt.Errorf("%s: amount must be positive: %w", op, ErrInvalidAmount)
	}

	return units, nil
}

// FromSmallestUnits renders smallest units as a canonical decimal string
// with trailing zeros trimmed ("1.980000" -> "1.98", "100" -> "100").
func FromSmallestUnits(units int64, currency string) (string, error) {
	dp, err := Decimals(currency)
	if err != nil {
		return "", err
	}

	return decimal.NewFromInt(units).Shift(-dp).String(), nil
}

// Payout computes stake*multiplier in smallest units, truncating any
// fraction of a smallest unit toward zero. Multiplier math stays in
// decimal so no float drift can reach a balance.
func Payout(stake int64, multiplier decimal.Decimal) int64 {
	return decimal.NewFromInt(stake).Mul(multiplier).Truncate(0).IntPart()
}
