package money

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
	ErrInvalidRate     = errors.New("invalid rate")
)

// Amounts are stored as int64 minor units (two decimal places of the
// internal credit unit) so balance arithmetic never touches floating point.

func ParseAmount(input string) (int64, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return 0, ErrInvalidAmount
	}
	sign := int64(1)
	switch trimmed[0] {
	case '-':
		sign = -1
		trimmed = trimmed[1:]
	case '+':
		trimmed = trimmed[1:]
	}
	whole, frac, hasFrac := strings.Cut(trimmed, ".")
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) {
		return 0, ErrInvalidAmount
	}
	if hasFrac {
		if frac == "" || !isDigits(frac) {
			return 0, ErrInvalidAmount
		}
		if len(frac) > 2 {
			return 0, ErrTooManyDecimals
		}
	}
	wholeValue, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	fracValue := int64(0)
	switch len(frac) {
	case 1:
		fracValue = int64(frac[0]-'0') * 10
	case 2:
		fracValue = int64(frac[0]-'0')*10 + int64(frac[1]-'0')
	}
	if wholeValue > math.MaxInt64/100 || (wholeValue == math.MaxInt64/100 && fracValue > math.MaxInt64%100) {
		return 0, ErrInvalidAmount
	}
	return sign * (wholeValue*100 + fracValue), nil
}

func Format(minor int64) string {
	negative := minor < 0
	if negative {
		minor = -minor
	}
	formatted := fmt.Sprintf("%d.%02d", minor/100, minor%100)
	if negative {
		return "-" + formatted
	}
	return formatted
}

// ParseRate validates a deposit rate multiplier: a positive decimal with
// at most six fractional digits.
func ParseRate(raw string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(raw)
	if err != nil || rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrInvalidRate
	}
	if rate.Exponent() < -6 {
		return decimal.Zero, ErrInvalidRate
	}
	return rate, nil
}

// ApplyRate returns amount scaled by rate, banker's-rounded back to minor units.
func ApplyRate(amountMinor int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amountMinor).Mul(rate).RoundBank(0).IntPart()
}

func ToInt64(value any) int64 {
	switch v := value.(type) {
	case nil:
		return 0
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case []byte:
		parsed, _ := strconv.ParseInt(string(v), 10, 64)
		return parsed
	case string:
		parsed, _ := strconv.ParseInt(v, 10, 64)
		return parsed
	default:
		parsed, _ := strconv.ParseInt(fmt.Sprint(v), 10, 64)
		return parsed
	}
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
