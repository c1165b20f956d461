package model

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrice parses decimal price text, tolerating a leading currency sign
// and thousands separators. NaN and infinities are rejected.
func ParsePrice(v string) (decimal.Decimal, error) {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "$")
	v = strings.ReplaceAll(v, ",", "")
	if v == "" {
		return decimal.Decimal{}, errors.New("empty price")
	}
	return decimal.NewFromString(v)
}
