package entity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxAmountCents is the largest claimable amount, 9,999,999,999.99
const MaxAmountCents int64 = 999_999_999_999

var (
	errAmountFormat = errors.New("amount must be a decimal number with at most two fraction digits")
	errAmountRange  = errors.New("amount must be greater than zero and at most 9999999999.99")
)

// ParseAmount converts a decimal string such as "50", "50.5" or "50.00" into cents
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		return 0, errAmountRange
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" || !digitsOnly(whole) || (hasFrac && (frac == "" || len(frac) > 2 || !digitsOnly(frac))) {
		return 0, errAmountFormat
	}
	if len(strings.TrimLeft(whole, "0")) > 10 {
		return 0, errAmountRange
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, errAmountFormat
	}
	for len(frac) < 2 {
		frac += "0"
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, errAmountFormat
	}

	total := units*100 + cents
	if total <= 0 || total > MaxAmountCents {
		return 0, errAmountRange
	}
	return total, nil
}

// FormatAmount renders cents as a two-decimal string
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
