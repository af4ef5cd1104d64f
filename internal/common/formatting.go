package common

import (
	"fmt"
	"math/big"

	"github.com/dustin/go-humanize"
)

func ShortenName(s string, length int) string {
	if len(s) <= length*2 {
		return s
	}

	firstSix := s[:length]
	lastSix := s[len(s)-length:]
	return fmt.Sprintf("%s__%s", firstSix, lastSix)
}

// FormatAmount renders an integer amount with thousands separators.
func FormatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return humanize.BigComma(v)
}

// FormatPercent renders a percentage with at most two decimals.
func FormatPercent(p float64) string {
	return humanize.FormatFloat("#,###.##", p) + "%"
}
