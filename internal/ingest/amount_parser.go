package ingest

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	amountNumber  = regexp.MustCompile(`\d+(?:\.\d+)?`)
	percentNumber = regexp.MustCompile(`(\d+(?:[,.]\d+)?)\s*%`)
)

// ParseAmount extracts the first monetary value from Italian-formatted text,
// where '.' groups thousands and ',' marks decimals: "€ 1.500.000,50" is
// 1500000.50. The boolean is false when no number appears.
func ParseAmount(text string) (float64, bool) {
	text = strings.ReplaceAll(text, "€", "")
	text = strings.ReplaceAll(text, " ", "")
	text = strings.ReplaceAll(text, "\u00a0", "")
	text = strings.ReplaceAll(text, ".", "")
	text = strings.ReplaceAll(text, ",", ".")

	m := amountNumber.FindString(text)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParsePercentage extracts the first percentage from text. The '%' sign is
// required; a bare number is not a percentage. Comma decimals are accepted:
// "fino al 70,5%" is 70.5.
func ParsePercentage(text string) (float64, bool) {
	m := percentNumber.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
