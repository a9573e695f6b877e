package models

import (
	"regexp"
	"strconv"
	"strings"
)

var amountCleanRe = regexp.MustCompile(`[^0-9.,-]`)

// ParseAmount converts human price input to a float. It accepts "1.600,50",
// "1,600.50", "$ 1.600" or "ARS 15": currency tokens are stripped and the
// last separator present decides which one is the decimal point. Unparseable
// input yields the default.
func ParseAmount(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}

	for _, token := range []string{"$", "ARS", "ars", "USD", "usd"} {
		s = strings.ReplaceAll(s, token, "")
	}
	s = amountCleanRe.ReplaceAllString(strings.TrimSpace(s), "")

	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")
	switch {
	case dots > 0 && commas > 0:
		if strings.LastIndex(s, ".") > strings.LastIndex(s, ",") {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		}
	case commas > 0:
		s = strings.ReplaceAll(s, ",", ".")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}
