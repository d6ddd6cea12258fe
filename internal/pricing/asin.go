package pricing

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	bareASINRe = regexp.MustCompile(`^[A-Z0-9]{10}$`)
	urlASINRes = []*regexp.Regexp{
		regexp.MustCompile(`/dp/([A-Z0-9]{10})`),
		regexp.MustCompile(`/gp/product/([A-Z0-9]{10})`),
		regexp.MustCompile(`/product/([A-Z0-9]{10})`),
	}
)

// ExtractASIN pulls an ASIN out of a bare identifier or a product URL.
func ExtractASIN(value string) (string, bool) {
	candidate := strings.TrimSpace(value)
	if bareASINRe.MatchString(candidate) {
		return candidate, true
	}
	for _, re := range urlASINRes {
		if m := re.FindStringSubmatch(candidate); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// ParseAmount reads a price literal like "120", "120.50" or "$1,299.99".
func ParseAmount(value string) (float64, bool) {
	s := strings.TrimSpace(value)
	s = strings.TrimLeft(s, "$€£")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	amount, err := strconv.ParseFloat(s, 64)
	if err != nil || amount <= 0 {
		return 0, false
	}
	return amount, true
}
