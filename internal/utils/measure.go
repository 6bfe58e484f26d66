package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	pricePattern  = regexp.MustCompile(`₹([\d,]+)`)
	numberPattern = regexp.MustCompile(`\d+(?:\.\d*)?|\.\d+`)
)

// ParsePrice extracts the rupee amount from strings such as "₹8,500/ton".
// Thousands separators are dropped. The second return value is false when
// no amount can be found.
func ParsePrice(s string) (float64, bool) {
	m := pricePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	digits := strings.ReplaceAll(m[1], ",", "")
	if digits == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseQuantity extracts the leading number from strings such as "50 tons".
func ParseQuantity(s string) (float64, bool) {
	return leadingNumber(s)
}

// ParseCarbon extracts the leading number from strings such as "2.3 tons CO₂".
func ParseCarbon(s string) (float64, bool) {
	return leadingNumber(s)
}

// QuantityInTons normalises a quantity string to tons. Anything mentioning
// "kg" is treated as kilograms, everything else is taken as tons already.
func QuantityInTons(s string) (float64, bool) {
	v, ok := leadingNumber(s)
	if !ok {
		return 0, false
	}
	if strings.Contains(strings.ToLower(s), "kg") {
		return v / 1000, true
	}
	return v, true
}

// TotalAmount is price x quantity, or 0 when either side does not parse.
func TotalAmount(price, quantity string) float64 {
	p, ok := ParsePrice(price)
	if !ok {
		return 0
	}
	q, ok := ParseQuantity(quantity)
	if !ok {
		return 0
	}
	return p * q
}

// Round rounds half away from zero and returns an int64 suitable for JSON counters.
func Round(v float64) int64 {
	return int64(math.Round(v))
}

func leadingNumber(s string) (float64, bool) {
	m := numberPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
