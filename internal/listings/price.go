package listings

import (
	"fmt"
	"math"
	"strings"
)

// ParsePrice converts a decimal price in major units to minor units
// (hundredths). Digits beyond the second decimal are rounded half-up:
// "49.995" is 5000 and "49.994" is 4999. The conversion works on the decimal
// digits directly, so no binary floating point rounding is involved.
//
// A comma is accepted as the decimal separator. Negative, empty, and
// non-numeric input is rejected, as is any amount that does not fit in int64
// minor units once rounded ("92233720368547758.07" is the largest accepted).
func ParsePrice(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("price is empty")
	}
	s = strings.Replace(s, ",", ".", 1)
	s = strings.TrimPrefix(s, "+")
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("price must not be negative")
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("price %q is not a number", s)
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, fmt.Errorf("price %q is not a number", s)
	}

	var major int64
	for _, r := range whole {
		d := int64(r - '0')
		if major > (math.MaxInt64-d)/10 {
			return 0, fmt.Errorf("price %q is too large", s)
		}
		major = major*10 + d
	}
	// Pad to at least three fractional digits: two kept, one to round on.
	padded := frac + "000"
	cents := int64(padded[0]-'0')*10 + int64(padded[1]-'0')
	if major > (math.MaxInt64-cents)/100 {
		return 0, fmt.Errorf("price %q is too large", s)
	}
	minor := major*100 + cents
	if padded[2] >= '5' {
		if minor == math.MaxInt64 {
			return 0, fmt.Errorf("price %q is too large", s)
		}
		minor++
	}
	return minor, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
