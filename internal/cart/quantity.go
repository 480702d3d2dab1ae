package cart

import (
	"math"
	"strings"
)

// MaxQuantity bounds a line's quantity.
const MaxQuantity = math.MaxInt32

// ParseQuantity coerces raw user input to a quantity the way a browser's
// parseInt does: leading whitespace and an optional sign are accepted, then
// the longest run of decimal digits is read and anything after it ignored.
// Input without leading digits, and any result below 1, yields 1.
//
//	"3"    -> 3
//	" 12x" -> 12
//	"3.7"  -> 3
//	"0"    -> 1
//	"-5"   -> 1
//	"abc"  -> 1
func ParseQuantity(raw string) int {
	s := strings.TrimLeft(raw, " \t\n\r\v\f")

	negative := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		negative = s[0] == '-'
		s = s[1:]
	}

	var n int64
	digits := 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		if n <= MaxQuantity {
			n = n*10 + int64(s[digits]-'0')
		}
		digits++
	}

	switch {
	case digits == 0 || negative:
		return 1
	case n > MaxQuantity:
		return MaxQuantity
	}
	return ClampQuantity(int(n))
}

// ClampQuantity limits n to [1, MaxQuantity].
func ClampQuantity(n int) int {
	switch {
	case n < 1:
		return 1
	case n > MaxQuantity:
		return MaxQuantity
	default:
		return n
	}
}
