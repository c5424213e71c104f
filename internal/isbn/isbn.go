// Package isbn implements ISBN-13 canonicalization and check digit
// validation. All functions are pure; malformed input yields a false
// result rather than an error.
package isbn

import "strings"

// Canonicalize strips hyphens and spaces from candidate and reports
// whether the remainder is a well-formed 13-digit string.
func Canonicalize(candidate string) (string, bool) {
	var b strings.Builder
	b.Grow(13)
	for _, r := range candidate {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == ' ':
			// separator, ignored
		default:
			return "", false
		}
	}
	s := b.String()
	if len(s) != 13 {
		return "", false
	}
	return s, true
}

// ValidateFormat reports whether candidate contains exactly 13 ASCII
// digits after separator stripping.
func ValidateFormat(candidate string) bool {
	_, ok := Canonicalize(candidate)
	return ok
}

// CheckDigit computes the ISBN-13 check digit for the first 12 digits:
// digits are weighted 1,3,1,3,... summed mod 10, and the check digit is
// (10 - sum%10) % 10. The bool result is false when first12 is not
// exactly 12 ASCII digits.
func CheckDigit(first12 string) (int, bool) {
	if len(first12) != 12 {
		return 0, false
	}
	sum := 0
	for i := 0; i < 12; i++ {
		c := first12[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		digit := int(c - '0')
		if i%2 == 1 {
			digit *= 3
		}
		sum += digit
	}
	return (10 - sum%10) % 10, true
}

// IsValid reports whether isbn13 is a format-valid ISBN-13 whose final
// digit matches the computed check digit. Separators are tolerated.
func IsValid(isbn13 string) bool {
	canonical, ok := Canonicalize(isbn13)
	if !ok {
		return false
	}
	check, ok := CheckDigit(canonical[:12])
	if !ok {
		return false
	}
	return int(canonical[12]-'0') == check
}

// Complete appends the computed check digit to a 12-digit stem.
func Complete(first12 string) (string, bool) {
	check, ok := CheckDigit(first12)
	if !ok {
		return "", false
	}
	return first12 + string(rune('0'+check)), true
}
