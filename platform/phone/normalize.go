// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "ZA"

const countryCode = "27"

// NormalizeZA reduces a phone number to digits and rewrites common South
// African local forms to international format without a plus sign:
// a 10-digit number with a leading zero has the zero replaced by 27, and a
// bare 9-digit subscriber number is prefixed with 27. Numbers already in
// international form pass through unchanged.
func NormalizeZA(input string) string {
	digits := stripNonDigits(input)

	switch {
	case len(digits) == 10 && strings.HasPrefix(digits, "0"):
		return countryCode + digits[1:]
	case len(digits) == 9:
		return countryCode + digits
	default:
		return digits
	}
}

// IsValid reports whether the input parses as a valid phone number,
// defaulting to the South African region for local forms.
func IsValid(input string) bool {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return false
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(number)
}

func stripNonDigits(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
