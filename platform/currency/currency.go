// Package currency provides South African Rand formatting.
// All amounts in the application are carried in cents; this is the single
// formatting rule used by documents, emails, and operator messages.
package currency

import (
	"fmt"
	"strings"
)

// FormatZAR renders cents as "R1 234.56": literal R prefix, space as the
// thousands separator, always two decimal places.
func FormatZAR(cents int64) string {
	negative := cents < 0
	if negative {
		cents = -cents
	}

	rand := cents / 100
	frac := cents % 100

	grouped := groupThousands(fmt.Sprintf("%d", rand))
	out := fmt.Sprintf("R%s.%02d", grouped, frac)
	if negative {
		return "-" + out
	}
	return out
}

func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}

	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
