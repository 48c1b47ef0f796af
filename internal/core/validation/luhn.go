package validation

import (
	"fmt"
)

// FormatError reports input that contains characters a numeric check cannot accept.
type FormatError struct {
	Input string
	Pos   int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("non-digit character at position %d", e.Pos)
}

// judoIDMinLen and judoIDMaxLen bound the length of a merchant judo id.
const (
	judoIDMinLen = 6
	judoIDMaxLen = 10
)

// Luhn runs the mod-10 checksum over s. Only ASCII digits are accepted;
// anything else yields a *FormatError.
func Luhn(s string) (bool, error) {
	if s == "" {
		return false, &FormatError{Input: s}
	}

	sum := 0
	isSecond := false

	// Process digits from right to left
	for i := len(s) - 1; i >= 0; i-- {
		c := s[i]
		if c < '0' || c > '9' {
			return false, &FormatError{Input: s, Pos: i}
		}
		digit := int(c - '0')

		if isSecond {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}

		sum += digit
		isSecond = !isSecond
	}

	return sum%10 == 0, nil
}

// LuhnValid is Luhn with format errors folded into false.
func LuhnValid(s string) bool {
	ok, err := Luhn(s)
	return err == nil && ok
}

// JudoIDValid reports whether s is a 6-10 digit, Luhn-valid judo id.
func JudoIDValid(s string) bool {
	if len(s) < judoIDMinLen || len(s) > judoIDMaxLen {
		return false
	}
	return LuhnValid(s)
}

// ReceiptIDValid reports whether s passes the Luhn check.
func ReceiptIDValid(s string) bool {
	return LuhnValid(s)
}

// CardNumberValid accepts 12-19 digit PANs passing the Luhn check.
func CardNumberValid(pan string) bool {
	if l := len(pan); l < 12 || l > 19 {
		return false
	}
	return LuhnValid(pan)
}
