package validation

import (
	"fmt"
	"time"
)

// cardDateWindowYears bounds how far a card date may lie from now.
const cardDateWindowYears = 10

// ParseCardDate parses "MM/YY" into the first instant of that month in loc.
func ParseCardDate(mmYY string, loc *time.Location) (time.Time, error) {
	if len(mmYY) != 5 || mmYY[2] != '/' {
		return time.Time{}, fmt.Errorf("card date must be MM/YY")
	}
	digits := mmYY[:2] + mmYY[3:]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return time.Time{}, &FormatError{Input: mmYY, Pos: i}
		}
	}
	mm := int(digits[0]-'0')*10 + int(digits[1]-'0')
	if mm < 1 || mm > 12 {
		return time.Time{}, fmt.Errorf("card date month must be 01..12")
	}
	yy := int(digits[2]-'0')*10 + int(digits[3]-'0')
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(2000+yy, time.Month(mm), 1, 0, 0, 0, 0, loc), nil
}

// endOfMonth returns the last instant of the month that starts at t.
func endOfMonth(t time.Time) time.Time {
	return t.AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// ExpiryDateValid checks a card date against now. An expiry date is valid
// while the end of its month lies strictly between now and now+10y; a start
// date while the start of its month lies strictly between now-10y and now.
func ExpiryDateValid(mmYY string, isStartDate bool, now time.Time) bool {
	start, err := ParseCardDate(mmYY, now.Location())
	if err != nil {
		return false
	}

	if isStartDate {
		minimum := now.AddDate(-cardDateWindowYears, 0, 0)
		return start.Before(now) && start.After(minimum)
	}

	end := endOfMonth(start)
	maximum := now.AddDate(cardDateWindowYears, 0, 0)
	return end.After(now) && end.Before(maximum)
}
