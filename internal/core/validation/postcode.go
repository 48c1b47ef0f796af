package validation

import (
	"regexp"
	"strings"
)

// BillingCountry selects the postcode rules applied for address verification.
type BillingCountry string

const (
	CountryUK     BillingCountry = "UK"
	CountryUSA    BillingCountry = "USA"
	CountryCanada BillingCountry = "Canada"
	CountryOther  BillingCountry = "Other"
)

// Character classes below are the RE2 spelling of the Royal Mail rules:
// first position excludes Q V X, second position excludes I J Z and the
// inward letters exclude C I K M O V.
var (
	ukPostcode = regexp.MustCompile(`^(GIR 0AA|(([A-PR-UWYZ][0-9][0-9]?)|([A-PR-UWYZ][A-HK-Y][0-9][0-9]?)|([A-PR-UWYZ][0-9][A-HJKSTUW])|([A-PR-UWYZ][A-HK-Y][0-9][ABEHMNPRVWXY])) ?[0-9][ABD-HJLNP-UW-Z]{2})$`)

	usaPostcode = regexp.MustCompile(`^[0-9]{5}(-[0-9]{4})?$`)

	canadaPostcode = regexp.MustCompile(`^[ABCEGHJKLMNPRSTVXY][0-9][ABCEGHJKLMNPRSTVWXYZ][0-9][ABCEGHJKLMNPRSTVWXYZ][0-9]$`)

	otherPostcode = regexp.MustCompile(`^[A-Z0-9]{1,8}$`)
)

// ParseBillingCountry maps a loose country name onto a BillingCountry.
// Unrecognised names fall back to CountryOther.
func ParseBillingCountry(s string) BillingCountry {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "UK", "GB", "GBR", "UNITED KINGDOM":
		return CountryUK
	case "US", "USA", "UNITED STATES":
		return CountryUSA
	case "CA", "CAN", "CANADA":
		return CountryCanada
	default:
		return CountryOther
	}
}

// PostcodeValid checks s against the postcode format of country.
func PostcodeValid(country BillingCountry, s string) bool {
	pc := strings.ToUpper(strings.TrimSpace(s))
	if pc == "" {
		return false
	}

	switch country {
	case CountryUK:
		return ukPostcode.MatchString(pc)
	case CountryUSA:
		return usaPostcode.MatchString(pc)
	case CountryCanada:
		// "K1A 0B1" and "K1A0B1" are both written in the wild.
		if len(pc) == 7 && pc[3] == ' ' {
			pc = pc[:3] + pc[4:]
		}
		return canadaPostcode.MatchString(pc)
	default:
		return otherPostcode.MatchString(pc)
	}
}
