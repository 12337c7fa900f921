// Package instrument validates payment instrument data: UPI virtual
// payment addresses and card numbers, networks and expiry dates. All
// functions are pure.
package instrument

import (
	"regexp"
	"strings"
	"time"
)

type Network string

const (
	NetworkVisa       Network = "visa"
	NetworkMastercard Network = "mastercard"
	NetworkAmex       Network = "amex"
	NetworkRupay      Network = "rupay"
	NetworkUnknown    Network = "unknown"
)

var vpaPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+@[A-Za-z0-9]+$`)

// ValidVPA reports whether vpa looks like local-part@handle.
func ValidVPA(vpa string) bool {
	return vpaPattern.MatchString(vpa)
}

func normalize(cardNumber string) string {
	cardNumber = strings.ReplaceAll(cardNumber, " ", "")
	return strings.ReplaceAll(cardNumber, "-", "")
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// ValidLuhn checks the card number against the Luhn mod-10 checksum.
// Spaces and hyphens are ignored; the digit count must be 13 to 19.
func ValidLuhn(cardNumber string) bool {
	n := normalize(cardNumber)
	if !allDigits(n) || len(n) < 13 || len(n) > 19 {
		return false
	}

	sum := 0
	for i := len(n) - 1; i >= 0; i-- {
		d := int(n[i] - '0')
		// double every second digit counting from the right
		if (len(n)-1-i)%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return sum%10 == 0
}

// DetectNetwork classifies the card number by prefix. Checks run in
// priority order and the first match wins.
func DetectNetwork(cardNumber string) Network {
	n := normalize(cardNumber)
	if n == "" {
		return NetworkUnknown
	}

	switch {
	case strings.HasPrefix(n, "4"):
		return NetworkVisa
	case hasPrefixInRange(n, 51, 55):
		return NetworkMastercard
	case strings.HasPrefix(n, "34") || strings.HasPrefix(n, "37"):
		return NetworkAmex
	case strings.HasPrefix(n, "60") || strings.HasPrefix(n, "65") || hasPrefixInRange(n, 81, 89):
		return NetworkRupay
	}
	return NetworkUnknown
}

func hasPrefixInRange(n string, lo, hi int) bool {
	if len(n) < 2 {
		return false
	}
	p := int(n[0]-'0')*10 + int(n[1]-'0')
	return p >= lo && p <= hi
}

// ValidExpiry reports whether month/year is a valid expiry at or after
// the current month. Four-digit years are reduced to two digits.
func ValidExpiry(month, year int) bool {
	return validExpiryAt(month, year, time.Now())
}

func validExpiryAt(month, year int, now time.Time) bool {
	if month < 1 || month > 12 {
		return false
	}
	if year < 0 {
		return false
	}
	if year > 1000 {
		year = year % 100
	}

	curYear := now.Year() % 100
	curMonth := int(now.Month())

	if year < curYear {
		return false
	}
	if year == curYear && month < curMonth {
		return false
	}
	return true
}
