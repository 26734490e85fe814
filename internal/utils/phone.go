package utils

import (
	"regexp"
	"strings"
)

var (
	indianMobileRegex = regexp.MustCompile(`^[6-9]\d{9}$`)
	nonDigitRegex     = regexp.MustCompile(`\D`)
)

// NormalizePhone reduces an Indian mobile number to its ten digit national form.
func NormalizePhone(phone string) string {
	digits := nonDigitRegex.ReplaceAllString(phone, "")

	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		digits = digits[2:]
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		digits = digits[1:]
	}

	return digits
}

func IsValidIndianPhone(phone string) bool {
	return indianMobileRegex.MatchString(phone)
}

// FormatE164 prefixes a national number with the country code for SMS delivery.
func FormatE164(phone, countryCode string) string {
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	return "+" + strings.TrimPrefix(countryCode, "+") + phone
}

func MaskPhone(phone string) string {
	if len(phone) < 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
