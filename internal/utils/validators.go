// Package utils provides small helpers shared across handlers and
// services: token issuing and the field validators for phones, plates
// and slot times.
package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// licensePatterns are the accepted Taiwanese plate shapes. The first
// covers current plates (ABC-1234), the second the older digit-first
// plates (1234-AA) and the third the legacy letter/digit mix (A123-B4).
var licensePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z]{2,4}-?\d{4}$`),
	regexp.MustCompile(`^\d{4}-?[A-Z]{2}$`),
	regexp.MustCompile(`^[A-Z]\d{3}-?[A-Z]\d{1,2}$`),
}

// phoneRegex matches a Taiwanese mobile number: 09 followed by 8 digits.
var phoneRegex = regexp.MustCompile(`^09\d{8}$`)

// timeRegex matches a 24h HH:mm slot time such as 08:00 or 13:30.
var timeRegex = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9]$`)

// dateRegex pins the YYYY-MM-DD shape. The parse on top of it is what
// rejects impossible dates; the shape check is what rejects unpadded
// variants like 2025-6-2, which time.Parse would happily accept.
var dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// NormalizeLicense trims surrounding whitespace and upper-cases a
// plate so "abc1234" and "ABC-1234" validate the same way.
func NormalizeLicense(license string) string {
	return strings.ToUpper(strings.TrimSpace(license))
}

// IsValidLicense reports whether the (already normalized) plate
// matches one of the accepted formats.
func IsValidLicense(license string) bool {
	for _, p := range licensePatterns {
		if p.MatchString(license) {
			return true
		}
	}
	return false
}

// IsValidPhone reports whether phone is a Taiwanese mobile number.
func IsValidPhone(phone string) bool {
	return phoneRegex.MatchString(phone)
}

// IsValidSlotTime reports whether t is a well-formed HH:mm time.
func IsValidSlotTime(t string) bool {
	return timeRegex.MatchString(t)
}

// IsValidDayOfWeek reports whether day is in 0..6 (0 = Sunday).
func IsValidDayOfWeek(day int) bool {
	return day >= 0 && day <= 6
}

// IsValidDate reports whether date is a real calendar date in
// YYYY-MM-DD form. A well-shaped but impossible date such as
// 2025-02-31 fails the parse.
func IsValidDate(date string) bool {
	if !dateRegex.MatchString(date) {
		return false
	}
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

// Weekday parses a YYYY-MM-DD date and returns its weekday as 0..6
// with 0 = Sunday.
func Weekday(date string) (int, error) {
	if !dateRegex.MatchString(date) {
		return 0, fmt.Errorf("not a YYYY-MM-DD date: %q", date)
	}
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0, err
	}
	return int(t.Weekday()), nil
}
