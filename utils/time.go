// Package utils provides utility functions for the application.
package utils

import (
	"fmt"
	"time"
)

// ExpiryDateLayout is the wire format for expiry dates (date only, no time part).
const ExpiryDateLayout = "2006-01-02"

// UTCNow returns the current time in UTC
func UTCNow() time.Time {
	return time.Now().UTC()
}

// UTCNowPtr returns a pointer to the current time in UTC
func UTCNowPtr() *time.Time {
	now := UTCNow()
	return &now
}

// EndOfDay returns the given time with its clock set to 23:59:59 in the
// server's local timezone.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Local().Date()
	return time.Date(y, m, d, 23, 59, 59, 0, time.Local)
}

// ParseExpiryDate parses a date-only string and normalizes it to end of day
// local time. An empty string clears the expiry (returns nil, nil).
func ParseExpiryDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(ExpiryDateLayout, s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid expiry date format %q: %w", s, err)
	}
	eod := EndOfDay(parsed)
	return &eod, nil
}

// IsExpired checks if the given time is in the past (expired)
func IsExpired(t time.Time) bool {
	return time.Now().After(t)
}

// IsExpiredPtr checks if the given time pointer is in the past (expired).
// A nil expiry means the license never expires.
func IsExpiredPtr(t *time.Time) bool {
	if t == nil {
		return false
	}
	return IsExpired(*t)
}
