package models

import (
	"fmt"
	"time"
)

// TimeLayout matches the ISO-8601 form written to the store: UTC with
// millisecond precision.
const TimeLayout = "2006-01-02T15:04:05.000Z"

type KeyRecord struct {
	Key       string  `json:"key"`
	CreatedAt string  `json:"createdAt"`
	ExpiresAt string  `json:"expiresAt"`
	IP        *string `json:"ip"`
	Note      *string `json:"note"`
}

// Expiry parses ExpiresAt.
func (r KeyRecord) Expiry() (time.Time, error) {
	t, err := ParseTime(r.ExpiresAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("key %s: invalid expiresAt: %w", r.Key, err)
	}
	return t, nil
}

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func ParseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// OptionalString maps "" to nil, so absent and empty values both persist as null.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
