package utils

import "time"

// ISOLayout matches the millisecond UTC timestamps the web client writes.
const ISOLayout = "2006-01-02T15:04:05.000Z07:00"

// NowISO returns the current time in ISOLayout
func NowISO() string {
	return FormatISO(time.Now())
}

// FormatISO formats t in UTC using ISOLayout
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// ParseISO parses a timestamp written by FormatISO or any RFC3339 writer
func ParseISO(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
