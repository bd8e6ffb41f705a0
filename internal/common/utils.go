package common

import (
	"fmt"
	"math"
	"strings"
	"time"

	// Embedded IANA database so zone lookups never depend on the host.
	_ "time/tzdata"
)

var isoLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04Z07:00",
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// CelsiusToFahrenheit converts c and rounds the result to two decimals.
func CelsiusToFahrenheit(c float64) float64 {
	return math.Round((c*1.8+32)*100) / 100
}

// LoadZone resolves an IANA zone name. The empty name and "Local" are
// rejected because time.LoadLocation maps them to non-IANA zones.
func LoadZone(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return nil, fmt.Errorf("unknown time zone %q", name)
	}
	return time.LoadLocation(name)
}

// ParseUTC parses an ISO-8601 instant that is explicitly tagged UTC
// ("Z" or "+00:00"). Naive strings and any other offset are rejected.
func ParseUTC(s string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if _, offset := t.Zone(); offset != 0 {
			return time.Time{}, false
		}
		return t.UTC(), true
	}
	return time.Time{}, false
}

// ConvertUTCToZone re-expresses a UTC-tagged ISO-8601 instant in the wall
// clock of zone. ok is false for malformed or non-UTC input and for unknown
// zones. UTC and GMT targets return the instant unchanged.
func ConvertUTCToZone(utcISO, zone string) (t time.Time, ok bool) {
	loc, err := LoadZone(zone)
	if err != nil {
		return time.Time{}, false
	}

	t, ok = ParseUTC(utcISO)
	if !ok {
		return time.Time{}, false
	}

	switch strings.ToUpper(zone) {
	case "UTC", "GMT":
		return t, true
	}
	return t.In(loc), true
}

// ParseNaiveUTC reads a zone-less timestamp such as "2025-08-29T15:30" as UTC.
func ParseNaiveUTC(s string) (time.Time, error) {
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid naive timestamp %q", s)
}

// NormalizeNaiveUTC tags a zone-less timestamp as UTC and returns it
// formatted by FormatISO.
func NormalizeNaiveUTC(s string) (string, error) {
	t, err := ParseNaiveUTC(s)
	if err != nil {
		return "", err
	}
	return FormatISO(t), nil
}

// FormatISO renders t with seconds and a numeric offset ("+00:00" for UTC).
// Sub-second precision is printed as microseconds only when present.
func FormatISO(t time.Time) string {
	if t.Nanosecond()/1000 != 0 {
		return t.Format("2006-01-02T15:04:05.000000-07:00")
	}
	return t.Format("2006-01-02T15:04:05-07:00")
}
