// Package timeutil converts between wall-clock strings, IANA timezones and
// UTC instants. Everything here is pure: no state, no I/O beyond the
// timezone database lookup done by time.LoadLocation.
package timeutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// LocalLayout is the wall-clock format events are entered in.
	LocalLayout = "2006-01-02T15:04"
	// DisplayLayout is the default human-readable rendering.
	DisplayLayout = "2006-01-02 15:04"
	// OffsetLayout renders a local time together with its UTC offset.
	OffsetLayout = "2006-01-02T15:04-07:00"
)

// ErrInvalidTime is wrapped by every conversion failure.
var ErrInvalidTime = errors.New("invalid time input")

// isoLayouts are tried in order by ISOToUTC. Offset-less forms are read as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	LocalLayout,
	"2006-01-02",
}

// LoadZone resolves an IANA identifier such as "America/New_York".
func LoadZone(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return nil, fmt.Errorf("%w: missing timezone", ErrInvalidTime)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidTime, tz)
	}
	return loc, nil
}

// LocalToUTC interprets a "YYYY-MM-DDTHH:mm" wall-clock string as occurring
// in tz and returns the equivalent UTC instant.
func LocalToUTC(local, tz string) (time.Time, error) {
	local = strings.TrimSpace(local)
	if local == "" {
		return time.Time{}, fmt.Errorf("%w: missing local time", ErrInvalidTime)
	}
	loc, err := LoadZone(tz)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(LocalLayout, local, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q for tz %q", ErrInvalidTime, local, tz)
	}
	return t.UTC(), nil
}

// ISOToUTC parses an ISO-8601 string into a UTC instant truncated to
// millisecond precision, the resolution events are stored at.
func ISOToUTC(iso string) (time.Time, error) {
	iso = strings.TrimSpace(iso)
	if iso == "" {
		return time.Time{}, fmt.Errorf("%w: missing iso string", ErrInvalidTime)
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, iso, time.UTC); err == nil {
			return t.UTC().Truncate(time.Millisecond), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid iso %q", ErrInvalidTime, iso)
}

// UTCToLocalString renders t in tz using a Go layout. It returns "" when t is
// zero or tz is empty or unknown; callers treat that as "no value".
func UTCToLocalString(t time.Time, tz, layout string) string {
	if t.IsZero() || strings.TrimSpace(tz) == "" {
		return ""
	}
	loc, err := LoadZone(tz)
	if err != nil {
		return ""
	}
	if layout == "" {
		layout = DisplayLayout
	}
	return t.In(loc).Format(layout)
}

// ResolveTimezone returns the first non-blank candidate, typically
// (actor timezone, event timezone). It is the single fallback chain used
// wherever a stamp is localised.
func ResolveTimezone(candidates ...string) string {
	for _, tz := range candidates {
		if tz = strings.TrimSpace(tz); tz != "" {
			return tz
		}
	}
	return ""
}

// LocalStamp is a UTCToLocalString shortcut for audit stamps.
func LocalStamp(t time.Time, tz string) *string {
	s := UTCToLocalString(t, tz, DisplayLayout)
	if s == "" {
		return nil
	}
	return &s
}
