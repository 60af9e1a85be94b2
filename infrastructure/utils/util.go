package utils

import (
	"strings"
	"time"
)

// ISOMillis matches the layout JavaScript's toISOString produces.
const ISOMillis = "2006-01-02T15:04:05.000Z07:00"

const isoLocal = "2006-01-02T15:04:05.999999999"

func GetCurrentTime() time.Time {
	return time.Now().UTC()
}

// FormatISO renders t in UTC with millisecond precision ("2025-01-02T03:04:05.678Z").
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOMillis)
}

// LocalizeTimestamp renders an ISO-8601 instant in loc for display.
// Unparseable input is returned unchanged.
func LocalizeTimestamp(raw string, loc *time.Location) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		// no zone: read as wall time in loc
		t, err = time.ParseInLocation(isoLocal, raw, loc)
		if err != nil {
			return raw
		}
	}
	return t.In(loc).Format("1/2/2006, 3:04:05 PM")
}
