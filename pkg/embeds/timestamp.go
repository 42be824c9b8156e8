package embeds

import (
	"strconv"
	"strings"
	"time"
)

var timestampLayouts = []string{
	"02/01/06, 15:04",
	"02/01/2006, 15:04",
	"02/01/06 15:04",
	"02/01/2006 15:04",
	"02/01/06",
	"02/01/2006",
	"2/1/2006",
}

var errInvalidTimestamp = NewValidationError("timestamp",
	"Invalid timestamp. Use `today`, `dd/mm/yyyy`, `dd/mm/yyyy HH:MM` or a UNIX timestamp.")

// ParseTimestamp parses an editor timestamp in UTC. An empty value returns
// the zero time, which clears the timestamp.
func ParseTimestamp(value string, now time.Time) (time.Time, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return time.Time{}, nil
	}
	if v == "today" || v == "now" {
		return now.UTC(), nil
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		if n < 0 {
			return time.Time{}, errInvalidTimestamp
		}
		return time.Unix(n, 0).UTC(), nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errInvalidTimestamp
}

// FormatTimestamp is the stored form of t, or "" for the zero time.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
