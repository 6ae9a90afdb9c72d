package forum

import (
	"time"
)

const timestampLayout = "Jan 2, 2006 15:04"

// FormatTimestamp renders a stored timestamp for display. It accepts the
// shapes a document field can come back as: time.Time (or a pointer),
// epoch milliseconds as an integer or float, or an RFC 3339 string.
// Anything unrecognized, including nil, renders as an empty string.
func FormatTimestamp(ts any) string {
	switch v := ts.(type) {
	case nil:
		return ""
	case time.Time:
		return formatTime(v)
	case *time.Time:
		if v == nil {
			return ""
		}
		return formatTime(*v)
	case int64:
		return formatTime(time.UnixMilli(v))
	case int:
		return formatTime(time.UnixMilli(int64(v)))
	case float64:
		return formatTime(time.UnixMilli(int64(v)))
	case string:
		if v == "" {
			return ""
		}
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return formatTime(t)
		}
		// Already formatted, or some shape we do not recognize. Pass it
		// through so a re-render never corrupts a displayed value.
		return v
	default:
		return ""
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(timestampLayout)
}
