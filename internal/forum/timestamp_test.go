package forum

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatTimestamp(t *testing.T) {
	ref := time.Date(2024, time.March, 5, 14, 30, 0, 0, time.Local)
	want := "Mar 5, 2024 14:30"

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"time", ref, want},
		{"time pointer", &ref, want},
		{"nil time pointer", (*time.Time)(nil), ""},
		{"zero time", time.Time{}, ""},
		{"epoch millis int64", ref.UnixMilli(), want},
		{"epoch millis int", int(ref.UnixMilli()), want},
		{"epoch millis float", float64(ref.UnixMilli()), want},
		{"rfc3339 string", ref.Format(time.RFC3339), want},
		{"empty string", "", ""},
		{"unknown type", struct{}{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTimestamp(tt.in))
		})
	}
}

// Formatting an already formatted value must return it unchanged, so a
// second render pass never corrupts what the first one produced.
func TestFormatTimestampIdempotent(t *testing.T) {
	once := FormatTimestamp(time.Now())
	assert.Equal(t, once, FormatTimestamp(once))
}
