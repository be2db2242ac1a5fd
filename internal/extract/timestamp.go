package extract

import (
	"strings"
	"time"
)

// OutputLayout is the canonical published-time form.
const OutputLayout = "2006-01-02 15:04:05"

// inputLayouts are tried in order. RSS dates are RFC 2822 style (with and
// without the weekday, with one or two digit days); Atom uses RFC 3339.
var inputLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 02 Jan 2006 15:04:05 -0700 (MST)",
	"02 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC3339,
	time.RFC3339Nano,
}

// Timestamp normalizes a feed date string into OutputLayout, keeping the
// wall-clock time of the offset the upstream wrote. Unparseable input is
// returned unchanged and an empty input yields NoDate.
func Timestamp(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return NoDate
	}
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format(OutputLayout)
		}
	}
	return raw
}
