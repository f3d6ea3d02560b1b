package rules

import (
	"strings"
	"time"
)

// translateDateFormat converts the common subset of a Java
// SimpleDateFormat-style pattern (yyyy, MM, dd, HH, mm, ss, and a
// literal 'T'/'Z'/'-'/':'/'.'  separators) into a Go reference-time
// layout string. Unrecognized runs of letters pass through unchanged,
// which lets ISO-ish patterns like "yyyy-MM-dd'T'HH:mm:ss" round-trip
// even though full SimpleDateFormat has many more directives than the
// wire format in practice uses.
func translateDateFormat(pattern string) string {
	replacer := strings.NewReplacer(
		"yyyy", "2006",
		"yy", "06",
		"MM", "01",
		"dd", "02",
		"HH", "15",
		"mm", "04",
		"ss", "05",
		"SSS", "000",
		"Z", "Z0700",
		"'T'", "T",
	)
	return replacer.Replace(pattern)
}

func parseTimeLayout(layout, value string) (time.Time, error) {
	return time.Parse(layout, value)
}
