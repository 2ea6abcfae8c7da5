package availability

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	toSeparator = regexp.MustCompile(`(?i)to`)
	clockLike   = regexp.MustCompile(`^(\d{1,2})[:.](\d{2})$`)
)

// ParseTimeRange splits text such as "13:00 - 14:00" or "13:00 to 14:00" into its
// two ends. The dash is tried first, then the word "to" in any case. Only the
// separation is checked; the values themselves are not validated.
func ParseTimeRange(text string) (string, string, error) {
	if start, end, ok := splitPair(strings.Split(text, "-")); ok {
		return normalizeClock(start), normalizeClock(end), nil
	}
	if start, end, ok := splitPair(toSeparator.Split(text, -1)); ok {
		return normalizeClock(start), normalizeClock(end), nil
	}
	return "", "", &FormatError{
		Input:   text,
		Message: "expected two times separated by '-' or 'to', e.g. '13:00 - 14:00'",
	}
}

func splitPair(parts []string) (string, string, bool) {
	if len(parts) != 2 {
		return "", "", false
	}
	start, end := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if start == "" || end == "" {
		return "", "", false
	}
	return start, end, true
}

// normalizeClock zero-pads H:MM and rewrites HH.MM so that lexicographic
// comparison matches chronological order. Anything else is returned as is.
func normalizeClock(v string) string {
	m := clockLike.FindStringSubmatch(v)
	if m == nil {
		return v
	}
	hour := m[1]
	if len(hour) == 1 {
		hour = "0" + hour
	}
	return hour + ":" + m[2]
}

// ValidateWindow checks that both ends are real 24-hour clock values and that the
// window does not run backwards. Overnight windows are not supported.
func ValidateWindow(start, end string) error {
	for _, v := range []string{start, end} {
		if _, err := time.Parse("15:04", v); err != nil {
			return &FormatError{Input: v, Message: "not a valid HH:MM time"}
		}
	}
	if start > end {
		return &FormatError{
			Input:   fmt.Sprintf("%s - %s", start, end),
			Message: "start time must not be after end time",
		}
	}
	return nil
}
