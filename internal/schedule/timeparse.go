package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultTime is used when a time-period boundary is blank.
const DefaultTime = "16:50"

// ErrInvalidTime reports a time string that is not "<hour>.<minute>".
var ErrInvalidTime = errors.New("invalid time format")

// ConvertTime turns a loose "H.MM" string into 24-hour "HH:MM".
//
// Hours 9 through 12 are read as morning (12 stays noon); any other hour
// below 12 is moved to the afternoon, and 13+ is already 24-hour. A "1.00"
// therefore always means 13:00: a schedule cannot express times before 9AM.
// The result is not range-checked; "25.00" yields "25:00", which fails later
// when combined with a date.
func ConvertTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultTime, nil
	}

	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return "", fmt.Errorf("%w: hour in %q", ErrInvalidTime, s)
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return "", fmt.Errorf("%w: minute in %q", ErrInvalidTime, s)
	}

	// 9..12 stay as-is; 13+ are already 24-hour.
	if hour < 9 {
		hour += 12
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}
