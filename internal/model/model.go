package model

import (
	"fmt"
	"strings"
	"time"
)

// LocalTimeLayout is the wire format for event timestamps: ISO-8601 with
// seconds and no zone offset.
const LocalTimeLayout = "2006-01-02T15:04:05"

// LocalTime is a wall-clock date-time with no timezone attached. The
// underlying time.Time location is ignored when serializing; parsed values
// are held in UTC, which has no DST gaps.
type LocalTime struct {
	time.Time
}

// NewLocalTime wraps t as a naive date-time.
func NewLocalTime(t time.Time) LocalTime {
	return LocalTime{Time: t}
}

func (t LocalTime) String() string {
	return t.Format(LocalTimeLayout)
}

func (t LocalTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.Format(LocalTimeLayout) + `"`), nil
}

func (t *LocalTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := time.ParseInLocation(LocalTimeLayout, s, time.UTC)
	if err != nil {
		return fmt.Errorf("model: invalid local time %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// Event is one recognized schedule slot: the cell text of a weekday row
// under a time-period column.
type Event struct {
	Title string    `json:"title"`
	Start LocalTime `json:"start"`
	End   LocalTime `json:"end"`
}
