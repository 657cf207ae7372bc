package schedule

import (
	"fmt"
	"strings"
	"time"

	appLog "tablecal/internal/log"
	"tablecal/internal/model"
	"tablecal/internal/table"
)

// dateTimeLayout combines a week date with a converted "HH:MM". Values are
// parsed in UTC so the wall-clock time is kept as written regardless of the
// host's DST rules.
const dateTimeLayout = "2006-01-02 15:04"

// Skip reasons. A skipped time-period drops one event and never aborts the
// rest of the table.
const (
	SkipHeader   = "header"
	SkipTime     = "time"
	SkipDateTime = "datetime"
)

// Skip records a cell that did not become an event.
type Skip struct {
	Day    time.Time
	Column string
	Reason string
	Err    error
}

// Result is the outcome of Transform.
type Result struct {
	Events  []model.Event
	Skipped []Skip
}

// Transform pairs the week's dates with the table rows, in order, and turns
// every (row, time-period column) cell into an event. Only min(len(days),
// len(rows)) rows are used. Events come out day-major, then in column order.
// The table is expected to be normalized already; a literal "Date" column is
// still ignored.
func Transform(t *table.Table, days []time.Time) Result {
	var res Result
	res.Events = make([]model.Event, 0)

	n := len(days)
	if len(t.Rows) < n {
		n = len(t.Rows)
	}

	for i := 0; i < n; i++ {
		day := days[i]
		for c, period := range t.Columns {
			if period == table.DateMarker {
				continue
			}
			title := t.Cell(i, c)

			ev, reason, err := periodEvent(day, period, title)
			if err != nil {
				appLog.Error("skipping time period", err,
					"time_period", period,
					"day", day.Format("2006-01-02"),
					"reason", reason,
				)
				res.Skipped = append(res.Skipped, Skip{Day: day, Column: period, Reason: reason, Err: err})
				continue
			}
			res.Events = append(res.Events, ev)
		}
	}
	return res
}

func periodEvent(day time.Time, period, title string) (model.Event, string, error) {
	parts := strings.Split(period, "-")
	if len(parts) != 2 {
		return model.Event{}, SkipHeader, fmt.Errorf("time period %q is not <start>-<end>", period)
	}

	start, err := ConvertTime(parts[0])
	if err != nil {
		return model.Event{}, SkipTime, err
	}
	end, err := ConvertTime(parts[1])
	if err != nil {
		return model.Event{}, SkipTime, err
	}

	date := day.Format("2006-01-02")
	startAt, err := time.ParseInLocation(dateTimeLayout, date+" "+start, time.UTC)
	if err != nil {
		return model.Event{}, SkipDateTime, err
	}
	endAt, err := time.ParseInLocation(dateTimeLayout, date+" "+end, time.UTC)
	if err != nil {
		return model.Event{}, SkipDateTime, err
	}

	return model.Event{
		Title: title,
		Start: model.NewLocalTime(startAt),
		End:   model.NewLocalTime(endAt),
	}, "", nil
}
