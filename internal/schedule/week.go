package schedule

import (
	"time"

	"github.com/teambition/rrule-go"
)

// WeekDays is the number of schedule days, Monday through Friday.
const WeekDays = 5

// Timezone is the zone schedules are authored in. It is reported with the
// week window but never attached to emitted timestamps.
const Timezone = "Asia/Kolkata"

// Week is the set of weekday dates events are placed on.
type Week struct {
	// Days holds midnight of Monday..Friday, in the location of the clock.
	Days []time.Time
	// Zone is the resolved Timezone, or nil if the zone database lacks it.
	Zone *time.Location
}

// Monday returns the first day of the window.
func (w Week) Monday() time.Time {
	if len(w.Days) == 0 {
		return time.Time{}
	}
	return w.Days[0]
}

// WeekOf returns the Monday-to-Friday window of the week containing now.
// On weekends the window is the week that is ending, not the next one.
func WeekOf(now time.Time) Week {
	offset := (int(now.Weekday()) + 6) % 7
	y, m, d := now.Date()
	monday := time.Date(y, m, d-offset, 0, 0, 0, 0, now.Location())

	days := weekdays(monday)
	zone, _ := time.LoadLocation(Timezone)
	return Week{Days: days, Zone: zone}
}

func weekdays(monday time.Time) []time.Time {
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.DAILY,
		Dtstart:   monday,
		Count:     WeekDays,
		Byweekday: []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR},
	})
	if err != nil {
		// The option set is constant; fall back to plain date arithmetic.
		days := make([]time.Time, WeekDays)
		for i := range days {
			days[i] = monday.AddDate(0, 0, i)
		}
		return days
	}
	return r.All()
}
