// Package ics converts schedule events to and from iCalendar.
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"tablecal/internal/model"
)

// ProductID identifies calendars produced by this service.
const ProductID = "-//tablecal//weekly schedule//EN"

// floatingLayout is an iCalendar DATE-TIME with no zone: the event happens
// at the same wall-clock time wherever the calendar is opened.
const floatingLayout = "20060102T150405"

// uidNamespace seeds deterministic event UIDs, so re-exporting the same
// schedule updates existing calendar entries instead of duplicating them.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:tablecal:event"))

// EncodeOptions controls iCalendar output.
type EncodeOptions struct {
	// RepeatWeeks > 1 adds a weekly RRULE with that many occurrences.
	RepeatWeeks int
	// Now stamps DTSTAMP. Zero means time.Now.
	Now time.Time
}

// Encode renders events as a VCALENDAR with one VEVENT each, using CRLF line
// endings. Start and end are written as floating local times, matching the
// naive timestamps of the JSON output.
func Encode(events []model.Event, opts EncodeOptions) (string, error) {
	stamp := opts.Now
	if stamp.IsZero() {
		stamp = time.Now()
	}

	var rule string
	if opts.RepeatWeeks > 1 {
		r, err := weeklyRule(opts.RepeatWeeks)
		if err != nil {
			return "", err
		}
		rule = r
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)

	for _, ev := range events {
		ve := cal.AddEvent(EventUID(ev))
		ve.SetDtStampTime(stamp.UTC())
		ve.SetSummary(ev.Title)
		ve.SetProperty(ical.ComponentPropertyDtStart, ev.Start.Format(floatingLayout))
		ve.SetProperty(ical.ComponentPropertyDtEnd, ev.End.Format(floatingLayout))
		if rule != "" {
			ve.SetProperty(ical.ComponentPropertyRrule, rule)
		}
	}
	return cal.Serialize(ical.WithNewLineWindows), nil
}

// EventUID derives a stable UID from title, start and end.
func EventUID(ev model.Event) string {
	name := fmt.Sprintf("%s|%s|%s", ev.Title, ev.Start, ev.End)
	return uuid.NewSHA1(uidNamespace, []byte(name)).String() + "@tablecal"
}

func weeklyRule(count int) (string, error) {
	opt := rrule.ROption{Freq: rrule.WEEKLY, Count: count}
	// Round-trip through the parser so only rules it accepts are emitted.
	s := opt.RRuleString()
	if _, err := rrule.StrToRRule(s); err != nil {
		return "", fmt.Errorf("ics: weekly rule: %w", err)
	}
	return s, nil
}
