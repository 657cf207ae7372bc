package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "tablecal/internal/log"
	"tablecal/internal/model"
)

// ErrEmptyCalendar is returned for an empty ICS payload.
var ErrEmptyCalendar = errors.New("empty ICS body")

// Decode reads the VEVENTs of an ICS payload back into events. Times keep
// their wall-clock value; a TZID or UTC marker is honored when parsing but
// not carried into the result. Recurrence rules are not expanded.
func Decode(body []byte) ([]model.Event, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyCalendar
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err)
		return nil, err
	}

	events := make([]model.Event, 0)
	for _, ve := range cal.Events() {
		ev, perr := decodeVEvent(ve)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Error("ics vevent parse failed", perr, "uid", ve.Id())
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics parse completed", "event_count", len(events))
	return events, nil
}

func decodeVEvent(ve *ical.VEvent) (model.Event, error) {
	var out model.Event

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Title = p.Value
	}

	start, err := propertyTime(ve.GetProperty(ical.ComponentPropertyDtStart))
	if err != nil {
		return out, fmt.Errorf("DTSTART: %w", err)
	}
	end, err := propertyTime(ve.GetProperty(ical.ComponentPropertyDtEnd))
	if err != nil {
		return out, fmt.Errorf("DTEND: %w", err)
	}
	out.Start = model.NewLocalTime(start)
	out.End = model.NewLocalTime(end)
	return out, nil
}

func propertyTime(p *ical.IANAProperty) (time.Time, error) {
	if p == nil {
		return time.Time{}, errors.New("missing property")
	}
	loc := time.UTC
	if tzs, ok := p.ICalParameters["TZID"]; ok && len(tzs) > 0 {
		if l, err := time.LoadLocation(tzs[0]); err == nil {
			loc = l
		}
	}
	return parseICSTime(p.Value, loc)
}

// parseICSTime parses a basic ICS date/date-time value. UTC values are
// converted to local time.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	// UTC form, e.g., 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		t, err := time.Parse("20060102T150405Z", v)
		if err != nil {
			return t, err
		}
		return t.Local(), nil
	}

	// Floating or TZID date-time, e.g., 20250101T090000
	if strings.Contains(v, "T") {
		return time.ParseInLocation(floatingLayout, v, loc)
	}

	// Date-only (all-day), e.g., 20250101
	return time.ParseInLocation("20060102", v, loc)
}
