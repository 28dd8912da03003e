// Package ical re-publishes the events feed as an iCalendar feed that
// guests can subscribe to from their own calendar apps.
package ical

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"kandycal/internal/model"
)

const prodID = "-//kandycal//events//EN"

// BuildCalendar serializes the event sequence into an iCalendar document.
// All Day events are carried as concrete daily occurrences over the
// expansion range rather than as RRULEs: some consumer apps handle
// unbounded daily rules poorly.
func BuildCalendar(name string, events []model.Event, cfg ExpandConfig) (string, error) {
	occurrences, err := ExpandOccurrences(events, cfg)
	if err != nil {
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(prodID)
	cal.SetName(name)

	stamp := time.Now().UTC()

	for _, occ := range occurrences {
		ev := cal.AddEvent(occurrenceUID(occ))
		ev.SetDtStampTime(stamp)
		ev.SetAllDayStartAt(occ.Date)
		ev.SetAllDayEndAt(occ.Date.AddDate(0, 0, 1))
		ev.SetSummary(occ.Event.Name)

		if desc := describeEvent(occ.Event); desc != "" {
			ev.SetDescription(desc)
		}
	}

	return cal.Serialize(), nil
}

// describeEvent folds the free-form time string into the description,
// since the feed's Time column is display text rather than a parseable
// time value.
func describeEvent(ev model.Event) string {
	if ev.Time == "" {
		return ev.Description
	}
	if ev.Description == "" {
		return "Time: " + ev.Time
	}
	return "Time: " + ev.Time + "\n" + ev.Description
}

// occurrenceUID derives a stable identifier from the event name and
// occurrence date, so re-exports update rather than duplicate entries.
func occurrenceUID(occ model.Occurrence) string {
	slug := strings.ToLower(occ.Event.Name)
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, slug)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "event"
	}
	return fmt.Sprintf("%s-%s@kandycal", slug, occ.Date.Format("20060102"))
}
