package ical

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	"kandycal/internal/model"

	appLog "kandycal/internal/log"
)

const defaultMaxOccurrencesPerEvent = 1000

// ExpandConfig controls how recurring events are expanded into concrete
// occurrences for export.
type ExpandConfig struct {
	// RangeStart / RangeEnd bound the expansion of All Day events. Dated
	// events are carried regardless of the range: the published calendar
	// should always contain the full sheet.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps the expansion of a single recurring
	// event. If zero, defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// ExpandOccurrences converts the event sequence into concrete dated
// occurrences. Daily and Monthly events map one-to-one onto their stored
// date; All Day events recur on every date and are expanded into one
// occurrence per day across the configured range.
func ExpandOccurrences(events []model.Event, cfg ExpandConfig) ([]model.Occurrence, error) {
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return nil, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	out := make([]model.Occurrence, 0, len(events))

	for _, ev := range events {
		if ev.Type != model.TypeAllDay {
			out = append(out, model.Occurrence{Date: ev.Date, Event: ev})
			continue
		}

		days, err := expandDaily(ev, cfg)
		if err != nil {
			appLog.Error("expand: recurrence expansion failed", err, "event", ev.Name)
			continue
		}
		out = append(out, days...)
	}

	return out, nil
}

// expandDaily expands one All Day event into per-day occurrences over
// [RangeStart, RangeEnd] using a daily recurrence rule.
func expandDaily(ev model.Event, cfg ExpandConfig) ([]model.Occurrence, error) {
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: cfg.RangeStart,
	})
	if err != nil {
		return nil, err
	}

	times := r.Between(cfg.RangeStart, cfg.RangeEnd, true)
	if len(times) > cfg.MaxOccurrencesPerEvent {
		times = times[:cfg.MaxOccurrencesPerEvent]
		appLog.Debug("expand: occurrence cap hit", "event", ev.Name, "cap", cfg.MaxOccurrencesPerEvent)
	}

	out := make([]model.Occurrence, 0, len(times))
	for _, t := range times {
		date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		out = append(out, model.Occurrence{Date: date, Event: ev})
	}
	return out, nil
}
