// Package calendar projects an in-memory event sequence onto month and
// day views. All functions are pure: they never perform I/O, never fail,
// and derive everything from their arguments, so they are safe to call
// from any goroutine.
package calendar

import (
	"time"

	"kandycal/internal/model"
)

// BadgeSlots is how many per-day event badges the grid renders before
// collapsing the remainder into an overflow count.
const BadgeSlots = 3

// EventsOnDate returns the events applicable to a single day under the
// given filter.
//
// Events typed "All Day" recur on every date and are always part of the
// union; all other events match by exact calendar-date equality. Dated
// matches come first, in source order, with the All Day set appended.
// When the filter is exactly "All Day" the result is the All Day set
// alone, bypassing date matching.
func EventsOnDate(date time.Time, events []model.Event, filter model.Filter) []model.Event {
	regular, allDay := splitAllDay(events)

	if filter == model.FilterAllDay {
		return allDay
	}

	out := make([]model.Event, 0, len(regular)+len(allDay))
	for _, ev := range regular {
		if SameDay(ev.Date, date) {
			out = append(out, ev)
		}
	}
	out = append(out, allDay...)

	return narrow(out, filter)
}

// EventsInMonth returns the events applicable to ref's calendar month
// under the given filter, with the same union and ordering policy as
// EventsOnDate but month-interval date matching.
func EventsInMonth(ref time.Time, events []model.Event, filter model.Filter) []model.Event {
	regular, allDay := splitAllDay(events)

	if filter == model.FilterAllDay {
		return allDay
	}

	first, last := MonthBounds(ref)

	out := make([]model.Event, 0, len(regular)+len(allDay))
	for _, ev := range regular {
		if !ev.Date.Before(first) && !ev.Date.After(last) {
			out = append(out, ev)
		}
	}
	out = append(out, allDay...)

	return narrow(out, filter)
}

// BuildMonthGrid produces the cells of a month view for ref's month: a
// 7-column grid of whole weeks, from the week containing the 1st through
// the week containing the last day. today marks the IsToday cell and is
// compared by calendar date only.
func BuildMonthGrid(ref, today time.Time, events []model.Event, filter model.Filter, weekStart time.Weekday) []model.CalendarCell {
	first, last := MonthBounds(ref)
	start := StartOfWeek(first, weekStart)
	end := StartOfWeek(last, weekStart).AddDate(0, 0, 6)

	cells := make([]model.CalendarCell, 0, 42)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dayEvents := EventsOnDate(d, events, filter)

		overflow := 0
		if len(dayEvents) > BadgeSlots {
			overflow = len(dayEvents) - BadgeSlots
		}

		cells = append(cells, model.CalendarCell{
			Date:           d,
			IsCurrentMonth: d.Month() == ref.Month() && d.Year() == ref.Year(),
			IsToday:        SameDay(d, today),
			Events:         dayEvents,
			Overflow:       overflow,
		})
	}

	return cells
}

// SameDay reports whether a and b fall on the same calendar date,
// ignoring time of day and location offsets within the stored values.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// MonthBounds returns the first and last calendar day of ref's month,
// both at midnight UTC.
func MonthBounds(ref time.Time) (first, last time.Time) {
	first = time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
	last = first.AddDate(0, 1, -1)
	return first, last
}

// StartOfWeek returns the most recent weekStart day on or before d, at
// midnight UTC.
func StartOfWeek(d time.Time, weekStart time.Weekday) time.Time {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	back := (int(day.Weekday()) - int(weekStart) + 7) % 7
	return day.AddDate(0, 0, -back)
}

// WeekStartFromName maps a config week_start value onto a weekday,
// defaulting to Sunday.
func WeekStartFromName(name string) time.Weekday {
	if name == "monday" {
		return time.Monday
	}
	return time.Sunday
}

func splitAllDay(events []model.Event) (regular, allDay []model.Event) {
	regular = make([]model.Event, 0, len(events))
	allDay = make([]model.Event, 0)
	for _, ev := range events {
		if ev.Type == model.TypeAllDay {
			allDay = append(allDay, ev)
		} else {
			regular = append(regular, ev)
		}
	}
	return regular, allDay
}

// narrow applies a type filter to an already unioned event list. FilterAll
// keeps everything; FilterAllDay is handled by the callers before the
// union is built.
func narrow(events []model.Event, filter model.Filter) []model.Event {
	if filter == model.FilterAll {
		return events
	}
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if model.Filter(ev.Type) == filter {
			out = append(out, ev)
		}
	}
	return out
}
