package model

import "time"

// EventType is the category of a calendar event. The feed carries free
// text; NormalizeEventType maps it onto this closed set.
type EventType string

const (
	TypeDaily   EventType = "Daily"
	TypeMonthly EventType = "Monthly"
	TypeAllDay  EventType = "All Day"
)

// NormalizeEventType maps a raw feed value onto the fixed category set.
// Only the exact strings "Monthly" and "All Day" are recognized; every
// other value, including empty, is treated as Daily.
func NormalizeEventType(raw string) EventType {
	switch raw {
	case "Monthly":
		return TypeMonthly
	case "All Day":
		return TypeAllDay
	default:
		return TypeDaily
	}
}

// Event is a single calendar occurrence from the events feed. Events are
// value types and are never mutated after the loader emits them.
type Event struct {
	// Date is day-granular; it is always midnight UTC regardless of the
	// source timezone. Time below is display text only.
	Date        time.Time `json:"date"`
	Name        string    `json:"event_name"`
	Type        EventType `json:"type"`
	Description string    `json:"description,omitempty"`
	Time        string    `json:"time,omitempty"`
}

// Occurrence is a concrete dated instance of an event, produced when
// recurring (All Day) events are expanded over a horizon for export.
type Occurrence struct {
	Date  time.Time
	Event Event
}

// Filter narrows projector queries. FilterAll keeps every type; the
// remaining values match a single EventType.
type Filter string

const (
	FilterAll     Filter = "All"
	FilterDaily   Filter = Filter(TypeDaily)
	FilterMonthly Filter = Filter(TypeMonthly)
	FilterAllDay  Filter = Filter(TypeAllDay)
)

// ParseFilter maps a query-string value onto a Filter, defaulting to
// FilterAll for empty or unknown values.
func ParseFilter(raw string) Filter {
	switch Filter(raw) {
	case FilterDaily, FilterMonthly, FilterAllDay:
		return Filter(raw)
	default:
		return FilterAll
	}
}

// CalendarCell is one day slot of a rendered month grid.
type CalendarCell struct {
	Date           time.Time `json:"date"`
	IsCurrentMonth bool      `json:"is_current_month"`
	IsToday        bool      `json:"is_today"`

	// Events is the full filtered set for this date. Overflow is the
	// exact count beyond the three badge slots the UI renders.
	Events   []Event `json:"events"`
	Overflow int     `json:"overflow"`
}

// ViewMode selects between the month grid and the single-day list.
type ViewMode string

const (
	ModeMonthly ViewMode = "monthly"
	ModeDaily   ViewMode = "daily"
)

// ViewState is the calendar view state owned by the consumer. The
// projector itself is stateless; callers re-query it after each change.
type ViewState struct {
	ViewMode       ViewMode
	SelectedDate   time.Time
	HasSelection   bool
	FilterType     Filter
	ReferenceMonth time.Time
}

// NewViewState returns the initial view state: month grid for ref's
// month, no selection, no filter.
func NewViewState(ref time.Time) ViewState {
	return ViewState{
		ViewMode:       ModeMonthly,
		FilterType:     FilterAll,
		ReferenceMonth: ref,
	}
}

// SelectDate is the grid-cell click transition: switch to the daily view
// with the given date selected.
func (s *ViewState) SelectDate(d time.Time) {
	s.SelectedDate = d
	s.HasSelection = true
	s.ViewMode = ModeDaily
}
