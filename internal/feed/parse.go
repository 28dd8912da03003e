package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"kandycal/internal/model"

	appLog "kandycal/internal/log"
)

// Column headers the loader understands. Any other columns in the export
// are ignored; column order is arbitrary.
const (
	colDate        = "Date"
	colEventName   = "Event Name"
	colType        = "Type"
	colDescription = "Description"
	colTime        = "Time"
)

// dateLayouts are tried in order before falling back to the slash form.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// ParseEvents reads the CSV export and converts rows into Events,
// preserving source row order. Rows with a blank or unparseable Date are
// dropped with a diagnostic log; a failure of the CSV reader itself wraps
// ErrParse and fails the whole parse.
func ParseEvents(r io.Reader) ([]model.Event, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return []model.Event{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	cols := indexColumns(header)

	events := make([]model.Event, 0)
	row := 1

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrParse, row+1, err)
		}
		row++

		dateStr := strings.TrimSpace(field(record, cols[colDate]))
		if dateStr == "" {
			continue
		}

		date, ok := parseDate(dateStr)
		if !ok {
			appLog.Debug("feed: dropped row with unparseable date", "row", row, "date", dateStr)
			continue
		}

		events = append(events, model.Event{
			Date:        date,
			Name:        strings.TrimSpace(field(record, cols[colEventName])),
			Type:        model.NormalizeEventType(strings.TrimSpace(field(record, cols[colType]))),
			Description: strings.TrimSpace(field(record, cols[colDescription])),
			Time:        strings.TrimSpace(field(record, cols[colTime])),
		})
	}

	return events, nil
}

// indexColumns maps known header names to their column positions. Missing
// columns map to -1.
func indexColumns(header []string) map[string]int {
	cols := map[string]int{
		colDate:        -1,
		colEventName:   -1,
		colType:        -1,
		colDescription: -1,
		colTime:        -1,
	}
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, known := cols[name]; known && cols[name] == -1 {
			cols[name] = i
		}
	}
	return cols
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

// parseDate attempts the general layouts first, then an explicit
// month/day/year slash fallback. The result is day-granular, anchored at
// midnight UTC.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return midnightUTC(t), true
		}
	}

	// M/D/Y fallback, e.g. "3/10/2024". Out-of-range components normalize
	// the same way the original sheet consumers did (e.g. month 13 rolls
	// into the next year).
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	month, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	day, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	year, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

func midnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
