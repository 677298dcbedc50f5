// Package ledger implements the transaction ledger engine: field calculation,
// validation, duplicate detection, permission scoping, and single/bulk mutation.
package ledger

import (
	"strings"
	"time"
)

// SettlementCalendar advances a date by n settlement days. Pluggable so the
// legacy weekend-skip arithmetic and the corrected business-day calculation
// can be swapped without touching callers.
type SettlementCalendar func(from time.Time, days int) time.Time

// LegacySettlementCalendar replicates the historical advancement: one calendar
// day per step, skipping a single day when the step lands on a weekend. The
// single-day skip does not fully clear a weekend — a Thursday trade settles on
// Sunday instead of Monday. Kept as the default for backward compatibility.
func LegacySettlementCalendar(from time.Time, days int) time.Time {
	d := from
	for i := 0; i < days; i++ {
		d = d.AddDate(0, 0, 1)
		if isWeekend(d) {
			d = d.AddDate(0, 0, 1)
		}
	}
	return d
}

// BusinessDaySettlementCalendar advances by full business days, clearing
// weekends entirely.
func BusinessDaySettlementCalendar(from time.Time, days int) time.Time {
	d := from
	for i := 0; i < days; i++ {
		d = d.AddDate(0, 0, 1)
		for isWeekend(d) {
			d = d.AddDate(0, 0, 1)
		}
	}
	return d
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// CalendarFromName resolves a configured calendar name, defaulting to legacy.
func CalendarFromName(name string) SettlementCalendar {
	if strings.EqualFold(name, "business") {
		return BusinessDaySettlementCalendar
	}
	return LegacySettlementCalendar
}
