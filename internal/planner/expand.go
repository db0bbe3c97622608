package planner

import (
	"time"

	"github.com/dayplan/core/internal/domain/entities"
)

// Expand computes the ordered calendar dates a schedule occurs on between
// start and end, both inclusive. It is a pure function of its arguments:
// re-running it for the same template fields always yields the same
// sequence, so the result is never cached as authoritative state.
//
// A non-empty weekday set wins over the month interval; with neither
// supplied the schedule degrades to a 1-month interval. An inverted range
// or a weekday set matching nothing in range yields an empty sequence, not
// an error.
func Expand(start, end time.Time, days []time.Weekday, intervalMonths int) []time.Time {
	start = entities.Midnight(start)
	end = entities.Midnight(end)
	if end.Before(start) {
		return nil
	}

	if len(days) > 0 {
		return expandWeekdays(start, end, days)
	}
	if intervalMonths <= 0 {
		intervalMonths = 1
	}
	return expandInterval(start, end, intervalMonths)
}

// ExpandTemplate expands a template row using its own schedule fields,
// resolving a missing end date to the given horizon.
func ExpandTemplate(tpl *entities.Task, horizonMonths int) []time.Time {
	if tpl.StartDate == nil {
		return nil
	}
	end := entities.Midnight(tpl.EffectiveEndDate(horizonMonths))
	interval := 0
	if tpl.RecurrenceInterval != nil {
		interval = *tpl.RecurrenceInterval
	}
	return Expand(*tpl.StartDate, end, tpl.DaysSelected, interval)
}

func expandWeekdays(start, end time.Time, days []time.Weekday) []time.Time {
	selected := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		selected[d] = true
	}

	var out []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if selected[d.Weekday()] {
			out = append(out, d)
		}
	}
	return out
}

func expandInterval(start, end time.Time, months int) []time.Time {
	var out []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, months, 0) {
		out = append(out, d)
	}
	return out
}
