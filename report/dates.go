package report

import "time"

// dateLayout is Tally's dd-mm-yyyy wire format for dates.
const dateLayout = "02-01-2006"

// Range is a resolved report date range plus the current date.
type Range struct {
	From    time.Time
	To      time.Time
	Current time.Time
}

// FormatDate renders t in Tally's dd-mm-yyyy format.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// DateRange resolves the report period. A nil from defaults to the start
// of the current financial year (April 1), a nil to defaults to today; the
// current date is always today.
func DateRange(from, to *time.Time) Range {
	now := time.Now()
	rng := Range{Current: now}

	if to != nil {
		rng.To = *to
	} else {
		rng.To = now
	}

	if from != nil {
		rng.From = *from
	} else {
		rng.From = financialYearStart(rng.To)
	}

	return rng
}

// financialYearStart returns April 1 of the financial year containing t.
func financialYearStart(t time.Time) time.Time {
	year := t.Year()
	if t.Month() < time.April {
		year--
	}
	return time.Date(year, time.April, 1, 0, 0, 0, 0, t.Location())
}
