package billing

import "time"

// =============================================================================
// DATE RANGE FILTER - Inclusive calendar-date interval
// =============================================================================

// DateRange is an inclusive [Start, End] interval over calendar dates.
// A range with either bound zero is open and passes every record.
//
// Comparison is on calendar date only: the appointment timestamp is reduced
// to (year, month, day) in its own location before comparing against the
// bounds, so a consultation at any instant of a boundary day is inside the
// range regardless of timezone.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Bounded reports whether both bounds are set.
func (r DateRange) Bounded() bool {
	return !r.Start.IsZero() && !r.End.IsZero()
}

// Contains reports whether t falls inside the range. Open ranges contain
// everything.
func (r DateRange) Contains(t time.Time) bool {
	if !r.Bounded() {
		return true
	}
	day := dateOnly(t)
	return !day.Before(dateOnly(r.Start)) && !day.After(dateOnly(r.End))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a calendar-date bound in ISO form (2006-01-02).
// Empty or malformed text yields the zero time, i.e. an open bound.
func ParseDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
