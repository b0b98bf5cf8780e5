package models

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// DateSet is an immutable ordered set of calendar dates, ascending and
// unique at date precision. A MergedReservation keeps all of its distinct
// tour dates here alongside the default representative date, so the
// matching engine can ask for the member closest to an excel-side target.
type DateSet struct {
	dates []time.Time
}

// NewDateSet builds a DateSet from the given times. Inputs are truncated
// to date precision, deduplicated, and sorted ascending; zero times are
// dropped.
func NewDateSet(dates ...time.Time) DateSet {
	seen := make(map[string]bool, len(dates))
	unique := make([]time.Time, 0, len(dates))

	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		day := TruncateToDay(d)
		key := day.Format("2006-01-02")
		if !seen[key] {
			seen[key] = true
			unique = append(unique, day)
		}
	}

	sort.Slice(unique, func(i, j int) bool {
		return unique[i].Before(unique[j])
	})

	return DateSet{dates: unique}
}

// Len returns the number of dates in the set.
func (ds DateSet) Len() int {
	return len(ds.dates)
}

// IsEmpty reports whether the set has no dates.
func (ds DateSet) IsEmpty() bool {
	return len(ds.dates) == 0
}

// Dates returns a copy of the dates in ascending order.
func (ds DateSet) Dates() []time.Time {
	out := make([]time.Time, len(ds.dates))
	copy(out, ds.dates)
	return out
}

// Earliest returns the earliest date in the set, or the zero time when the
// set is empty.
func (ds DateSet) Earliest() time.Time {
	if len(ds.dates) == 0 {
		return time.Time{}
	}
	return ds.dates[0]
}

// Contains reports whether the set holds the given calendar date.
func (ds DateSet) Contains(t time.Time) bool {
	day := TruncateToDay(t)
	for _, d := range ds.dates {
		if d.Equal(day) {
			return true
		}
	}
	return false
}

// ClosestTo returns the member with the smallest absolute day distance to
// the target, the distance itself, and whether the set was non-empty.
// Ties are broken by the earlier date; ascending iteration makes the
// first-seen minimum the earlier one.
func (ds DateSet) ClosestTo(target time.Time) (time.Time, int, bool) {
	if len(ds.dates) == 0 {
		return time.Time{}, 0, false
	}

	best := ds.dates[0]
	bestDist := DayDiff(best, target)

	for _, d := range ds.dates[1:] {
		if dist := DayDiff(d, target); dist < bestDist {
			best = d
			bestDist = dist
		}
	}

	return best, bestDist, true
}

// String returns the set as a comma-joined list of ISO dates.
func (ds DateSet) String() string {
	parts := make([]string, len(ds.dates))
	for i, d := range ds.dates {
		parts[i] = d.Format("2006-01-02")
	}
	return strings.Join(parts, ",")
}

// MarshalJSON renders the set as a JSON array of ISO dates.
func (ds DateSet) MarshalJSON() ([]byte, error) {
	parts := make([]string, len(ds.dates))
	for i, d := range ds.dates {
		parts[i] = d.Format("2006-01-02")
	}
	return json.Marshal(parts)
}

// UnmarshalJSON parses a JSON array of ISO dates.
func (ds *DateSet) UnmarshalJSON(data []byte) error {
	var parts []string
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}

	dates := make([]time.Time, 0, len(parts))
	for _, p := range parts {
		t, err := ParseDateWithFormats(p)
		if err != nil {
			return err
		}
		dates = append(dates, t)
	}

	*ds = NewDateSet(dates...)
	return nil
}
