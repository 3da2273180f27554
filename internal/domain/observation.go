package domain

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// DateLayout is the ISO-8601 calendar date format used in every output file.
const DateLayout = "2006-01-02"

// Metric names a cumulative counter column in a vaccination series.
type Metric string

const (
	TotalVaccinations     Metric = "total_vaccinations"
	PeopleVaccinated      Metric = "people_vaccinated"
	PeopleFullyVaccinated Metric = "people_fully_vaccinated"
	TotalBoosters         Metric = "total_boosters"
)

// CanonicalMetrics is the column order used when writing series files.
// Metrics outside this list are written after it in lexical order.
var CanonicalMetrics = []Metric{
	TotalVaccinations,
	PeopleVaccinated,
	PeopleFullyVaccinated,
	TotalBoosters,
}

// Observation is one dated measurement for one location.
type Observation struct {
	Location  string
	Date      time.Time
	Vaccine   string
	SourceURL string
	Metrics   map[Metric]int64
}

// Date returns the UTC midnight for a calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO-8601 calendar date ("2006-01-02").
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// truncateDay drops any time-of-day component and pins the zone to UTC.
func truncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return Date(t.Year(), t.Month(), t.Day())
}

// DateString renders the observation date as YYYY-MM-DD.
func (o Observation) DateString() string {
	if o.Date.IsZero() {
		return ""
	}
	return o.Date.Format(DateLayout)
}

// Value returns the metric value and whether it was reported.
func (o Observation) Value(m Metric) (int64, bool) {
	v, ok := o.Metrics[m]
	return v, ok
}

// Clone returns a copy that shares no mutable state with o.
func (o Observation) Clone() Observation {
	o.Metrics = maps.Clone(o.Metrics)
	return o
}

// Equal reports whether two observations carry the same values.
// Vaccine lists are compared as sets.
func (o Observation) Equal(other Observation) bool {
	return o.Location == other.Location &&
		o.Date.Equal(other.Date) &&
		o.SourceURL == other.SourceURL &&
		SameVaccines(o.Vaccine, other.Vaccine) &&
		maps.Equal(o.Metrics, other.Metrics)
}

// sortMetrics orders metric names canonically, unknown names last and lexical.
func sortMetrics(ms []Metric) []Metric {
	rank := func(m Metric) int {
		if i := slices.Index(CanonicalMetrics, m); i >= 0 {
			return i
		}
		return len(CanonicalMetrics)
	}
	slices.SortFunc(ms, func(a, b Metric) int {
		ra, rb := rank(a), rank(b)
		if ra != rb {
			return ra - rb
		}
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	})
	return ms
}
