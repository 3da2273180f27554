package domain

import (
	"errors"
	"fmt"
	"time"
)

// Series is the time series of observations for one location, kept in
// ascending date order with at most one observation per date.
type Series []Observation

// Index returns the position of the observation dated d, or -1.
func (s Series) Index(d time.Time) int {
	d = truncateDay(d)
	for i := range s {
		if s[i].Date.Equal(d) {
			return i
		}
	}
	return -1
}

// Metrics lists every metric reported by at least one observation, in
// column order.
func (s Series) Metrics() []Metric {
	seen := make(map[Metric]bool)
	var out []Metric
	for _, o := range s {
		for m := range o.Metrics {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return sortMetrics(out)
}

// Validate checks the structural invariants of a stored series: strictly
// ascending dates and non-negative metrics.
func (s Series) Validate() error {
	var errs []error
	for i, o := range s {
		if o.Location == "" {
			errs = append(errs, fmt.Errorf("%w: row %d: missing location", ErrValidation, i+1))
		}
		if o.Date.IsZero() {
			errs = append(errs, fmt.Errorf("%w: row %d: missing date", ErrValidation, i+1))
			continue
		}
		for m, v := range o.Metrics {
			if v < 0 {
				errs = append(errs, fmt.Errorf("%w: %s: negative %s %d", ErrValidation, o.DateString(), m, v))
			}
		}
		if i == 0 || s[i-1].Date.IsZero() {
			continue
		}
		switch prev := s[i-1].Date; {
		case prev.Equal(o.Date):
			errs = append(errs, fmt.Errorf("%w: duplicate date %s", ErrValidation, o.DateString()))
		case prev.After(o.Date):
			errs = append(errs, fmt.Errorf("%w: %s listed after %s", ErrValidation, o.DateString(), s[i-1].DateString()))
		}
	}
	return errors.Join(errs...)
}

// Regression records a cumulative metric that went down between two
// consecutive observations. It usually means a parsing error upstream.
type Regression struct {
	Metric   Metric
	Date     time.Time
	Previous int64
	Current  int64
}

// Regressions reports every decrease of a cumulative metric between
// consecutive reported values. The series must already be sorted.
func (s Series) Regressions() []Regression {
	last := make(map[Metric]int64)
	var out []Regression
	for _, o := range s {
		for _, m := range sortMetrics(keys(o.Metrics)) {
			v := o.Metrics[m]
			if prev, ok := last[m]; ok && v < prev {
				out = append(out, Regression{Metric: m, Date: o.Date, Previous: prev, Current: v})
			}
			last[m] = v
		}
	}
	return out
}

func keys(m map[Metric]int64) []Metric {
	out := make([]Metric, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
