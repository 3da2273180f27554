package domain

import "slices"

// MergeOutcome describes what Merge did with the incoming observation.
type MergeOutcome int

const (
	// Appended means the date was new to the series.
	Appended MergeOutcome = iota
	// Replaced means a row with the same date was overwritten.
	Replaced
	// Unchanged means a row with the same date already held equal values.
	Unchanged
)

func (o MergeOutcome) String() string {
	switch o {
	case Appended:
		return "appended"
	case Replaced:
		return "replaced"
	case Unchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// Merge folds obs into series and returns the merged copy. Every row with
// the same date is replaced by obs (last write wins); otherwise obs is
// appended. Duplicate dates already in series collapse to their last row.
// The result is sorted by date. The input series is not modified.
func Merge(series Series, obs Observation) (Series, MergeOutcome) {
	obs = obs.Clone()
	obs.Date = truncateDay(obs.Date)

	merged := make(Series, 0, len(series)+1)
	outcome := Appended
	for i := range series {
		if !truncateDay(series[i].Date).Equal(obs.Date) {
			merged = append(merged, series[i].Clone())
			continue
		}
		outcome = Replaced
		if series[i].Equal(obs) {
			outcome = Unchanged
		}
	}
	merged = append(merged, obs)

	slices.SortStableFunc(merged, func(a, b Observation) int {
		return a.Date.Compare(b.Date)
	})
	return dedupe(merged), outcome
}

// dedupe keeps the last of each run of equal dates in a sorted series.
func dedupe(s Series) Series {
	out := s[:0]
	for _, o := range s {
		if n := len(out); n > 0 && out[n-1].Date.Equal(o.Date) {
			out[n-1] = o
			continue
		}
		out = append(out, o)
	}
	return out
}
