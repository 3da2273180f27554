package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/observability"
)

// SeriesStore loads and saves per-location series. LoadSeries returns an
// empty series when none exists yet.
type SeriesStore interface {
	LoadSeries(ctx context.Context, category, location string) (domain.Series, error)
	SaveSeries(ctx context.Context, category, location string, series domain.Series) error
}

// Incrementer merges single observations into persisted series.
type Incrementer struct {
	store   SeriesStore
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewIncrementer creates an Incrementer backed by store.
func NewIncrementer(store SeriesStore, metrics *observability.Metrics, logger *slog.Logger) *Incrementer {
	return &Incrementer{store: store, metrics: metrics, logger: logger}
}

// Increment validates obs, merges it into the location's series and
// rewrites the series. Nothing is read or written when obs is invalid.
// Decreasing cumulative totals around the merged date are logged but do not
// fail the merge.
func (inc *Incrementer) Increment(ctx context.Context, category, location string, obs domain.Observation) (domain.MergeOutcome, error) {
	if err := domain.Validate(obs); err != nil {
		return 0, err
	}
	if obs.Location != location {
		return 0, fmt.Errorf("%w: observation is for %q, series is %q", domain.ErrValidation, obs.Location, location)
	}

	series, err := inc.store.LoadSeries(ctx, category, location)
	if err != nil {
		return 0, fmt.Errorf("load series: %w", err)
	}

	merged, outcome := domain.Merge(series, obs)
	if outcome == domain.Unchanged {
		inc.logger.Debug("observation already recorded", "location", location, "date", obs.DateString())
	}

	for _, reg := range neighbourhood(merged, obs).Regressions() {
		inc.metrics.Regressions.WithLabelValues(location, string(reg.Metric)).Inc()
		inc.logger.Warn("cumulative metric decreased",
			"location", location,
			"metric", reg.Metric,
			"date", reg.Date.Format(domain.DateLayout),
			"previous", reg.Previous,
			"current", reg.Current,
		)
	}

	if err := inc.store.SaveSeries(ctx, category, location, merged); err != nil {
		return 0, fmt.Errorf("save series: %w", err)
	}
	return outcome, nil
}

// neighbourhood returns the merged row with its immediate neighbours.
func neighbourhood(s domain.Series, obs domain.Observation) domain.Series {
	i := s.Index(obs.Date)
	if i < 0 {
		return nil
	}
	return s[max(0, i-1):min(len(s), i+2)]
}
