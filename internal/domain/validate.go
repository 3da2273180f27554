package domain

import (
	"errors"
	"fmt"
)

// Validate rejects an observation that is missing a required field or
// reports a negative metric. Every problem found is reported.
func Validate(obs Observation) error {
	var errs []error
	if obs.Location == "" {
		errs = append(errs, fmt.Errorf("%w: location is required", ErrValidation))
	}
	if obs.Date.IsZero() {
		errs = append(errs, fmt.Errorf("%w: date is required", ErrValidation))
	}
	if obs.Vaccine == "" {
		errs = append(errs, fmt.Errorf("%w: vaccine is required", ErrValidation))
	}
	if obs.SourceURL == "" {
		errs = append(errs, fmt.Errorf("%w: source_url is required", ErrValidation))
	}
	if len(obs.Metrics) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one metric is required", ErrValidation))
	}
	for _, m := range sortMetrics(keys(obs.Metrics)) {
		if m == "" {
			errs = append(errs, fmt.Errorf("%w: unnamed metric", ErrValidation))
			continue
		}
		if fixedColumn(string(m)) {
			errs = append(errs, fmt.Errorf("%w: metric name %q clashes with a series column", ErrValidation, m))
			continue
		}
		if v := obs.Metrics[m]; v < 0 {
			errs = append(errs, fmt.Errorf("%w: %s must not be negative, got %d", ErrValidation, m, v))
		}
	}
	return errors.Join(errs...)
}
