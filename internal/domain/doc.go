// Package domain models the COVID-19 datasets produced by this repository.
//
// # Observations and series
//
// An [Observation] is one dated measurement for one location: cumulative
// vaccination counters, the comma-joined list of vaccines in use, and the
// page it was read from. A [Series] is the per-location history of those
// observations, stored as one CSV file per location per dataset category:
//
//	location,date,total_vaccinations,people_vaccinated,...,vaccine,source_url
//	Serbia,2022-01-10,7123456,3123456,2923456,1076544,"Oxford/AstraZeneca, ...",https://...
//
// Rows are kept in ascending date order with at most one row per date.
// [Merge] folds a fresh observation into a series: a row with the same date
// is replaced (same-day corrections win), otherwise the observation is
// appended, and the result is re-sorted.
//
// # Cumulative counters
//
// Every metric is a running total. Downstream consumers assume totals never
// decrease from one date to the next. That is not enforced here because
// sources occasionally publish revised totals; [Series.Regressions] reports
// every decrease so callers can log it.
//
// # Failure classes
//
// Errors fall into three classes, each with a sentinel:
//
//	ErrTransport    network unreachable or non-2xx response
//	ErrFormatDrift  the page no longer matches the expected layout
//	ErrValidation   a missing field or negative metric
//
// Format drift needs a code change rather than a re-run, so extraction fails
// loudly on any non-match instead of returning partial values. See [Extract].
//
// # Batch datasets
//
// Full-history sources produce a [Dataset] wrapping a generic [Table] that is
// rewritten whole on each run. Datasets carrying [DatasetMeta] are announced
// to the downstream catalog once written.
package domain
