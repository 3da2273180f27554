package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/observability"
)

// CategoryVaccinations is the dataset category incremental sources write to.
const CategoryVaccinations = "vaccinations"

// Source is anything the Runner can execute.
type Source interface {
	Name() string
}

// IncrementalSource produces the latest single observation for one location.
type IncrementalSource interface {
	Source
	Location() string
	Observe(ctx context.Context) (domain.Observation, error)
}

// BatchSource produces complete datasets that replace their files outright.
type BatchSource interface {
	Source
	Collect(ctx context.Context) ([]domain.Dataset, error)
}

// TableWriter overwrites whole dataset files.
type TableWriter interface {
	WriteTable(ctx context.Context, category, name string, t domain.Table) (string, error)
}

// Store is the persistence the Runner needs.
type Store interface {
	SeriesStore
	TableWriter
}

// Runner executes one source: extract, validate, load, and publish.
type Runner struct {
	store       Store
	incrementer *Incrementer
	publisher   domain.CatalogPublisher
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewRunner creates a Runner. Pass a nil publisher to disable catalog
// announcements.
func NewRunner(store Store, publisher domain.CatalogPublisher, metrics *observability.Metrics, logger *slog.Logger) *Runner {
	return &Runner{
		store:       store,
		incrementer: NewIncrementer(store, metrics, logger),
		publisher:   publisher,
		logger:      logger,
		metrics:     metrics,
	}
}

// Run executes src once. Every failure is a *domain.StageError naming the
// source and the stage.
func (r *Runner) Run(ctx context.Context, src Source) error {
	start := time.Now()
	logger := r.logger.With("source", src.Name())
	logger.Info("run started")

	var err error
	switch s := src.(type) {
	case IncrementalSource:
		err = r.runIncremental(ctx, s, logger)
	case BatchSource:
		err = r.runBatch(ctx, s, logger)
	default:
		err = domain.NewStageError(src.Name(), domain.StageExtract, fmt.Errorf("unsupported source type %T", src))
	}

	r.metrics.RunDuration.WithLabelValues(src.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		r.recordFailure(src.Name(), err)
		logger.Error("run failed", "error", err)
		return err
	}
	r.metrics.LastSuccessful.WithLabelValues(src.Name()).Set(float64(domain.Now().Unix()))
	logger.Info("run finished", "duration", time.Since(start))
	return nil
}

func (r *Runner) runIncremental(ctx context.Context, src IncrementalSource, logger *slog.Logger) error {
	obs, err := src.Observe(ctx)
	if err != nil {
		return domain.NewStageError(src.Name(), domain.StageExtract, err)
	}

	outcome, err := r.incrementer.Increment(ctx, CategoryVaccinations, src.Location(), obs)
	if err != nil {
		stage := domain.StageLoad
		if errors.Is(err, domain.ErrValidation) {
			stage = domain.StageValidate
		}
		return domain.NewStageError(src.Name(), stage, err)
	}

	r.metrics.ObservationsMerged.WithLabelValues(src.Name(), outcome.String()).Inc()
	logger.Info("observation merged",
		"stage", domain.StageLoad,
		"category", CategoryVaccinations,
		"location", obs.Location,
		"date", obs.DateString(),
		"outcome", outcome.String(),
	)
	return nil
}

func (r *Runner) runBatch(ctx context.Context, src BatchSource, logger *slog.Logger) error {
	datasets, err := src.Collect(ctx)
	if err != nil {
		return domain.NewStageError(src.Name(), domain.StageExtract, err)
	}
	if len(datasets) == 0 {
		return domain.NewStageError(src.Name(), domain.StageValidate, fmt.Errorf("%w: source produced no datasets", domain.ErrValidation))
	}

	// Validate everything before the first write.
	var errs []error
	for _, d := range datasets {
		if err := d.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s/%s: %w", d.Category, d.Name, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return domain.NewStageError(src.Name(), domain.StageValidate, err)
	}

	var announce []domain.DatasetMeta
	for _, d := range datasets {
		if _, err := r.store.WriteTable(ctx, d.Category, d.Name, d.Table); err != nil {
			return domain.NewStageError(src.Name(), domain.StageLoad, err)
		}
		r.metrics.RowsWritten.WithLabelValues(src.Name(), d.Category).Add(float64(len(d.Table.Rows)))
		logger.Info("dataset written", "stage", domain.StageLoad, "category", d.Category, "dataset", d.Name, "rows", len(d.Table.Rows))

		if d.Meta != nil {
			announce = append(announce, catalogMeta(d))
		}
	}

	return r.publish(ctx, src.Name(), announce, logger)
}

func (r *Runner) publish(ctx context.Context, source string, metas []domain.DatasetMeta, logger *slog.Logger) error {
	if r.publisher == nil {
		if len(metas) > 0 {
			logger.Debug("catalog disabled, skipping announcements", "datasets", len(metas))
		}
		return nil
	}
	for _, meta := range metas {
		if err := r.publisher.Publish(ctx, meta); err != nil {
			r.metrics.CatalogPublishes.WithLabelValues(source, "error").Inc()
			return domain.NewStageError(source, domain.StagePublish, err)
		}
		r.metrics.CatalogPublishes.WithLabelValues(source, "success").Inc()
	}
	return nil
}

// catalogMeta completes a dataset's metadata with its output path, size and
// timestamp.
func catalogMeta(d domain.Dataset) domain.DatasetMeta {
	meta := *d.Meta
	if meta.Name == "" {
		meta.Name = d.Name
	}
	meta.Path = path.Join(d.Category, d.Name+".csv")
	meta.Rows = len(d.Table.Rows)
	meta.UpdatedAt = domain.Now().UTC()
	return meta
}

func (r *Runner) recordFailure(source string, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		r.metrics.ValidationFailures.WithLabelValues(source).Inc()
	case errors.Is(err, domain.ErrFormatDrift):
		r.metrics.FormatDriftFailures.WithLabelValues(source).Inc()
	}
}
