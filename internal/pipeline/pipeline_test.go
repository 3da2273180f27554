package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockIncremental struct {
	obs domain.Observation
	err error
}

func (m mockIncremental) Name() string     { return "serbia" }
func (m mockIncremental) Location() string { return testLocation }
func (m mockIncremental) Observe(context.Context) (domain.Observation, error) {
	return m.obs, m.err
}

type mockBatch struct {
	datasets []domain.Dataset
	err      error
}

func (m mockBatch) Name() string { return "uk-nations" }
func (m mockBatch) Collect(context.Context) ([]domain.Dataset, error) {
	return m.datasets, m.err
}

type unknownSource struct{}

func (unknownSource) Name() string { return "mystery" }

type mockPublisher struct {
	published []domain.DatasetMeta
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, meta domain.DatasetMeta) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, meta)
	return nil
}

func dataset(category, name string, meta *domain.DatasetMeta) domain.Dataset {
	return domain.Dataset{
		Category: category,
		Name:     name,
		Table:    domain.Table{Header: []string{"Country", "Year"}, Rows: [][]string{{"England", "1"}, {"Wales", "1"}}},
		Meta:     meta,
	}
}

// --- tests ---

func TestRun_Incremental(t *testing.T) {
	store := &recordingStore{}
	m := newTestMetrics()
	r := pipeline.NewRunner(store, nil, m, discardLogger())

	require.NoError(t, r.Run(context.Background(), mockIncremental{obs: observation(10, 100)}))

	assert.Len(t, store.series["vaccinations/"+testLocation], 1)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ObservationsMerged.WithLabelValues("serbia", "appended")), 0)
}

func TestRun_IncrementalStages(t *testing.T) {
	tests := []struct {
		name     string
		src      mockIncremental
		store    *recordingStore
		stage    domain.Stage
		sentinel error
	}{
		{
			name:     "transport failure",
			src:      mockIncremental{err: domain.ErrTransport},
			store:    &recordingStore{},
			stage:    domain.StageExtract,
			sentinel: domain.ErrTransport,
		},
		{
			name:     "format drift",
			src:      mockIncremental{err: domain.FormatDrift("metrics paragraph")},
			store:    &recordingStore{},
			stage:    domain.StageExtract,
			sentinel: domain.ErrFormatDrift,
		},
		{
			name:     "negative metric",
			src:      mockIncremental{obs: observation(10, -5)},
			store:    &recordingStore{},
			stage:    domain.StageValidate,
			sentinel: domain.ErrValidation,
		},
		{
			name:     "write failure",
			src:      mockIncremental{obs: observation(10, 5)},
			store:    &recordingStore{saveErr: errors.New("read-only file system")},
			stage:    domain.StageLoad,
			sentinel: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pipeline.NewRunner(tt.store, nil, newTestMetrics(), discardLogger()).Run(context.Background(), tt.src)

			var se *domain.StageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "serbia", se.Source)
			assert.Equal(t, tt.stage, se.Stage)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
			assert.Contains(t, err.Error(), "serbia: "+string(tt.stage)+": ")
		})
	}
}

func TestRun_FailureMetrics(t *testing.T) {
	m := newTestMetrics()
	r := pipeline.NewRunner(&recordingStore{}, nil, m, discardLogger())

	_ = r.Run(context.Background(), mockIncremental{err: domain.FormatDrift("x")})
	_ = r.Run(context.Background(), mockIncremental{obs: observation(1, -1)})

	assert.InDelta(t, 1, testutil.ToFloat64(m.FormatDriftFailures.WithLabelValues("serbia")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ValidationFailures.WithLabelValues("serbia")), 0)
}

func TestRun_BatchWritesAndPublishes(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2022, 3, 14, 9, 30, 0, 0, time.UTC))
	domain.SetClock(fake)
	t.Cleanup(func() { domain.SetClock(nil) })

	store := &recordingStore{}
	pub := &mockPublisher{}
	m := newTestMetrics()
	src := mockBatch{datasets: []domain.Dataset{
		dataset("vaccinations", "Chile", nil),
		dataset("grapher", "uk_covid_data", &domain.DatasetMeta{Namespace: "owid", SourceName: "UK dashboard"}),
	}}

	require.NoError(t, pipeline.NewRunner(store, pub, m, discardLogger()).Run(context.Background(), src))

	assert.Len(t, store.tables, 2)
	want := []domain.DatasetMeta{{
		Name:       "uk_covid_data",
		Namespace:  "owid",
		Path:       "grapher/uk_covid_data.csv",
		SourceName: "UK dashboard",
		Rows:       2,
		UpdatedAt:  fake.Now(),
	}}
	if diff := cmp.Diff(want, pub.published); diff != "" {
		t.Fatalf("published metadata mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 2, testutil.ToFloat64(m.RowsWritten.WithLabelValues("uk-nations", "grapher")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.CatalogPublishes.WithLabelValues("uk-nations", "success")), 0)
}

func TestRun_BatchValidatesBeforeAnyWrite(t *testing.T) {
	store := &recordingStore{}
	bad := dataset("testing", "Thailand", nil)
	bad.Table.Rows = append(bad.Table.Rows, []string{"too", "many", "cells"})
	src := mockBatch{datasets: []domain.Dataset{dataset("vaccinations", "Chile", nil), bad}}

	err := pipeline.NewRunner(store, nil, newTestMetrics(), discardLogger()).Run(context.Background(), src)

	var se *domain.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, domain.StageValidate, se.Stage)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, store.saves)
}

func TestRun_BatchEmpty(t *testing.T) {
	err := pipeline.NewRunner(&recordingStore{}, nil, newTestMetrics(), discardLogger()).Run(context.Background(), mockBatch{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRun_BatchPublishFailure(t *testing.T) {
	pub := &mockPublisher{err: errors.New("broker unreachable")}
	src := mockBatch{datasets: []domain.Dataset{dataset("grapher", "uk_covid_data", &domain.DatasetMeta{})}}

	err := pipeline.NewRunner(&recordingStore{}, pub, newTestMetrics(), discardLogger()).Run(context.Background(), src)

	var se *domain.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, domain.StagePublish, se.Stage)
	assert.Equal(t, "uk-nations: publish: broker unreachable", err.Error())
}

func TestRun_UnknownSourceKind(t *testing.T) {
	err := pipeline.NewRunner(&recordingStore{}, nil, newTestMetrics(), discardLogger()).Run(context.Background(), unknownSource{})
	assert.ErrorContains(t, err, "unsupported source type")
}
