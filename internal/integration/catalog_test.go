//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/covid-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/covid-data-etl/internal/config"
	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/observability"
	"github.com/couchcryptid/covid-data-etl/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalogTopic = "test-dataset-updates"

type staticBatch struct {
	datasets []domain.Dataset
}

func (s staticBatch) Name() string { return "static" }

func (s staticBatch) Collect(context.Context) ([]domain.Dataset, error) { return s.datasets, nil }

// TestCatalogAnnouncement runs a batch source end to end and reads the
// announcement back from the catalog topic.
func TestCatalogAnnouncement(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testCatalogTopic)

	cfg := &config.Config{
		CatalogEnabled:      true,
		CatalogKafkaBrokers: []string{broker},
		CatalogKafkaTopic:   testCatalogTopic,
	}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	store := csvfile.New(t.TempDir())
	runner := pipeline.NewRunner(store, writer, observability.NewMetricsForTesting(), discardLogger())

	src := staticBatch{datasets: []domain.Dataset{{
		Category: "grapher",
		Name:     "uk_covid_data",
		Table: domain.Table{
			Header: []string{"Country", "Year", "weekly_cases_rolling"},
			Rows:   [][]string{{"England", "700", "12345"}},
		},
		Meta: &domain.DatasetMeta{Name: "uk_covid_data", Namespace: "owid", SourceName: "UK dashboard"},
	}}}
	require.NoError(t, runner.Run(ctx, src))

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testCatalogTopic,
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = reader.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := reader.ReadMessage(readCtx)
	require.NoError(t, err, "read from catalog topic")

	var meta domain.DatasetMeta
	require.NoError(t, json.Unmarshal(msg.Value, &meta))
	assert.Equal(t, "grapher/uk_covid_data.csv", string(msg.Key))
	assert.Equal(t, "uk_covid_data", meta.Name)
	assert.Equal(t, "grapher/uk_covid_data.csv", meta.Path)
	assert.Equal(t, 1, meta.Rows)
	assert.False(t, meta.UpdatedAt.IsZero())
}
