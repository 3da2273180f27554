package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/config"
	"github.com/couchcryptid/covid-data-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer announces finished datasets on a Kafka topic so the catalog
// importer can pick them up. It implements domain.CatalogPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured catalog topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.CatalogKafkaBrokers...),
		Topic:                  cfg.CatalogKafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish writes one announcement keyed by dataset path, so successive
// updates of the same dataset land on the same partition in order.
func (w *Writer) Publish(ctx context.Context, meta domain.DatasetMeta) error {
	msg, err := serializeToMessage(meta)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish dataset %s: %w", meta.Path, err)
	}
	w.logger.Info("dataset announced", "dataset", meta.Name, "path", meta.Path, "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals dataset metadata into a Kafka message.
func serializeToMessage(meta domain.DatasetMeta) (kafkago.Message, error) {
	data, err := json.Marshal(meta)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize dataset meta: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(meta.Path),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "namespace", Value: []byte(meta.Namespace)},
			{Key: "updated_at", Value: []byte(meta.UpdatedAt.Format(time.RFC3339))},
		},
	}, nil
}
