// Package consumer decodes documents from the Kafka feed and indexes them.
package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/kafka"
)

// Document is the JSON message carried by the document topic.
type Document struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Indexer is the part of indexer.Engine the handler needs.
type Indexer interface {
	IndexDocument(name, title, body string) (uint64, error)
}

// IndexConsumer wraps a Kafka consumer to drive the indexing pipeline.
type IndexConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

func New(kafkaConsumer *kafka.Consumer) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "index-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.consumer.Start(ctx)
}

// HandleMessage returns a MessageHandler that indexes each document into idx.
// Undecodable or ID-less messages are logged and acknowledged so they do not
// block the partition; indexing failures are returned and left uncommitted.
func HandleMessage(idx Indexer) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		doc, err := kafka.DecodeJSON[Document](value)
		if err != nil {
			logger.Error("failed to decode document",
				"error", err,
				"key", string(key),
			)
			return nil
		}
		if doc.ID == "" {
			doc.ID = string(key)
		}
		if doc.ID == "" {
			logger.Error("document has no id, dropping", "value_size", len(value))
			return nil
		}

		docID, err := idx.IndexDocument(doc.ID, doc.Title, doc.Body)
		if err != nil {
			return fmt.Errorf("indexing document %s: %w", doc.ID, err)
		}
		logger.Debug("document indexed",
			"doc", doc.ID,
			"doc_id", docID,
		)
		return nil
	}
}
