package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/postings-codec/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/kafka"
)

func newPublishCmd(opts *rootOptions) *cobra.Command {
	var doc consumer.Document
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a document to the indexer's Kafka topic",
		Args:  cobra.NoArgs,
		RunE: wrapCancellationContext(opts, func(ctx context.Context, cmd *cobra.Command, _ []string) error {
			if doc.ID == "" {
				return fmt.Errorf("--id is required")
			}
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			producer := kafka.NewProducer(cfg.Kafka)
			defer producer.Close()
			if err := producer.Publish(ctx, kafka.Event{Key: doc.ID, Value: doc}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s to %s\n", doc.ID, cfg.Kafka.Topic)
			return nil
		}),
	}
	cmd.Flags().StringVar(&doc.ID, "id", "", "document name")
	cmd.Flags().StringVar(&doc.Title, "title", "", "document title")
	cmd.Flags().StringVar(&doc.Body, "body", "", "document body")
	return cmd
}
