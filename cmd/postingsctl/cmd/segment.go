package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/postings-codec/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/internal/store"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/internal/store/pgstore"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/internal/store/rediscache"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/resilience"
)

const exportBatchSize = 500

func newInspectCmd() *cobra.Command {
	var showTerms bool
	cmd := &cobra.Command{
		Use:   "inspect SEGMENT",
		Short: "Print a segment's header and term table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := segment.OpenReader(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			h := r.Header()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "segment:  %s\n", r.Path())
			fmt.Fprintf(out, "version:  %d\n", h.Version)
			fmt.Fprintf(out, "codec:    %s\n", h.Codec)
			fmt.Fprintf(out, "terms:    %d\n", h.TermCount)
			fmt.Fprintf(out, "docs:     %d\n", h.DocCount)
			fmt.Fprintf(out, "created:  %s\n", time.Unix(h.CreatedAt, 0).UTC().Format(time.RFC3339))
			fmt.Fprintf(out, "postings: %d bytes\n", h.PostSize)
			if !showTerms {
				return nil
			}

			fmt.Fprintln(out)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TERM\tDOCS\tBYTES")
			if err := r.Each(func(e segment.DictEntry) error {
				_, err := fmt.Fprintf(tw, "%s\t%d\t%d\n", e.Term, e.DocFreq, e.PostLen)
				return err
			}); err != nil {
				return err
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&showTerms, "terms", true, "print the term table")
	return cmd
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var invalidate bool
	cmd := &cobra.Command{
		Use:   "export SEGMENT",
		Short: "Copy every term of a segment into PostgreSQL",
		Long: `Copy every term of a segment into PostgreSQL. Encoded buffers are stored
verbatim with the segment's codec tag, so no re-encoding takes place.`,
		Args: cobra.ExactArgs(1),
		RunE: wrapCancellationContext(opts, func(ctx context.Context, cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			r, err := segment.OpenReader(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			db, err := postgres.New(cfg.Postgres)
			if err != nil {
				return err
			}
			defer db.Close()
			pg := pgstore.New(db)
			if err := pg.Migrate(ctx); err != nil {
				return err
			}

			n, err := exportSegment(ctx, r, pg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d terms (%s)\n", n, r.Codec().Type())

			if !invalidate {
				return nil
			}
			rc, err := redis.NewClient(cfg.Redis)
			if err != nil {
				return err
			}
			defer rc.Close()
			dropped, err := rediscache.New(rc, cfg.Redis.CacheTTL).Invalidate(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "invalidated %d cached terms\n", dropped)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&invalidate, "invalidate-cache", true, "drop cached postings from Redis after exporting")
	return cmd
}

type batchPutter interface {
	PutBatch(ctx context.Context, recs []store.Record) error
}

func exportSegment(ctx context.Context, r *segment.Reader, dst batchPutter) (int, error) {
	tag := r.Codec().Type()
	batch := make([]store.Record, 0, exportBatchSize)
	total := 0
	flush := func() error {
		err := resilience.DefaultBackoff.Do(ctx, "store postings batch", func(ctx context.Context) error {
			return dst.PutBatch(ctx, batch)
		})
		if err != nil {
			return err
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}
	err := r.Each(func(e segment.DictEntry) error {
		raw, _, ok, err := r.Raw(e.Term)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("term %q vanished from segment", e.Term)
		}
		batch = append(batch, store.Record{Term: e.Term, Codec: tag, Count: e.DocFreq, Data: raw})
		if len(batch) == exportBatchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return total, err
	}
	if len(batch) > 0 {
		if err := flush(); err != nil {
			return total, err
		}
	}
	return total, nil
}

func newLookupCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup TERM",
		Short: "Print the document ids stored for a term, reading through the Redis cache",
		Args:  cobra.ExactArgs(1),
		RunE: wrapCancellationContext(opts, func(ctx context.Context, cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			db, err := postgres.New(cfg.Postgres)
			if err != nil {
				return err
			}
			defer db.Close()
			rc, err := redis.NewClient(cfg.Redis)
			if err != nil {
				return err
			}
			defer rc.Close()

			cache := rediscache.New(rc, cfg.Redis.CacheTTL)
			rec, err := cache.GetOrLoad(ctx, args[0], pgstore.New(db).Get)
			if err != nil {
				return err
			}
			postings, err := rec.Decode()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatPostings(postings))
			return nil
		}),
	}
}
