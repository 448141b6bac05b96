// Package cmd implements the postingsctl commands: encoding and decoding
// postings by hand, comparing codecs, inspecting segment files and moving
// postings between segments, PostgreSQL, Redis and the Kafka document feed.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/logger"
)

const defaultTimeout = 30 * time.Second

type rootOptions struct {
	configPath string
	logLevel   string
	timeout    time.Duration
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "postingsctl",
		Short:         "Encode, decode and inspect compressed postings lists",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(*cobra.Command, []string) {
			// stdout carries command output
			logger.SetupWriter(os.Stderr, opts.logLevel, "text")
		},
		RunE: func(*cobra.Command, []string) error {
			return fmt.Errorf("no sub-command provided")
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().DurationVarP(&opts.timeout, "timeout", "t", defaultTimeout, "deadline for backend operations")

	root.AddCommand(
		newEncodeCmd(),
		newDecodeCmd(),
		newCompareCmd(),
		newInspectCmd(),
		newExportCmd(opts),
		newLookupCmd(opts),
		newPublishCmd(opts),
	)
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running command: %s\n", err)
		os.Exit(1)
	}
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

type entrypointE func(ctx context.Context, cmd *cobra.Command, args []string) error
type runE func(cmd *cobra.Command, args []string) error

func wrapCancellationContext(o *rootOptions, f entrypointE) runE {
	return func(cmd *cobra.Command, args []string) error {
		sdCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
		defer stop()

		ctx, cancel := context.WithTimeout(sdCtx, o.timeout)
		defer cancel()

		return f(ctx, cmd, args)
	}
}

func parsePostings(args []string) ([]uint64, error) {
	postings := make([]uint64, 0, len(args))
	for _, arg := range args {
		v, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid document id %q: %w", arg, err)
		}
		postings = append(postings, v)
	}
	return postings, nil
}
