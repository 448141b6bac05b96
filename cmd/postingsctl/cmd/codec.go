package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/codec"
)

func newEncodeCmd() *cobra.Command {
	var codecName string
	cmd := &cobra.Command{
		Use:   "encode ID...",
		Short: "Encode an ascending list of document ids",
		Long: `Encode an ascending list of document ids and print the buffer as hex.

Example:
  postingsctl encode --codec vbyte 34 67 89 454 2345738
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := codec.ByName(codecName)
			if err != nil {
				return err
			}
			postings, err := parsePostings(args)
			if err != nil {
				return err
			}
			buf, err := c.Encode(postings)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "codec=%s postings=%d bytes=%d\n", c.Type(), len(postings), len(buf))
			fmt.Fprintln(out, hex.EncodeToString(buf))
			return nil
		},
	}
	cmd.Flags().StringVarP(&codecName, "codec", "c", "vbyte", "codec name (fixed, vbyte, gamma)")
	return cmd
}

func newDecodeCmd() *cobra.Command {
	var codecName string
	cmd := &cobra.Command{
		Use:   "decode HEX",
		Short: "Decode a hex-encoded postings buffer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := codec.ByName(codecName)
			if err != nil {
				return err
			}
			buf, err := hex.DecodeString(strings.TrimPrefix(args[0], "0x"))
			if err != nil {
				return fmt.Errorf("invalid hex buffer: %w", err)
			}
			postings, err := c.Decode(buf)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatPostings(postings))
			return nil
		},
	}
	cmd.Flags().StringVarP(&codecName, "codec", "c", "vbyte", "codec name (fixed, vbyte, gamma)")
	return cmd
}

func newCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare ID...",
		Short: "Compare the encoded size of a postings list across every codec",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			postings, err := parsePostings(args)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODEC\tBYTES\tBITS/POSTING\tROUND TRIP")
			for _, t := range codec.Registered() {
				c, err := codec.New(t)
				if err != nil {
					return err
				}
				buf, err := c.Encode(postings)
				if err != nil {
					fmt.Fprintf(tw, "%s\t-\t-\t%v\n", t, err)
					continue
				}
				fmt.Fprintf(tw, "%s\t%d\t%.2f\t%s\n", t, len(buf),
					float64(len(buf)*8)/float64(len(postings)), roundTrip(c, buf, postings))
			}
			return tw.Flush()
		},
	}
}

func roundTrip(c codec.Codec, buf []byte, want []uint64) string {
	got, err := c.Decode(buf)
	if err != nil {
		return err.Error()
	}
	if len(got) != len(want) {
		return "MISMATCH"
	}
	for i := range got {
		if got[i] != want[i] {
			return "MISMATCH"
		}
	}
	return "ok"
}

func formatPostings(postings []uint64) string {
	var sb strings.Builder
	for i, p := range postings {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%d", p)
	}
	return sb.String()
}
