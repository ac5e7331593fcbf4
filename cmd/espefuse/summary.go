package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-espefuse/operations"
)

func newSummaryCmd(opts *options) *cobra.Command {
	var format, file string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print a human-readable summary of eFuse values.",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&format, "format", string(operations.FormatSummary), "output format (summary, json)")
	cmd.Flags().StringVar(&file, "file", "", "write the summary to a file instead of stdout")
	cmd.RunE = opts.run(func(cmd *cobra.Command, r *operations.Runner, _ []string) error {
		f, err := operations.ParseFormat(format)
		if err != nil {
			return err
		}
		summaryOpts := operations.SummaryOptions{Format: f}
		if file == "" {
			summaryOpts.Width = termWidth(cmd.OutOrStdout())
			return r.Summary(cmd.Context(), summaryOpts)
		}

		out, err := os.Create(file)
		if err != nil {
			return err
		}
		if err := operations.New(r.Efuses(), out).Summary(cmd.Context(), summaryOpts); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved efuse values to %s\n", file)
		return nil
	})
	return cmd
}

func newDumpCmd(opts *options) *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Dump raw hex values of all eFuse blocks.",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&prefix, "file-name", "", "save every block to <file-name><block>.bin")
	cmd.RunE = opts.run(func(cmd *cobra.Command, r *operations.Runner, _ []string) error {
		if prefix != "" {
			return r.DumpFiles(cmd.Context(), prefix)
		}
		return r.Dump(cmd.Context())
	})
	return cmd
}

func newReadEfuseCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read-efuse NAME...",
		Short: "Read the raw value of eFuse fields.",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.RunE = opts.run(func(cmd *cobra.Command, r *operations.Runner, args []string) error {
		_, err := r.ReadEfuse(cmd.Context(), args)
		return err
	})
	return cmd
}

func newCheckErrorCmd(opts *options) *cobra.Command {
	var recovery bool
	cmd := &cobra.Command{
		Use:   "check-error",
		Short: "Check the eFuse blocks for coding errors.",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().BoolVar(&recovery, "recovery", false, "re-burn the blocks that report errors")
	cmd.RunE = opts.run(func(cmd *cobra.Command, r *operations.Runner, _ []string) error {
		return r.CheckError(cmd.Context(), recovery)
	})
	return cmd
}
