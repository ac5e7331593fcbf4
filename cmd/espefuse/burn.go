package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-espefuse/operations"
)

func newBurnEfuseCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "burn-efuse NAME VALUE [NAME VALUE...]",
		Short: "Burn eFuse fields.",
		Args:  pairs(2),
	}
	cmd.RunE = opts.run(func(cmd *cobra.Command, r *operations.Runner, args []string) error {
		values := make([]operations.NameValue, 0, len(args)/2)
		for i := 0; i < len(args); i += 2 {
			values = append(values, operations.NameValue{Name: args[i], Value: args[i+1]})
		}
		return r.BurnEfuse(cmd.Context(), values)
	})
	return cmd
}

func newBurnBitCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "burn-bit BLOCK BIT...",
		Short: "Burn individual bits of a block.",
		Args:  cobra.MinimumNArgs(2),
	}
	cmd.RunE = opts.run(func(cmd *cobra.Command, r *operations.Runner, args []string) error {
		bits := make([]int, 0, len(args)-1)
		for _, arg := range args[1:] {
			n, err := strconv.Atoi(arg)
			if err != nil {
				return fmt.Errorf("invalid bit number %q: %w", arg, operations.ErrInvalidArgument)
			}
			bits = append(bits, n)
		}
		return r.BurnBit(cmd.Context(), args[0], bits)
	})
	return cmd
}

func newBurnBlockDataCmd(opts *options) *cobra.Command {
	var offset int
	cmd := &cobra.Command{
		Use:   "burn-block-data BLOCK FILE [BLOCK FILE...]",
		Short: "Burn raw binary data into blocks.",
		Args:  pairs(2),
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "byte offset in the block (only with a single block)")
	cmd.RunE = opts.run(func(cmd *cobra.Command, r *operations.Runner, args []string) error {
		data := make([]operations.BlockData, 0, len(args)/2)
		for i := 0; i < len(args); i += 2 {
			buf, err := os.ReadFile(args[i+1])
			if err != nil {
				return err
			}
			data = append(data, operations.BlockData{Block: args[i], Data: buf})
		}
		return r.BurnBlockData(cmd.Context(), data, offset)
	})
	return cmd
}

func newBurnCustomMACCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "burn-custom-mac MAC",
		Short: "Burn a 48-bit custom MAC address.",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = opts.run(func(cmd *cobra.Command, r *operations.Runner, args []string) error {
		return r.BurnCustomMAC(cmd.Context(), args[0])
	})
	return cmd
}

func newGetCustomMACCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get-custom-mac",
		Short: "Print the custom MAC address.",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = opts.run(func(cmd *cobra.Command, r *operations.Runner, _ []string) error {
		_, err := r.GetCustomMAC(cmd.Context())
		return err
	})
	return cmd
}

func newWriteProtectCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write-protect-efuse NAME...",
		Short: "Disable writing to eFuse fields.",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.RunE = opts.run(func(cmd *cobra.Command, r *operations.Runner, args []string) error {
		return r.WriteProtectEfuse(cmd.Context(), args)
	})
	return cmd
}

func newReadProtectCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read-protect-efuse NAME...",
		Short: "Disable reading of eFuse fields.",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.RunE = opts.run(func(cmd *cobra.Command, r *operations.Runner, args []string) error {
		return r.ReadProtectEfuse(cmd.Context(), args)
	})
	return cmd
}

// pairs accepts a non-empty argument list made of groups of n.
func pairs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 || len(args)%n != 0 {
			return fmt.Errorf("%s expects arguments in groups of %d, got %d", cmd.Name(), n, len(args))
		}
		return nil
	}
}
