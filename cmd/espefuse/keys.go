package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-espefuse/operations"
)

func newBurnKeyCmd(opts *options) *cobra.Command {
	var keyOpts operations.KeyOptions
	cmd := &cobra.Command{
		Use:   "burn-key BLOCK KEYFILE PURPOSE [BLOCK KEYFILE PURPOSE...]",
		Short: "Burn keys into key blocks and set their purpose.",
		Args:  pairs(3),
	}
	cmd.Flags().BoolVar(&keyOpts.NoWriteProtect, "no-write-protect", false, "leave the key blocks writeable")
	cmd.Flags().BoolVar(&keyOpts.NoReadProtect, "no-read-protect", false, "leave the keys readable")
	cmd.Flags().BoolVar(&keyOpts.ShowSensitiveInfo, "show-sensitive-info", false, "print the key data")
	cmd.RunE = opts.run(func(cmd *cobra.Command, r *operations.Runner, args []string) error {
		keys := make([]operations.Key, 0, len(args)/3)
		for i := 0; i < len(args); i += 3 {
			data, err := os.ReadFile(args[i+1])
			if err != nil {
				return err
			}
			keys = append(keys, operations.Key{Block: args[i], Data: data, Purpose: args[i+2]})
		}
		return r.BurnKey(cmd.Context(), keys, keyOpts)
	})
	return cmd
}
