package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-espefuse/chipdef"
	"github.com/moffa90/go-espefuse/efuse"
	"github.com/moffa90/go-espefuse/emulator"
	"github.com/moffa90/go-espefuse/operations"
)

// errNoTransport is returned when no target chip is selected.
var errNoTransport = errors.New("no serial transport available, use --virt to work on an emulated chip")

// options holds the persistent flags shared by every command.
type options struct {
	chip             string
	chipDef          string
	virt             bool
	efuseFile        string
	doNotConfirm     bool
	forceWriteAlways bool
	debug            bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "espefuse",
		Short: "Read, burn and protect ESP eFuses.",
		Long: "espefuse shows the eFuse summary of an ESP chip, burns eFuse fields, " +
			"raw blocks and keys, and write- or read-protects them.\n\n" +
			"Burning an eFuse is irreversible.",
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.chip, "chip", "esp32s3",
		"target chip type ("+strings.Join(chipdef.Supported(), ", ")+")")
	pf.StringVar(&opts.chipDef, "chip-def", "", "load the chip description from a YAML file instead of --chip")
	pf.BoolVar(&opts.virt, "virt", false, "work on an emulated chip")
	pf.StringVar(&opts.efuseFile, "path-efuse-file", "", "file holding the eFuse array of the emulated chip")
	pf.BoolVar(&opts.doNotConfirm, "do-not-confirm", false, "do not pause for confirmation before burning")
	pf.BoolVar(&opts.forceWriteAlways, "force-write-always", false,
		"write the eFuses even if they look already written or are write protected")
	pf.BoolVar(&opts.debug, "debug", false, "show debugging output")

	cmd.AddCommand(
		newSummaryCmd(opts),
		newDumpCmd(opts),
		newReadEfuseCmd(opts),
		newBurnEfuseCmd(opts),
		newBurnBitCmd(opts),
		newBurnBlockDataCmd(opts),
		newBurnKeyCmd(opts),
		newBurnCustomMACCmd(opts),
		newGetCustomMACCmd(opts),
		newWriteProtectCmd(opts),
		newReadProtectCmd(opts),
		newCheckErrorCmd(opts),
	)
	return cmd
}

func (o *options) loadChip() (*chipdef.Chip, error) {
	if o.chipDef != "" {
		return chipdef.Parse(o.chipDef)
	}
	return chipdef.Load(o.chip)
}

// runner connects to the chip and returns the operations runner for cmd.
func (o *options) runner(cmd *cobra.Command) (*operations.Runner, error) {
	chip, err := o.loadChip()
	if err != nil {
		return nil, err
	}
	if !o.virt {
		return nil, errNoTransport
	}
	dev, err := emulator.New(chip, emulator.WithFile(o.efuseFile))
	if err != nil {
		return nil, fmt.Errorf("failed to start the emulated chip: %w", err)
	}

	log := newLogger(cmd.OutOrStdout(), o.debug)
	efuses, err := efuse.Open(cmd.Context(), dev, chip,
		efuse.WithLogger(log),
		efuse.WithConfirm(confirmer(cmd.InOrStdin(), cmd.OutOrStdout())),
		efuse.WithDoNotConfirm(o.doNotConfirm),
		efuse.WithForceWriteAlways(o.forceWriteAlways),
		efuse.WithDebug(o.debug),
		efuse.WithProgressCallback(progress(log)),
	)
	if err != nil {
		return nil, err
	}
	return operations.New(efuses, cmd.OutOrStdout()), nil
}

// run wraps a command body that needs a runner.
func (o *options) run(fn func(cmd *cobra.Command, r *operations.Runner, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		r, err := o.runner(cmd)
		if err != nil {
			return err
		}
		return fn(cmd, r, args)
	}
}
