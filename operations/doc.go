// Package operations implements the espefuse commands on top of an efuse
// session: summaries and dumps, burning values, bits, raw block data and
// keys, protecting efuses and checking the coding scheme errors.
//
// # Overview
//
// A Runner pairs an efuse.Efuses session with the writer that receives the
// command output. Diagnostics of the session itself go to the session's
// logger; the Runner only writes what the command reports.
//
//	efuses, err := efuse.Open(ctx, transport, chip, efuse.WithDoNotConfirm(true))
//	if err != nil {
//	    return err
//	}
//	r := operations.New(efuses, os.Stdout)
//	err = r.BurnEfuse(ctx, []operations.NameValue{
//	    {Name: "DIS_USB_JTAG"},
//	    {Name: "WDT_DELAY_SEL", Value: "2"},
//	})
//
// # Batch Mode
//
// Batch runs several commands and burns everything they staged at the end
// with a single confirmation:
//
//	err := r.Batch(ctx, func(r *operations.Runner) error {
//	    if err := r.BurnEfuse(ctx, values); err != nil {
//	        return err
//	    }
//	    return r.WriteProtectEfuse(ctx, []string{"WDT_DELAY_SEL"})
//	})
//
// Readback checks of the individual commands are skipped inside a batch.
package operations
