package operations

import (
	"context"
	"fmt"

	"github.com/moffa90/go-espefuse/efuse"
)

// CheckError reads the coding scheme error registers and fails when a
// block reports a failure. With recovery set, the damaged blocks are
// burned again with their read data before the final check.
func (r *Runner) CheckError(ctx context.Context, recovery bool) error {
	failed, err := r.efuses.CodingSchemeWarnings(ctx, false)
	if err != nil {
		return err
	}
	if recovery && failed {
		if _, err := r.efuses.Recover(ctx); err != nil {
			return err
		}
		if r.efuses.Closed() {
			return nil
		}
		if failed, err = r.efuses.CodingSchemeWarnings(ctx, false); err != nil {
			return err
		}
	}
	if failed {
		return fmt.Errorf("error(s) were detected in eFuses: %w", efuse.ErrBlockErrors)
	}
	r.println("No errors detected")
	return nil
}
