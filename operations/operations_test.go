package operations

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-espefuse/chipdef"
	"github.com/moffa90/go-espefuse/efuse"
	"github.com/moffa90/go-espefuse/emulator"
)

type env struct {
	dev    *emulator.Device
	efuses *efuse.Efuses
	out    *bytes.Buffer
	runner *Runner
}

// newEnv opens a session on an emulated chip. prepare runs on the device
// before the session reads it.
func newEnv(t *testing.T, prepare func(dev *emulator.Device), emuOpts ...emulator.Option) *env {
	t.Helper()
	chip, err := chipdef.Load("esp32s3")
	require.NoError(t, err)
	dev, err := emulator.New(chip, emuOpts...)
	require.NoError(t, err)
	if prepare != nil {
		prepare(dev)
	}
	e, err := efuse.Open(context.Background(), dev, chip, efuse.WithDoNotConfirm(true))
	require.NoError(t, err)
	out := &bytes.Buffer{}
	return &env{dev: dev, efuses: e, out: out, runner: New(e, out)}
}

func (v *env) nothingPending(t *testing.T) {
	t.Helper()
	for _, b := range v.efuses.Blocks() {
		assert.False(t, b.Pending(), "BLOCK%d", b.ID)
	}
}

func TestNewRunner(t *testing.T) {
	v := newEnv(t, nil)

	assert.Panics(t, func() { New(nil, nil) })
	r := New(v.efuses, nil)
	assert.Same(t, v.efuses, r.Efuses())
	_, err := r.GetCustomMAC(context.Background())
	assert.NoError(t, err)
}

func TestBatch(t *testing.T) {
	t.Run("burns once at the end", func(t *testing.T) {
		v := newEnv(t, nil)
		ctx := context.Background()

		err := v.runner.Batch(ctx, func(r *Runner) error {
			if err := r.BurnEfuse(ctx, []NameValue{{Name: "DIS_ICACHE"}}); err != nil {
				return err
			}
			assert.Zero(t, v.dev.Words(0)[1], "burned inside the batch")
			return r.WriteProtectEfuse(ctx, []string{"DIS_ICACHE"})
		})
		require.NoError(t, err)

		assert.Equal(t, uint32(1<<8), v.dev.Words(0)[1])
		assert.Equal(t, uint32(1<<2), v.dev.Words(0)[0])
		assert.NotContains(t, v.out.String(), "Checking efuses...")
		assert.Equal(t, 1, strings.Count(v.out.String(), "Successful"))
	})

	t.Run("nested", func(t *testing.T) {
		v := newEnv(t, nil)
		ctx := context.Background()

		err := v.runner.Batch(ctx, func(r *Runner) error {
			err := r.Batch(ctx, func(r *Runner) error {
				return r.BurnEfuse(ctx, []NameValue{{Name: "DIS_DCACHE"}})
			})
			assert.Zero(t, v.dev.Words(0)[1], "inner batch burned")
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, uint32(1<<9), v.dev.Words(0)[1])
	})

	t.Run("error skips the burn", func(t *testing.T) {
		v := newEnv(t, nil)
		ctx := context.Background()
		boom := errors.New("boom")

		err := v.runner.Batch(ctx, func(r *Runner) error {
			if err := r.BurnEfuse(ctx, []NameValue{{Name: "DIS_DCACHE"}}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Zero(t, v.dev.Words(0)[1])
	})
}

func TestCheckError(t *testing.T) {
	t.Run("clean chip", func(t *testing.T) {
		v := newEnv(t, nil)
		require.NoError(t, v.runner.CheckError(context.Background(), false))
		assert.Contains(t, v.out.String(), "No errors detected")
	})

	t.Run("failed block", func(t *testing.T) {
		v := newEnv(t, func(dev *emulator.Device) {
			dev.SetWords(3, []uint32{0x11})
			dev.InjectErrors(3, 1, true)
		})
		err := v.runner.CheckError(context.Background(), false)
		assert.ErrorIs(t, err, efuse.ErrBlockErrors)
		assert.NotContains(t, v.out.String(), "No errors detected")
	})

	t.Run("recovery", func(t *testing.T) {
		v := newEnv(t, func(dev *emulator.Device) {
			dev.SetWords(3, []uint32{0x11})
			dev.InjectErrors(3, 1, true)
		})
		require.NoError(t, v.runner.CheckError(context.Background(), true))
		assert.Contains(t, v.out.String(), "No errors detected")
		assert.Equal(t, uint32(0x11), v.dev.Words(3)[0])
	})

	t.Run("recovery of an empty block", func(t *testing.T) {
		v := newEnv(t, func(dev *emulator.Device) {
			dev.InjectErrors(5, 0, true)
		})
		err := v.runner.CheckError(context.Background(), true)
		assert.ErrorIs(t, err, efuse.ErrBlockErrors)
	})
}
