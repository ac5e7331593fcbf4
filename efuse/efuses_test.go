package efuse

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-espefuse/chipdef"
	"github.com/moffa90/go-espefuse/emulator"
	"github.com/moffa90/go-espefuse/protocol"
)

// mockLogger records every message
type mockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (l *mockLogger) Debug(msg string, kv ...interface{}) { l.debugMsgs = append(l.debugMsgs, msg) }
func (l *mockLogger) Info(msg string, kv ...interface{})  { l.infoMsgs = append(l.infoMsgs, msg) }
func (l *mockLogger) Error(msg string, kv ...interface{}) { l.errorMsgs = append(l.errorMsgs, msg) }

func logged(msgs []string, sub string) bool {
	for _, m := range msgs {
		if strings.Contains(m, sub) {
			return true
		}
	}
	return false
}

type regWrite struct {
	addr, value uint32
}

// recorder counts the register traffic of an emulated chip.
type recorder struct {
	*emulator.Device
	cmd    uint32
	reads  int
	writes []regWrite
}

func (r *recorder) ReadReg(ctx context.Context, addr uint32) (uint32, error) {
	r.reads++
	return r.Device.ReadReg(ctx, addr)
}

func (r *recorder) WriteReg(ctx context.Context, addr, value uint32) error {
	r.writes = append(r.writes, regWrite{addr, value})
	return r.Device.WriteReg(ctx, addr, value)
}

// programmed returns the block ids of the program commands issued.
func (r *recorder) programmed() []int {
	var ids []int
	for _, w := range r.writes {
		if w.addr == r.cmd && w.value&protocol.CmdMask == protocol.PgmCmd {
			ids = append(ids, int(w.value>>2))
		}
	}
	return ids
}

type fixture struct {
	chip   *chipdef.Chip
	dev    *emulator.Device
	rec    *recorder
	logger *mockLogger
}

func newFixture(t *testing.T, emuOpts ...emulator.Option) *fixture {
	t.Helper()
	chip, err := chipdef.Load("esp32s3")
	require.NoError(t, err)
	dev, err := emulator.New(chip, emuOpts...)
	require.NoError(t, err)
	return &fixture{
		chip:   chip,
		dev:    dev,
		rec:    &recorder{Device: dev, cmd: chip.Registers.Cmd},
		logger: &mockLogger{},
	}
}

func (fx *fixture) open(t *testing.T, opts ...Option) *Efuses {
	t.Helper()
	base := []Option{WithDoNotConfirm(true), WithLogger(fx.logger)}
	e, err := Open(context.Background(), fx.rec, fx.chip, append(base, opts...)...)
	require.NoError(t, err)
	return e
}

func field(t *testing.T, e *Efuses, name string) *Field {
	t.Helper()
	f, err := e.Field(name)
	require.NoError(t, err)
	return f
}

func TestNew(t *testing.T) {
	fx := newFixture(t)

	assert.Panics(t, func() { New(nil, fx.chip) })
	assert.Panics(t, func() { New(fx.dev, nil) })

	e := New(fx.dev, fx.chip,
		WithLogger(fx.logger),
		WithDebug(true),
		WithForceWriteAlways(true),
		WithIdleTimeout(0),
		WithBurnAttempts(5),
	)
	require.NotNil(t, e)
	cfg := e.Config()
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.ForceWriteAlways)
	assert.Equal(t, defaultConfig().IdleTimeout, cfg.IdleTimeout)
	assert.Equal(t, 5, cfg.BurnAttempts)
	assert.Equal(t, 5, cfg.ReadChecks)
}

func TestSetupBlankChip(t *testing.T) {
	fx := newFixture(t)
	e := fx.open(t)

	assert.Equal(t, protocol.CodingSchemeRS, e.CodingScheme())
	require.Len(t, e.Blocks(), len(fx.chip.Blocks))
	assert.Equal(t, protocol.CodingSchemeNone, e.Blocks()[0].CodingScheme())
	assert.Equal(t, protocol.CodingSchemeRS, e.Blocks()[3].CodingScheme())

	// no calibration on a blank chip
	assert.Len(t, e.Fields(), len(fx.chip.Fields)+len(fx.chip.Calc))
	for _, f := range e.Fields() {
		assert.False(t, f.fail, f.Name)
	}
	assert.Empty(t, fx.rec.programmed())
}

func TestSetupCalibration(t *testing.T) {
	t.Run("loaded for BLK_VERSION_MAJOR 1", func(t *testing.T) {
		fx := newFixture(t)
		fx.dev.SetWords(2, []uint32{0, 0, 0, 0, 1})
		e := fx.open(t)
		assert.Len(t, e.Fields(), len(fx.chip.Fields)+len(fx.chip.Calibration)+len(fx.chip.Calc))
	})

	t.Run("loaded on first lookup", func(t *testing.T) {
		fx := newFixture(t)
		e := fx.open(t)
		f := field(t, e, "TEMP_CALIB")
		assert.Equal(t, KindTempSensor, f.Kind)
		assert.Len(t, e.Fields(), len(fx.chip.Fields)+len(fx.chip.Calibration)+len(fx.chip.Calc))
	})

	t.Run("skip connect", func(t *testing.T) {
		fx := newFixture(t)
		e := fx.open(t, WithSkipConnect(true))
		assert.Len(t, e.Fields(), len(fx.chip.Fields)+len(fx.chip.Calibration)+len(fx.chip.Calc))
		assert.Zero(t, fx.rec.reads)
		assert.Empty(t, fx.rec.writes)
	})
}

func TestFieldLookup(t *testing.T) {
	fx := newFixture(t)
	e := fx.open(t)

	tests := []struct {
		name    string
		want    string
		wantErr error
	}{
		{name: "CUSTOM_MAC", want: "CUSTOM_MAC"},
		{name: "MAC_CUSTOM", want: "CUSTOM_MAC"},
		{name: "KEY0", want: "BLOCK_KEY0"},
		{name: "WAFER_VERSION_MINOR", want: "WAFER_VERSION_MINOR"},
		{name: "NOT_A_FUSE", wantErr: ErrUnknownName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := e.Field(tt.name)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Name)
		})
	}

	b, err := e.BlockByName("BLOCK4")
	require.NoError(t, err)
	assert.Equal(t, "BLOCK_KEY0", b.Name)
	_, err = e.BlockByName("BLOCK42")
	assert.ErrorIs(t, err, ErrUnknownName)
	_, err = e.Block(11)
	assert.ErrorIs(t, err, ErrUnknownName)
}

func TestCodingSchemeWarnings(t *testing.T) {
	fx := newFixture(t)
	fx.dev.InjectErrors(5, 2, true)
	e := fx.open(t)

	n, fail := e.BlockErrors(5)
	assert.Equal(t, 2, n)
	assert.True(t, fail)
	assert.True(t, logged(fx.logger.errorMsgs, "Error(s) in BLOCK5 [ERRORS:2 FAIL:1]"))
	assert.True(t, logged(fx.logger.infoMsgs, "EFUSE_RD_RS_ERR0_REG"))

	f := field(t, e, "BLOCK_KEY1")
	n, fail = f.Errors()
	assert.Equal(t, 2, n)
	assert.True(t, fail)
	assert.Contains(t, e.Info(f), "BLOCK_KEY1 (BLOCK5)[error]")
	assert.Contains(t, e.Info(f), "Purpose: USER")

	failed, err := e.CodingSchemeWarnings(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, failed)
}

func TestRepeatErrorsMarkFields(t *testing.T) {
	fx := newFixture(t)
	// bit 0 of the first repeat-error register covers bit 0 of word 1 (RD_DIS)
	fx.dev.InjectErrors(0, 1, true)
	e := fx.open(t)

	_, fail := field(t, e, "RD_DIS").Errors()
	assert.True(t, fail)
	_, fail = field(t, e, "WR_DIS").Errors()
	assert.False(t, fail)
	assert.Contains(t, e.Info(field(t, e, "RD_DIS")), "[error]")
}

func TestVoltageSummary(t *testing.T) {
	tests := []struct {
		name string
		word uint32
		want string
	}{
		{name: "not forced", word: 0, want: "determined by GPIO45"},
		{name: "regulator disabled", word: 1 << 6, want: "internal regulator disabled by efuse."},
		{name: "1.8V", word: 1<<6 | 1<<4, want: "set to 1.8V by efuse."},
		{name: "3.3V", word: 1<<6 | 1<<5 | 1<<4, want: "set to 3.3V by efuse."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			fx.dev.SetWords(0, []uint32{0, 0, tt.word})
			e := fx.open(t)
			assert.Contains(t, e.VoltageSummary(), tt.want)
		})
	}
}

func TestBatchMode(t *testing.T) {
	fx := newFixture(t)
	e := fx.open(t)
	ctx := context.Background()

	e.BatchBegin()
	f := field(t, e, "DIS_ICACHE")
	bits, err := e.ParseValue(f, "")
	require.NoError(t, err)
	require.NoError(t, e.Save(f, bits))

	done, err := e.BurnAll(ctx, true)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Empty(t, fx.rec.programmed())
	assert.True(t, logged(fx.logger.infoMsgs, "Batch mode is enabled"))

	assert.Equal(t, 0, e.BatchEnd())
	done, err = e.BurnAll(ctx, true)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, []int{0}, fx.rec.programmed())
	assert.Equal(t, 0, e.BatchEnd())
}
