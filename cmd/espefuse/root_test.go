package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-espefuse/chipdef"
	"github.com/moffa90/go-espefuse/efuse"
	"github.com/moffa90/go-espefuse/emulator"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// stored opens the eFuse file written by a previous command.
func stored(t *testing.T, path string) *emulator.Device {
	t.Helper()
	chip, err := chipdef.Load("esp32s3")
	require.NoError(t, err)
	dev, err := emulator.New(chip, emulator.WithFile(path))
	require.NoError(t, err)
	return dev
}

func TestNoTransport(t *testing.T) {
	_, err := execute(t, "", "summary")
	assert.ErrorIs(t, err, errNoTransport)
}

func TestUnknownChip(t *testing.T) {
	_, err := execute(t, "", "--chip", "esp8266", "--virt", "summary")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported chip")
}

func TestArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"odd burn-efuse", []string{"--virt", "burn-efuse", "WDT_DELAY_SEL"}},
		{"burn-key triple", []string{"--virt", "burn-key", "BLOCK_KEY0", "key.bin"}},
		{"read-efuse without names", []string{"--virt", "read-efuse"}},
		{"summary with args", []string{"--virt", "summary", "extra"}},
		{"bad bit number", []string{"--virt", "--do-not-confirm", "burn-bit", "BLOCK3", "x"}},
		{"bad format", []string{"--virt", "summary", "--format", "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestSummaryCmd(t *testing.T) {
	out, err := execute(t, "", "--virt", "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "WDT_DELAY_SEL")
	assert.Contains(t, out, "Config fuses:")

	file := filepath.Join(t.TempDir(), "summary.json")
	out, err = execute(t, "", "--virt", "summary", "--format", "json", "--file", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved efuse values to "+file)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"WDT_DELAY_SEL": {`)
}

func TestBurnEfuseCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "efuses.bin")

	out, err := execute(t, "", "--virt", "--path-efuse-file", path, "--do-not-confirm",
		"burn-efuse", "WDT_DELAY_SEL", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Successful")

	assert.Equal(t, uint32(1<<16), stored(t, path).Words(0)[2])
}

func TestConfirmation(t *testing.T) {
	t.Run("typed BURN", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "efuses.bin")
		out, err := execute(t, "BURN\n", "--virt", "--path-efuse-file", path,
			"burn-efuse", "DIS_ICACHE", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "Type 'BURN' (all capitals) to continue.")
		assert.Equal(t, uint32(1<<8), stored(t, path).Words(0)[1])
	})

	t.Run("anything else aborts", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "efuses.bin")
		_, err := execute(t, "burn\n", "--virt", "--path-efuse-file", path,
			"burn-efuse", "DIS_ICACHE", "1")
		assert.ErrorIs(t, err, efuse.ErrAborted)
		assert.Equal(t, uint32(0), stored(t, path).Words(0)[1])
	})
}

func TestBurnKeyCmd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "efuses.bin")
	keyFile := filepath.Join(dir, "key.bin")
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(keyFile, key, 0o600))

	out, err := execute(t, "", "--virt", "--path-efuse-file", path, "--do-not-confirm",
		"burn-key", "BLOCK_KEY0", keyFile, "XTS_AES_128_KEY", "--no-read-protect")
	require.NoError(t, err)
	assert.Contains(t, out, "Keys will remain readable (due to --no-read-protect)")
	assert.Contains(t, out, "Successful")

	dev := stored(t, path)
	assert.Equal(t, uint32(0x1c1d1e1f), dev.Words(4)[0])
	assert.Equal(t, uint32(4<<24), dev.Words(0)[2])
}

func TestCustomMACCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "efuses.bin")

	_, err := execute(t, "", "--virt", "--path-efuse-file", path, "--do-not-confirm",
		"burn-custom-mac", "aa:cd:ef:01:02:03")
	require.NoError(t, err)

	out, err := execute(t, "", "--virt", "--path-efuse-file", path, "get-custom-mac")
	require.NoError(t, err)
	assert.Contains(t, out, "Custom MAC Address: aa:cd:ef:01:02:03")
}

func TestCheckErrorCmd(t *testing.T) {
	out, err := execute(t, "", "--virt", "check-error")
	require.NoError(t, err)
	assert.Contains(t, out, "No errors detected")
}

func TestFields(t *testing.T) {
	f := fields([]interface{}{"block", 3, 7, "x", "dangling"})
	assert.Equal(t, 3, f["block"])
	assert.Equal(t, "x", f["7"])
	assert.Equal(t, "dangling", f["extra"])
}

func TestTermWidth(t *testing.T) {
	assert.Equal(t, 0, termWidth(new(bytes.Buffer)))
}
