package chipdef

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-espefuse/protocol"
)

func TestLoadESP32S3(t *testing.T) {
	for _, name := range []string{"esp32s3", "ESP32-S3", "esp32-s3"} {
		chip, err := Load(name)
		require.NoError(t, err, name)
		assert.Equal(t, "ESP32-S3", chip.Name)
	}
}

func TestLoadUnknownChip(t *testing.T) {
	_, err := Load("esp8266")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "esp32s3")
}

func TestESP32S3Blocks(t *testing.T) {
	chip, err := Load("esp32s3")
	require.NoError(t, err)

	assert.Equal(t, protocol.CodingSchemeRS, chip.CodingScheme)
	require.Len(t, chip.Blocks, 11)
	require.Len(t, chip.Registers.BlockErrors, 11)

	tests := []struct {
		name    string
		id      int
		rdAddr  uint32
		length  int
		wrDis   *int
		rdDis   BitList
		purpose string
	}{
		{"BLOCK0", 0, 0x6000702C, 6, nil, nil, ""},
		{"BLOCK1", 1, 0x60007044, 6, intPtr(20), nil, ""},
		{"BLOCK3", 3, 0x6000707C, 8, intPtr(22), nil, ""},
		{"BLOCK_KEY0", 4, 0x6000709C, 8, intPtr(23), BitList{0}, "KEY_PURPOSE_0"},
		{"BLOCK10", 10, 0x6000715C, 8, intPtr(29), BitList{6}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := chip.Block(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.id, b.ID)
			assert.Equal(t, tt.rdAddr, b.RdAddr)
			assert.Equal(t, uint32(0x60007000), b.WrAddr)
			assert.Equal(t, tt.length, b.Len)
			assert.Equal(t, tt.wrDis, b.WriteDisableBit)
			assert.Equal(t, tt.rdDis, b.ReadDisableBits)
			assert.Equal(t, tt.purpose, b.KeyPurpose)
		})
	}

	// the last block ends where the repeat-error registers begin
	last := chip.Blocks[10]
	assert.Equal(t, chip.Registers.RdRepeatErr0, last.RdAddr+uint32(last.Len)*4)
}

func TestESP32S3Fields(t *testing.T) {
	chip, err := Load("esp32s3")
	require.NoError(t, err)

	byName := make(map[string]Field)
	for _, group := range [][]Field{chip.Fields, chip.Calibration, chip.Calc} {
		for _, f := range group {
			byName[f.Name] = f
		}
	}

	tests := []struct {
		name     string
		block    int
		offset   int
		typ      string
		category string
		class    string
	}{
		{"WR_DIS", 0, 0, "uint:32", "config", ClassNone},
		{"RD_DIS", 0, 32, "uint:7", "config", ClassNone},
		{"SPI_BOOT_CRYPT_CNT", 0, 82, "uint:3", "security", ClassBitCount},
		{"KEY_PURPOSE_5", 0, 108, "uint:4", "security", ClassKeyPurpose},
		{"MAC", 1, 0, "bytes:6", "MAC", ClassMAC},
		{"CUSTOM_MAC", 3, 200, "bytes:6", "MAC", ClassMAC},
		{"TEMP_CALIB", 2, 130, "uint:9", CategoryCalibration, ClassTempSensor},
		{"ADC1_INIT_CODE_ATTEN0", 2, 147, "uint:8", CategoryCalibration, ClassADC},
		{"BLOCK_KEY0", 4, 0, "bytes:32", "security", ClassKeyBlock},
		{"WAFER_VERSION_MINOR", 0, 0, "uint:4", "identity", ClassWafer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := byName[tt.name]
			require.True(t, ok)
			assert.Equal(t, tt.block, f.Block)
			assert.Equal(t, tt.offset, f.BitOffset())
			assert.Equal(t, tt.typ, f.Type)
			assert.Equal(t, tt.category, f.Category)
			assert.Equal(t, tt.class, f.Class)
		})
	}

	assert.True(t, byName["WAFER_VERSION_MINOR"].Calculated())
	assert.Equal(t, []string{"MAC_CUSTOM", "USER_DATA_MAC_CUSTOM"}, byName["CUSTOM_MAC"].AltNames)
	assert.Equal(t, "Disable", byName["UART_PRINT_CONTROL"].Dict[3])

	for _, f := range chip.Calibration {
		assert.Equal(t, 2, f.Block, f.Name)
	}
	for _, f := range chip.Fields {
		assert.NotEqual(t, CategoryCalibration, f.Category, f.Name)
	}
}

func TestESP32S3KeyPurposes(t *testing.T) {
	chip, err := Load("esp32s3")
	require.NoError(t, err)

	kp, ok := chip.KeyPurpose("XTS_AES_128_KEY")
	require.True(t, ok)
	assert.Equal(t, 4, kp.Value)
	assert.True(t, kp.Reverse)
	assert.True(t, kp.ReadProtect)

	kp, ok = chip.KeyPurpose("SECURE_BOOT_DIGEST1")
	require.True(t, ok)
	assert.True(t, kp.Digest)
	assert.False(t, kp.ReadProtect)

	kp, ok = chip.KeyPurpose("XTS_AES_256_KEY")
	require.True(t, ok)
	assert.True(t, kp.Virtual)

	_, ok = chip.KeyPurpose("NOPE")
	assert.False(t, ok)
}

const minimalChip = `
name: TEST
coding_scheme: none
blocks:
  - {name: BLOCK0, id: 0, rd_addr: 0x100, wr_addr: 0x0, len: 2}
efuses:
  WR_DIS: {blk: 0, word: 0, pos: 0, len: 8, type: "uint:8"}
  RD_DIS: {blk: 0, word: 0, pos: 8, len: 2, type: "uint:2", wr_dis: 0, rd_dis: "0 1"}
  HIDDEN: {show: n, blk: 0, word: 1, pos: 0, len: 1, type: bool}
`

func TestParseReader(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "minimal", input: minimalChip},
		{
			name:    "block id out of order",
			input:   "blocks:\n  - {name: B, id: 1, len: 1}\n",
			wantErr: "out of order",
		},
		{
			name:    "no blocks",
			input:   "name: X\n",
			wantErr: "no blocks",
		},
		{
			name:    "field outside block",
			input:   minimalChip + "  BIG: {blk: 0, word: 1, pos: 31, len: 2, type: \"uint:2\"}\n",
			wantErr: "outside block",
		},
		{
			name:    "type length mismatch",
			input:   minimalChip + "  ODD: {blk: 0, word: 1, pos: 0, len: 3, type: \"uint:2\"}\n",
			wantErr: "does not match",
		},
		{
			name:    "duplicate alt name",
			input:   minimalChip + "  OTHER: {blk: 0, word: 1, pos: 0, len: 1, type: bool, alt: WR_DIS}\n",
			wantErr: "duplicate name",
		},
		{
			name:    "unknown block",
			input:   minimalChip + "  FAR: {blk: 3, word: 0, pos: 0, len: 1, type: bool}\n",
			wantErr: "does not exist",
		},
		{
			name:    "unknown key",
			input:   minimalChip + "bogus: 1\n",
			wantErr: "bogus",
		},
		{
			name:    "unknown coding scheme",
			input:   "coding_scheme: golay\n",
			wantErr: "unknown coding scheme",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chip, err := ParseReader(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, chip.Fields, 2)
			assert.Equal(t, BitList{0, 1}, chip.Fields[1].ReadDisableBits)
			assert.Equal(t, intPtr(0), chip.Fields[1].WriteDisableBit)
			assert.Nil(t, chip.Fields[0].WriteDisableBit)
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chip.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalChip), 0o600))

	chip, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "TEST", chip.Name)

	_, err = Parse(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBitListForms(t *testing.T) {
	input := minimalChip + "  A: {blk: 0, word: 1, pos: 0, len: 1, type: bool, rd_dis: 1}\n" +
		"  B: {blk: 0, word: 1, pos: 1, len: 1, type: bool, rd_dis: [0, 1]}\n"
	chip, err := ParseReader(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, BitList{1}, chip.Fields[2].ReadDisableBits)
	assert.Equal(t, BitList{0, 1}, chip.Fields[3].ReadDisableBits)
}

func intPtr(v int) *int {
	return &v
}
