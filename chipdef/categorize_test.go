package chipdef

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name     string
		category string
		class    string
	}{
		{"SPI_PAD_CONFIG_CLK", "spi pad", ClassNone},
		{"DIS_USB_OTG", "usb", ClassNone},
		{"WDT_DELAY_SEL", "wdt", ClassNone},
		{"SOFT_DIS_JTAG", "jtag", ClassNone},
		{"FLASH_TPUW", "flash", ClassNone},
		{"FORCE_SEND_RESUME", "flash", ClassNone},
		{"VDD_SPI_XPD", "vdd", ClassNone},
		{"MAC", "MAC", ClassMAC},
		{"CUSTOM_MAC", "MAC", ClassMAC},
		{"MAC_EXT", "MAC", ClassMAC},
		{"MAC_VERSION", "MAC", ClassNone},
		{"BLOCK_KEY3", "security", ClassKeyBlock},
		{"KEY_PURPOSE_2", "security", ClassKeyPurpose},
		{"SPI_BOOT_CRYPT_CNT", "security", ClassBitCount},
		{"SECURE_VERSION", "security", ClassBitCount},
		{"DIS_DOWNLOAD_MODE", "security", ClassNone},
		{"WAFER_VERSION_MAJOR", "identity", ClassNone},
		{"OPTIONAL_UNIQUE_ID", "identity", ClassKeyBlock},
		{"ADC_VREF", CategoryCalibration, ClassVRef},
		{"ADC1_CAL_VOL_ATTEN0", CategoryCalibration, ClassADC},
		{"TEMP_CALIB", CategoryCalibration, ClassTempSensor},
		{"OCODE", CategoryCalibration, ClassNone},
		{"WR_DIS", DefaultCategory, ClassNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, class := Categorize(tt.name)
			assert.Equal(t, tt.category, category)
			assert.Equal(t, tt.class, class)
		})
	}
}
