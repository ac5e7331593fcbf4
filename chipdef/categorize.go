package chipdef

import "strings"

// Field classes. The class selects how a field's value is parsed and shown.
const (
	ClassNone       = ""
	ClassMAC        = "mac"
	ClassKeyBlock   = "keyblock"
	ClassKeyPurpose = "keypurpose"
	ClassBitCount   = "bitcount"
	ClassTempSensor = "t_sensor"
	ClassADC        = "adc_tp"
	ClassVRef       = "vref"
	ClassWafer      = "wafer"
)

// CategoryCalibration marks fields that are loaded on demand.
const CategoryCalibration = "calibration"

// DefaultCategory is used when no name rule matches.
const DefaultCategory = "config"

var (
	keyBlockNames = []string{
		"BLOCK_KEY0", "BLOCK_KEY1", "BLOCK_KEY2", "BLOCK_KEY3", "BLOCK_KEY4", "BLOCK_KEY5",
		"BLOCK1", "BLOCK2",
	}
	securityWords = []string{
		"KEY", "SECURE", "DOWNLOAD", "SPI_BOOT_CRYPT_CNT", "KEY_PURPOSE", "SECURE_VERSION",
		"DPA", "ECDSA", "FLASH_CRYPT_CNT", "ENCRYPT", "DECRYPT", "ABS_DONE",
	}
	bitCountWords    = []string{"FLASH_CRYPT_CNT", "SPI_BOOT_CRYPT_CNT", "SECURE_VERSION"}
	identityWords    = []string{"VERSION", "WAFER", "_ID", "PKG", "PACKAGE", "REV"}
	calibrationWords = []string{"ADC", "LDO", "DBIAS", "_HVT", "CALIB", "OCODE"}
	adcWords         = []string{"ADC", "LDO", "DBIAS", "_HVT"}
)

func containsAny(name string, words []string) bool {
	for _, w := range words {
		if strings.Contains(name, w) {
			return true
		}
	}
	return false
}

// Categorize derives the display category and the class of a field from
// its name. The first matching rule wins.
func Categorize(name string) (category, class string) {
	switch {
	case strings.HasPrefix(name, "SPI_PAD_CONFIG"):
		return "spi pad", ClassNone
	case strings.Contains(name, "USB"):
		return "usb", ClassNone
	case strings.Contains(name, "WDT"):
		return "wdt", ClassNone
	case strings.Contains(name, "JTAG"):
		return "jtag", ClassNone
	case containsAny(name, []string{"FLASH", "FORCE_SEND_RESUME"}):
		return "flash", ClassNone
	case containsAny(name, []string{"VDD_SPI_", "XPD"}):
		return "vdd", ClassNone
	case strings.Contains(name, "MAC"):
		switch name {
		case "MAC", "CUSTOM_MAC", "MAC_EXT":
			return "MAC", ClassMAC
		}
		return "MAC", ClassNone
	case containsAny(name, keyBlockNames):
		return "security", ClassKeyBlock
	case containsAny(name, securityWords):
		switch {
		case strings.HasPrefix(name, "KEY_PURPOSE"):
			return "security", ClassKeyPurpose
		case containsAny(name, bitCountWords):
			return "security", ClassBitCount
		}
		return "security", ClassNone
	case containsAny(name, identityWords):
		if name == "OPTIONAL_UNIQUE_ID" {
			return "identity", ClassKeyBlock
		}
		return "identity", ClassNone
	case containsAny(name, calibrationWords):
		switch {
		case name == "ADC_VREF":
			return CategoryCalibration, ClassVRef
		case containsAny(name, adcWords):
			return CategoryCalibration, ClassADC
		case name == "TEMP_CALIB":
			return CategoryCalibration, ClassTempSensor
		}
		return CategoryCalibration, ClassNone
	}
	return DefaultCategory, ClassNone
}
