package model

import "fmt"

// DeviceType is the controller category reported by the server.
type DeviceType int32

// Device types.
const (
	DeviceTypeMotherboard DeviceType = iota
	DeviceTypeDRAM
	DeviceTypeGPU
	DeviceTypeCooler
	DeviceTypeLEDStrip
	DeviceTypeKeyboard
	DeviceTypeMouse
	DeviceTypeMouseMat
	DeviceTypeHeadset
	DeviceTypeHeadsetStand
	DeviceTypeGamepad
	DeviceTypeLight
	DeviceTypeSpeaker
	DeviceTypeVirtual
	DeviceTypeStorage
	DeviceTypeCase
	DeviceTypeMicrophone
	DeviceTypeAccessory
	DeviceTypeKeypad
	DeviceTypeUnknown
)

var deviceTypeNames = [...]string{
	"MOTHERBOARD", "DRAM", "GPU", "COOLER", "LEDSTRIP", "KEYBOARD", "MOUSE",
	"MOUSEMAT", "HEADSET", "HEADSET_STAND", "GAMEPAD", "LIGHT", "SPEAKER",
	"VIRTUAL", "STORAGE", "CASE", "MICROPHONE", "ACCESSORY", "KEYPAD", "UNKNOWN",
}

// String returns the device type name.
func (t DeviceType) String() string {
	if t >= 0 && int(t) < len(deviceTypeNames) {
		return deviceTypeNames[t]
	}
	return fmt.Sprintf("DEVICE_TYPE_%d", int32(t))
}

// ZoneType is the geometry of a zone.
type ZoneType int32

// Zone types.
const (
	ZoneSingle ZoneType = 0
	ZoneLinear ZoneType = 1
	ZoneMatrix ZoneType = 2
)

// String returns the zone type name.
func (t ZoneType) String() string {
	switch t {
	case ZoneSingle:
		return "SINGLE"
	case ZoneLinear:
		return "LINEAR"
	case ZoneMatrix:
		return "MATRIX"
	default:
		return fmt.Sprintf("ZONE_TYPE_%d", int32(t))
	}
}

// ModeFlags is the capability bitmap of a mode.
type ModeFlags uint32

// Mode flags.
const (
	ModeFlagHasSpeed ModeFlags = 1 << iota
	ModeFlagHasDirectionLR
	ModeFlagHasDirectionUD
	ModeFlagHasDirectionHV
	ModeFlagHasBrightness
	ModeFlagHasPerLEDColor
	ModeFlagHasModeSpecificColor
	ModeFlagHasRandomColor
	ModeFlagManualSave
	ModeFlagAutomaticSave
)

// Has returns true if all bits of f are set.
func (m ModeFlags) Has(f ModeFlags) bool { return m&f == f }

// ColorMode selects how a mode sources its colors.
type ColorMode uint32

// Color modes.
const (
	ColorModeNone ColorMode = iota
	ColorModePerLED
	ColorModeModeSpecific
	ColorModeRandom
)

// String returns the color mode name.
func (c ColorMode) String() string {
	switch c {
	case ColorModeNone:
		return "NONE"
	case ColorModePerLED:
		return "PER_LED"
	case ColorModeModeSpecific:
		return "MODE_SPECIFIC"
	case ColorModeRandom:
		return "RANDOM"
	default:
		return fmt.Sprintf("COLOR_MODE_%d", uint32(c))
	}
}
