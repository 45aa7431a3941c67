package wire

import "github.com/Emiliopg91/RogPerfTuner-sub000/pkg/color"

// UpdateLEDsPayload encodes an RGBCONTROLLER_UPDATELEDS payload.
func UpdateLEDsPayload(colors []color.Color) []byte {
	return NewEncoder(2 + 4*len(colors)).Colors(colors).SizePrefixed()
}

// UpdateZoneLEDsPayload encodes an RGBCONTROLLER_UPDATEZONELEDS payload.
func UpdateZoneLEDsPayload(zone uint32, colors []color.Color) []byte {
	return NewEncoder(6 + 4*len(colors)).Uint32(zone).Colors(colors).SizePrefixed()
}

// UpdateSingleLEDPayload encodes an RGBCONTROLLER_UPDATESINGLELED payload.
func UpdateSingleLEDPayload(led int32, c color.Color) []byte {
	return NewEncoder(8).Int32(led).Color(c).Bytes()
}

// ResizeZonePayload encodes an RGBCONTROLLER_RESIZEZONE payload.
func ResizeZonePayload(zone int32, size int32) []byte {
	return NewEncoder(8).Int32(zone).Int32(size).Bytes()
}

// ParseUpdateLEDs decodes an RGBCONTROLLER_UPDATELEDS payload.
func ParseUpdateLEDs(payload []byte) ([]color.Color, error) {
	d := NewDecoder(payload)
	d.Uint32("data_size")
	cs := d.Colors("colors")
	return cs, d.Err()
}

// ParseUpdateZoneLEDs decodes an RGBCONTROLLER_UPDATEZONELEDS payload.
func ParseUpdateZoneLEDs(payload []byte) (uint32, []color.Color, error) {
	d := NewDecoder(payload)
	d.Uint32("data_size")
	zone := d.Uint32("zone")
	cs := d.Colors("colors")
	return zone, cs, d.Err()
}

// ParseUpdateSingleLED decodes an RGBCONTROLLER_UPDATESINGLELED payload.
func ParseUpdateSingleLED(payload []byte) (int32, color.Color, error) {
	d := NewDecoder(payload)
	led := d.Int32("led")
	c := d.Color("color")
	return led, c, d.Err()
}
