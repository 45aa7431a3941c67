package catalog

import (
	"fmt"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/model"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/version"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/wire"
)

// noMatrixCell is the wire value of an empty matrix cell.
const noMatrixCell = 0xFFFFFFFF

// Minimum encoded sizes, used to reject counts that cannot fit the payload
// before allocating.
const (
	minModeSize    = 2 + 4*9 + 2
	minZoneSize    = 2 + 4*4 + 2
	minLEDSize     = 2 + 4
	minSegmentSize = 2 + 4*3
)

// Parse decodes a REQUEST_CONTROLLER_DATA payload for the controller at
// index idx, using the field layout of protocol version v.
func Parse(v uint32, idx uint32, data []byte) (*model.Device, error) {
	d := wire.NewDecoder(data)
	fail := func(field string, err error) (*model.Device, error) {
		return nil, &ParseError{DeviceIndex: idx, Packet: wire.RequestControllerData, Offset: d.Offset(), Field: field, Err: err}
	}

	size := d.Uint32("data_size")
	if d.Err() == nil && int(size) > len(data) {
		return fail("data_size", fmt.Errorf("declared %d bytes, have %d", size, len(data)))
	}

	dev := model.NewDevice(idx, "")
	dev.Type = model.DeviceType(d.Int32("type"))
	dev.Name = d.String("name")
	if version.Supports("vendor", v) {
		dev.Vendor = d.String("vendor")
	}
	dev.Description = d.String("description")
	dev.Version = d.String("version")
	dev.Serial = d.String("serial")
	dev.Location = d.String("location")

	numModes := int(d.Uint16("num_modes"))
	dev.ActiveMode = d.Int32("active_mode")
	if d.Err() == nil && d.Remaining() < numModes*minModeSize {
		return fail("num_modes", fmt.Errorf("%d modes cannot fit in %d bytes", numModes, d.Remaining()))
	}
	dev.Modes = make([]model.Mode, 0, numModes)
	for i := 0; i < numModes && d.Err() == nil; i++ {
		dev.Modes = append(dev.Modes, decodeMode(d, v))
	}

	numZones := int(d.Uint16("num_zones"))
	if d.Err() == nil && d.Remaining() < numZones*minZoneSize {
		return fail("num_zones", fmt.Errorf("%d zones cannot fit in %d bytes", numZones, d.Remaining()))
	}
	dev.Zones = make([]model.Zone, 0, numZones)
	for i := 0; i < numZones && d.Err() == nil; i++ {
		dev.Zones = append(dev.Zones, decodeZone(d, v))
	}

	numLEDs := int(d.Uint16("num_leds"))
	if d.Err() == nil && d.Remaining() < numLEDs*minLEDSize {
		return fail("num_leds", fmt.Errorf("%d LEDs cannot fit in %d bytes", numLEDs, d.Remaining()))
	}
	dev.LEDs = make([]model.LED, 0, numLEDs)
	for i := 0; i < numLEDs && d.Err() == nil; i++ {
		dev.LEDs = append(dev.LEDs, model.LED{
			Name:  d.String("led.name"),
			Value: d.Uint32("led.value"),
		})
	}

	colors := d.Colors("colors")
	if err := d.Err(); err != nil {
		return nil, wrapDecode(idx, wire.RequestControllerData, err)
	}

	if err := fixupZones(dev); err != nil {
		return fail("zones", err)
	}
	dev.Init(colors)
	resolveMatrices(dev)
	if err := dev.Validate(); err != nil {
		return fail("zones", err)
	}
	return dev, nil
}

// fixupZones checks that zone sizes sum to the LED count.
func fixupZones(dev *model.Device) error {
	total := 0
	for i := range dev.Zones {
		total += dev.Zones[i].LEDCount
	}
	if total != len(dev.LEDs) {
		return fmt.Errorf("%w: zones cover %d LEDs, device has %d", model.ErrInvalidLayout, total, len(dev.LEDs))
	}
	return nil
}

// resolveMatrices converts zone-relative matrix cells, stored by
// decodeZone, into device-level indices. Cells that point outside their
// zone become model.NoLED.
func resolveMatrices(dev *model.Device) {
	for i := range dev.Zones {
		z := &dev.Zones[i]
		if z.Matrix == nil {
			continue
		}
		for c, raw := range z.Matrix.Cells {
			if raw == model.NoLED || raw >= z.LEDCount {
				z.Matrix.Cells[c] = model.NoLED
				continue
			}
			z.Matrix.Cells[c] = z.Start + raw
		}
	}
}

func decodeZone(d *wire.Decoder, v uint32) model.Zone {
	z := model.Zone{
		Name:    d.String("zone.name"),
		Type:    model.ZoneType(d.Int32("zone.type")),
		LEDsMin: d.Uint32("zone.leds_min"),
		LEDsMax: d.Uint32("zone.leds_max"),
	}
	count := d.Uint32("zone.leds_count")
	if count > 0xFFFF {
		// Any larger count cannot match the uint16 LED list; fixupZones
		// reports the mismatch.
		count = 0x10000
	}
	z.LEDCount = int(count)

	if matrixLen := d.Uint16("zone.matrix_len"); matrixLen > 0 {
		h := d.Uint32("zone.matrix_height")
		w := d.Uint32("zone.matrix_width")
		cells := uint64(h) * uint64(w)
		switch {
		case d.Err() != nil:
		case cells > uint64(d.Remaining())/4:
			d.Skip("zone.matrix_map", d.Remaining()+1)
		default:
			m := &model.MatrixMap{Height: int(h), Width: int(w), Cells: make([]int, cells)}
			for i := range m.Cells {
				raw := d.Uint32("zone.matrix_map")
				if raw == noMatrixCell || raw > 0xFFFF {
					m.Cells[i] = model.NoLED
				} else {
					m.Cells[i] = int(raw)
				}
			}
			z.Matrix = m
		}
	}

	if version.Supports("zone_segments", v) {
		n := int(d.Uint16("zone.num_segments"))
		if d.Err() == nil && d.Remaining() < n*minSegmentSize {
			d.Skip("zone.segments", n*minSegmentSize)
			return z
		}
		for i := 0; i < n && d.Err() == nil; i++ {
			z.Segments = append(z.Segments, decodeSegment(d))
		}
	}
	return z
}

func decodeSegment(d *wire.Decoder) model.Segment {
	return model.Segment{
		Name:  d.String("segment.name"),
		Type:  model.ZoneType(d.Int32("segment.type")),
		Start: d.Uint32("segment.start"),
		Count: d.Uint32("segment.count"),
	}
}

func decodeMode(d *wire.Decoder, v uint32) model.Mode {
	hasBrightness := version.Supports("brightness", v)

	m := model.Mode{
		Name:     d.String("mode.name"),
		Value:    d.Int32("mode.value"),
		Flags:    model.ModeFlags(d.Uint32("mode.flags")),
		SpeedMin: d.Uint32("mode.speed_min"),
		SpeedMax: d.Uint32("mode.speed_max"),
	}
	if hasBrightness {
		m.BrightnessMin = d.Uint32("mode.brightness_min")
		m.BrightnessMax = d.Uint32("mode.brightness_max")
	}
	m.ColorsMin = d.Uint32("mode.colors_min")
	m.ColorsMax = d.Uint32("mode.colors_max")
	m.Speed = d.Uint32("mode.speed")
	if hasBrightness {
		m.Brightness = d.Uint32("mode.brightness")
	}
	m.Direction = d.Uint32("mode.direction")
	m.ColorMode = model.ColorMode(d.Uint32("mode.color_mode"))
	m.Colors = d.Colors("mode.colors")
	return m
}

// Encode builds a REQUEST_CONTROLLER_DATA payload for dev using the field
// layout of protocol version v.
func Encode(v uint32, dev *model.Device) []byte {
	e := wire.NewEncoder(256)
	e.Int32(int32(dev.Type))
	e.String(dev.Name)
	if version.Supports("vendor", v) {
		e.String(dev.Vendor)
	}
	e.String(dev.Description)
	e.String(dev.Version)
	e.String(dev.Serial)
	e.String(dev.Location)

	e.Uint16(uint16(len(dev.Modes)))
	e.Int32(dev.ActiveMode)
	for i := range dev.Modes {
		encodeMode(e, v, &dev.Modes[i])
	}

	e.Uint16(uint16(len(dev.Zones)))
	for i := range dev.Zones {
		encodeZone(e, v, &dev.Zones[i])
	}

	e.Uint16(uint16(len(dev.LEDs)))
	for _, l := range dev.LEDs {
		e.String(l.Name)
		e.Uint32(l.Value)
	}

	e.Colors(dev.Colors())
	return e.SizePrefixed()
}

func encodeZone(e *wire.Encoder, v uint32, z *model.Zone) {
	e.String(z.Name)
	e.Int32(int32(z.Type))
	e.Uint32(z.LEDsMin)
	e.Uint32(z.LEDsMax)
	e.Uint32(uint32(z.LEDCount))

	if z.Matrix == nil {
		e.Uint16(0)
	} else {
		e.Uint16(uint16(8 + 4*len(z.Matrix.Cells)))
		e.Uint32(uint32(z.Matrix.Height))
		e.Uint32(uint32(z.Matrix.Width))
		for _, c := range z.Matrix.Cells {
			if c == model.NoLED {
				e.Uint32(noMatrixCell)
			} else {
				e.Uint32(uint32(c - z.Start))
			}
		}
	}

	if version.Supports("zone_segments", v) {
		e.Uint16(uint16(len(z.Segments)))
		for _, s := range z.Segments {
			encodeSegment(e, s)
		}
	}
}

func encodeSegment(e *wire.Encoder, s model.Segment) {
	e.String(s.Name)
	e.Int32(int32(s.Type))
	e.Uint32(s.Start)
	e.Uint32(s.Count)
}

func encodeMode(e *wire.Encoder, v uint32, m *model.Mode) {
	hasBrightness := version.Supports("brightness", v)

	e.String(m.Name)
	e.Int32(m.Value)
	e.Uint32(uint32(m.Flags))
	e.Uint32(m.SpeedMin)
	e.Uint32(m.SpeedMax)
	if hasBrightness {
		e.Uint32(m.BrightnessMin)
		e.Uint32(m.BrightnessMax)
	}
	e.Uint32(m.ColorsMin)
	e.Uint32(m.ColorsMax)
	e.Uint32(m.Speed)
	if hasBrightness {
		e.Uint32(m.Brightness)
	}
	e.Uint32(m.Direction)
	e.Uint32(uint32(m.ColorMode))
	e.Colors(m.Colors)
}
