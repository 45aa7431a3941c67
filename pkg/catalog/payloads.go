package catalog

import (
	"fmt"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/model"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/wire"
)

// Plugin describes a server plugin.
type Plugin struct {
	Name        string
	Description string
	Version     string
	Index       uint32
	SDKVersion  uint32
}

// ModePayload encodes an RGBCONTROLLER_UPDATEMODE or
// RGBCONTROLLER_SAVEMODE payload.
func ModePayload(v uint32, modeIndex int32, m *model.Mode) []byte {
	e := wire.NewEncoder(64).Int32(modeIndex)
	encodeMode(e, v, m)
	return e.SizePrefixed()
}

// ParseModePayload decodes a payload built by ModePayload.
func ParseModePayload(v uint32, idx uint32, pt wire.PacketType, payload []byte) (int32, model.Mode, error) {
	d := wire.NewDecoder(payload)
	d.Uint32("data_size")
	modeIndex := d.Int32("mode_index")
	m := decodeMode(d, v)
	return modeIndex, m, wrapDecode(idx, pt, d.Err())
}

// AddSegmentPayload encodes an RGBCONTROLLER_ADDSEGMENT payload.
func AddSegmentPayload(zone uint32, s model.Segment) []byte {
	e := wire.NewEncoder(32).Uint32(zone)
	encodeSegment(e, s)
	return e.SizePrefixed()
}

// ParseAddSegmentPayload decodes a payload built by AddSegmentPayload.
func ParseAddSegmentPayload(idx uint32, payload []byte) (uint32, model.Segment, error) {
	d := wire.NewDecoder(payload)
	d.Uint32("data_size")
	zone := d.Uint32("zone")
	s := decodeSegment(d)
	return zone, s, wrapDecode(idx, wire.RGBControllerAddSegment, d.Err())
}

// ClearSegmentsPayload encodes an RGBCONTROLLER_CLEARSEGMENTS payload.
func ClearSegmentsPayload(zone uint32) []byte {
	return wire.NewEncoder(4).Uint32(zone).Bytes()
}

// ParseProfileList decodes a REQUEST_PROFILE_LIST response.
func ParseProfileList(payload []byte) ([]string, error) {
	d := wire.NewDecoder(payload)
	d.Uint32("data_size")
	n := int(d.Uint16("num_profiles"))
	if d.Err() == nil && d.Remaining() < 2*n {
		return nil, &ParseError{Packet: wire.RequestProfileList, Offset: d.Offset(), Field: "num_profiles",
			Err: fmt.Errorf("%d profiles cannot fit in %d bytes", n, d.Remaining())}
	}
	out := make([]string, 0, n)
	for i := 0; i < n && d.Err() == nil; i++ {
		out = append(out, d.String("profile"))
	}
	if err := d.Err(); err != nil {
		return nil, wrapDecode(0, wire.RequestProfileList, err)
	}
	return out, nil
}

// ProfileListPayload encodes a REQUEST_PROFILE_LIST response.
func ProfileListPayload(names []string) []byte {
	e := wire.NewEncoder(64).Uint16(uint16(len(names)))
	for _, n := range names {
		e.String(n)
	}
	return e.SizePrefixed()
}

// ParsePluginList decodes a REQUEST_PLUGIN_LIST response.
func ParsePluginList(payload []byte) ([]Plugin, error) {
	d := wire.NewDecoder(payload)
	d.Uint32("data_size")
	n := int(d.Uint16("num_plugins"))
	if d.Err() == nil && d.Remaining() < n*(3*2+8) {
		return nil, &ParseError{Packet: wire.RequestPluginList, Offset: d.Offset(), Field: "num_plugins",
			Err: fmt.Errorf("%d plugins cannot fit in %d bytes", n, d.Remaining())}
	}
	out := make([]Plugin, 0, n)
	for i := 0; i < n && d.Err() == nil; i++ {
		out = append(out, Plugin{
			Name:        d.String("plugin.name"),
			Description: d.String("plugin.description"),
			Version:     d.String("plugin.version"),
			Index:       d.Uint32("plugin.index"),
			SDKVersion:  d.Uint32("plugin.sdk_version"),
		})
	}
	if err := d.Err(); err != nil {
		return nil, wrapDecode(0, wire.RequestPluginList, err)
	}
	return out, nil
}

// PluginListPayload encodes a REQUEST_PLUGIN_LIST response.
func PluginListPayload(plugins []Plugin) []byte {
	e := wire.NewEncoder(128).Uint16(uint16(len(plugins)))
	for _, p := range plugins {
		e.String(p.Name).String(p.Description).String(p.Version).Uint32(p.Index).Uint32(p.SDKVersion)
	}
	return e.SizePrefixed()
}
