package transport

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/catalog"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/color"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/model"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/version"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/wire"
)

// gate refuses pt locally when the negotiated version is too old.
func (c *Client) gate(pt wire.PacketType) error {
	return version.Check(pt, c.ProtocolVersion())
}

// ControllerCount returns the number of controllers the server exposes.
func (c *Client) ControllerCount(ctx context.Context) (uint32, error) {
	resp, err := c.request(ctx, 0, wire.RequestControllerCount, nil)
	if err != nil {
		return 0, err
	}
	if len(resp) < 4 {
		return 0, fmt.Errorf("%w: %s reply has %d bytes", ErrShortResponse, wire.RequestControllerCount, len(resp))
	}
	return binary.LittleEndian.Uint32(resp), nil
}

// ControllerData fetches and parses the description of controller idx.
// The request lock is released once the payload is read; parse failures
// are reported as *catalog.ParseError and leave the session open.
func (c *Client) ControllerData(ctx context.Context, idx uint32) (*model.Device, error) {
	v := c.ProtocolVersion()
	var payload []byte
	if v > 0 {
		payload = binary.LittleEndian.AppendUint32(nil, v)
	}

	resp, err := c.request(ctx, idx, wire.RequestControllerData, payload)
	if err != nil {
		return nil, err
	}
	return catalog.Parse(v, idx, resp)
}

// Controllers enumerates every controller.
func (c *Client) Controllers(ctx context.Context) ([]*model.Device, error) {
	n, err := c.ControllerCount(ctx)
	if err != nil {
		return nil, err
	}
	devices := make([]*model.Device, 0, n)
	for i := range n {
		d, err := c.ControllerData(ctx, i)
		if err != nil {
			return nil, fmt.Errorf("controller %d: %w", i, err)
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// UpdateLEDs sets every LED of a controller.
func (c *Client) UpdateLEDs(ctx context.Context, idx uint32, colors []color.Color) error {
	return c.send(ctx, idx, wire.RGBControllerUpdateLEDs, wire.UpdateLEDsPayload(colors))
}

// UpdateZoneLEDs sets the LEDs of one zone.
func (c *Client) UpdateZoneLEDs(ctx context.Context, idx, zone uint32, colors []color.Color) error {
	return c.send(ctx, idx, wire.RGBControllerUpdateZoneLEDs, wire.UpdateZoneLEDsPayload(zone, colors))
}

// UpdateSingleLED sets one LED.
func (c *Client) UpdateSingleLED(ctx context.Context, idx uint32, led int32, col color.Color) error {
	return c.send(ctx, idx, wire.RGBControllerUpdateSingleLED, wire.UpdateSingleLEDPayload(led, col))
}

// SetCustomMode switches a controller into its direct-control mode.
func (c *Client) SetCustomMode(ctx context.Context, idx uint32) error {
	return c.send(ctx, idx, wire.RGBControllerSetCustomMode, nil)
}

// ResizeZone changes the LED count of a resizable zone.
func (c *Client) ResizeZone(ctx context.Context, idx uint32, zone, size int32) error {
	return c.send(ctx, idx, wire.RGBControllerResizeZone, wire.ResizeZonePayload(zone, size))
}

// UpdateMode activates a hardware mode.
func (c *Client) UpdateMode(ctx context.Context, idx uint32, modeIndex int32, m *model.Mode) error {
	return c.send(ctx, idx, wire.RGBControllerUpdateMode, catalog.ModePayload(c.ProtocolVersion(), modeIndex, m))
}

// SaveMode activates a hardware mode and persists it on the device.
func (c *Client) SaveMode(ctx context.Context, idx uint32, modeIndex int32, m *model.Mode) error {
	if err := c.gate(wire.RGBControllerSaveMode); err != nil {
		return err
	}
	return c.send(ctx, idx, wire.RGBControllerSaveMode, catalog.ModePayload(c.ProtocolVersion(), modeIndex, m))
}

// ClearSegments removes all segments of a zone.
func (c *Client) ClearSegments(ctx context.Context, idx, zone uint32) error {
	if err := c.gate(wire.RGBControllerClearSegments); err != nil {
		return err
	}
	return c.send(ctx, idx, wire.RGBControllerClearSegments, catalog.ClearSegmentsPayload(zone))
}

// AddSegment appends a segment to a zone.
func (c *Client) AddSegment(ctx context.Context, idx, zone uint32, s model.Segment) error {
	if err := c.gate(wire.RGBControllerAddSegment); err != nil {
		return err
	}
	return c.send(ctx, idx, wire.RGBControllerAddSegment, catalog.AddSegmentPayload(zone, s))
}

// ProfileList returns the names of the server's saved profiles.
func (c *Client) ProfileList(ctx context.Context) ([]string, error) {
	if err := c.gate(wire.RequestProfileList); err != nil {
		return nil, err
	}
	resp, err := c.request(ctx, 0, wire.RequestProfileList, nil)
	if err != nil {
		return nil, err
	}
	return catalog.ParseProfileList(resp)
}

// SaveProfile stores the current device state under name.
func (c *Client) SaveProfile(ctx context.Context, name string) error {
	return c.profileOp(ctx, wire.RequestSaveProfile, name)
}

// LoadProfile applies a saved profile.
func (c *Client) LoadProfile(ctx context.Context, name string) error {
	return c.profileOp(ctx, wire.RequestLoadProfile, name)
}

// DeleteProfile removes a saved profile.
func (c *Client) DeleteProfile(ctx context.Context, name string) error {
	return c.profileOp(ctx, wire.RequestDeleteProfile, name)
}

func (c *Client) profileOp(ctx context.Context, pt wire.PacketType, name string) error {
	if err := c.gate(pt); err != nil {
		return err
	}
	return c.send(ctx, 0, pt, wire.CString(name))
}

// PluginList returns the server's loaded plugins.
func (c *Client) PluginList(ctx context.Context) ([]catalog.Plugin, error) {
	if err := c.gate(wire.RequestPluginList); err != nil {
		return nil, err
	}
	resp, err := c.request(ctx, 0, wire.RequestPluginList, nil)
	if err != nil {
		return nil, err
	}
	return catalog.ParsePluginList(resp)
}

// PluginSpecific sends a plugin-defined packet to the plugin at index
// plugin and returns its reply.
func (c *Client) PluginSpecific(ctx context.Context, plugin uint32, pluginPacket uint32, data []byte) ([]byte, error) {
	if err := c.gate(wire.PluginSpecific); err != nil {
		return nil, err
	}
	payload := binary.LittleEndian.AppendUint32(make([]byte, 0, 4+len(data)), pluginPacket)
	payload = append(payload, data...)
	return c.request(ctx, plugin, wire.PluginSpecific, payload)
}
