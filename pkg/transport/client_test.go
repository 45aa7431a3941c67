package transport_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Emiliopg91/RogPerfTuner-sub000/internal/fakeserver"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/catalog"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/color"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/model"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/transport"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/version"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/wire"
)

func startServer(t *testing.T, cfg fakeserver.Config) *fakeserver.Server {
	t.Helper()
	srv, err := fakeserver.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	return srv
}

func dial(t *testing.T, srv *fakeserver.Server, mutate ...func(*transport.Config)) *transport.Client {
	t.Helper()
	cfg := transport.DefaultConfig()
	cfg.ClientName = "test-client"
	cfg.HandshakeTimeout = 200 * time.Millisecond
	cfg.RequestTimeout = 2 * time.Second
	for _, m := range mutate {
		m(&cfg)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := transport.Dial(ctx, srv.Addr(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestVersionNegotiation(t *testing.T) {
	tests := []struct {
		name       string
		server     uint32
		silent     bool
		negotiated uint32
	}{
		{"newer server", 9, false, 4},
		{"older server", 3, false, 3},
		{"equal", 4, false, 4},
		{"silent server", 5, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := startServer(t, fakeserver.Config{
				ProtocolVersion: tt.server,
				Silent:          tt.silent,
				Devices:         []*model.Device{fakeserver.LinearDevice(0, "Strip", 4)},
			})
			c := dial(t, srv)

			assert.Equal(t, tt.negotiated, c.ProtocolVersion())
			assert.True(t, fakeserver.WaitFor(time.Second, func() bool { return srv.ClientName() == "test-client" }))

			// Controller data decodes with the negotiated layout.
			devs, err := c.Controllers(context.Background())
			require.NoError(t, err)
			require.Len(t, devs, 1)
			assert.Equal(t, "Strip", devs[0].Name)
			assert.Equal(t, 4, devs[0].LEDCount())
		})
	}
}

func TestVersionGating(t *testing.T) {
	srv := startServer(t, fakeserver.Config{ProtocolVersion: 9})
	c := dial(t, srv)
	ctx := context.Background()

	err := c.AddSegment(ctx, 0, 0, model.Segment{Name: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, transport.ErrUnsupportedOnVersion))
	var ue *version.UnsupportedError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, uint32(5), ue.Required)
	assert.Equal(t, uint32(4), ue.Negotiated)

	assert.ErrorIs(t, c.ClearSegments(ctx, 0, 0), version.ErrUnsupportedOnVersion)
	assert.Zero(t, srv.Count(wire.RGBControllerAddSegment))
	assert.Nil(t, c.Err(), "gating must not close the session")

	old := startServer(t, fakeserver.Config{ProtocolVersion: 1})
	oc := dial(t, old)
	_, err = oc.ProfileList(ctx)
	assert.ErrorIs(t, err, version.ErrUnsupportedOnVersion)
	assert.ErrorIs(t, oc.SaveProfile(ctx, "x"), version.ErrUnsupportedOnVersion)
	assert.ErrorIs(t, oc.SaveMode(ctx, 0, 0, &model.Mode{}), version.ErrUnsupportedOnVersion)
	_, err = oc.PluginList(ctx)
	assert.ErrorIs(t, err, version.ErrUnsupportedOnVersion)
	_, err = oc.PluginSpecific(ctx, 0, 1, nil)
	assert.ErrorIs(t, err, version.ErrUnsupportedOnVersion)
}

func TestControllersChunkedReplies(t *testing.T) {
	srv := startServer(t, fakeserver.Config{
		ProtocolVersion: 4,
		ChunkSize:       3,
		Devices: []*model.Device{
			fakeserver.LinearDevice(0, "Strip", 8),
			fakeserver.MatrixDevice(1, "Keyboard", 2, 5),
		},
	})
	c := dial(t, srv)

	devs, err := c.Controllers(context.Background())
	require.NoError(t, err)
	require.Len(t, devs, 2)
	assert.Equal(t, uint32(1), devs[1].Index)
	assert.Equal(t, model.ZoneMatrix, devs[1].Zones[0].Type)
	assert.Equal(t, 5, devs[1].Zones[0].Matrix.Width)
	assert.Equal(t, "Key: A", devs[1].LEDs[0].Name)
}

func TestLEDWrites(t *testing.T) {
	srv := startServer(t, fakeserver.Config{
		ProtocolVersion: 3,
		Devices:         []*model.Device{fakeserver.LinearDevice(0, "Strip", 8)},
	})
	c := dial(t, srv)
	ctx := context.Background()

	want := color.Fill(color.Color{R: 128}, 8)
	require.NoError(t, c.SetCustomMode(ctx, 0))
	require.NoError(t, c.UpdateLEDs(ctx, 0, want))
	require.True(t, fakeserver.WaitFor(time.Second, func() bool {
		got := srv.LEDs(0)
		return len(got) == 8 && got[7] == want[7]
	}))
	assert.Equal(t, want, srv.LEDs(0))

	require.NoError(t, c.UpdateZoneLEDs(ctx, 0, 0, color.Fill(color.Blue, 8)))
	require.NoError(t, c.UpdateSingleLED(ctx, 0, 3, color.Green))
	require.True(t, fakeserver.WaitFor(time.Second, func() bool {
		got := srv.LEDs(0)
		return len(got) == 8 && got[3] == color.Green && got[0] == color.Blue
	}))
	assert.Equal(t, 1, srv.Count(wire.RGBControllerSetCustomMode))

	mode := model.Mode{Name: "Direct"}
	require.NoError(t, c.UpdateMode(ctx, 0, 2, &mode))
	require.True(t, fakeserver.WaitFor(time.Second, func() bool {
		m, ok := srv.ActiveMode(0)
		return ok && m == 2
	}))
}

func TestProfilesAndPlugins(t *testing.T) {
	srv := startServer(t, fakeserver.Config{
		ProtocolVersion: 4,
		Profiles:        []string{"Default"},
		Plugins:         []catalog.Plugin{{Name: "Effects", Version: "1.0", Index: 0, SDKVersion: 4}},
	})
	c := dial(t, srv)
	ctx := context.Background()

	names, err := c.ProfileList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Default"}, names)

	require.NoError(t, c.SaveProfile(ctx, "Night"))
	names, err = c.ProfileList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Default", "Night"}, names)

	require.NoError(t, c.DeleteProfile(ctx, "Default"))
	require.NoError(t, c.LoadProfile(ctx, "Night"))
	names, err = c.ProfileList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Night"}, names)
	assert.Equal(t, 1, srv.Count(wire.RequestLoadProfile))

	plugins, err := c.PluginList(ctx)
	require.NoError(t, err)
	require.Len(t, plugins, 1)
	assert.Equal(t, "Effects", plugins[0].Name)

	reply, err := c.PluginSpecific(ctx, 0, 7, []byte("ping"))
	require.NoError(t, err)
	assert.Equal(t, []byte("ping"), reply)
}

func TestDeviceListUpdatedHandler(t *testing.T) {
	srv := startServer(t, fakeserver.Config{ProtocolVersion: 4})
	c := dial(t, srv)

	var calls atomic.Int32
	c.SetDeviceListUpdatedHandler(func() {
		calls.Add(1)
		// The handler may issue requests of its own.
		_, _ = c.ControllerCount(context.Background())
	})

	srv.NotifyDeviceListUpdated()
	require.True(t, fakeserver.WaitFor(time.Second, func() bool { return calls.Load() == 1 }))

	// The session keeps working after an unsolicited packet.
	n, err := c.ControllerCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDisconnect(t *testing.T) {
	srv := startServer(t, fakeserver.Config{ProtocolVersion: 4})
	c := dial(t, srv)

	srv.DropConnections()

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("client did not notice the dropped connection")
	}
	assert.ErrorIs(t, c.Err(), transport.ErrDisconnected)

	_, err := c.ControllerCount(context.Background())
	assert.ErrorIs(t, err, transport.ErrDisconnected)
	assert.ErrorIs(t, c.UpdateLEDs(context.Background(), 0, nil), transport.ErrDisconnected)
}

func TestResponseTimeoutClosesSession(t *testing.T) {
	srv := startServer(t, fakeserver.Config{ProtocolVersion: 4})
	c := dial(t, srv, func(cfg *transport.Config) { cfg.RequestTimeout = 150 * time.Millisecond })

	srv.SetStall(true)
	_, err := c.ControllerCount(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, transport.ErrServerUnresponsive)

	<-c.Done()
	assert.ErrorIs(t, c.Err(), transport.ErrDisconnected)
}

func TestClose(t *testing.T) {
	srv := startServer(t, fakeserver.Config{ProtocolVersion: 4})
	c := dial(t, srv)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Err(), transport.ErrClosed)
	assert.ErrorIs(t, c.Err(), transport.ErrDisconnected)
	assert.True(t, fakeserver.WaitFor(time.Second, func() bool { return srv.ConnectionCount() == 0 }))
}

func TestDialRefused(t *testing.T) {
	srv := startServer(t, fakeserver.Config{})
	addr := srv.Addr()
	srv.Close()

	_, err := transport.Dial(context.Background(), addr, transport.DefaultConfig())
	assert.Error(t, err)
}
