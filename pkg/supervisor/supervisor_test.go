package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Emiliopg91/RogPerfTuner-sub000/internal/fakeserver"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/color"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/connection"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/effect"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/model"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/wire"
)

func linear(n int) []*model.Device {
	return []*model.Device{fakeserver.LinearDevice(0, "Keyboard", n)}
}

func TestEndToEndStaticMedium(t *testing.T) {
	l := &fakeLauncher{version: 3, devices: linear(8)}
	s := newTestSupervisor(t, testConfig(l))
	ctx := context.Background()

	require.NoError(t, s.Start(ctx))
	v, err := s.ProtocolVersion()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), v)

	red, err := color.ParseHex("#FF0000")
	require.NoError(t, err)
	supportsColor, err := s.ApplyEffect(ctx, "Static", color.Medium, &red)
	require.NoError(t, err)
	assert.True(t, supportsColor)

	srv := l.server()
	assert.True(t, fakeserver.WaitFor(waitTimeout, func() bool {
		return allLEDs(srv, 0, 8, color.RGB(128, 0, 0))
	}), "LEDs = %v", srv.LEDs(0))
	assert.Equal(t, "rgbd-test", srv.ClientName())

	name, brightness, ok := s.ActiveEffect()
	assert.True(t, ok)
	assert.Equal(t, "Static", name)
	assert.Equal(t, color.Medium, brightness)
}

func TestStartPushesBlack(t *testing.T) {
	l := &fakeLauncher{version: 4, devices: []*model.Device{
		fakeserver.LinearDevice(0, "Strip", 6),
		fakeserver.MatrixDevice(1, "Keyboard", 2, 3),
	}}
	s := newTestSupervisor(t, testConfig(l))

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.Running())

	srv := l.server()
	assert.True(t, fakeserver.WaitFor(waitTimeout, func() bool {
		return allLEDs(srv, 0, 6, color.Black) && allLEDs(srv, 1, 6, color.Black)
	}))
	assert.Equal(t, 2, srv.Count(wire.RGBControllerSetCustomMode))

	devices := s.Devices()
	require.Len(t, devices, 2)
	assert.Equal(t, "Keyboard", devices[1].Name)
	for _, d := range devices {
		assert.True(t, d.Enabled())
	}
}

func TestStartTwiceLaunchesOnce(t *testing.T) {
	l := &fakeLauncher{version: 4, devices: linear(2)}
	s := newTestSupervisor(t, testConfig(l))

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 1, l.launches())
}

func TestStopPushesBlackAndTerminates(t *testing.T) {
	l := &fakeLauncher{version: 4, devices: linear(4)}
	s := newTestSupervisor(t, testConfig(l))
	ctx := context.Background()

	require.NoError(t, s.Start(ctx))
	_, err := s.ApplyEffect(ctx, "Static", color.Max, &color.Blue)
	require.NoError(t, err)

	srv := l.server()
	require.True(t, fakeserver.WaitFor(waitTimeout, func() bool {
		return allLEDs(srv, 0, 4, color.Blue)
	}))

	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.Running())
	assert.True(t, fakeserver.WaitFor(waitTimeout, func() bool {
		return allLEDs(srv, 0, 4, color.Black)
	}), "LEDs = %v", srv.LEDs(0))
	assert.True(t, l.last().wasStopped())

	_, active := s.engine.Active()
	assert.False(t, active)

	_, err = s.ApplyEffect(ctx, "Static", color.Max, nil)
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestStartAfterStopRelaunches(t *testing.T) {
	l := &fakeLauncher{version: 4, devices: linear(3)}
	s := newTestSupervisor(t, testConfig(l))
	ctx := context.Background()

	require.NoError(t, s.Start(ctx))
	_, err := s.ApplyEffect(ctx, "Static", color.Max, &color.Green)
	require.NoError(t, err)
	require.NoError(t, s.Stop(ctx))

	require.NoError(t, s.Start(ctx))
	assert.Equal(t, 2, l.launches())

	// The effect active before Stop comes back.
	srv := l.server()
	assert.True(t, fakeserver.WaitFor(waitTimeout, func() bool {
		return allLEDs(srv, 0, 3, color.Green)
	}))
}

func TestNotStarted(t *testing.T) {
	s := newTestSupervisor(t, testConfig(&fakeLauncher{version: 4}))
	ctx := context.Background()

	_, err := s.ProtocolVersion()
	assert.ErrorIs(t, err, ErrNotStarted)
	_, err = s.Profiles(ctx)
	assert.ErrorIs(t, err, ErrNotStarted)
	assert.ErrorIs(t, s.Reload(ctx), ErrNotStarted)
	assert.False(t, s.Running())
	assert.Empty(t, s.Devices())
	assert.NoError(t, s.Stop(ctx))
}

func TestNewRequiresLauncherOrAddress(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestApplyEffectErrors(t *testing.T) {
	l := &fakeLauncher{version: 4, devices: linear(2)}
	s := newTestSupervisor(t, testConfig(l))
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	_, err := s.ApplyEffect(ctx, "Fireworks", color.Max, nil)
	assert.ErrorIs(t, err, ErrUnknownEffect)

	_, err = s.ApplyEffect(ctx, "Static", color.Brightness(9), nil)
	assert.ErrorIs(t, err, color.ErrInvalidBrightness)

	_, _, active := s.ActiveEffect()
	assert.False(t, active)
}

func TestApplyOffBlacksOut(t *testing.T) {
	l := &fakeLauncher{version: 4, devices: linear(5)}
	s := newTestSupervisor(t, testConfig(l))
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	_, err := s.ApplyEffect(ctx, "Static", color.Max, &color.White)
	require.NoError(t, err)
	srv := l.server()
	require.True(t, fakeserver.WaitFor(waitTimeout, func() bool { return allLEDs(srv, 0, 5, color.White) }))

	supportsColor, err := s.ApplyEffect(ctx, "Spectrum", color.Off, nil)
	require.NoError(t, err)
	assert.False(t, supportsColor)
	assert.True(t, fakeserver.WaitFor(waitTimeout, func() bool { return allLEDs(srv, 0, 5, color.Black) }))
	_, running := s.engine.Active()
	assert.False(t, running)
}

func TestEffectQueries(t *testing.T) {
	s := newTestSupervisor(t, testConfig(&fakeLauncher{version: 4}))

	var names []string
	for _, def := range effect.Builtins() {
		names = append(names, def.Name)
	}
	assert.Equal(t, names, s.AvailableEffects())
	assert.True(t, s.SupportsColor("Static"))
	assert.False(t, s.SupportsColor("Spectrum"))
	assert.False(t, s.SupportsColor("nope"))

	c, ok := s.Color("Static")
	assert.True(t, ok)
	assert.Equal(t, color.Red, c)

	_, ok = s.Color("Rainbow wave")
	assert.False(t, ok)
}

func TestApplyEffectKeepsColorWhenNil(t *testing.T) {
	l := &fakeLauncher{version: 4, devices: linear(2)}
	s := newTestSupervisor(t, testConfig(l))
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	_, err := s.ApplyEffect(ctx, "Static", color.Max, &color.Blue)
	require.NoError(t, err)
	_, err = s.ApplyEffect(ctx, "Spectrum", color.Max, nil)
	require.NoError(t, err)
	_, err = s.ApplyEffect(ctx, "Static", color.Max, nil)
	require.NoError(t, err)

	c, _ := s.Color("Static")
	assert.Equal(t, color.Blue, c)
	srv := l.server()
	assert.True(t, fakeserver.WaitFor(waitTimeout, func() bool { return allLEDs(srv, 0, 2, color.Blue) }))
}

func TestAppendCustomEffect(t *testing.T) {
	l := &fakeLauncher{version: 4, devices: linear(3)}
	s := newTestSupervisor(t, testConfig(l))
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	custom := effect.Definition{
		Name: "Teal",
		New: func() effect.Animation {
			return effect.AnimationFunc(func(f *effect.Frame) (time.Duration, error) {
				f.Fill(color.RGB(0, 128, 128))
				return time.Second, nil
			})
		},
	}
	require.NoError(t, s.AppendCustomEffect(custom))
	assert.ErrorIs(t, s.AppendCustomEffect(custom), effect.ErrDuplicateEffect)

	names := s.AvailableEffects()
	assert.Equal(t, "Teal", names[len(names)-1])

	supportsColor, err := s.ApplyEffect(ctx, "Teal", color.Max, nil)
	require.NoError(t, err)
	assert.False(t, supportsColor)
	srv := l.server()
	assert.True(t, fakeserver.WaitFor(waitTimeout, func() bool {
		return allLEDs(srv, 0, 3, color.RGB(0, 128, 128))
	}))
}

func TestDisableDevice(t *testing.T) {
	l := &fakeLauncher{version: 4, devices: []*model.Device{
		fakeserver.LinearDevice(0, "Aura Strip", 2),
		fakeserver.LinearDevice(1, "Mouse", 2),
	}}
	s := newTestSupervisor(t, testConfig(l))
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	assert.True(t, s.DisableDevice("mouse"))
	assert.False(t, s.DisableDevice("Headset"))

	_, err := s.ApplyEffect(ctx, "Static", color.Max, &color.Red)
	require.NoError(t, err)
	srv := l.server()
	require.True(t, fakeserver.WaitFor(waitTimeout, func() bool { return allLEDs(srv, 0, 2, color.Red) }))
	assert.True(t, allLEDs(srv, 1, 2, color.Black))
}

func TestProfiles(t *testing.T) {
	l := &fakeLauncher{version: 3, devices: linear(2)}
	s := newTestSupervisor(t, testConfig(l))
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	profiles, err := s.Profiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"default"}, profiles)

	require.NoError(t, s.SaveProfile(ctx, "night"))
	srv := l.server()
	require.True(t, fakeserver.WaitFor(waitTimeout, func() bool { return len(srv.Profiles()) == 2 }))

	require.NoError(t, s.LoadProfile(ctx, "night"))
	require.NoError(t, s.DeleteProfile(ctx, "default"))
	assert.True(t, fakeserver.WaitFor(waitTimeout, func() bool {
		p := srv.Profiles()
		return len(p) == 1 && p[0] == "night"
	}))
}

func TestDelayedListen(t *testing.T) {
	l := &fakeLauncher{version: 4, devices: linear(2), listenDelay: 300 * time.Millisecond}
	s := newTestSupervisor(t, testConfig(l))

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.Running())
}

func TestServerExitsDuringStart(t *testing.T) {
	l := &fakeLauncher{version: 4, exitOnLaunch: true}
	s := newTestSupervisor(t, testConfig(l))

	err := s.Start(context.Background())
	assert.ErrorIs(t, err, ErrServerExited)
	assert.False(t, s.Running())
}

func TestStartTimeout(t *testing.T) {
	l := &fakeLauncher{version: 4, noListen: true}
	cfg := testConfig(l)
	cfg.StartTimeout = 300 * time.Millisecond
	s := newTestSupervisor(t, cfg)

	start := time.Now()
	err := s.Start(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrServerExited)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, l.last().wasStopped())
	assert.False(t, s.Running())
}

func TestAttachMode(t *testing.T) {
	srv, err := fakeserver.New(fakeserver.Config{ProtocolVersion: 4, Devices: linear(4)})
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	cfg := testConfig(nil)
	cfg.Launcher = nil
	cfg.Address = srv.Addr()
	s := newTestSupervisor(t, cfg)
	ctx := context.Background()

	require.NoError(t, s.Start(ctx))
	_, err = s.ApplyEffect(ctx, "Static", color.Max, &color.Green)
	require.NoError(t, err)
	require.True(t, fakeserver.WaitFor(waitTimeout, func() bool { return allLEDs(srv, 0, 4, color.Green) }))

	require.NoError(t, s.Stop(ctx))
	assert.True(t, fakeserver.WaitFor(waitTimeout, func() bool { return allLEDs(srv, 0, 4, color.Black) }))
	assert.True(t, fakeserver.WaitFor(waitTimeout, func() bool { return srv.ConnectionCount() == 0 }))
}

func TestDeviceListUpdatedReloads(t *testing.T) {
	l := &fakeLauncher{version: 4, devices: linear(3)}
	s := newTestSupervisor(t, testConfig(l))
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	_, err := s.ApplyEffect(ctx, "Static", color.Max, &color.Red)
	require.NoError(t, err)

	l.server().NotifyDeviceListUpdated()

	require.True(t, fakeserver.WaitFor(waitTimeout, func() bool {
		return l.launches() == 2 && s.Running()
	}))
	assert.Equal(t, int64(1), s.Reloads())
	assert.True(t, fakeserver.WaitFor(waitTimeout, func() bool {
		return allLEDs(l.server(), 0, 3, color.Red)
	}))
}

func TestDeviceListUpdatedDuringEffectSwitch(t *testing.T) {
	l := &fakeLauncher{version: 4, devices: linear(3)}
	s := newTestSupervisor(t, testConfig(l))
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	stepping := make(chan struct{}, 1)
	slow := effect.Definition{
		Name: "Slow",
		New: func() effect.Animation {
			return effect.AnimationFunc(func(f *effect.Frame) (time.Duration, error) {
				select {
				case stepping <- struct{}{}:
				default:
				}
				f.Fill(color.Blue)
				time.Sleep(400 * time.Millisecond)
				return 0, nil
			})
		},
	}
	require.NoError(t, s.AppendCustomEffect(slow))
	_, err := s.ApplyEffect(ctx, "Slow", color.Max, nil)
	require.NoError(t, err)
	<-stepping

	// Switching waits for the slow step to return while holding the
	// supervisor lock.
	switched := make(chan error, 1)
	go func() {
		_, err := s.ApplyEffect(ctx, "Static", color.Max, &color.Red)
		switched <- err
	}()
	time.Sleep(50 * time.Millisecond)
	l.server().NotifyDeviceListUpdated()
	require.NoError(t, <-switched)

	require.True(t, fakeserver.WaitFor(waitTimeout, func() bool {
		return l.launches() == 2 && s.Running()
	}), "launches = %d", l.launches())
	assert.True(t, fakeserver.WaitFor(waitTimeout, func() bool {
		return allLEDs(l.server(), 0, 3, color.Red)
	}))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int64(1), s.Reloads())
	assert.Equal(t, 2, l.launches())
}

func TestDeviceListUpdatedBurstReloadsOnce(t *testing.T) {
	l := &fakeLauncher{version: 4, devices: linear(2)}
	s := newTestSupervisor(t, testConfig(l))
	require.NoError(t, s.Start(context.Background()))

	// A burst that arrives while the lock is held collapses into one reload.
	s.reloadMu.Lock()
	for range 3 {
		s.onDeviceListUpdated()
	}
	s.reloadMu.Unlock()

	require.True(t, fakeserver.WaitFor(waitTimeout, func() bool { return s.Reloads() == 1 && s.Running() }))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int64(1), s.Reloads())
	assert.Equal(t, 2, l.launches())
}

func TestRecoveryAfterCrash(t *testing.T) {
	l := &fakeLauncher{version: 4, devices: linear(3)}
	cfg := testConfig(l)
	cfg.Recovery = RecoveryConfig{
		Enabled: true,
		Backoff: connection.BackoffConfig{Initial: 20 * time.Millisecond, Max: 50 * time.Millisecond, Jitter: -1},
	}
	s := newTestSupervisor(t, cfg)
	ctx := context.Background()

	require.NoError(t, s.Start(ctx))
	_, err := s.ApplyEffect(ctx, "Static", color.Max, &color.Blue)
	require.NoError(t, err)

	l.last().crash()

	require.True(t, fakeserver.WaitFor(waitTimeout, func() bool {
		return l.launches() == 2 && s.Running()
	}), "launches = %d", l.launches())
	assert.True(t, fakeserver.WaitFor(waitTimeout, func() bool {
		return allLEDs(l.server(), 0, 3, color.Blue)
	}))
	assert.Equal(t, connection.StateConnected, s.manager.State())
}

func TestNoRecoveryAfterStop(t *testing.T) {
	l := &fakeLauncher{version: 4, devices: linear(2)}
	cfg := testConfig(l)
	cfg.Recovery = RecoveryConfig{
		Enabled: true,
		Backoff: connection.BackoffConfig{Initial: 10 * time.Millisecond, Max: 20 * time.Millisecond, Jitter: -1},
	}
	s := newTestSupervisor(t, cfg)
	ctx := context.Background()

	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.Stop(ctx))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, l.launches())
	assert.False(t, s.Running())
	assert.Equal(t, connection.StateDisconnected, s.manager.State())
}
