package effect

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Emiliopg91/RogPerfTuner-sub000/internal/fakeserver"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/color"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/effect/mocks"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/log"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/model"
)

type write struct {
	idx    uint32
	colors []color.Color
}

// recorder is an LEDWriter that keeps every write.
type recorder struct {
	mu     sync.Mutex
	writes []write
}

func (r *recorder) UpdateLEDs(_ context.Context, idx uint32, colors []color.Color) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, write{idx: idx, colors: slices.Clone(colors)})
	return nil
}

func (r *recorder) snapshot() []write {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.writes)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.writes)
}

// captureLogger collects protocol events.
type captureLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (c *captureLogger) Log(e log.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *captureLogger) errors() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e.Category == log.CategoryError {
			n++
		}
	}
	return n
}

func fill(c color.Color) Definition {
	return Definition{
		Name: "fill-" + c.Hex(),
		New: func() Animation {
			return AnimationFunc(func(f *Frame) (time.Duration, error) {
				f.Fill(c)
				return time.Millisecond, nil
			})
		},
	}
}

func strip() []*model.Device {
	return []*model.Device{fakeserver.LinearDevice(0, "Strip", 8)}
}

func TestStaticDimsToMedium(t *testing.T) {
	w := &recorder{}
	e := NewEngine(w, Config{})
	defer e.StopAll()
	devices := strip()

	supports, err := e.Apply(context.Background(), NameStatic, devices, color.Medium, color.Red)
	require.NoError(t, err)
	assert.True(t, supports)

	require.Eventually(t, func() bool { return w.count() > 0 }, time.Second, 5*time.Millisecond)
	first := w.snapshot()[0]
	assert.Equal(t, uint32(0), first.idx)
	assert.Equal(t, color.Fill(color.RGB(128, 0, 0), 8), first.colors)
	assert.Equal(t, color.Fill(color.RGB(128, 0, 0), 8), devices[0].Colors())
}

func TestOffNeverSpawnsWorker(t *testing.T) {
	w := mocks.NewMockLEDWriter(t)
	w.EXPECT().UpdateLEDs(mock.Anything, uint32(0), color.Fill(color.Black, 8)).Return(nil).Once()

	e := NewEngine(w, Config{})
	devices := strip()
	require.NoError(t, devices[0].SetColors(color.Fill(color.White, 8)))

	supports, err := e.Apply(context.Background(), NameSpectrum, devices, color.Off, color.Black)
	require.NoError(t, err)
	assert.False(t, supports)

	time.Sleep(50 * time.Millisecond)
	eff, _ := e.Effect(NameSpectrum)
	assert.Equal(t, StateStopped, eff.State())
	_, active := e.Active()
	assert.False(t, active)
	assert.Equal(t, color.Fill(color.Black, 8), devices[0].Colors())
}

func TestOffStopsRunningEffect(t *testing.T) {
	w := &recorder{}
	e := NewEngine(w, Config{})
	devices := strip()

	_, err := e.Apply(context.Background(), NameSpectrum, devices, color.Max, color.Black)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return w.count() > 2 }, time.Second, time.Millisecond)

	_, err = e.Apply(context.Background(), NameSpectrum, devices, color.Off, color.Black)
	require.NoError(t, err)

	n := w.count()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, n, w.count(), "writes after OFF")
	last := w.snapshot()[n-1]
	assert.Equal(t, color.Fill(color.Black, 8), last.colors)
}

func TestExclusivity(t *testing.T) {
	w := &recorder{}
	e := NewEngine(w, Config{})
	slow := Definition{
		Name: "slow-red",
		New: func() Animation {
			return AnimationFunc(func(f *Frame) (time.Duration, error) {
				time.Sleep(5 * time.Millisecond)
				f.Fill(color.Red)
				return time.Millisecond, nil
			})
		},
	}
	require.NoError(t, e.Register(slow))
	require.NoError(t, e.Register(fill(color.Blue)))
	devices := strip()

	_, err := e.Apply(context.Background(), "slow-red", devices, color.Max, color.Black)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return w.count() >= 3 }, time.Second, time.Millisecond)

	_, err = e.Apply(context.Background(), "fill-#0000FF", devices, color.Max, color.Black)
	require.NoError(t, err)

	a, _ := e.Effect("slow-red")
	assert.Equal(t, StateStopped, a.State())
	name, ok := e.Active()
	assert.True(t, ok)
	assert.Equal(t, "fill-#0000FF", name)

	require.Eventually(t, func() bool {
		ws := w.snapshot()
		return ws[len(ws)-1].colors[0] == color.Blue
	}, time.Second, time.Millisecond)
	e.StopAll()

	seenBlue := false
	for i, wr := range w.snapshot() {
		switch wr.colors[0] {
		case color.Blue:
			seenBlue = true
		case color.Red:
			assert.False(t, seenBlue, "red write %d after blue started", i)
		}
	}
}

func TestStopJoinsWorkers(t *testing.T) {
	w := &recorder{}
	e := NewEngine(w, Config{})
	devices := []*model.Device{
		fakeserver.LinearDevice(0, "A", 4),
		fakeserver.LinearDevice(1, "B", 4),
	}

	_, err := e.Apply(context.Background(), NameRainbowWave, devices, color.Max, color.Black)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return w.count() >= 4 }, time.Second, time.Millisecond)

	e.StopAll()
	n := w.count()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, n, w.count())

	eff, _ := e.Effect(NameRainbowWave)
	assert.Equal(t, StateStopped, eff.State())
}

func TestPerDeviceWorkers(t *testing.T) {
	w := &recorder{}
	e := NewEngine(w, Config{Seed: 7})
	defer e.StopAll()
	devices := []*model.Device{
		fakeserver.LinearDevice(0, "A", 4),
		fakeserver.LinearDevice(1, "B", 6),
	}

	_, err := e.Apply(context.Background(), NameStarryNight, devices, color.Max, color.Black)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		seen := map[uint32]bool{}
		for _, wr := range w.snapshot() {
			seen[wr.idx] = true
		}
		return seen[0] && seen[1]
	}, time.Second, 5*time.Millisecond)

	for _, wr := range w.snapshot() {
		want := 4
		if wr.idx == 1 {
			want = 6
		}
		assert.Len(t, wr.colors, want)
	}
}

func TestDisabledDeviceSkipped(t *testing.T) {
	w := &recorder{}
	e := NewEngine(w, Config{})
	defer e.StopAll()
	devices := []*model.Device{
		fakeserver.LinearDevice(0, "A", 4),
		fakeserver.LinearDevice(1, "B", 4),
	}
	devices[1].SetEnabled(false)

	_, err := e.Apply(context.Background(), NameSpectrum, devices, color.Max, color.Black)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return w.count() >= 5 }, time.Second, time.Millisecond)

	for _, wr := range w.snapshot() {
		assert.Equal(t, uint32(0), wr.idx)
	}
}

func TestStepPanicRecovered(t *testing.T) {
	w := &recorder{}
	capture := &captureLogger{}
	e := NewEngine(w, Config{ProtocolLogger: capture})
	defer e.StopAll()

	var calls atomic.Int32
	require.NoError(t, e.Register(Definition{
		Name: "flaky",
		New: func() Animation {
			return AnimationFunc(func(f *Frame) (time.Duration, error) {
				if calls.Add(1) == 1 {
					panic("boom")
				}
				f.Fill(color.Green)
				return time.Millisecond, nil
			})
		},
	}))

	_, err := e.Apply(context.Background(), "flaky", strip(), color.Max, color.Black)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return w.count() > 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, capture.errors())
}

func TestWriteErrorsKeepRunning(t *testing.T) {
	w := mocks.NewMockLEDWriter(t)
	var calls atomic.Int32
	w.EXPECT().UpdateLEDs(mock.Anything, uint32(0), mock.Anything).
		RunAndReturn(func(context.Context, uint32, []color.Color) error {
			calls.Add(1)
			return errors.New("disconnected")
		})

	capture := &captureLogger{}
	e := NewEngine(w, Config{ProtocolLogger: capture})
	require.NoError(t, e.Register(fill(color.Red)))

	_, err := e.Apply(context.Background(), "fill-#FF0000", strip(), color.Max, color.Black)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return calls.Load() >= 5 }, time.Second, time.Millisecond)
	e.StopAll()

	// Identical consecutive failures are reported once.
	assert.Equal(t, 1, capture.errors())
}

func TestRestartWithNewColor(t *testing.T) {
	w := &recorder{}
	e := NewEngine(w, Config{})
	defer e.StopAll()
	devices := strip()

	_, err := e.Apply(context.Background(), NameStatic, devices, color.Max, color.Red)
	require.NoError(t, err)
	_, err = e.Apply(context.Background(), NameStatic, devices, color.Max, color.Blue)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		ws := w.snapshot()
		return len(ws) > 0 && ws[len(ws)-1].colors[0] == color.Blue
	}, time.Second, 5*time.Millisecond)

	c, ok := e.Color(NameStatic)
	assert.True(t, ok)
	assert.Equal(t, color.Blue, c)
}

func TestInvalidBrightness(t *testing.T) {
	e := NewEngine(&recorder{}, Config{})
	_, err := e.Apply(context.Background(), NameStatic, strip(), color.Brightness(9), color.Red)
	assert.ErrorIs(t, err, color.ErrInvalidBrightness)
}

func TestSleepAfterCancelIsNoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	sleep(ctx, time.Hour)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "STOPPED", StateStopped.String())
	assert.Equal(t, "STARTING", StateStarting.String())
	assert.Equal(t, "RUNNING", StateRunning.String())
	assert.Equal(t, "STOPPING", StateStopping.String())
	assert.Equal(t, "UNKNOWN", State(42).String())
}
