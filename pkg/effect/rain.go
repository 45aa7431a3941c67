package effect

import (
	"time"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/color"
)

const (
	rainMinInterval = 100 * time.Millisecond
	rainJitter      = 400 * time.Millisecond
)

var rainPalette = []color.Color{
	color.Red,
	color.Green,
	color.Blue,
	color.RGB(0, 255, 255),
	color.RGB(255, 0, 255),
	color.RGB(255, 255, 0),
}

type drop struct {
	led   int
	color color.Color
}

// rain lights one LED per step from a shuffled queue covering every LED
// with a random palette color, refilling the queue when it runs out.
type rain struct {
	queue []drop
}

func newRain() Animation {
	return &rain{}
}

func (r *rain) refill(f *Frame, n int) {
	r.queue = r.queue[:0]
	for _, led := range f.Rand.Perm(n) {
		r.queue = append(r.queue, drop{led: led, color: rainPalette[f.Rand.IntN(len(rainPalette))]})
	}
}

func (r *rain) Step(f *Frame) (time.Duration, error) {
	if len(f.Colors) == 0 || len(f.Colors[0]) == 0 {
		return rainMinInterval, nil
	}
	if len(r.queue) == 0 {
		r.refill(f, len(f.Colors[0]))
	}
	d := r.queue[0]
	r.queue = r.queue[1:]
	f.Set(0, d.led, d.color)
	return rainMinInterval + time.Duration(f.Rand.Int64N(int64(rainJitter))), nil
}
