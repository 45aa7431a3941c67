package effect

import (
	"math"
	"time"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/color"
)

const (
	spectrumTick = 30 * time.Millisecond
	spectrumStep = 1.0

	danceFloorTick = 400 * time.Millisecond
)

// spectrum shows one hue on every LED and rotates it.
type spectrum struct {
	hue float64
}

func newSpectrum() Animation {
	return &spectrum{}
}

func (s *spectrum) Step(f *Frame) (time.Duration, error) {
	f.Fill(color.FromHSV(s.hue, 1, 1))
	s.hue = math.Mod(s.hue+spectrumStep, 360)
	return spectrumTick, nil
}

func newDanceFloor() Animation {
	return AnimationFunc(func(f *Frame) (time.Duration, error) {
		for _, buf := range f.Colors {
			for i := range buf {
				buf[i] = color.FromHSV(f.Rand.Float64()*360, 0.9+0.1*f.Rand.Float64(), 1)
			}
		}
		return danceFloorTick, nil
	})
}
