package effect

import (
	"time"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/color"
)

const (
	starryTick       = 80 * time.Millisecond
	starryMaxCounter = 25
	starryThreshold  = 0.2
)

// starryNight fades stars out and reignites dark LEDs with random hues
// while too few are lit.
type starryNight struct {
	counters []int
	hues     []float64
}

func newStarryNight() Animation {
	return &starryNight{}
}

func (s *starryNight) Step(f *Frame) (time.Duration, error) {
	if len(f.Colors) == 0 || len(f.Colors[0]) == 0 {
		return starryTick, nil
	}
	buf := f.Colors[0]
	if s.counters == nil {
		s.counters = make([]int, len(buf))
		s.hues = make([]float64, len(buf))
	}

	lit := 0
	for i := range s.counters {
		if s.counters[i] > 0 {
			s.counters[i]--
		}
		if s.counters[i] > 0 {
			lit++
		}
	}

	if float64(lit)/float64(len(s.counters)) < starryThreshold {
		if i, ok := s.randomDark(f); ok {
			s.counters[i] = starryMaxCounter
			s.hues[i] = f.Rand.Float64() * 360
		}
	}

	for i, c := range s.counters {
		buf[i] = color.FromHSV(s.hues[i], 1, float64(c)/starryMaxCounter)
	}
	return starryTick, nil
}

func (s *starryNight) randomDark(f *Frame) (int, bool) {
	var dark []int
	for i, c := range s.counters {
		if c == 0 {
			dark = append(dark, i)
		}
	}
	if len(dark) == 0 {
		return 0, false
	}
	return dark[f.Rand.IntN(len(dark))], true
}
