package effect

import (
	"math"
	"time"
)

const (
	breathingTick  = 40 * time.Millisecond
	breathingRise  = 2 * time.Second
	breathingPause = 1 * time.Second
)

// breathing ramps the base color up and back down along a half sine,
// then holds dark for a pause.
type breathing struct {
	step  int
	steps int
}

func newBreathing() Animation {
	return &breathing{steps: int(breathingRise / breathingTick)}
}

// breathingEnvelope returns the intensity for step i of n.
func breathingEnvelope(i, n int) float64 {
	return math.Sin(math.Pi * float64(i) / float64(n))
}

func (b *breathing) Step(f *Frame) (time.Duration, error) {
	f.Fill(f.Color.Dim(breathingEnvelope(b.step, b.steps)))
	if b.step >= b.steps {
		b.step = 0
		return breathingPause, nil
	}
	b.step++
	return breathingTick, nil
}
