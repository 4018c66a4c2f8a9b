package synth

import (
	"fmt"
	"math"
	"strings"
)

// Waveform selects the shape an oscillator produces.
type Waveform int

const (
	Sine Waveform = iota
	Square
	Sawtooth
	Triangle
)

func (w Waveform) String() string {
	switch w {
	case Sine:
		return "sine"
	case Square:
		return "square"
	case Sawtooth:
		return "sawtooth"
	case Triangle:
		return "triangle"
	default:
		return fmt.Sprintf("waveform(%d)", int(w))
	}
}

// ParseWaveform accepts the names returned by Waveform.String plus "saw".
func ParseWaveform(s string) (Waveform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sine":
		return Sine, nil
	case "square":
		return Square, nil
	case "sawtooth", "saw":
		return Sawtooth, nil
	case "triangle":
		return Triangle, nil
	}
	return 0, fmt.Errorf("unknown waveform %q", s)
}

// oscillator is a phase accumulator running at ratio times the frequency of
// the generator that owns it. Frequency changes never reset the phase, so they
// cannot introduce a discontinuity.
type oscillator struct {
	waveform Waveform
	ratio    float64
	phase    float64 // [0,1)
}

func (o *oscillator) next(freq float64, sampleRate float64) float64 {
	dt := freq * o.ratio / sampleRate
	if dt < 0 {
		dt = 0
	}
	if dt > 0.5 {
		dt = 0.5
	}
	t := o.phase
	var s float64
	switch o.waveform {
	case Square:
		if t < 0.5 {
			s = 1
		} else {
			s = -1
		}
		s += polyBLEP(t, dt)
		s -= polyBLEP(math.Mod(t+0.5, 1.0), dt)
	case Sawtooth:
		s = 2*t - 1
		s -= polyBLEP(t, dt)
	case Triangle:
		s = 1 - 4*math.Abs(t-0.5)
	default:
		s = math.Sin(2 * math.Pi * t)
	}
	o.phase += dt
	if o.phase >= 1 {
		o.phase -= math.Floor(o.phase)
	}
	return s
}

func (o *oscillator) reset() {
	o.phase = 0
}

// polyBLEP returns the band-limited step correction for a discontinuity at
// phase 0. t is the phase in [0,1), dt the phase increment per sample.
func polyBLEP(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		t /= dt
		return t + t - t*t - 1.0
	} else if t > 1.0-dt {
		t = (t - 1.0) / dt
		return t*t + t + t + 1.0
	}
	return 0
}
