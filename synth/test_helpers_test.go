package synth

import "math"

func sineParams() *Params {
	p := NewDefaultParams()
	p.Layers = []LayerParams{{Waveform: Sine, Unison: 1, Gain: 1.0}}
	p.LowpassHz = 0
	return p
}

func windowRMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func maxStep(samples []float32, prev float32) float64 {
	var m float64
	for _, s := range samples {
		if d := math.Abs(float64(s - prev)); d > m {
			m = d
		}
		prev = s
	}
	return m
}

func renderSeconds(e *AudioEngine, sec float64) []float32 {
	frames := int(sec * float64(e.SampleRate()))
	out := make([]float32, 0, frames)
	const block = 256
	for len(out) < frames {
		n := min(block, frames-len(out))
		out = append(out, e.Process(n)...)
	}
	return out
}

func toFloat64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
