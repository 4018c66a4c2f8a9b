package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
)

const maxFFTSize = 1 << 16

// PeakFrequency estimates the strongest spectral component between minHz and
// maxHz using a Hann-windowed FFT over the largest power-of-two prefix of
// samples. The peak bin is refined with parabolic interpolation.
func PeakFrequency(samples []float64, sampleRate int, minHz float64, maxHz float64) (float64, error) {
	if sampleRate <= 0 {
		return 0, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	n := 1
	for n*2 <= len(samples) && n*2 <= maxFFTSize {
		n *= 2
	}
	if n < 256 {
		return 0, fmt.Errorf("need at least 256 samples, got %d", len(samples))
	}
	mags, err := magnitudeSpectrum(samples[:n])
	if err != nil {
		return 0, err
	}

	binHz := float64(sampleRate) / float64(n)
	lo := max(int(minHz/binHz), 1)
	hi := min(int(maxHz/binHz)+1, len(mags)-2)
	if lo >= hi {
		return 0, fmt.Errorf("empty search band %.1f-%.1f Hz", minHz, maxHz)
	}
	best := lo
	for k := lo; k <= hi; k++ {
		if mags[k] > mags[best] {
			best = k
		}
	}
	if mags[best] == 0 {
		return 0, fmt.Errorf("silent input")
	}

	offset := 0.0
	a, b, c := mags[best-1], mags[best], mags[best+1]
	if den := a - 2*b + c; den != 0 {
		offset = 0.5 * (a - c) / den
	}
	return (float64(best) + offset) * binHz, nil
}

func magnitudeSpectrum(samples []float64) ([]float64, error) {
	n := len(samples)
	plan, err := algofft.NewPlanReal64(n)
	if err != nil {
		return nil, fmt.Errorf("fft plan: %w", err)
	}
	buf := make([]float64, n)
	for i, s := range samples {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
		buf[i] = s * w
	}
	spec := make([]complex128, n/2+1)
	plan.Forward(spec, buf)
	mags := make([]float64, len(spec))
	for k, v := range spec {
		mags[k] = cmplx.Abs(v)
	}
	return mags, nil
}

// BlockRMS returns the RMS of consecutive blocks of size block.
func BlockRMS(samples []float32, block int) []float64 {
	if block < 1 {
		return nil
	}
	out := make([]float64, 0, len(samples)/block)
	for start := 0; start+block <= len(samples); start += block {
		var sum float64
		for _, s := range samples[start : start+block] {
			v := float64(s)
			sum += v * v
		}
		out = append(out, math.Sqrt(sum/float64(block)))
	}
	return out
}

// MaxStep returns the largest absolute difference between adjacent samples,
// the simplest indicator of a click.
func MaxStep(samples []float32) float64 {
	var m float64
	for i := 1; i < len(samples); i++ {
		if d := math.Abs(float64(samples[i] - samples[i-1])); d > m {
			m = d
		}
	}
	return m
}
