package dsp

import (
	"math"
	"testing"
)

func TestLowpassPassesDC(t *testing.T) {
	f := NewLowpass(1000, 48000, 0.7071)
	var y float32
	for range 4800 {
		y = f.Process(1)
	}
	if math.Abs(float64(y-1)) > 1e-3 {
		t.Fatalf("DC gain = %f, want 1", y)
	}
}

func TestLowpassCutoffAboveNyquistIsStable(t *testing.T) {
	f := NewLowpass(30000, 48000, 0)
	buf := make([]float32, 1024)
	for i := range buf {
		buf[i] = float32(math.Sin(float64(i) * 0.3))
	}
	f.ProcessBuffer(buf)
	for i, v := range buf {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) || math.Abs(float64(v)) > 4 {
			t.Fatalf("unstable output at %d: %f", i, v)
		}
	}
}

func TestBiquadReset(t *testing.T) {
	f := NewLowpass(500, 48000, 0.7071)
	for range 100 {
		f.Process(1)
	}
	f.Reset()
	if y := f.Process(0); y != 0 {
		t.Fatalf("output after reset = %f, want 0", y)
	}
}

func TestFlushDenormals(t *testing.T) {
	if FlushDenormals(1e-35) != 0 || FlushDenormals(-1e-35) != 0 {
		t.Fatalf("tiny values should flush to zero")
	}
	if FlushDenormals(0.25) != 0.25 {
		t.Fatalf("normal values must pass through")
	}
}
