// Package irsynth synthesizes mono room impulse responses for the output bus.
package irsynth

import (
	"fmt"
	"math"
	"math/rand"
)

// RoomConfig controls room IR generation.
type RoomConfig struct {
	SampleRate int
	DurationS  float64
	Seed       int64

	DirectLevel float64 // 0 for a wet-only IR
	EarlyCount  int
	LateLevel   float64
	Brightness  float64 // >0, scales the high band of the tail
	LowDecayS   float64
	HighDecayS  float64
	FadeOutS    float64

	// Energy is the target L2 norm of the IR, so white noise keeps its level
	// through the convolution.
	Energy float64
}

// DefaultRoomConfig returns a medium room at sampleRate.
func DefaultRoomConfig(sampleRate int) RoomConfig {
	return RoomConfig{
		SampleRate:  sampleRate,
		DurationS:   1.2,
		Seed:        1,
		DirectLevel: 0,
		EarlyCount:  24,
		LateLevel:   0.06,
		Brightness:  0.8,
		LowDecayS:   1.2,
		HighDecayS:  0.25,
		FadeOutS:    0.01,
		Energy:      1.0,
	}
}

func (c *RoomConfig) Validate() error {
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample rate too low: %d", c.SampleRate)
	}
	if c.DurationS <= 0 {
		return fmt.Errorf("duration must be > 0")
	}
	if c.DirectLevel < 0 {
		return fmt.Errorf("direct level must be >= 0")
	}
	if c.EarlyCount < 0 {
		return fmt.Errorf("early count must be >= 0")
	}
	if c.LateLevel < 0 {
		return fmt.Errorf("late level must be >= 0")
	}
	if c.Brightness <= 0 {
		return fmt.Errorf("brightness must be > 0")
	}
	if c.LowDecayS <= 0 || c.HighDecayS <= 0 {
		return fmt.Errorf("decay seconds must be > 0")
	}
	if c.FadeOutS < 0 {
		return fmt.Errorf("fade-out must be >= 0")
	}
	if c.Energy <= 0 {
		return fmt.Errorf("energy must be > 0")
	}
	if c.DirectLevel == 0 && c.EarlyCount == 0 && c.LateLevel == 0 {
		return fmt.Errorf("room has no direct, early or late component")
	}
	return nil
}

// GenerateRoom synthesizes a mono room IR: an optional direct impulse, early
// reflections in the first 50ms and a two-band diffuse tail. Output is
// deterministic for a given Seed.
func GenerateRoom(cfg RoomConfig) ([]float32, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := max(int(math.Round(cfg.DurationS*float64(cfg.SampleRate))), 1)
	buf := make([]float64, n)
	rng := rand.New(rand.NewSource(cfg.Seed))
	sr := float64(cfg.SampleRate)

	buf[0] += cfg.DirectLevel

	for range cfg.EarlyCount {
		t := 0.001 + 0.049*rng.Float64()
		idx := int(t * sr)
		if idx <= 0 || idx >= n {
			continue
		}
		amp := (0.10 + 0.35*rng.Float64()) * math.Exp(-t*20.0)
		amp *= math.Pow(0.5+0.5*rng.Float64(), 1.0/cfg.Brightness)
		if rng.Intn(2) == 0 {
			amp = -amp
		}
		buf[idx] += amp
	}

	if cfg.LateLevel > 0 {
		airGain := max(0.3*(cfg.Brightness-0.3), 0)
		lp, hp := 0.0, 0.0
		for i := range buf {
			t := float64(i) / sr
			lowEnv := math.Exp(-t / (0.75 * cfg.LowDecayS))
			highEnv := math.Exp(-t / (0.75 * cfg.HighDecayS))
			noise := rng.NormFloat64()
			lp = 0.985*lp + 0.015*noise
			hp = 0.15*noise - 0.15*hp
			buf[i] += cfg.LateLevel * (lowEnv*lp + airGain*highEnv*hp)
		}
	}

	highpassDC(buf, 0.995)
	fadeOut(buf, cfg.FadeOutS, cfg.SampleRate)

	norm := 0.0
	for _, v := range buf {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm < 1e-12 {
		return nil, fmt.Errorf("generated IR is silent")
	}
	s := cfg.Energy / norm
	out := make([]float32, n)
	for i, v := range buf {
		out[i] = float32(v * s)
	}
	return out, nil
}

func highpassDC(x []float64, r float64) {
	prevIn, prevOut := 0.0, 0.0
	for i := range x {
		y := x[i] - prevIn + r*prevOut
		prevIn = x[i]
		prevOut = y
		x[i] = y
	}
}

// fadeOut applies a raised-cosine fade to the last fadeS seconds of buf.
func fadeOut(buf []float64, fadeS float64, sampleRate int) {
	if fadeS <= 0 || len(buf) == 0 {
		return
	}
	fade := min(int(math.Round(fadeS*float64(sampleRate))), len(buf))
	start := len(buf) - fade
	for i := range fade {
		t := float64(i) / float64(fade)
		buf[start+i] *= 0.5 * (1.0 + math.Cos(t*math.Pi))
	}
}
