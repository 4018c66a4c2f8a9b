package synth

import (
	"errors"
	"fmt"
)

// GeneratorConfig configures an EnvelopeGenerator.
type GeneratorConfig struct {
	SampleRate int
	Frequency  float64
	Waveform   Waveform
	Unison     int
	DetuneStep float64 // cents; unison voice i runs i*DetuneStep above Frequency
	Envelope   EnvelopeParams
	Glide      float64

	// OnFinished is called from the scheduler once the release has ended.
	OnFinished func(g *EnvelopeGenerator, now Time)
}

// EnvelopeGenerator is one sounding voice: a set of unison oscillators feeding
// a private gain stage driven through an ADSR state machine. Phase changes are
// scheduler callbacks and every gain or frequency change is an automation
// event, so output never jumps.
type EnvelopeGenerator struct {
	sched      *Scheduler
	sampleRate int
	env        EnvelopeParams
	attack     Time
	decay      Time
	release    Time
	glide      Time

	oscs []oscillator
	gain *Param
	freq *Param

	target     float64
	phase      Phase
	rampEnd    Time
	releaseEnd Time
	pending    []*Task
	onFinished func(*EnvelopeGenerator, Time)
}

// NewEnvelopeGenerator validates cfg and returns an idle generator with zero
// gain. Invalid durations or gains yield ErrInvalidEnvelopeParameters.
func NewEnvelopeGenerator(sched *Scheduler, cfg GeneratorConfig) (*EnvelopeGenerator, error) {
	if sched == nil {
		return nil, errors.New("nil scheduler")
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be > 0 (got %d)", cfg.SampleRate)
	}
	if err := cfg.Envelope.Validate(); err != nil {
		return nil, err
	}
	if cfg.Unison < 1 {
		return nil, fmt.Errorf("%w: unison must be >= 1 (got %d)", ErrInvalidEnvelopeParameters, cfg.Unison)
	}
	if !isFinite(cfg.Frequency) || cfg.Frequency <= 0 {
		return nil, fmt.Errorf("%w: frequency must be > 0 (got %v)", ErrInvalidEnvelopeParameters, cfg.Frequency)
	}
	if !isFinite(cfg.Glide) || cfg.Glide < 0 {
		return nil, fmt.Errorf("%w: glide must be >= 0 (got %v)", ErrInvalidEnvelopeParameters, cfg.Glide)
	}

	g := &EnvelopeGenerator{
		sched:      sched,
		sampleRate: cfg.SampleRate,
		env:        cfg.Envelope,
		attack:     secondsToFrames(cfg.Envelope.Attack, cfg.SampleRate),
		decay:      secondsToFrames(cfg.Envelope.Decay, cfg.SampleRate),
		release:    secondsToFrames(cfg.Envelope.Release, cfg.SampleRate),
		oscs:       make([]oscillator, cfg.Unison),
		gain:       NewParam(0),
		freq:       NewParam(cfg.Frequency),
		target:     cfg.Frequency,
		phase:      PhaseIdle,
		onFinished: cfg.OnFinished,
	}
	if cfg.Glide > 0 {
		g.glide = secondsToFrames(cfg.Glide, cfg.SampleRate)
	}
	for i := range g.oscs {
		g.oscs[i] = oscillator{
			waveform: cfg.Waveform,
			ratio:    centsToRatio(float64(i) * cfg.DetuneStep),
		}
	}
	return g, nil
}

// Start begins the attack at now. Starting a generator twice is a no-op.
func (g *EnvelopeGenerator) Start(now Time) {
	if g.phase != PhaseIdle {
		return
	}
	attackEnd := now + g.attack
	decayEnd := attackEnd + g.decay

	g.freq.SetValueAtTime(g.target, now)
	g.gain.SetValueAtTime(0, now)
	g.gain.LinearRampToValueAtTime(g.env.PeakGain, attackEnd)
	g.gain.LinearRampToValueAtTime(g.env.Sustain, decayEnd)
	g.rampEnd = decayEnd
	g.phase = PhaseAttack

	g.pending = append(g.pending,
		g.sched.At(attackEnd, func(Time) {
			if g.phase == PhaseAttack {
				g.phase = PhaseDecay
			}
		}),
		g.sched.At(decayEnd, func(Time) {
			if g.phase == PhaseDecay {
				g.phase = PhaseSustain
			}
		}),
	)
}

// Stop moves the generator into release. A release requested during attack or
// decay starts once the scheduled ramps have reached the sustain level, so the
// note is never cut off. Stop during release or after it is a no-op.
func (g *EnvelopeGenerator) Stop(now Time) {
	switch g.phase {
	case PhaseAttack, PhaseDecay, PhaseSustain:
	default:
		return
	}
	g.cancelPending()
	g.phase = PhaseRelease

	start := now
	if g.rampEnd > start {
		start = g.rampEnd
	}
	g.gain.SetValueAtTime(g.gain.ValueAt(start), start)
	g.gain.LinearRampToValueAtTime(0, start+g.release)
	g.releaseEnd = start + g.release
	g.pending = append(g.pending, g.sched.At(g.releaseEnd, g.finish))
}

// SetFrequency retunes every unison voice. It touches neither phase nor gain.
func (g *EnvelopeGenerator) SetFrequency(hz float64, now Time) {
	if !isFinite(hz) || hz <= 0 {
		return
	}
	g.target = hz
	if g.glide == 0 {
		g.freq.CancelAndHoldAtTime(now)
		g.freq.SetValueAtTime(hz, now)
		return
	}
	g.freq.CancelAndHoldAtTime(now)
	g.freq.LinearRampToValueAtTime(hz, now+g.glide)
}

// Cancel drops pending phase transitions without running them. It is used
// when a generator is discarded before it finishes.
func (g *EnvelopeGenerator) Cancel() {
	g.cancelPending()
}

// Phase returns the current envelope phase.
func (g *EnvelopeGenerator) Phase() Phase {
	return g.phase
}

// Frequency returns the target frequency in Hz.
func (g *EnvelopeGenerator) Frequency() float64 {
	return g.target
}

// Unison returns the number of sub-oscillators.
func (g *EnvelopeGenerator) Unison() int {
	return len(g.oscs)
}

// GainAt evaluates the gain stage at t.
func (g *EnvelopeGenerator) GainAt(t Time) float64 {
	if g.phase == PhaseFinished {
		return 0
	}
	return g.gain.ValueAt(t)
}

// ReleaseEnd returns when the release finishes, or false before Stop.
func (g *EnvelopeGenerator) ReleaseEnd() (Time, bool) {
	if g.phase != PhaseRelease && g.phase != PhaseFinished {
		return 0, false
	}
	return g.releaseEnd, true
}

// Render adds len(out) frames starting at start into out.
func (g *EnvelopeGenerator) Render(out []float32, start Time) {
	if g.phase == PhaseIdle || g.phase == PhaseFinished {
		return
	}
	g.gain.Prune(start)
	g.freq.Prune(start)
	sr := float64(g.sampleRate)
	norm := 1.0 / float64(len(g.oscs))
	for i := range out {
		t := start + Time(i)
		gain := g.gain.ValueAt(t)
		freq := g.freq.ValueAt(t)
		var s float64
		for j := range g.oscs {
			s += g.oscs[j].next(freq, sr)
		}
		out[i] += float32(s * norm * gain)
	}
}

func (g *EnvelopeGenerator) finish(now Time) {
	if g.phase == PhaseFinished {
		return
	}
	g.pending = g.pending[:0]
	g.phase = PhaseFinished
	g.gain.CancelAndHoldAtTime(now)
	g.gain.SetValueAtTime(0, now)
	for i := range g.oscs {
		g.oscs[i].reset()
	}
	if g.onFinished != nil {
		g.onFinished(g, now)
	}
}

func (g *EnvelopeGenerator) cancelPending() {
	for _, t := range g.pending {
		t.Cancel()
	}
	g.pending = g.pending[:0]
}
