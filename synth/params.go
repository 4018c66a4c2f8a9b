package synth

import "fmt"

// EnvelopeParams describes an ADSR amplitude envelope. Durations are in
// seconds; Sustain and PeakGain are linear gains.
type EnvelopeParams struct {
	Attack   float64
	Decay    float64
	Sustain  float64
	Release  float64
	PeakGain float64
}

// Validate reports ErrInvalidEnvelopeParameters for any non-positive or
// non-finite value.
func (e EnvelopeParams) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"attack", e.Attack},
		{"decay", e.Decay},
		{"sustain", e.Sustain},
		{"release", e.Release},
		{"peak_gain", e.PeakGain},
	}
	for _, f := range fields {
		if !isFinite(f.value) || f.value <= 0 {
			return fmt.Errorf("%w: %s must be > 0 (got %v)", ErrInvalidEnvelopeParameters, f.name, f.value)
		}
	}
	return nil
}

// LayerParams describes one generator of a voice group.
type LayerParams struct {
	Waveform   Waveform
	Semitones  float64 // pitch offset from the note
	DetuneStep float64 // cents between adjacent unison voices
	Unison     int
	Gain       float64 // scales the envelope's peak and sustain gain
}

// MaxLayers is the largest voice group the engine builds per note.
const MaxLayers = 2

// Params holds the voice design and bus settings of an engine.
type Params struct {
	Envelope EnvelopeParams
	Layers   []LayerParams

	// Glide is the frequency ramp time in seconds used by SetFrequency.
	// Zero switches frequency on the next sample.
	Glide float64

	ReferenceFreq float64

	OutputGain    float32
	LowpassHz     float32 // 0 disables the tone filter
	RoomIRWavPath string
	RoomWet       float32

	// RoomDecay > 0 synthesizes a room IR with this low-band decay time in
	// seconds when no RoomIRWavPath is set.
	RoomDecay      float64
	RoomBrightness float64
}

// NewDefaultParams creates default parameters: a lightly detuned square layer
// over a sine one octave below.
func NewDefaultParams() *Params {
	return &Params{
		Envelope: EnvelopeParams{
			Attack:   0.01,
			Decay:    0.5,
			Sustain:  0.2,
			Release:  1.4,
			PeakGain: 0.3,
		},
		Layers: []LayerParams{
			{Waveform: Square, Semitones: 0, DetuneStep: 4, Unison: 2, Gain: 1.0},
			{Waveform: Sine, Semitones: -12, DetuneStep: 0, Unison: 1, Gain: 0.5},
		},
		Glide:         0,
		ReferenceFreq: 440.0,
		OutputGain:    1.0,
		LowpassHz:     9000,
		RoomWet:       0.0,

		RoomDecay:      0,
		RoomBrightness: 0.8,
	}
}

// Validate checks the envelope and voice design.
func (p *Params) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil params", ErrInvalidVoiceDesign)
	}
	if err := p.Envelope.Validate(); err != nil {
		return err
	}
	if len(p.Layers) < 1 || len(p.Layers) > MaxLayers {
		return fmt.Errorf("%w: need 1..%d layers, got %d", ErrInvalidVoiceDesign, MaxLayers, len(p.Layers))
	}
	for i, l := range p.Layers {
		if l.Unison < 1 {
			return fmt.Errorf("%w: layer %d unison must be >= 1", ErrInvalidVoiceDesign, i)
		}
		if !isFinite(l.Gain) || l.Gain <= 0 {
			return fmt.Errorf("%w: layer %d gain must be > 0", ErrInvalidVoiceDesign, i)
		}
		if !isFinite(l.Semitones) || !isFinite(l.DetuneStep) {
			return fmt.Errorf("%w: layer %d pitch offsets must be finite", ErrInvalidVoiceDesign, i)
		}
	}
	if !isFinite(p.Glide) || p.Glide < 0 {
		return fmt.Errorf("%w: glide must be >= 0", ErrInvalidVoiceDesign)
	}
	if !isFinite(p.ReferenceFreq) || p.ReferenceFreq <= 0 {
		return fmt.Errorf("reference frequency must be > 0")
	}
	if p.OutputGain <= 0 {
		return fmt.Errorf("output gain must be > 0")
	}
	if p.LowpassHz < 0 {
		return fmt.Errorf("lowpass cutoff must be >= 0")
	}
	if p.RoomWet < 0 || p.RoomWet > 1 {
		return fmt.Errorf("room wet mix must be in [0,1]")
	}
	if !isFinite(p.RoomDecay) || p.RoomDecay < 0 {
		return fmt.Errorf("room decay must be >= 0")
	}
	if p.RoomDecay > 0 && (!isFinite(p.RoomBrightness) || p.RoomBrightness <= 0) {
		return fmt.Errorf("room brightness must be > 0")
	}
	return nil
}
