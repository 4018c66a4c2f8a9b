package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-keysynth/synth"
)

// File is the JSON schema for synth presets.
type File struct {
	OutputGain    *float32         `json:"output_gain"`
	LowpassHz     *float32         `json:"lowpass_hz"`
	RoomIRWavPath string           `json:"room_ir_wav_path"`
	RoomWet       *float32         `json:"room_wet"`
	RoomDecay     *float64         `json:"room_decay"`
	RoomBright    *float64         `json:"room_brightness"`
	Glide         *float64         `json:"glide"`
	ReferenceFreq *float64         `json:"reference_freq"`
	Envelope      *EnvelopeSetting `json:"envelope"`
	Layers        []LayerSetting   `json:"layers"`
}

// EnvelopeSetting is a partial envelope override.
type EnvelopeSetting struct {
	Attack   *float64 `json:"attack"`
	Decay    *float64 `json:"decay"`
	Sustain  *float64 `json:"sustain"`
	Release  *float64 `json:"release"`
	PeakGain *float64 `json:"peak_gain"`
}

// LayerSetting describes one layer. A preset with layers replaces the default
// layer list entirely; omitted fields take the values below.
type LayerSetting struct {
	Waveform        string   `json:"waveform"`
	Semitones       float64  `json:"semitones"`
	DetuneStepCents float64  `json:"detune_step_cents"`
	Unison          *int     `json:"unison"`
	Gain            *float64 `json:"gain"`
}

// LoadJSON loads a preset JSON file and applies it on top of default params.
func LoadJSON(path string) (*synth.Params, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("preset %s: %w", path, err)
	}

	p := synth.NewDefaultParams()
	if err := ApplyFile(p, &f); err != nil {
		return nil, fmt.Errorf("preset %s: %w", path, err)
	}

	if p.RoomIRWavPath != "" && !filepath.IsAbs(p.RoomIRWavPath) {
		base := filepath.Dir(path)
		p.RoomIRWavPath = filepath.Clean(filepath.Join(base, p.RoomIRWavPath))
	}
	return p, nil
}

// ApplyFile applies a parsed preset file onto an existing params object and
// validates the result.
func ApplyFile(dst *synth.Params, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination params")
	}
	if f == nil {
		return nil
	}

	if f.OutputGain != nil {
		if *f.OutputGain <= 0 {
			return fmt.Errorf("output_gain must be > 0")
		}
		dst.OutputGain = *f.OutputGain
	}
	if f.LowpassHz != nil {
		if *f.LowpassHz < 0 {
			return fmt.Errorf("lowpass_hz must be >= 0")
		}
		dst.LowpassHz = *f.LowpassHz
	}
	if f.RoomIRWavPath != "" {
		dst.RoomIRWavPath = strings.TrimSpace(f.RoomIRWavPath)
	}
	if f.RoomWet != nil {
		if *f.RoomWet < 0 || *f.RoomWet > 1 {
			return fmt.Errorf("room_wet must be in [0,1]")
		}
		dst.RoomWet = *f.RoomWet
	}
	if f.RoomDecay != nil {
		if *f.RoomDecay < 0 {
			return fmt.Errorf("room_decay must be >= 0")
		}
		dst.RoomDecay = *f.RoomDecay
	}
	if f.RoomBright != nil {
		dst.RoomBrightness = *f.RoomBright
	}
	if f.Glide != nil {
		if *f.Glide < 0 {
			return fmt.Errorf("glide must be >= 0")
		}
		dst.Glide = *f.Glide
	}
	if f.ReferenceFreq != nil {
		dst.ReferenceFreq = *f.ReferenceFreq
	}
	if f.Envelope != nil {
		applyEnvelope(&dst.Envelope, f.Envelope)
	}

	if len(f.Layers) > 0 {
		if len(f.Layers) > synth.MaxLayers {
			return fmt.Errorf("layers: at most %d allowed, got %d", synth.MaxLayers, len(f.Layers))
		}
		layers := make([]synth.LayerParams, len(f.Layers))
		for i, ls := range f.Layers {
			l, err := layerFromSetting(ls)
			if err != nil {
				return fmt.Errorf("layers[%d]: %w", i, err)
			}
			layers[i] = l
		}
		dst.Layers = layers
	}

	return dst.Validate()
}

func applyEnvelope(dst *synth.EnvelopeParams, s *EnvelopeSetting) {
	if s.Attack != nil {
		dst.Attack = *s.Attack
	}
	if s.Decay != nil {
		dst.Decay = *s.Decay
	}
	if s.Sustain != nil {
		dst.Sustain = *s.Sustain
	}
	if s.Release != nil {
		dst.Release = *s.Release
	}
	if s.PeakGain != nil {
		dst.PeakGain = *s.PeakGain
	}
}

func layerFromSetting(s LayerSetting) (synth.LayerParams, error) {
	l := synth.LayerParams{
		Waveform:   synth.Sine,
		Semitones:  s.Semitones,
		DetuneStep: s.DetuneStepCents,
		Unison:     1,
		Gain:       1,
	}
	if s.Waveform != "" {
		w, err := synth.ParseWaveform(s.Waveform)
		if err != nil {
			return l, err
		}
		l.Waveform = w
	}
	if s.Unison != nil {
		l.Unison = *s.Unison
	}
	if s.Gain != nil {
		l.Gain = *s.Gain
	}
	return l, nil
}
