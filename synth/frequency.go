package synth

import (
	"math"

	"github.com/cwbudde/algo-approx"
)

// FrequencyMapper converts note identities to frequencies using equal
// temperament relative to a reference pitch.
type FrequencyMapper struct {
	ReferenceFreq float64
	ReferenceNote NoteIdentity
}

// DefaultTuning is concert pitch: A4 = MIDI note 69 = 440 Hz.
var DefaultTuning = FrequencyMapper{ReferenceFreq: 440.0, ReferenceNote: 69}

// Frequency returns the frequency in Hz for note n.
func (m FrequencyMapper) Frequency(n NoteIdentity) float64 {
	return m.ReferenceFreq * math.Exp2(float64(n-m.ReferenceNote)/12.0)
}

// NoteToFreq maps n using DefaultTuning.
func NoteToFreq(n NoteIdentity) float64 {
	return DefaultTuning.Frequency(n)
}

func semitonesToRatio(semitones float64) float64 {
	return math.Exp2(semitones / 12.0)
}

// centsToRatio is used for unison spreads of a few cents where the fast
// approximation is far below audible error.
func centsToRatio(cents float64) float64 {
	if cents == 0 {
		return 1
	}
	const ln2 = 0.69314718055994530942
	return float64(approx.FastExp(float32(cents / 1200.0 * ln2)))
}
