package synth

import "math"

// NoteIdentity identifies a pitch using MIDI note numbering (60 = middle C).
type NoteIdentity int

// Time is a position on the engine clock, counted in sample frames.
type Time int64

// Phase is the envelope state of an EnvelopeGenerator.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAttack
	PhaseDecay
	PhaseSustain
	PhaseRelease
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAttack:
		return "attack"
	case PhaseDecay:
		return "decay"
	case PhaseSustain:
		return "sustain"
	case PhaseRelease:
		return "release"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// secondsToFrames converts a duration to frames, never returning less than one
// frame so every ramp has a non-zero length.
func secondsToFrames(sec float64, sampleRate int) Time {
	n := Time(math.Round(sec * float64(sampleRate)))
	if n < 1 {
		n = 1
	}
	return n
}

// Seconds converts a clock position to seconds at the given sample rate.
func (t Time) Seconds(sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(t) / float64(sampleRate)
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
