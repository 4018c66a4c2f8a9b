package synth

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-keysynth/analysis"
)

func newTestEngine(t *testing.T, p *Params) *AudioEngine {
	t.Helper()
	e, err := NewAudioEngine(48000, p)
	if err != nil {
		t.Fatalf("NewAudioEngine: %v", err)
	}
	return e
}

func TestNewAudioEngineValidatesParams(t *testing.T) {
	p := NewDefaultParams()
	p.Envelope.Release = 0
	if _, err := NewAudioEngine(48000, p); !errors.Is(err, ErrInvalidEnvelopeParameters) {
		t.Fatalf("expected ErrInvalidEnvelopeParameters, got %v", err)
	}

	p = NewDefaultParams()
	p.Layers = append(p.Layers, LayerParams{Waveform: Sine, Unison: 1, Gain: 1})
	if _, err := NewAudioEngine(48000, p); !errors.Is(err, ErrInvalidVoiceDesign) {
		t.Fatalf("expected ErrInvalidVoiceDesign for 3 layers, got %v", err)
	}

	if _, err := NewAudioEngine(0, nil); err == nil {
		t.Fatalf("expected error for zero sample rate")
	}
}

func TestNoteOnBuildsLayeredVoiceGroup(t *testing.T) {
	e := newTestEngine(t, NewDefaultParams())
	e.NoteOn(60)
	g, ok := e.Group(60)
	if !ok {
		t.Fatalf("note 60 not registered")
	}
	gens := g.Generators()
	if len(gens) != 2 {
		t.Fatalf("expected 2 generators, got %d", len(gens))
	}
	base := NoteToFreq(60)
	if math.Abs(gens[0].Frequency()-base) > 1e-9 {
		t.Fatalf("layer 0 at %v want %v", gens[0].Frequency(), base)
	}
	if math.Abs(gens[1].Frequency()-base/2) > 1e-9 {
		t.Fatalf("layer 1 at %v want an octave below %v", gens[1].Frequency(), base/2)
	}
	for i, ph := range e.Phases(60) {
		if ph != PhaseAttack {
			t.Fatalf("generator %d in %v want attack", i, ph)
		}
	}
}

func TestRetriggerKeepsSingleRegisteredGroup(t *testing.T) {
	e := newTestEngine(t, sineParams())
	e.NoteOn(64)
	_ = e.Process(4800)
	first, _ := e.Group(64)

	e.NoteOn(64)
	second, _ := e.Group(64)
	if first == second {
		t.Fatalf("retrigger did not create a new group")
	}
	if e.ActiveNotes() != 1 {
		t.Fatalf("ActiveNotes=%d want 1", e.ActiveNotes())
	}
	if e.SoundingGroups() != 2 {
		t.Fatalf("SoundingGroups=%d want 2 (old group releasing)", e.SoundingGroups())
	}
	if !first.Released() || second.Released() {
		t.Fatalf("released: old=%v new=%v", first.Released(), second.Released())
	}

	// The old group runs out on its own; the new one stays registered.
	_ = renderSeconds(e, 2.5)
	if !first.Finished() {
		t.Fatalf("old group never finished")
	}
	if e.SoundingGroups() != 1 || !e.Active(64) {
		t.Fatalf("after old release: sounding=%d active=%v", e.SoundingGroups(), e.Active(64))
	}
	if got, _ := e.Group(64); got != second {
		t.Fatalf("finished group disturbed the registration")
	}
}

func TestNoteOffUnknownNoteIsNoop(t *testing.T) {
	e := newTestEngine(t, sineParams())
	e.NoteOn(60)
	before := e.Phases(60)
	e.NoteOff(61)
	e.NoteOff(60 + 12)
	if e.ActiveNotes() != 1 || e.SoundingGroups() != 1 {
		t.Fatalf("unknown NoteOff changed state: active=%d sounding=%d", e.ActiveNotes(), e.SoundingGroups())
	}
	after := e.Phases(60)
	if len(before) != len(after) || before[0] != after[0] {
		t.Fatalf("phases changed %v -> %v", before, after)
	}
}

func TestNoteOffReleasesThroughTail(t *testing.T) {
	e := newTestEngine(t, sineParams())
	e.NoteOn(69)
	_ = renderSeconds(e, 0.6)
	e.NoteOff(69)
	if e.Active(69) {
		t.Fatalf("note still registered after NoteOff")
	}
	if e.SoundingGroups() != 1 {
		t.Fatalf("release tail dropped early: sounding=%d", e.SoundingGroups())
	}
	tail := renderSeconds(e, 0.2)
	if rms := windowRMS(tail); rms < 0.05 {
		t.Fatalf("release tail inaudible: rms=%f", rms)
	}
	_ = renderSeconds(e, 1.3)
	if e.SoundingGroups() != 0 {
		t.Fatalf("group not removed after release: sounding=%d", e.SoundingGroups())
	}
	if rms := windowRMS(e.Process(1024)); rms != 0 {
		t.Fatalf("output after release not silent: rms=%g", rms)
	}
}

func TestImmediateNoteOffStillPlaysEnvelope(t *testing.T) {
	e := newTestEngine(t, sineParams())
	e.NoteOn(69)
	e.NoteOff(69)

	head := renderSeconds(e, 0.5)
	if rms := windowRMS(head[480:]); rms < 0.1 {
		t.Fatalf("immediate release cut the note off: rms=%f", rms)
	}
	// attack 0.01 + decay 0.5 + release 1.4 = 1.91 s.
	_ = renderSeconds(e, 1.40)
	if e.SoundingGroups() != 1 {
		t.Fatalf("release finished before 1.90s")
	}
	_ = renderSeconds(e, 0.02)
	if e.SoundingGroups() != 0 {
		t.Fatalf("release did not finish by 1.92s")
	}
}

func TestNoteBoundariesAreClickFree(t *testing.T) {
	e := newTestEngine(t, sineParams())
	var out []float32
	e.NoteOn(69)
	out = append(out, renderSeconds(e, 0.3)...)
	e.NoteOff(69)
	out = append(out, renderSeconds(e, 0.4)...)
	e.NoteOn(69)
	out = append(out, renderSeconds(e, 0.2)...)
	e.NoteOff(69)
	out = append(out, renderSeconds(e, 2.0)...)

	// Two overlapping 440 Hz sines stay well under 0.04 per sample.
	if step := maxStep(out, 0); step > 0.04 {
		t.Fatalf("largest sample step %f suggests a click", step)
	}
}

func TestRenderedPitchMatchesMapper(t *testing.T) {
	for _, note := range []NoteIdentity{57, 69, 76} {
		e := newTestEngine(t, sineParams())
		e.NoteOn(note)
		_ = renderSeconds(e, 0.6)
		sustain := renderSeconds(e, 1.0)
		got, err := analysis.PeakFrequency(toFloat64(sustain), e.SampleRate(), 50, 4000)
		if err != nil {
			t.Fatalf("PeakFrequency: %v", err)
		}
		want := NoteToFreq(note)
		if math.Abs(got-want) > 1.0 {
			t.Fatalf("note %d: measured %.2f Hz want %.2f Hz", note, got, want)
		}
	}
}

func TestPolyphonyIsUnbounded(t *testing.T) {
	e := newTestEngine(t, NewDefaultParams())
	for n := NoteIdentity(40); n < 72; n++ {
		e.NoteOn(n)
	}
	_ = e.Process(512)
	if e.ActiveNotes() != 32 || e.SoundingGroups() != 32 {
		t.Fatalf("active=%d sounding=%d want 32", e.ActiveNotes(), e.SoundingGroups())
	}
	e.AllNotesOff()
	if e.ActiveNotes() != 0 {
		t.Fatalf("AllNotesOff left %d notes", e.ActiveNotes())
	}
	if e.SoundingGroups() != 32 {
		t.Fatalf("AllNotesOff must not cut release tails")
	}
}

func TestOutputStaysFinite(t *testing.T) {
	p := NewDefaultParams()
	e := newTestEngine(t, p)
	for i := 0; i < 200; i++ {
		if i%7 == 0 {
			e.NoteOn(NoteIdentity(48 + i%24))
		}
		if i%11 == 0 {
			e.NoteOff(NoteIdentity(48 + (i+5)%24))
		}
		for j, s := range e.Process(128) {
			if math.IsNaN(float64(s)) || math.IsInf(float64(s), 0) {
				t.Fatalf("non-finite sample at block %d sample %d: %v", i, j, s)
			}
		}
	}
}

func TestClockAdvancesByRenderedFrames(t *testing.T) {
	e := newTestEngine(t, nil)
	_ = e.Process(100)
	_ = e.Process(28)
	if e.Now() != 128 {
		t.Fatalf("Now=%d want 128", e.Now())
	}
	if got := e.Now().Seconds(e.SampleRate()); math.Abs(got-128.0/48000) > 1e-12 {
		t.Fatalf("Seconds=%v", got)
	}
}
