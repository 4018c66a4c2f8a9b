package input

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-keysynth/synth"
)

func TestNewDispatcherRequiresSink(t *testing.T) {
	_, err := NewDispatcher(nil)
	if !errors.Is(err, ErrMissingAudioEngine) {
		t.Fatalf("err = %v, want ErrMissingAudioEngine", err)
	}
}

func TestPressAndRelease(t *testing.T) {
	d, sink := newTestDispatcher(t)
	d.HandleKey(down("a"))
	if d.Held() != 1 || !d.IsHeld("a") {
		t.Fatalf("held = %d, want a held", d.Held())
	}
	d.HandleKey(up("a"))
	expectCalls(t, sink.calls, on(60), off(60))
	if d.Held() != 0 {
		t.Fatalf("held = %d after release", d.Held())
	}
}

func TestIdentityFormula(t *testing.T) {
	tests := []struct {
		key    string
		octave int
		want   synth.NoteIdentity
	}{
		{"a", 3, 60},
		{"j", 3, 71},
		{"w", 3, 61},
		{"a", 0, 24},
		{"a", 7, 108},
		{"j", 7, 119},
	}
	for _, tc := range tests {
		d, _ := newTestDispatcher(t, WithOctave(tc.octave))
		got, ok := d.NoteFor(tc.key)
		if !ok || got != tc.want {
			t.Fatalf("NoteFor(%q) at octave %d = %d,%v, want %d", tc.key, tc.octave, got, ok, tc.want)
		}
	}
}

func TestRepeatAndHeldPressIgnored(t *testing.T) {
	d, sink := newTestDispatcher(t)
	d.HandleKey(down("a"))
	d.HandleKey(KeyEvent{Key: "a", Down: true, Repeat: true})
	d.HandleKey(down("a"))
	d.HandleKey(up("a"))
	expectCalls(t, sink.calls, on(60), off(60))
}

func TestRepeatFirstPressIgnored(t *testing.T) {
	d, sink := newTestDispatcher(t)
	d.HandleKey(KeyEvent{Key: "a", Down: true, Repeat: true})
	expectCalls(t, sink.calls)
	if d.Held() != 0 {
		t.Fatalf("repeat press should not be held")
	}
}

func TestUnmappedAndUnheldKeysAreNoOps(t *testing.T) {
	d, sink := newTestDispatcher(t)
	d.HandleKey(down("q"))
	d.HandleKey(up("q"))
	d.HandleKey(up("a"))
	d.HandleKey(up("+"))
	expectCalls(t, sink.calls)
	if d.Octave() != DefaultOctave {
		t.Fatalf("octave = %d, want %d", d.Octave(), DefaultOctave)
	}
}

func TestOctaveKeysClamp(t *testing.T) {
	d, sink := newTestDispatcher(t)
	for range 10 {
		d.HandleKey(down(OctaveUpKey))
	}
	if d.Octave() != MaxOctave {
		t.Fatalf("octave = %d, want %d", d.Octave(), MaxOctave)
	}
	for range 10 {
		d.HandleKey(down(OctaveDownKey))
	}
	if d.Octave() != MinOctave {
		t.Fatalf("octave = %d, want %d", d.Octave(), MinOctave)
	}
	expectCalls(t, sink.calls)
}

func TestOctaveKeyRepeatStillShifts(t *testing.T) {
	d, _ := newTestDispatcher(t)
	d.HandleKey(KeyEvent{Key: OctaveUpKey, Down: true, Repeat: true})
	if d.Octave() != DefaultOctave+1 {
		t.Fatalf("octave = %d, want %d", d.Octave(), DefaultOctave+1)
	}
}

func TestSetOctaveClamps(t *testing.T) {
	d, _ := newTestDispatcher(t)
	d.SetOctave(-3)
	if d.Octave() != MinOctave {
		t.Fatalf("octave = %d", d.Octave())
	}
	d.SetOctave(42)
	if d.Octave() != MaxOctave {
		t.Fatalf("octave = %d", d.Octave())
	}
}

func TestOctaveShiftAffectsNextPress(t *testing.T) {
	d, sink := newTestDispatcher(t)
	d.HandleKey(down(OctaveUpKey))
	d.HandleKey(down("a"))
	d.HandleKey(up("a"))
	expectCalls(t, sink.calls, on(72), off(72))
}

func TestReleasePressedAcrossOctaveChange(t *testing.T) {
	d, sink := newTestDispatcher(t)
	d.HandleKey(down("a"))
	d.HandleKey(down(OctaveUpKey))
	d.HandleKey(up("a"))
	expectCalls(t, sink.calls, on(60), off(60))
}

func TestReleaseAtCurrentOctaveRecomputes(t *testing.T) {
	d, sink := newTestDispatcher(t, WithReleasePolicy(ReleaseAtCurrentOctave))
	d.HandleKey(down("a"))
	d.HandleKey(down(OctaveUpKey))
	d.HandleKey(up("a"))
	expectCalls(t, sink.calls, on(60), off(72))
	if d.Held() != 0 {
		t.Fatalf("held = %d, want 0", d.Held())
	}
}

func TestChordIndependentKeys(t *testing.T) {
	d, sink := newTestDispatcher(t)
	d.HandleKey(down("a"))
	d.HandleKey(down("d"))
	d.HandleKey(down("g"))
	d.HandleKey(up("d"))
	expectCalls(t, sink.calls, on(60), on(64), on(67), off(64))
	if d.Held() != 2 {
		t.Fatalf("held = %d, want 2", d.Held())
	}
}

func TestReleaseAll(t *testing.T) {
	d, sink := newTestDispatcher(t)
	d.HandleKey(down("a"))
	d.HandleKey(down("s"))
	d.ReleaseAll()
	if d.Held() != 0 {
		t.Fatalf("held = %d after ReleaseAll", d.Held())
	}
	offs := map[synth.NoteIdentity]bool{}
	for _, c := range sink.calls[2:] {
		if c.on {
			t.Fatalf("unexpected note-on %v", c)
		}
		offs[c.id] = true
	}
	if len(offs) != 2 || !offs[60] || !offs[62] {
		t.Fatalf("released %v, want 60 and 62", offs)
	}
}

func TestDispatcherDrivesEngine(t *testing.T) {
	engine, err := synth.NewAudioEngine(48000, synth.NewDefaultParams())
	if err != nil {
		t.Fatalf("NewAudioEngine: %v", err)
	}
	d, err := NewDispatcher(engine)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	d.HandleKey(down("a"))
	if !engine.Active(60) {
		t.Fatalf("note 60 not active after key press")
	}
	d.HandleKey(up("a"))
	if engine.Active(60) {
		t.Fatalf("note 60 still registered after release")
	}
	if engine.SoundingGroups() != 1 {
		t.Fatalf("sounding = %d, want 1 releasing group", engine.SoundingGroups())
	}
}
