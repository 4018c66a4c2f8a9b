package input

import (
	"testing"

	"gitlab.com/gomidi/midi/v2"
)

func TestHandleMIDIBypassesOctaveAndRepeat(t *testing.T) {
	d, sink := newTestDispatcher(t, WithOctave(0))
	d.HandleMIDI(MIDIEvent{Status: MIDINoteOn, Note: 60, Velocity: 100})
	d.HandleMIDI(MIDIEvent{Status: MIDINoteOn, Note: 60, Velocity: 90})
	d.HandleMIDI(MIDIEvent{Status: MIDINoteOff, Note: 60})
	expectCalls(t, sink.calls, on(60), on(60), off(60))
	if d.Held() != 0 {
		t.Fatalf("MIDI notes must not enter the held-key set")
	}
}

func TestHandleMIDIVelocityZeroIsNoteOff(t *testing.T) {
	d, sink := newTestDispatcher(t)
	d.HandleMIDI(MIDIEvent{Status: MIDINoteOn, Note: 64, Velocity: 1})
	d.HandleMIDI(MIDIEvent{Status: MIDINoteOn, Note: 64, Velocity: 0})
	expectCalls(t, sink.calls, on(64), off(64))
}

func TestHandleMIDIOutOfRangeIgnored(t *testing.T) {
	d, sink := newTestDispatcher(t)
	d.HandleMIDI(MIDIEvent{Status: MIDINoteOn, Note: -1, Velocity: 64})
	d.HandleMIDI(MIDIEvent{Status: MIDINoteOn, Note: 128, Velocity: 64})
	expectCalls(t, sink.calls)
}

func TestHandleMessage(t *testing.T) {
	d, sink := newTestDispatcher(t)
	tests := []struct {
		msg  midi.Message
		note bool
	}{
		{midi.NoteOn(0, 60, 100), true},
		{midi.NoteOn(3, 62, 0), true},
		{midi.NoteOff(0, 60), true},
		{midi.ControlChange(0, 64, 127), false},
		{midi.ProgramChange(0, 5), false},
	}
	for _, tc := range tests {
		if got := d.HandleMessage(tc.msg); got != tc.note {
			t.Fatalf("HandleMessage(%v) = %v, want %v", tc.msg, got, tc.note)
		}
	}
	expectCalls(t, sink.calls, on(60), off(62), off(60))
}

func TestEventFromMessage(t *testing.T) {
	ev, ok := EventFromMessage(midi.NoteOn(9, 36, 110))
	if !ok || ev.Status != MIDINoteOn || ev.Note != 36 || ev.Velocity != 110 {
		t.Fatalf("EventFromMessage(note on) = %+v,%v", ev, ok)
	}
	ev, ok = EventFromMessage(midi.NoteOffVelocity(1, 40, 64))
	if !ok || ev.Status != MIDINoteOff || ev.Note != 40 {
		t.Fatalf("EventFromMessage(note off) = %+v,%v", ev, ok)
	}
}
