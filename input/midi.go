package input

import (
	"gitlab.com/gomidi/midi/v2"

	"github.com/cwbudde/algo-keysynth/synth"
)

// MIDIStatus is the kind of a MIDI note event.
type MIDIStatus int

const (
	MIDINoteOff MIDIStatus = iota
	MIDINoteOn
)

// MIDIEvent is an already-parsed MIDI note message.
type MIDIEvent struct {
	Status   MIDIStatus
	Note     int
	Velocity int
}

// HandleMIDI forwards a MIDI note event. MIDI input bypasses repeat
// suppression and the octave: the note number is the note identity. A note-on
// with velocity 0 is a note-off; other velocities are ignored.
func (d *Dispatcher) HandleMIDI(ev MIDIEvent) {
	if ev.Note < 0 || ev.Note > 127 {
		return
	}
	id := synth.NoteIdentity(ev.Note)
	if ev.Status == MIDINoteOn && ev.Velocity > 0 {
		d.sink.NoteOn(id)
		return
	}
	d.sink.NoteOff(id)
}

// HandleMessage decodes a gomidi message and forwards note events. It reports
// whether msg was a note message.
func (d *Dispatcher) HandleMessage(msg midi.Message) bool {
	ev, ok := EventFromMessage(msg)
	if !ok {
		return false
	}
	d.HandleMIDI(ev)
	return true
}

// EventFromMessage converts note-on and note-off messages on any channel.
func EventFromMessage(msg midi.Message) (MIDIEvent, bool) {
	var ch, key, vel uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return MIDIEvent{Status: MIDINoteOn, Note: int(key), Velocity: int(vel)}, true
	case msg.GetNoteEnd(&ch, &key):
		return MIDIEvent{Status: MIDINoteOff, Note: int(key)}, true
	}
	return MIDIEvent{}, false
}
