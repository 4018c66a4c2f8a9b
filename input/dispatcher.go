// Package input turns keyboard and MIDI events into note-on and note-off calls.
package input

import (
	"errors"
	"log/slog"

	"github.com/cwbudde/algo-keysynth/synth"
)

// ErrMissingAudioEngine is returned when a Dispatcher is built without a sink.
var ErrMissingAudioEngine = errors.New("input: missing audio engine")

// NoteSink receives note events. *synth.AudioEngine implements it.
type NoteSink interface {
	NoteOn(id synth.NoteIdentity)
	NoteOff(id synth.NoteIdentity)
}

// ReleasePolicy decides which note a key release stops.
type ReleasePolicy int

const (
	// ReleasePressed stops the note the key started, even if the octave
	// changed while it was held.
	ReleasePressed ReleasePolicy = iota
	// ReleaseAtCurrentOctave recomputes the note from the octave at release
	// time. A note held across an octave change then stays on until the
	// same key is released at the original octave.
	ReleaseAtCurrentOctave
)

// KeyEvent is a computer-keyboard press or release.
type KeyEvent struct {
	Key    string
	Down   bool
	Repeat bool
}

// Dispatcher tracks held keys and the octave for one input session. It is not
// safe for concurrent use.
type Dispatcher struct {
	sink   NoteSink
	keys   KeyMap
	policy ReleasePolicy
	octave int
	held   map[string]synth.NoteIdentity
	logger *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithKeyMap replaces the default note-key layout.
func WithKeyMap(m KeyMap) Option {
	return func(d *Dispatcher) { d.keys = m }
}

// WithReleasePolicy selects how releases are matched to notes.
func WithReleasePolicy(p ReleasePolicy) Option {
	return func(d *Dispatcher) { d.policy = p }
}

// WithOctave sets the starting octave (clamped to the valid range).
func WithOctave(n int) Option {
	return func(d *Dispatcher) { d.octave = clampOctave(n) }
}

// WithLogger routes dispatcher debug logging to l.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDispatcher creates a dispatcher feeding sink.
func NewDispatcher(sink NoteSink, opts ...Option) (*Dispatcher, error) {
	if sink == nil {
		return nil, ErrMissingAudioEngine
	}
	d := &Dispatcher{
		sink:   sink,
		keys:   DefaultKeyMap(),
		policy: ReleasePressed,
		octave: DefaultOctave,
		held:   make(map[string]synth.NoteIdentity),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// HandleKey processes one keyboard event. Unmapped keys are ignored.
func (d *Dispatcher) HandleKey(ev KeyEvent) {
	if ev.Down {
		d.press(ev)
		return
	}
	d.release(ev.Key)
}

func (d *Dispatcher) press(ev KeyEvent) {
	if isOctaveKey(ev.Key) {
		d.shiftOctave(ev.Key)
		return
	}
	if ev.Repeat {
		return
	}
	if _, held := d.held[ev.Key]; held {
		return
	}
	id, ok := d.identity(ev.Key)
	if !ok {
		return
	}
	d.held[ev.Key] = id
	d.sink.NoteOn(id)
}

func (d *Dispatcher) release(key string) {
	pressed, held := d.held[key]
	if !held {
		return
	}
	id := pressed
	if d.policy == ReleaseAtCurrentOctave {
		id, _ = d.identity(key)
	}
	delete(d.held, key)
	d.sink.NoteOff(id)
}

// ReleaseAll releases every held key.
func (d *Dispatcher) ReleaseAll() {
	for key := range d.held {
		d.release(key)
	}
}

// NoteFor returns the note key would start at the current octave.
func (d *Dispatcher) NoteFor(key string) (synth.NoteIdentity, bool) {
	return d.identity(key)
}

func (d *Dispatcher) identity(key string) (synth.NoteIdentity, bool) {
	idx, ok := d.keys.NoteIndex(key)
	if !ok {
		return 0, false
	}
	return synth.NoteIdentity(idx + d.octave*12 + BaseOffset), true
}

func (d *Dispatcher) shiftOctave(key string) {
	next := d.octave
	if key == OctaveUpKey {
		next++
	} else {
		next--
	}
	d.SetOctave(next)
}

// Octave returns the current octave.
func (d *Dispatcher) Octave() int {
	return d.octave
}

// SetOctave sets the octave, clamped to [MinOctave, MaxOctave]. Held notes are
// not affected.
func (d *Dispatcher) SetOctave(n int) {
	n = clampOctave(n)
	if n == d.octave {
		return
	}
	d.octave = n
	d.logger.Debug("input: octave", "octave", n)
}

// Held returns the number of held note keys.
func (d *Dispatcher) Held() int {
	return len(d.held)
}

// IsHeld reports whether key is currently held.
func (d *Dispatcher) IsHeld(key string) bool {
	_, ok := d.held[key]
	return ok
}

func clampOctave(n int) int {
	return min(max(n, MinOctave), MaxOctave)
}
