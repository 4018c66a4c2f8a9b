// Package synth is a polyphonic tone engine. Notes are voice groups of one or
// two ADSR envelope generators; every state change is scheduled on a sample
// clock so notes start and stop without clicks.
package synth

import (
	"fmt"
	"log/slog"
)

// AudioEngine owns every voice group and mixes them onto one bus. It is not
// safe for concurrent use; the owner serialises note calls with Process.
type AudioEngine struct {
	sampleRate int
	params     *Params
	tuning     FrequencyMapper
	sched      *Scheduler
	registry   *VoiceRegistry
	sounding   []*VoiceGroup
	bus        *Bus
	now        Time
	logger     *slog.Logger
}

// Option configures an AudioEngine.
type Option func(*AudioEngine)

// WithLogger routes engine debug logging to l.
func WithLogger(l *slog.Logger) Option {
	return func(e *AudioEngine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTuning overrides the reference pitch taken from params.
func WithTuning(m FrequencyMapper) Option {
	return func(e *AudioEngine) {
		e.tuning = m
	}
}

// NewAudioEngine creates an engine. A nil params uses NewDefaultParams.
func NewAudioEngine(sampleRate int, params *Params, opts ...Option) (*AudioEngine, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be > 0 (got %d)", sampleRate)
	}
	if params == nil {
		params = NewDefaultParams()
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	bus, err := NewBus(sampleRate, params)
	if err != nil {
		return nil, err
	}
	e := &AudioEngine{
		sampleRate: sampleRate,
		params:     params,
		tuning:     FrequencyMapper{ReferenceFreq: params.ReferenceFreq, ReferenceNote: DefaultTuning.ReferenceNote},
		sched:      NewScheduler(),
		registry:   NewVoiceRegistry(),
		bus:        bus,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// SampleRate returns the engine sample rate.
func (e *AudioEngine) SampleRate() int {
	return e.sampleRate
}

// Now returns the engine clock: the number of frames rendered so far.
func (e *AudioEngine) Now() Time {
	return e.now
}

// Bus returns the output bus.
func (e *AudioEngine) Bus() *Bus {
	return e.bus
}

// NoteOn starts a voice group for id. If id is already sounding its group is
// released and replaced; the old group finishes its release on its own.
func (e *AudioEngine) NoteOn(id NoteIdentity) {
	now := e.now
	group, err := e.newGroup(id, e.tuning.Frequency(id))
	if err != nil {
		// Params were validated at construction; this only fires for notes
		// whose frequency is not representable.
		e.logger.Warn("synth: note on rejected", "note", int(id), "err", err)
		return
	}
	if prev := e.registry.Replace(id, group); prev != nil {
		prev.stop(now)
		e.logger.Debug("synth: retrigger", "note", int(id))
	}
	group.start(now)
	e.sounding = append(e.sounding, group)
	e.logger.Debug("synth: note on", "note", int(id), "hz", e.tuning.Frequency(id), "voices", len(group.generators))
}

// NoteOff releases the group registered for id. Unknown notes are ignored.
func (e *AudioEngine) NoteOff(id NoteIdentity) {
	group := e.registry.Remove(id)
	if group == nil {
		return
	}
	group.stop(e.now)
	e.logger.Debug("synth: note off", "note", int(id))
}

// AllNotesOff releases every registered note.
func (e *AudioEngine) AllNotesOff() {
	for _, id := range e.registry.Notes() {
		e.NoteOff(id)
	}
}

// Active reports whether id has a registered voice group.
func (e *AudioEngine) Active(id NoteIdentity) bool {
	_, ok := e.registry.Lookup(id)
	return ok
}

// Group returns the voice group registered for id.
func (e *AudioEngine) Group(id NoteIdentity) (*VoiceGroup, bool) {
	return e.registry.Lookup(id)
}

// Phases returns the envelope phase of each generator registered for id.
func (e *AudioEngine) Phases(id NoteIdentity) []Phase {
	g, ok := e.registry.Lookup(id)
	if !ok {
		return nil
	}
	out := make([]Phase, len(g.generators))
	for i, gen := range g.generators {
		out[i] = gen.Phase()
	}
	return out
}

// ActiveNotes returns the number of registered notes.
func (e *AudioEngine) ActiveNotes() int {
	return e.registry.Len()
}

// SoundingGroups returns the number of groups still producing sound,
// including released groups in their release tail.
func (e *AudioEngine) SoundingGroups() int {
	return len(e.sounding)
}

// Process renders numFrames mono frames (see ProcessInto).
func (e *AudioEngine) Process(numFrames int) []float32 {
	out := make([]float32, numFrames)
	e.ProcessInto(out)
	return out
}

// ProcessInto renders len(out) frames into out. Scheduled phase transitions
// run at their exact frame: the block is split at every due task.
func (e *AudioEngine) ProcessInto(out []float32) {
	clear(out)
	pos := 0
	for pos < len(out) {
		e.sched.RunDue(e.now)
		end := len(out)
		if next, ok := e.sched.Next(); ok && next < e.now+Time(end-pos) {
			end = pos + int(next-e.now)
		}
		seg := out[pos:end]
		for _, g := range e.sounding {
			g.render(seg, e.now)
		}
		e.now += Time(end - pos)
		pos = end
	}
	e.sched.RunDue(e.now)
	e.sweep()
	e.bus.Process(out)
}

func (e *AudioEngine) newGroup(id NoteIdentity, base float64) (*VoiceGroup, error) {
	group := &VoiceGroup{note: id}
	for _, layer := range e.params.Layers {
		gen, err := NewEnvelopeGenerator(e.sched, GeneratorConfig{
			SampleRate: e.sampleRate,
			Frequency:  base * semitonesToRatio(layer.Semitones),
			Waveform:   layer.Waveform,
			Unison:     layer.Unison,
			DetuneStep: layer.DetuneStep,
			Envelope: EnvelopeParams{
				Attack:   e.params.Envelope.Attack,
				Decay:    e.params.Envelope.Decay,
				Sustain:  e.params.Envelope.Sustain * layer.Gain,
				Release:  e.params.Envelope.Release,
				PeakGain: e.params.Envelope.PeakGain * layer.Gain,
			},
			Glide:      e.params.Glide,
			OnFinished: func(*EnvelopeGenerator, Time) { e.generatorFinished(group) },
		})
		if err != nil {
			for _, g := range group.generators {
				g.Cancel()
			}
			return nil, err
		}
		group.generators = append(group.generators, gen)
	}
	group.remaining = len(group.generators)
	return group, nil
}

func (e *AudioEngine) generatorFinished(group *VoiceGroup) {
	group.remaining--
	if group.remaining > 0 {
		return
	}
	// A group only finishes after Stop, which always unregisters it; this
	// guards against a registry entry outliving its voices.
	if cur, ok := e.registry.Lookup(group.note); ok && cur == group {
		e.registry.Remove(group.note)
	}
	e.logger.Debug("synth: voice group finished", "note", int(group.note))
}

func (e *AudioEngine) sweep() {
	keep := e.sounding[:0]
	for _, g := range e.sounding {
		if !g.Finished() {
			keep = append(keep, g)
		}
	}
	for i := len(keep); i < len(e.sounding); i++ {
		e.sounding[i] = nil
	}
	e.sounding = keep
}
