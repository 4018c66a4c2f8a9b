// Package audioout streams an AudioEngine to the default sound device.
package audioout

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/cwbudde/algo-keysynth/synth"
)

// BytesPerFrame is the size of one mono float32 frame.
const BytesPerFrame = 4

// Stream is an io.Reader producing little-endian float32 mono frames from an
// engine. The device callback and note calls share one mutex, so a Stream is
// the only thing allowed to touch its engine once playback starts.
type Stream struct {
	mu     sync.Mutex
	engine *synth.AudioEngine
	buf    []float32
}

// NewStream wraps engine.
func NewStream(engine *synth.AudioEngine) *Stream {
	return &Stream{engine: engine, buf: make([]float32, 1024)}
}

// Read renders len(p)/4 frames. A trailing partial frame is left unfilled.
func (s *Stream) Read(p []byte) (int, error) {
	frames := len(p) / BytesPerFrame
	if frames == 0 {
		return 0, nil
	}

	s.mu.Lock()
	if len(s.buf) < frames {
		s.buf = make([]float32, frames)
	}
	samples := s.buf[:frames]
	s.engine.ProcessInto(samples)
	s.mu.Unlock()

	for i, v := range samples {
		binary.LittleEndian.PutUint32(p[i*BytesPerFrame:], math.Float32bits(v))
	}
	return frames * BytesPerFrame, nil
}

func (s *Stream) NoteOn(id synth.NoteIdentity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.NoteOn(id)
}

func (s *Stream) NoteOff(id synth.NoteIdentity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.NoteOff(id)
}

// AllNotesOff releases every registered note.
func (s *Stream) AllNotesOff() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.AllNotesOff()
}

// WithEngine runs fn with exclusive access to the engine, for settings that
// have no Stream method.
func (s *Stream) WithEngine(fn func(e *synth.AudioEngine)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.engine)
}

// SoundingGroups reports how many voice groups are still audible.
func (s *Stream) SoundingGroups() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.SoundingGroups()
}

// SampleRate returns the engine rate.
func (s *Stream) SampleRate() int {
	return s.engine.SampleRate()
}
