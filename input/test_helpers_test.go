package input

import (
	"fmt"
	"testing"

	"github.com/cwbudde/algo-keysynth/synth"
)

type noteCall struct {
	on bool
	id synth.NoteIdentity
}

func (c noteCall) String() string {
	if c.on {
		return fmt.Sprintf("on(%d)", c.id)
	}
	return fmt.Sprintf("off(%d)", c.id)
}

// recordingSink captures note calls in order.
type recordingSink struct {
	calls []noteCall
}

func (s *recordingSink) NoteOn(id synth.NoteIdentity) {
	s.calls = append(s.calls, noteCall{true, id})
}

func (s *recordingSink) NoteOff(id synth.NoteIdentity) {
	s.calls = append(s.calls, noteCall{false, id})
}

func on(id synth.NoteIdentity) noteCall  { return noteCall{true, id} }
func off(id synth.NoteIdentity) noteCall { return noteCall{false, id} }

func newTestDispatcher(t *testing.T, opts ...Option) (*Dispatcher, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	d, err := NewDispatcher(sink, opts...)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	return d, sink
}

func expectCalls(t *testing.T, got []noteCall, want ...noteCall) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("calls = %v, want %v", got, want)
		}
	}
}

func down(key string) KeyEvent { return KeyEvent{Key: key, Down: true} }
func up(key string) KeyEvent   { return KeyEvent{Key: key} }
