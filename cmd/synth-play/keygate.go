package main

import (
	"sort"
	"time"

	"github.com/cwbudde/algo-keysynth/input"
)

// keyGate turns a raw terminal byte stream into press, repeat and release
// events. Terminals never report key-up, so a note key counts as released
// once no byte for it arrived within hold. hold must exceed the OS
// auto-repeat delay or held keys will stutter.
type keyGate struct {
	hold     time.Duration
	isNote   func(key string) bool
	lastSeen map[string]time.Time
}

func newKeyGate(hold time.Duration, isNote func(key string) bool) *keyGate {
	return &keyGate{
		hold:     hold,
		isNote:   isNote,
		lastSeen: make(map[string]time.Time),
	}
}

// press records a byte for key. A key still inside its hold window is
// reported as a repeat.
func (g *keyGate) press(key string, now time.Time) input.KeyEvent {
	ev := input.KeyEvent{Key: key, Down: true}
	if !g.isNote(key) {
		return ev
	}
	if _, held := g.lastSeen[key]; held {
		ev.Repeat = true
	}
	g.lastSeen[key] = now
	return ev
}

// expire releases every key whose last byte is older than hold.
func (g *keyGate) expire(now time.Time) []input.KeyEvent {
	var keys []string
	for key, seen := range g.lastSeen {
		if now.Sub(seen) >= g.hold {
			keys = append(keys, key)
		}
	}
	return g.release(keys)
}

// releaseAll releases every tracked key.
func (g *keyGate) releaseAll() []input.KeyEvent {
	keys := make([]string, 0, len(g.lastSeen))
	for key := range g.lastSeen {
		keys = append(keys, key)
	}
	return g.release(keys)
}

func (g *keyGate) release(keys []string) []input.KeyEvent {
	sort.Strings(keys)
	events := make([]input.KeyEvent, 0, len(keys))
	for _, key := range keys {
		delete(g.lastSeen, key)
		events = append(events, input.KeyEvent{Key: key})
	}
	return events
}

func (g *keyGate) held() int {
	return len(g.lastSeen)
}
