package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-keysynth/input"
)

// scriptEvent is one timed input event. Exactly one of key or midi is set.
type scriptEvent struct {
	At   float64 // seconds
	Key  *input.KeyEvent
	MIDI *input.MIDIEvent
}

// parseScript reads events separated by newlines or ';'. Forms:
//
//	<sec>:<key>:down|up|repeat
//	<sec>:midi:<note>:on|off
//
// Blank entries and '#' comments are skipped. Events are returned in time
// order, keeping script order for equal times.
func parseScript(src string) ([]scriptEvent, error) {
	var events []scriptEvent
	entries := strings.FieldsFunc(src, func(r rune) bool { return r == '\n' || r == ';' })
	for _, raw := range entries {
		entry := raw
		if i := strings.IndexByte(entry, '#'); i >= 0 {
			entry = entry[:i]
		}
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		ev, err := parseEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("event %q: %w", entry, err)
		}
		events = append(events, ev)
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].At < events[j].At })
	return events, nil
}

func parseEntry(entry string) (scriptEvent, error) {
	parts := strings.Split(entry, ":")
	if len(parts) < 3 {
		return scriptEvent{}, fmt.Errorf("expected <sec>:<key>:<action>")
	}
	at, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || at < 0 {
		return scriptEvent{}, fmt.Errorf("invalid time %q", parts[0])
	}
	ev := scriptEvent{At: at}

	if parts[1] == "midi" {
		if len(parts) != 4 {
			return ev, fmt.Errorf("expected <sec>:midi:<note>:on|off")
		}
		note, err := strconv.Atoi(parts[2])
		if err != nil || note < 0 || note > 127 {
			return ev, fmt.Errorf("invalid midi note %q", parts[2])
		}
		m := input.MIDIEvent{Note: note}
		switch parts[3] {
		case "on":
			m.Status, m.Velocity = input.MIDINoteOn, 100
		case "off":
			m.Status = input.MIDINoteOff
		default:
			return ev, fmt.Errorf("invalid midi action %q", parts[3])
		}
		ev.MIDI = &m
		return ev, nil
	}

	if len(parts) != 3 || parts[1] == "" {
		return ev, fmt.Errorf("expected <sec>:<key>:down|up|repeat")
	}
	k := input.KeyEvent{Key: parts[1]}
	switch parts[2] {
	case "down":
		k.Down = true
	case "repeat":
		k.Down, k.Repeat = true, true
	case "up":
	default:
		return ev, fmt.Errorf("invalid key action %q", parts[2])
	}
	ev.Key = &k
	return ev, nil
}

func (ev scriptEvent) apply(d *input.Dispatcher) {
	switch {
	case ev.Key != nil:
		d.HandleKey(*ev.Key)
	case ev.MIDI != nil:
		d.HandleMIDI(*ev.MIDI)
	}
}
