package synth

import "sort"

type paramEvent struct {
	at    Time
	value float64
	ramp  bool // linear ramp from the previous event, reaching value at at
}

// Param is an automation timeline for a gain or frequency value. Changes are
// scheduled as events on the engine clock and evaluated per sample, so a value
// only ever moves as a step at a known time or as a linear ramp.
type Param struct {
	initial float64
	events  []paramEvent
}

// NewParam creates a parameter holding v until the first event.
func NewParam(v float64) *Param {
	return &Param{initial: v}
}

// SetValueAtTime holds v from at onwards.
func (p *Param) SetValueAtTime(v float64, at Time) {
	p.insert(paramEvent{at: at, value: v})
}

// LinearRampToValueAtTime ramps linearly from the previous event so that the
// value reaches v at at. Without a previous event it behaves like
// SetValueAtTime.
func (p *Param) LinearRampToValueAtTime(v float64, at Time) {
	p.insert(paramEvent{at: at, value: v, ramp: true})
}

// CancelAndHoldAtTime drops every event after at and holds the value the
// timeline had at at.
func (p *Param) CancelAndHoldAtTime(at Time) {
	v := p.ValueAt(at)
	keep := p.events[:0]
	for _, ev := range p.events {
		if ev.at <= at {
			keep = append(keep, ev)
		}
	}
	p.events = keep
	p.SetValueAtTime(v, at)
}

// ValueAt evaluates the timeline at t.
func (p *Param) ValueAt(t Time) float64 {
	// idx is the first event strictly after t.
	idx := sort.Search(len(p.events), func(i int) bool { return p.events[i].at > t })
	if idx < len(p.events) && p.events[idx].ramp && idx > 0 {
		prev := p.events[idx-1]
		next := p.events[idx]
		span := float64(next.at - prev.at)
		if span <= 0 {
			return next.value
		}
		frac := float64(t-prev.at) / span
		return prev.value + (next.value-prev.value)*frac
	}
	if idx == 0 {
		return p.initial
	}
	return p.events[idx-1].value
}

// EndTime returns the time of the last scheduled event, or false when the
// timeline is empty.
func (p *Param) EndTime() (Time, bool) {
	if len(p.events) == 0 {
		return 0, false
	}
	return p.events[len(p.events)-1].at, true
}

// Prune forgets events that can no longer influence values at or after t.
func (p *Param) Prune(t Time) {
	idx := sort.Search(len(p.events), func(i int) bool { return p.events[i].at > t })
	if idx <= 1 {
		return
	}
	// The last event at or before t stays as the anchor of any ramp after it.
	anchor := idx - 1
	p.initial = p.events[anchor].value
	n := copy(p.events, p.events[anchor:])
	p.events = p.events[:n]
}

func (p *Param) insert(ev paramEvent) {
	idx := sort.Search(len(p.events), func(i int) bool { return p.events[i].at > ev.at })
	p.events = append(p.events, paramEvent{})
	copy(p.events[idx+1:], p.events[idx:])
	p.events[idx] = ev
}
