package synth

import "fmt"

// VoiceGroup is the set of generators realising one note.
type VoiceGroup struct {
	note       NoteIdentity
	generators []*EnvelopeGenerator
	remaining  int
}

// Note returns the note identity the group was built for.
func (v *VoiceGroup) Note() NoteIdentity {
	return v.note
}

// Generators returns the group's generators in layer order.
func (v *VoiceGroup) Generators() []*EnvelopeGenerator {
	return v.generators
}

// Finished reports whether every generator has completed its release.
func (v *VoiceGroup) Finished() bool {
	return v.remaining == 0
}

// Released reports whether Stop has been called on the group.
func (v *VoiceGroup) Released() bool {
	for _, g := range v.generators {
		if g.Phase() != PhaseRelease && g.Phase() != PhaseFinished {
			return false
		}
	}
	return true
}

func (v *VoiceGroup) start(now Time) {
	for _, g := range v.generators {
		g.Start(now)
	}
}

func (v *VoiceGroup) stop(now Time) {
	for _, g := range v.generators {
		g.Stop(now)
	}
}

func (v *VoiceGroup) render(out []float32, start Time) {
	for _, g := range v.generators {
		g.Render(out, start)
	}
}

// VoiceRegistry maps note identities to their active voice group. At most one
// group is registered per identity.
type VoiceRegistry struct {
	groups map[NoteIdentity]*VoiceGroup
}

// NewVoiceRegistry creates an empty registry.
func NewVoiceRegistry() *VoiceRegistry {
	return &VoiceRegistry{groups: make(map[NoteIdentity]*VoiceGroup)}
}

// Lookup returns the group registered for id.
func (r *VoiceRegistry) Lookup(id NoteIdentity) (*VoiceGroup, bool) {
	g, ok := r.groups[id]
	return g, ok
}

// Insert registers g for id. It fails if id already has a group.
func (r *VoiceRegistry) Insert(id NoteIdentity, g *VoiceGroup) error {
	if g == nil {
		return fmt.Errorf("nil voice group for note %d", id)
	}
	if _, ok := r.groups[id]; ok {
		return fmt.Errorf("%w: %d", ErrNoteRegistered, id)
	}
	r.groups[id] = g
	return nil
}

// Replace registers g for id and returns the group it displaced, if any.
func (r *VoiceRegistry) Replace(id NoteIdentity, g *VoiceGroup) *VoiceGroup {
	prev := r.groups[id]
	if g == nil {
		delete(r.groups, id)
		return prev
	}
	r.groups[id] = g
	return prev
}

// Remove unregisters id and returns its group, if any.
func (r *VoiceRegistry) Remove(id NoteIdentity) *VoiceGroup {
	g, ok := r.groups[id]
	if !ok {
		return nil
	}
	delete(r.groups, id)
	return g
}

// Len returns the number of registered identities.
func (r *VoiceRegistry) Len() int {
	return len(r.groups)
}

// Notes returns the registered identities in no particular order.
func (r *VoiceRegistry) Notes() []NoteIdentity {
	out := make([]NoteIdentity, 0, len(r.groups))
	for id := range r.groups {
		out = append(out, id)
	}
	return out
}
