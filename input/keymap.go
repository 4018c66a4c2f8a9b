package input

// Octave-shift keys.
const (
	OctaveUpKey   = "+"
	OctaveDownKey = "-"
)

const (
	MinOctave     = 0
	MaxOctave     = 7
	DefaultOctave = 3

	// BaseOffset places the first note key of octave 0 on MIDI note 24 (C1),
	// so the first key at the default octave is middle C.
	BaseOffset = 24
)

// defaultNoteKeys is one chromatic octave laid out like a piano on a QWERTY
// keyboard: the home row holds the white keys, the row above the black keys.
var defaultNoteKeys = []string{"a", "w", "s", "e", "d", "f", "t", "g", "y", "h", "u", "j"}

// KeyMap maps raw keys to their index within the scale.
type KeyMap struct {
	index map[string]int
}

// NewKeyMap maps keys[i] to scale index i.
func NewKeyMap(keys []string) KeyMap {
	m := KeyMap{index: make(map[string]int, len(keys))}
	for i, k := range keys {
		m.index[k] = i
	}
	return m
}

// DefaultKeyMap returns the QWERTY piano layout starting at "a" = C.
func DefaultKeyMap() KeyMap {
	return NewKeyMap(defaultNoteKeys)
}

// NoteIndex returns the scale index of key.
func (m KeyMap) NoteIndex(key string) (int, bool) {
	i, ok := m.index[key]
	return i, ok
}

// Len returns the number of note keys.
func (m KeyMap) Len() int {
	return len(m.index)
}

func isOctaveKey(key string) bool {
	return key == OctaveUpKey || key == OctaveDownKey
}
