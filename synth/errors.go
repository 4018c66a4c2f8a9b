package synth

import "errors"

var (
	// ErrInvalidEnvelopeParameters is returned when an envelope is configured
	// with a non-positive or non-finite duration or gain.
	ErrInvalidEnvelopeParameters = errors.New("invalid envelope parameters")

	// ErrInvalidVoiceDesign is returned for layer configurations the engine
	// cannot build a voice group from.
	ErrInvalidVoiceDesign = errors.New("invalid voice design")

	// ErrNoteRegistered is returned by VoiceRegistry.Insert when the note
	// identity already has a voice group.
	ErrNoteRegistered = errors.New("note identity already registered")
)
