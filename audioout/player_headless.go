//go:build headless

package audioout

import "time"

const DefaultBufferSize = 20 * time.Millisecond

// Player is a no-op stand-in for machines without a sound device.
type Player struct {
	stream  *Stream
	started bool
}

func NewPlayer(stream *Stream, _ time.Duration) (*Player, error) {
	return &Player{stream: stream}, nil
}

func (p *Player) Start() {
	p.started = true
}

func (p *Player) Close() error {
	p.started = false
	return nil
}

func (p *Player) IsStarted() bool {
	return p.started
}
