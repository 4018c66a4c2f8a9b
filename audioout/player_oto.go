//go:build !headless

package audioout

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// DefaultBufferSize is the device buffer length requested from oto.
const DefaultBufferSize = 20 * time.Millisecond

// Player owns the oto context and plays one Stream.
type Player struct {
	ctx     *oto.Context
	player  *oto.Player
	stream  *Stream
	started bool
	mu      sync.Mutex
}

// NewPlayer opens the default device at the stream's sample rate. A zero
// bufferSize selects DefaultBufferSize.
func NewPlayer(stream *Stream, bufferSize time.Duration) (*Player, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   stream.SampleRate(),
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("audioout: open device: %w", err)
	}
	<-ready

	return &Player{
		ctx:    ctx,
		player: ctx.NewPlayer(stream),
		stream: stream,
	}, nil
}

// Start begins pulling frames from the stream.
func (p *Player) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started && p.player != nil {
		p.player.Play()
		p.started = true
	}
}

// Close stops playback. The oto context itself lives until process exit.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = false
	if p.player == nil {
		return nil
	}
	err := p.player.Close()
	p.player = nil
	return err
}

func (p *Player) IsStarted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}
