package synth

import (
	"fmt"

	dspconv "github.com/cwbudde/algo-dsp/dsp/conv"

	"github.com/cwbudde/algo-keysynth/dsp"
	"github.com/cwbudde/algo-keysynth/internal/wavio"
	"github.com/cwbudde/algo-keysynth/irsynth"
)

const roomPartSize = 128

// Bus is the shared mono output bus every generator mixes into. After mixing
// it applies the optional tone filter and room impulse response, then the
// output gain.
type Bus struct {
	sampleRate int
	gain       float32
	lowpass    *dsp.Biquad
	room       *roomConvolver
	roomWet    float32
	wet        []float32
}

// NewBus builds a bus from the bus section of p.
func NewBus(sampleRate int, p *Params) (*Bus, error) {
	b := &Bus{
		sampleRate: sampleRate,
		gain:       1.0,
	}
	if p == nil {
		return b, nil
	}
	if p.OutputGain > 0 {
		b.gain = p.OutputGain
	}
	if p.LowpassHz > 0 {
		b.lowpass = dsp.NewLowpass(p.LowpassHz, float32(sampleRate), 0.7071)
	}
	b.roomWet = p.RoomWet
	switch {
	case p.RoomIRWavPath != "":
		if err := b.SetRoomIRFromWAV(p.RoomIRWavPath); err != nil {
			return nil, fmt.Errorf("room ir: %w", err)
		}
	case p.RoomDecay > 0:
		if err := b.SetSyntheticRoom(p.RoomDecay, p.RoomBrightness); err != nil {
			return nil, fmt.Errorf("room ir: %w", err)
		}
	}
	return b, nil
}

// SetRoomIR installs a mono impulse response at the bus sample rate.
func (b *Bus) SetRoomIR(ir []float32) error {
	c, err := newRoomConvolver(ir, roomPartSize)
	if err != nil {
		return err
	}
	b.room = c
	return nil
}

// SetRoomIRFromWAV loads an impulse response, resampling it to the bus rate.
func (b *Bus) SetRoomIRFromWAV(path string) error {
	ir, rate, err := wavio.ReadWAVMono(path)
	if err != nil {
		return err
	}
	ir, err = wavio.Resample(ir, rate, b.sampleRate)
	if err != nil {
		return err
	}
	return b.SetRoomIR(ir)
}

// SetSyntheticRoom generates a wet-only room IR at the bus rate. The high band
// decays five times faster than decayS.
func (b *Bus) SetSyntheticRoom(decayS float64, brightness float64) error {
	cfg := irsynth.DefaultRoomConfig(b.sampleRate)
	cfg.LowDecayS = decayS
	cfg.HighDecayS = decayS / 5
	cfg.DurationS = min(decayS*1.5, 4)
	cfg.Brightness = brightness
	ir, err := irsynth.GenerateRoom(cfg)
	if err != nil {
		return err
	}
	return b.SetRoomIR(ir)
}

// SetRoomWet sets the room mix in [0,1].
func (b *Bus) SetRoomWet(wet float32) {
	b.roomWet = min(max(wet, 0), 1)
}

// Process applies the bus chain to the mixed block in place.
func (b *Bus) Process(buf []float32) {
	if b.lowpass != nil {
		b.lowpass.ProcessBuffer(buf)
	}
	if b.room != nil && b.roomWet > 0 {
		if cap(b.wet) < len(buf) {
			b.wet = make([]float32, len(buf))
		}
		wet := b.wet[:len(buf)]
		b.room.process(wet, buf)
		dry := 1 - b.roomWet
		for i := range buf {
			buf[i] = dry*buf[i] + b.roomWet*wet[i]
		}
	}
	if b.gain != 1 {
		for i := range buf {
			buf[i] *= b.gain
		}
	}
}

// Reset clears filter and convolution history.
func (b *Bus) Reset() {
	if b.lowpass != nil {
		b.lowpass.Reset()
	}
	if b.room != nil {
		b.room.reset()
	}
}

// roomConvolver streams arbitrary block sizes through a partitioned
// convolution with a fixed latency of one partition.
type roomConvolver struct {
	partSize int
	ola      *dspconv.StreamingOverlapAddT[float32, complex64]
	in       []float32
	out      []float32
	block    []float32
}

func newRoomConvolver(ir []float32, partSize int) (*roomConvolver, error) {
	if len(ir) == 0 {
		ir = []float32{1.0}
	}
	ola, err := dspconv.NewStreamingOverlapAdd32(ir, partSize)
	if err != nil {
		return nil, err
	}
	c := &roomConvolver{
		partSize: partSize,
		ola:      ola,
		block:    make([]float32, partSize),
	}
	c.reset()
	return c, nil
}

func (c *roomConvolver) process(dst []float32, src []float32) {
	c.in = append(c.in, src...)
	for len(c.in) >= c.partSize {
		if err := c.ola.ProcessBlockTo(c.block, c.in[:c.partSize]); err != nil {
			// Dry partition on backend failure.
			copy(c.block, c.in[:c.partSize])
		}
		c.out = append(c.out, c.block...)
		n := copy(c.in, c.in[c.partSize:])
		c.in = c.in[:n]
	}
	copy(dst, c.out[:len(dst)])
	n := copy(c.out, c.out[len(dst):])
	c.out = c.out[:n]
}

func (c *roomConvolver) reset() {
	c.ola.Reset()
	c.in = c.in[:0]
	c.out = append(c.out[:0], make([]float32, c.partSize)...)
}
