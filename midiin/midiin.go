// Package midiin connects to a hardware MIDI input and forwards its messages.
package midiin

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// ErrNoInputDeviceAvailable is returned when no usable MIDI input is found.
var ErrNoInputDeviceAvailable = errors.New("midiin: no input device available")

// DefaultExcluded lists virtual and system ports that are never auto-selected.
var DefaultExcluded = []string{"Midi Through", "Through Port", "Dummy"}

// Driver lists MIDI inputs. *rtmididrv.Driver implements it.
type Driver interface {
	Ins() ([]drivers.In, error)
}

// Config selects which input to open.
type Config struct {
	// Preferred patterns are tried in order (case-insensitive substring).
	// Without a match the first remaining input is used.
	Preferred []string
	// Excluded patterns are never opened. Nil means DefaultExcluded.
	Excluded []string
	Logger   *slog.Logger
}

// Input is an open MIDI input port.
type Input struct {
	mu     sync.Mutex
	port   drivers.In
	stop   func()
	name   string
	logger *slog.Logger
}

// Open picks an input from drv, opens it and calls onMessage for every
// incoming message from the driver's goroutine. onLost, when non-nil, runs
// once if the listener reports an error; callers use it to release notes.
func Open(drv Driver, cfg Config, onMessage func(midi.Message), onLost func(error)) (*Input, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	excluded := cfg.Excluded
	if excluded == nil {
		excluded = DefaultExcluded
	}

	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("midiin: list inputs: %w", err)
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	idx, ok := pickInput(names, cfg.Preferred, excluded)
	if !ok {
		return nil, fmt.Errorf("%w (%d ports, none usable)", ErrNoInputDeviceAvailable, len(ins))
	}
	port := ins[idx]
	name := names[idx]

	if err := port.Open(); err != nil {
		return nil, fmt.Errorf("midiin: open %q: %w", name, err)
	}

	in := &Input{port: port, name: name, logger: logger}
	var lostOnce sync.Once
	stop, err := midi.ListenTo(port, func(msg midi.Message, _ int32) {
		onMessage(msg)
	}, midi.HandleError(func(listenErr error) {
		logger.Warn("midiin: listener error", "device", name, "err", listenErr)
		if onLost != nil {
			lostOnce.Do(func() { go onLost(listenErr) })
		}
	}))
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("midiin: listen %q: %w", name, err)
	}
	in.stop = stop
	logger.Info("midiin: connected", "device", name)
	return in, nil
}

// Name returns the port name.
func (in *Input) Name() string {
	return in.name
}

// Close stops listening and closes the port. It is safe to call twice.
func (in *Input) Close() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.stop != nil {
		in.stop()
		in.stop = nil
	}
	if in.port == nil {
		return nil
	}
	err := in.port.Close()
	in.port = nil
	in.logger.Info("midiin: closed", "device", in.name)
	return err
}

func pickInput(names, preferred, excluded []string) (int, bool) {
	usable := make([]int, 0, len(names))
	for i, name := range names {
		if !matchesAny(name, excluded) {
			usable = append(usable, i)
		}
	}
	for _, pat := range preferred {
		for _, i := range usable {
			if containsCI(names[i], pat) {
				return i, true
			}
		}
	}
	if len(usable) == 0 {
		return 0, false
	}
	return usable[0], true
}

func matchesAny(name string, patterns []string) bool {
	for _, pat := range patterns {
		if containsCI(name, pat) {
			return true
		}
	}
	return false
}

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
