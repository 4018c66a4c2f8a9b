package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/denizsincar29/goerror"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"golang.org/x/term"

	"github.com/cwbudde/algo-keysynth/audioout"
	"github.com/cwbudde/algo-keysynth/input"
	"github.com/cwbudde/algo-keysynth/midiin"
	"github.com/cwbudde/algo-keysynth/preset"
	"github.com/cwbudde/algo-keysynth/synth"
)

const (
	keyCtrlC = 0x03
	keyCtrlD = 0x04
	keyPanic = ' '
)

func main() {
	presetPath := flag.String("preset", "", "Preset JSON file path (defaults when empty)")
	sampleRate := flag.Int("sample-rate", 48000, "Output sample rate in Hz")
	bufferMS := flag.Int("buffer-ms", 20, "Device buffer length in milliseconds")
	hold := flag.Duration("key-hold", 600*time.Millisecond, "Release a terminal key after this long without a repeat")
	octave := flag.Int("octave", input.DefaultOctave, "Starting keyboard octave (0-7)")
	noMIDI := flag.Bool("no-midi", false, "Do not open a MIDI input")
	midiPrefer := flag.String("midi-prefer", "", "Comma-separated MIDI port name patterns to prefer")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logger := newLogger(*debug)
	e := goerror.NewError(logger)

	params := synth.NewDefaultParams()
	if *presetPath != "" {
		p, err := preset.LoadJSON(*presetPath)
		e.Must(err, "Failed to load preset")
		params = p
	}

	engine, err := synth.NewAudioEngine(*sampleRate, params, synth.WithLogger(logger))
	e.Must(err, "Failed to create audio engine")
	stream := audioout.NewStream(engine)

	player, err := audioout.NewPlayer(stream, time.Duration(*bufferMS)*time.Millisecond)
	e.Must(err, "Failed to open audio device")
	defer player.Close()
	player.Start()

	dispatcher, err := input.NewDispatcher(stream, input.WithOctave(*octave), input.WithLogger(logger))
	e.Must(err, "Failed to create input dispatcher")

	midiCh := make(chan midi.Message, 64)
	lostCh := make(chan error, 1)
	if !*noMIDI {
		if in, closeDrv := openMIDI(logger, splitPatterns(*midiPrefer), midiCh, lostCh); in != nil {
			defer closeDrv()
			defer in.Close()
		}
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	e.Must(err, "Failed to set raw terminal mode")
	defer term.Restore(fd, oldState)

	fmt.Print("keys a w s e d f t g y h u j play, + and - shift octave, space silences, ctrl-c quits\r\n")

	keyCh := make(chan byte, 64)
	go readKeys(os.Stdin, keyCh)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	keys := input.DefaultKeyMap()
	gate := newKeyGate(*hold, func(k string) bool {
		_, ok := keys.NoteIndex(k)
		return ok
	})
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case b, ok := <-keyCh:
			if !ok || b == keyCtrlC || b == keyCtrlD {
				dispatcher.ReleaseAll()
				return
			}
			if b == keyPanic {
				gate.releaseAll()
				dispatcher.ReleaseAll()
				stream.AllNotesOff()
				continue
			}
			before := dispatcher.Octave()
			dispatcher.HandleKey(gate.press(string(b), time.Now()))
			if after := dispatcher.Octave(); after != before {
				fmt.Printf("octave %d\r\n", after)
			}
		case msg := <-midiCh:
			dispatcher.HandleMessage(msg)
		case err := <-lostCh:
			logger.Warn("midi input lost, keyboard only", "err", err)
			stream.AllNotesOff()
		case now := <-ticker.C:
			for _, ev := range gate.expire(now) {
				dispatcher.HandleKey(ev)
			}
		case <-sigCh:
			dispatcher.ReleaseAll()
			return
		}
	}
}

// newLogger writes text logs to stderr. Raw terminal mode needs explicit
// carriage returns.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(crlfWriter{os.Stderr}, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// openMIDI connects the first usable MIDI input. Failure is logged and the
// player continues with the keyboard only.
func openMIDI(logger *slog.Logger, preferred []string, msgs chan<- midi.Message, lost chan<- error) (*midiin.Input, func()) {
	drv, err := rtmididrv.New()
	if err != nil {
		logger.Warn("midi unavailable, keyboard only", "err", err)
		return nil, nil
	}
	in, err := midiin.Open(drv, midiin.Config{Preferred: preferred, Logger: logger},
		func(msg midi.Message) {
			select {
			case msgs <- msg:
			default:
				logger.Warn("midi queue full, message dropped")
			}
		},
		func(err error) {
			select {
			case lost <- err:
			default:
			}
		})
	if err != nil {
		logger.Warn("midi unavailable, keyboard only", "err", err)
		drv.Close()
		return nil, nil
	}
	return in, func() { drv.Close() }
}

func readKeys(r io.Reader, out chan<- byte) {
	defer close(out)
	buf := make([]byte, 16)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			out <- b
		}
		if err != nil {
			return
		}
	}
}

func splitPatterns(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write([]byte(strings.ReplaceAll(string(p), "\n", "\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
