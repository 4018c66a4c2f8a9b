package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-keysynth/analysis"
	"github.com/cwbudde/algo-keysynth/input"
	"github.com/cwbudde/algo-keysynth/internal/wavio"
	"github.com/cwbudde/algo-keysynth/preset"
	"github.com/cwbudde/algo-keysynth/synth"
)

const blockSize = 128

func main() {
	presetPath := flag.String("preset", "", "Preset JSON file path (defaults when empty)")
	events := flag.String("events", "0:a:down;1:a:up", "Event script: <sec>:<key>:down|up|repeat or <sec>:midi:<note>:on|off, separated by ';'")
	scriptPath := flag.String("script", "", "Read the event script from a file instead of -events")
	sampleRate := flag.Int("sample-rate", 48000, "Render sample rate in Hz")
	outRate := flag.Int("out-rate", 0, "Resample the output to this rate (0 keeps -sample-rate)")
	octave := flag.Int("octave", input.DefaultOctave, "Starting keyboard octave (0-7)")
	legacyRelease := flag.Bool("release-current-octave", false, "Release notes at the current octave instead of the pressed one")
	tail := flag.Float64("tail", 0, "Seconds to render after the last event (0 waits for all voices to finish)")
	maxDuration := flag.Float64("max-duration", 30, "Hard limit on rendered seconds")
	analyze := flag.Bool("analyze", false, "Print the peak frequency and level of the first second after the first event")
	irPath := flag.String("ir", "", "Room IR WAV path override (optional)")
	output := flag.String("output", "output.wav", "Output WAV file path")
	flag.Parse()

	params := synth.NewDefaultParams()
	if *presetPath != "" {
		p, err := preset.LoadJSON(*presetPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading preset %q: %v\n", *presetPath, err)
			os.Exit(1)
		}
		params = p
	}
	if *irPath != "" {
		params.RoomIRWavPath = *irPath
	}

	src := *events
	if *scriptPath != "" {
		b, err := os.ReadFile(*scriptPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading script: %v\n", err)
			os.Exit(1)
		}
		src = string(b)
	}
	script, err := parseScript(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing events: %v\n", err)
		os.Exit(1)
	}

	engine, err := synth.NewAudioEngine(*sampleRate, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating engine: %v\n", err)
		os.Exit(1)
	}
	opts := []input.Option{input.WithOctave(*octave)}
	if *legacyRelease {
		opts = append(opts, input.WithReleasePolicy(input.ReleaseAtCurrentOctave))
	}
	dispatcher, err := input.NewDispatcher(engine, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating dispatcher: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Rendering %d events at %d Hz (preset: %q, IR: %q)...\n", len(script), *sampleRate, *presetPath, params.RoomIRWavPath)

	samples := render(engine, dispatcher, script, *tail, *maxDuration)

	if *analyze && len(script) > 0 {
		start := int(script[0].At * float64(*sampleRate))
		end := min(start+*sampleRate, len(samples))
		report(samples[start:end], *sampleRate)
	}

	rate := *sampleRate
	if *outRate > 0 && *outRate != rate {
		samples, err = wavio.Resample(samples, rate, *outRate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error resampling: %v\n", err)
			os.Exit(1)
		}
		rate = *outRate
	}

	if err := wavio.WriteMonoWAV(*output, samples, rate); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully wrote %s (%d frames, %.3fs, peak %.3f)\n", *output, len(samples), float64(len(samples))/float64(rate), wavio.Peak(samples))
}

// render plays script through the dispatcher, splitting blocks so every event
// lands on its exact frame. With tail <= 0 rendering continues until no voice
// is sounding.
func render(engine *synth.AudioEngine, d *input.Dispatcher, script []scriptEvent, tail float64, maxDuration float64) []float32 {
	sr := engine.SampleRate()
	maxFrames := int(maxDuration * float64(sr))
	var out []float32

	renderTo := func(frame int) {
		frame = min(frame, maxFrames)
		for len(out) < frame {
			n := min(blockSize, frame-len(out))
			out = append(out, engine.Process(n)...)
		}
	}

	last := 0.0
	for _, ev := range script {
		renderTo(int(ev.At * float64(sr)))
		ev.apply(d)
		last = ev.At
	}

	if tail > 0 {
		renderTo(int((last + tail) * float64(sr)))
		return out
	}
	for engine.SoundingGroups() > 0 && len(out) < maxFrames {
		renderTo(len(out) + blockSize)
	}
	return out
}

func report(seg []float32, sampleRate int) {
	hz, err := analysis.PeakFrequency(toFloat64(seg), sampleRate, 20, float64(sampleRate)/2)
	if err != nil {
		fmt.Printf("Analysis: %v\n", err)
		return
	}
	fmt.Printf("Analysis: peak %.2f Hz, RMS %.4f, max step %.4f\n", hz, wavio.RMS(seg), analysis.MaxStep(seg))

	block := max(sampleRate/100, 1)
	env := analysis.BlockRMS(seg, block)
	loudest := 0
	for i, v := range env {
		if v > env[loudest] {
			loudest = i
		}
	}
	if len(env) > 0 {
		fmt.Printf("Analysis: loudest 10ms block at %.0f ms (RMS %.4f)\n", float64(loudest*block)*1000/float64(sampleRate), env[loudest])
	}
}

func toFloat64(x []float32) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = float64(v)
	}
	return out
}
