package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-keysynth/internal/wavio"
	"github.com/cwbudde/algo-keysynth/irsynth"
)

func main() {
	cfg := irsynth.DefaultRoomConfig(48000)

	output := flag.String("output", "assets/ir/room_48k.wav", "Output WAV path")
	flag.IntVar(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "Output sample rate")
	flag.Float64Var(&cfg.DurationS, "duration", cfg.DurationS, "IR length in seconds")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	flag.Float64Var(&cfg.DirectLevel, "direct", cfg.DirectLevel, "Direct impulse level (0 for wet-only)")
	flag.IntVar(&cfg.EarlyCount, "early", cfg.EarlyCount, "Number of early reflections")
	flag.Float64Var(&cfg.LateLevel, "late", cfg.LateLevel, "Diffuse late-tail level")
	flag.Float64Var(&cfg.Brightness, "brightness", cfg.Brightness, "High-band level of the tail (>0)")
	flag.Float64Var(&cfg.LowDecayS, "low-decay", cfg.LowDecayS, "Low-band decay time (s)")
	flag.Float64Var(&cfg.HighDecayS, "high-decay", cfg.HighDecayS, "High-band decay time (s)")
	flag.Float64Var(&cfg.FadeOutS, "fade", cfg.FadeOutS, "Cosine fade-out length (s)")
	flag.Float64Var(&cfg.Energy, "energy", cfg.Energy, "Target L2 norm of the IR")
	flag.Parse()

	ir, err := irsynth.GenerateRoom(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ir-synth error: %v\n", err)
		os.Exit(1)
	}

	if err := wavio.WriteMonoWAV(*output, ir, cfg.SampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "wav write error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %s\n", *output)
	fmt.Printf("SampleRate: %d Hz, Duration: %.3f s, Samples: %d\n", cfg.SampleRate, cfg.DurationS, len(ir))
	fmt.Printf("Peak: %.6f, RMS: %.6f\n", wavio.Peak(ir), wavio.RMS(ir))
}
