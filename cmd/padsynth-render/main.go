package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/cwbudde/algo-padsynth/internal/wavio"
	"github.com/cwbudde/algo-padsynth/padsynth"
	"github.com/cwbudde/algo-padsynth/preset"
)

func main() {
	wavPath := flag.String("wav", "input.wav", "Source WAV file with the looped sample")
	presetPath := flag.String("preset", "presets/default.json", "Resynthesis preset JSON path")
	output := flag.String("output", "output.wav", "Output WAV file path")
	outRate := flag.Int("out-rate", 0, "Delivery sample rate; 0 writes at the preset's output rate, anything else resamples")
	seedOverride := flag.String("seed", "", "Override the preset's random seed (integer)")
	flag.Parse()

	samples, wavRate, err := wavio.ReadWAVMono(*wavPath)
	if err != nil {
		die("Error reading WAV %q: %v", *wavPath, err)
	}

	cfg, err := preset.LoadJSON(*presetPath)
	if err != nil {
		die("Error loading preset %q: %v", *presetPath, err)
	}
	if *seedOverride != "" {
		seed, err := strconv.ParseInt(*seedOverride, 10, 64)
		if err != nil {
			die("Invalid -seed %q: %v", *seedOverride, err)
		}
		cfg.Output.Seed = seed
	}

	fmt.Printf("Resynthesizing %d samples @ %d Hz into a %d-note chord at %d Hz (seed %d)...\n",
		len(samples), wavRate, len(cfg.Output.Chord), cfg.Output.SampleRate, cfg.Output.Seed)

	out, err := padsynth.Process(cfg, samples, wavRate)
	if err != nil {
		die("Resynthesis failed: %v", err)
	}

	deliveryRate := cfg.Output.SampleRate
	if *outRate > 0 && *outRate != deliveryRate {
		out, err = wavio.ResampleIfNeeded(out, deliveryRate, *outRate)
		if err != nil {
			die("Resampling to %d Hz failed: %v", *outRate, err)
		}
		deliveryRate = *outRate
	}

	peak := 0.0
	for _, v := range out {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak > 1.0 {
		fmt.Fprintf(os.Stderr, "Warning: peak %.3f exceeds full scale, output will clip on PCM write\n", peak)
	}

	if err := wavio.WriteMonoWAV(*output, out, deliveryRate); err != nil {
		die("Error writing WAV %q: %v", *output, err)
	}

	fmt.Printf("Successfully wrote %s (%d frames @ %d Hz, peak %.3f)\n", *output, len(out), deliveryRate, peak)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
