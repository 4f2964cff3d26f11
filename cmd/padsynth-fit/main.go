package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-padsynth/analysis"
	"github.com/cwbudde/algo-padsynth/internal/wavio"
	"github.com/cwbudde/algo-padsynth/padsynth"
	"github.com/cwbudde/algo-padsynth/preset"
)

type runReport struct {
	ReferencePath  string             `json:"reference_path"`
	InputWAVPath   string             `json:"input_wav_path"`
	PresetPath     string             `json:"preset_path"`
	OutputPreset   string             `json:"output_preset"`
	SampleRate     int                `json:"sample_rate"`
	DurationSec    float64            `json:"elapsed_seconds"`
	Evaluations    int                `json:"evaluations"`
	MayflyVariant  string             `json:"mayfly_variant"`
	BestScore      float64            `json:"best_score"`
	BestSimilarity float64            `json:"best_similarity"`
	BestMetrics    analysis.Metrics   `json:"best_metrics"`
	BestKnobs      map[string]float64 `json:"best_knobs"`
	TopCandidates  []topCandidate     `json:"top_candidates"`
}

func main() {
	referencePath := flag.String("reference", "", "Reference WAV to match")
	wavPath := flag.String("wav", "", "Input WAV the preset resynthesizes")
	presetPath := flag.String("preset", "", "Base preset JSON path")
	outputPreset := flag.String("output-preset", "", "Path to write best fitted preset JSON")
	reportPath := flag.String("report", "", "Optional report JSON path (default: <output-preset>.report.json)")
	seed := flag.Int64("seed", 1, "Random seed")
	timeBudget := flag.Float64("time-budget", 120.0, "Optimization time budget in seconds")
	maxEvals := flag.Int("max-evals", 2000, "Maximum objective evaluations")
	reportEvery := flag.Int("report-every", 20, "Print progress every N evaluations")
	topK := flag.Int("top-k", 5, "Number of top candidates kept in the report")

	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	mayflyRoundEvals := flag.Int("mayfly-round-evals", 240, "Target eval budget per Mayfly round")
	flag.Parse()

	if *referencePath == "" || *wavPath == "" || *presetPath == "" || *outputPreset == "" {
		die("reference, wav, preset and output-preset are required")
	}
	if *maxEvals < 1 {
		die("max-evals must be >= 1")
	}
	if *timeBudget <= 0 {
		die("time-budget must be > 0")
	}
	if *reportEvery < 1 {
		*reportEvery = 1
	}
	if *topK < 1 {
		*topK = 1
	}
	if *mayflyPop < 2 {
		*mayflyPop = 2
	}
	if *mayflyRoundEvals < *mayflyPop*2 {
		*mayflyRoundEvals = *mayflyPop * 2
	}
	if *reportPath == "" {
		*reportPath = *outputPreset + ".report.json"
	}

	presetBytes, err := os.ReadFile(*presetPath)
	if err != nil {
		die("failed to read preset: %v", err)
	}
	var presetFile preset.File
	if err := json.Unmarshal(presetBytes, &presetFile); err != nil {
		die("failed to parse preset: %v", err)
	}
	baseCfg, err := preset.Apply(&presetFile)
	if err != nil {
		die("invalid preset: %v", err)
	}
	samples, wavRate, err := wavio.ReadWAVMono(*wavPath)
	if err != nil {
		die("failed to read input wav: %v", err)
	}
	ref, refRate, err := wavio.ReadWAVMono(*referencePath)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	ref, err = wavio.ResampleIfNeeded(ref, refRate, baseCfg.Output.SampleRate)
	if err != nil {
		die("failed to resample reference: %v", err)
	}

	fitCfg := &fitConfig{
		samples:          samples,
		wavRate:          wavRate,
		reference:        ref,
		baseCfg:          baseCfg,
		defs:             knobDefs(),
		rootHz:           lowestChordFreq(baseCfg),
		seed:             *seed,
		timeBudget:       *timeBudget,
		maxEvals:         *maxEvals,
		reportEvery:      *reportEvery,
		topK:             *topK,
		mayflyVariant:    strings.ToLower(*mayflyVariant),
		mayflyPop:        *mayflyPop,
		mayflyRoundEvals: *mayflyRoundEvals,
	}

	result, err := runFit(fitCfg)
	if err != nil {
		die("fit failed: %v", err)
	}

	if err := writeFittedPreset(*outputPreset, &presetFile, fitCfg.defs, result.best); err != nil {
		die("failed to write fitted preset: %v", err)
	}
	if err := writeReport(*reportPath, fitCfg, result, reportPaths{
		reference:    *referencePath,
		inputWAV:     *wavPath,
		preset:       *presetPath,
		outputPreset: *outputPreset,
	}); err != nil {
		die("failed to write report: %v", err)
	}

	fmt.Printf("Done evals=%d elapsed=%.1fs best_score=%.4f best_similarity=%.2f%% variant=%s\n",
		result.evals, result.elapsed, result.bestMetrics.Score, result.bestMetrics.Similarity*100.0, fitCfg.mayflyVariant)
}

// lowestChordFreq returns the lowest chord fundamental, used as the reference
// pitch for harmonic comparison.
func lowestChordFreq(cfg *padsynth.Config) float64 {
	lowest := math.Inf(1)
	for _, note := range cfg.Output.Chord {
		if f := note.Pitch.Freq(); f < lowest {
			lowest = f
		}
	}
	if math.IsInf(lowest, 1) {
		return 0
	}
	return lowest
}

// writeFittedPreset writes the base preset back out with the fitted knobs
// substituted, keeping every field the optimizer did not touch.
func writeFittedPreset(path string, f *preset.File, defs []knobDef, best candidate) error {
	knobs := knobMap(defs, best)

	stdev := math.Pow(10.0, knobs["stdev_log10"])
	f.Output.Mode = &preset.ModeSpec{Harmonic: &preset.HarmonicModeSpec{Stdev: stdev}}

	detune := knobs["detune_cents"]
	if f.Input.Transpose == nil {
		f.Input.Transpose = &preset.TransposeSection{}
	}
	f.Input.Transpose.DetuneCents = &detune

	masterDb := knobs["master_db"]
	f.Output.MasterVolume = &preset.VolumeSpec{Db: &masterDb}

	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

type reportPaths struct {
	reference    string
	inputWAV     string
	preset       string
	outputPreset string
}

func writeReport(path string, cfg *fitConfig, result *fitResult, paths reportPaths) error {
	report := runReport{
		ReferencePath:  paths.reference,
		InputWAVPath:   paths.inputWAV,
		PresetPath:     paths.preset,
		OutputPreset:   paths.outputPreset,
		SampleRate:     cfg.baseCfg.Output.SampleRate,
		DurationSec:    result.elapsed,
		Evaluations:    result.evals,
		MayflyVariant:  cfg.mayflyVariant,
		BestScore:      result.bestMetrics.Score,
		BestSimilarity: result.bestMetrics.Similarity,
		BestMetrics:    result.bestMetrics,
		BestKnobs:      knobMap(cfg.defs, result.best),
		TopCandidates:  result.top,
	}
	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
