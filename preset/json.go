package preset

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cwbudde/algo-padsynth/padsynth"
)

// File is the JSON schema for resynthesis presets. Tagged-variant values
// (pitch, volume, duration, mode) are one-of objects: exactly one of their
// fields must be set.
type File struct {
	Input  *InputSection  `json:"input"`
	Output *OutputSection `json:"output"`
}

// InputSection describes the analyzed loop.
type InputSection struct {
	LoopBegin *int `json:"loop_begin"`
	// LoopEnd is exclusive and not included in the loop. If omitted it
	// defaults to the end of the sample.
	LoopEnd   *int              `json:"loop_end"`
	Transpose *TransposeSection `json:"transpose"`
	// Pitch is the fundamental used to split the input into harmonics.
	Pitch *PitchSpec `json:"pitch"`
}

// TransposeSection reinterprets the source sample rate.
type TransposeSection struct {
	SampleRate  *int     `json:"sample_rate"`
	DetuneCents *float64 `json:"detune_cents"`
}

// OutputSection describes the synthesized chord.
type OutputSection struct {
	SampleRate       *int          `json:"sample_rate"`
	Duration         *DurationSpec `json:"duration"`
	Mode             *ModeSpec     `json:"mode"`
	MasterVolume     *VolumeSpec   `json:"master_volume"`
	RandomAmplitudes *bool         `json:"random_amplitudes"`
	Chord            []ChordEntry  `json:"chord"`
	Seed             *int64        `json:"seed"`
}

// ChordEntry is one (pitch, volume) pair of the chord.
type ChordEntry struct {
	Pitch  *PitchSpec  `json:"pitch"`
	Volume *VolumeSpec `json:"volume"`
}

// PitchSpec is a one-of: {"hz": 440.0} or {"midi": 69}.
type PitchSpec struct {
	Hz   *float64 `json:"hz"`
	MIDI *int     `json:"midi"`
}

// VolumeSpec is a one-of: {"ampl": 1.0}, {"power": 1.0} or {"db": -6.0}.
type VolumeSpec struct {
	Ampl  *float64 `json:"ampl"`
	Power *float64 `json:"power"`
	Db    *float64 `json:"db"`
}

// DurationSpec is a one-of: {"samples": 65536} or {"time_ms": 1500.0}.
type DurationSpec struct {
	Samples *int     `json:"samples"`
	TimeMs  *float64 `json:"time_ms"`
}

// ModeSpec is a one-of selecting the synthesis algorithm. Only "harmonic"
// is implemented; the other variants are declared extension points.
type ModeSpec struct {
	Harmonic         *HarmonicModeSpec `json:"harmonic"`
	PreserveSpectrum *struct{}         `json:"preserve_spectrum"`
	PreserveFormants *FormantsModeSpec `json:"preserve_formants"`
}

// HarmonicModeSpec configures the Gaussian harmonic spread.
type HarmonicModeSpec struct {
	Stdev float64 `json:"stdev"`
}

// FormantsModeSpec configures the (unimplemented) formant-preserving mode.
type FormantsModeSpec struct {
	Stdev     float64    `json:"stdev"`
	FundPitch *PitchSpec `json:"fund_pitch"`
}

// LoadJSON loads a preset JSON file, applies it over defaults and validates
// the resulting configuration.
func LoadJSON(path string) (*padsynth.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parsing preset %q: %w", path, err)
	}
	cfg, err := Apply(&f)
	if err != nil {
		return nil, fmt.Errorf("preset %q: %w", path, err)
	}
	return cfg, nil
}

// Apply converts a parsed preset file into an engine configuration, filling
// defaults for omitted optional fields and validating the result.
func Apply(f *File) (*padsynth.Config, error) {
	if f == nil {
		return nil, fmt.Errorf("nil preset file")
	}
	if f.Input == nil {
		return nil, fmt.Errorf("missing input section")
	}
	if f.Output == nil {
		return nil, fmt.Errorf("missing output section")
	}

	cfg := &padsynth.Config{
		Input: padsynth.Input{
			LoopEnd: padsynth.LoopEndAuto,
		},
		Output: padsynth.Output{
			MasterVolume: padsynth.Ampl(1.0),
		},
	}

	in := f.Input
	if in.LoopBegin != nil {
		cfg.Input.LoopBegin = *in.LoopBegin
	}
	if in.LoopEnd != nil {
		cfg.Input.LoopEnd = *in.LoopEnd
	}
	if in.Transpose != nil {
		if in.Transpose.SampleRate != nil {
			cfg.Input.Transpose.SampleRate = *in.Transpose.SampleRate
		}
		if in.Transpose.DetuneCents != nil {
			cfg.Input.Transpose.DetuneCents = *in.Transpose.DetuneCents
		}
	}
	if in.Pitch == nil {
		return nil, fmt.Errorf("input.pitch is required")
	}
	pitch, err := resolvePitch(in.Pitch)
	if err != nil {
		return nil, fmt.Errorf("input.pitch: %w", err)
	}
	cfg.Input.Pitch = pitch

	out := f.Output
	if out.SampleRate == nil {
		return nil, fmt.Errorf("output.sample_rate is required")
	}
	cfg.Output.SampleRate = *out.SampleRate
	if out.Duration == nil {
		return nil, fmt.Errorf("output.duration is required")
	}
	duration, err := resolveDuration(out.Duration)
	if err != nil {
		return nil, fmt.Errorf("output.duration: %w", err)
	}
	cfg.Output.Duration = duration
	if out.Mode == nil {
		return nil, fmt.Errorf("output.mode is required")
	}
	mode, err := resolveMode(out.Mode)
	if err != nil {
		return nil, fmt.Errorf("output.mode: %w", err)
	}
	cfg.Output.Mode = mode
	if out.MasterVolume != nil {
		vol, err := resolveVolume(out.MasterVolume)
		if err != nil {
			return nil, fmt.Errorf("output.master_volume: %w", err)
		}
		cfg.Output.MasterVolume = vol
	}
	if out.RandomAmplitudes != nil {
		cfg.Output.RandomAmplitudes = *out.RandomAmplitudes
	}
	if len(out.Chord) == 0 {
		return nil, fmt.Errorf("output.chord must contain at least one note")
	}
	cfg.Output.Chord = make([]padsynth.ChordNote, len(out.Chord))
	for i, entry := range out.Chord {
		if entry.Pitch == nil {
			return nil, fmt.Errorf("output.chord[%d].pitch is required", i)
		}
		notePitch, err := resolvePitch(entry.Pitch)
		if err != nil {
			return nil, fmt.Errorf("output.chord[%d].pitch: %w", i, err)
		}
		volume := padsynth.Ampl(1.0)
		if entry.Volume != nil {
			volume, err = resolveVolume(entry.Volume)
			if err != nil {
				return nil, fmt.Errorf("output.chord[%d].volume: %w", i, err)
			}
		}
		cfg.Output.Chord[i] = padsynth.ChordNote{Pitch: notePitch, Volume: volume}
	}
	if out.Seed != nil {
		cfg.Output.Seed = *out.Seed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolvePitch(p *PitchSpec) (padsynth.Pitch, error) {
	switch {
	case p.Hz != nil && p.MIDI != nil:
		return padsynth.Pitch{}, fmt.Errorf("exactly one of hz or midi must be set, got both")
	case p.Hz != nil:
		return padsynth.Hz(*p.Hz), nil
	case p.MIDI != nil:
		return padsynth.MIDI(*p.MIDI), nil
	default:
		return padsynth.Pitch{}, fmt.Errorf("one of hz or midi must be set")
	}
}

func resolveVolume(v *VolumeSpec) (padsynth.Volume, error) {
	set := 0
	var vol padsynth.Volume
	if v.Ampl != nil {
		set++
		vol = padsynth.Ampl(*v.Ampl)
	}
	if v.Power != nil {
		set++
		vol = padsynth.Power(*v.Power)
	}
	if v.Db != nil {
		set++
		vol = padsynth.Db(*v.Db)
	}
	if set != 1 {
		return padsynth.Volume{}, fmt.Errorf("exactly one of ampl, power or db must be set, got %d", set)
	}
	return vol, nil
}

func resolveDuration(d *DurationSpec) (padsynth.Duration, error) {
	switch {
	case d.Samples != nil && d.TimeMs != nil:
		return padsynth.Duration{}, fmt.Errorf("exactly one of samples or time_ms must be set, got both")
	case d.Samples != nil:
		return padsynth.Samples(*d.Samples), nil
	case d.TimeMs != nil:
		return padsynth.Milliseconds(*d.TimeMs), nil
	default:
		return padsynth.Duration{}, fmt.Errorf("one of samples or time_ms must be set")
	}
}

func resolveMode(m *ModeSpec) (padsynth.SynthMode, error) {
	set := 0
	var mode padsynth.SynthMode
	if m.Harmonic != nil {
		set++
		mode = padsynth.Harmonic(m.Harmonic.Stdev)
	}
	if m.PreserveSpectrum != nil {
		set++
		mode = padsynth.PreserveSpectrum()
	}
	if m.PreserveFormants != nil {
		set++
		fund := padsynth.Hz(0)
		if m.PreserveFormants.FundPitch != nil {
			var err error
			fund, err = resolvePitch(m.PreserveFormants.FundPitch)
			if err != nil {
				return padsynth.SynthMode{}, fmt.Errorf("preserve_formants.fund_pitch: %w", err)
			}
		}
		mode = padsynth.PreserveFormants(m.PreserveFormants.Stdev, fund)
	}
	if set != 1 {
		return padsynth.SynthMode{}, fmt.Errorf("exactly one mode variant must be set, got %d", set)
	}
	return mode, nil
}
