package main

import (
	"math"

	"github.com/cwbudde/algo-padsynth/padsynth"
)

type knobDef struct {
	Name string
	Min  float64
	Max  float64
}

type candidate struct {
	Vals []float64
}

// knobDefs lists the preset parameters the optimizer may move. The spread
// is searched in log space since useful values span several decades.
func knobDefs() []knobDef {
	return []knobDef{
		{Name: "stdev_log10", Min: -4.0, Max: -0.5},
		{Name: "detune_cents", Min: -100.0, Max: 100.0},
		{Name: "master_db", Min: -40.0, Max: 12.0},
	}
}

// initialCandidate reads the starting knob values out of the base preset.
func initialCandidate(base *padsynth.Config, defs []knobDef) candidate {
	vals := make([]float64, len(defs))
	for i, d := range defs {
		var v float64
		switch d.Name {
		case "stdev_log10":
			stdev, ok := base.Output.Mode.HarmonicStdev()
			if !ok || stdev <= 0 {
				stdev = 0.01
			}
			v = math.Log10(stdev)
		case "detune_cents":
			v = base.Input.Transpose.DetuneCents
		case "master_db":
			ampl := base.Output.MasterVolume.Amplitude()
			if ampl <= 0 {
				ampl = 1e-4
			}
			v = 10 * math.Log10(ampl)
		}
		vals[i] = clamp(v, d.Min, d.Max)
	}
	return candidate{Vals: vals}
}

// fromNormalized maps a mayfly position in [0,1]^n onto knob ranges.
func fromNormalized(pos []float64, defs []knobDef) candidate {
	vals := make([]float64, len(defs))
	for i, d := range defs {
		vals[i] = d.Min + clamp(pos[i], 0, 1)*(d.Max-d.Min)
	}
	return candidate{Vals: vals}
}

// applyCandidate produces a fresh config with the candidate's knob values
// applied over the base preset.
func applyCandidate(base *padsynth.Config, defs []knobDef, cand candidate) *padsynth.Config {
	cfg := cloneConfig(base)
	for i, d := range defs {
		v := cand.Vals[i]
		switch d.Name {
		case "stdev_log10":
			cfg.Output.Mode = padsynth.Harmonic(math.Pow(10, v))
		case "detune_cents":
			cfg.Input.Transpose.DetuneCents = v
		case "master_db":
			cfg.Output.MasterVolume = padsynth.Db(v)
		}
	}
	return cfg
}

func cloneConfig(src *padsynth.Config) *padsynth.Config {
	dst := *src
	dst.Output.Chord = append([]padsynth.ChordNote(nil), src.Output.Chord...)
	return &dst
}

func cloneCandidate(c candidate) candidate {
	vals := make([]float64, len(c.Vals))
	copy(vals, c.Vals)
	return candidate{Vals: vals}
}

func knobMap(defs []knobDef, c candidate) map[string]float64 {
	m := make(map[string]float64, len(defs))
	for i, d := range defs {
		m[d.Name] = c.Vals[i]
	}
	return m
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
