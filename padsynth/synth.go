package padsynth

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"

	"gonum.org/v1/gonum/dsp/fourier"
)

// maxStdev is how many standard deviations away from the center frequency a
// harmonic's Gaussian window extends.
const maxStdev = 3.0

// addHarmonic adds power to the FFT bins around one harmonic, distributing
// it over a windowed Gaussian envelope with uniformly random phase per bin.
// The envelope is normalized to unit total power and scaled by volume before
// accumulation, so overlapping harmonics sum energy.
//
// The window half-width is min(3*stdev, center) and never extends below DC.
// Loosely based on https://zynaddsubfx.sourceforge.io/doc/PADsynth/PADsynth.htm.
//
// Returns false when the harmonic cannot contribute: its spread collapses to
// zero width, or its window starts at or beyond the spectrum end. Harmonic
// frequency grows monotonically per note, so the caller stops there.
func addHarmonic(spectrum []complex128, periodPerS, freqHz, stdevRel, volume float64, rng *rand.Rand) bool {
	center := freqHz / periodPerS
	stdev := stdevRel * center

	deviation := math.Min(stdev*maxStdev, center)
	if deviation <= 0 {
		return false
	}

	minBin := int(math.Ceil(center - stdev*maxStdev))
	maxBin := int(math.Ceil(center + stdev*maxStdev))
	if minBin >= len(spectrum) {
		return false
	}
	if minBin < 0 {
		minBin = 0
	}
	if maxBin > len(spectrum) {
		maxBin = len(spectrum)
	}
	if maxBin <= minBin {
		// The ceil'd window is empty; nothing to add, but higher bands of
		// this note may still land in the spectrum.
		return true
	}

	env := make([]complex128, maxBin-minBin)
	for bin := minBin; bin < maxBin; bin++ {
		x := (float64(bin) - center) / stdev
		mag := math.Exp(-0.5 * x * x)
		phi := 2 * math.Pi * rng.Float64()
		env[bin-minBin] = complex(mag*math.Cos(phi), mag*math.Sin(phi))
	}

	sum := rootSumPower(env)
	if sum <= 0 {
		return true
	}
	scale := complex(volume/sum, 0)
	for i, a := range env {
		spectrum[minBin+i] += a * scale
	}
	return true
}

// addNote generates every harmonic of one output note and accumulates it
// into the shared output spectrum. Entry 0 of harmonics corresponds to
// harmonic 1. Iteration stops at the first harmonic past the Nyquist limit.
func addNote(out Note, harmonics []float64, stdevRel, volume float64, rng *rand.Rand) {
	for i, amp := range harmonics {
		h := float64(i + 1)
		if !addHarmonic(out.Spectrum, out.PeriodPerS, out.FreqHz*h, stdevRel, volume*amp, rng) {
			break
		}
	}
}

// Synthesize composes the configured chord into a fresh output spectrum and
// inverse-transforms it to a waveform of the configured length. The random
// stream is seeded once for the whole run, so note order determines the
// exact phases drawn.
func Synthesize(out Output, input Note) ([]float64, error) {
	nsamp := out.Duration.NumSamples(out.SampleRate)
	if nsamp < 1 {
		return nil, fmt.Errorf("%w: output duration resolves to %d samples, must be >= 1",
			ErrInvalidConfig, nsamp)
	}
	if out.RandomAmplitudes {
		return nil, fmt.Errorf("%w: random_amplitudes=true", ErrNotImplemented)
	}

	master := out.MasterVolume.Amplitude()
	rng := rand.New(rand.NewSource(out.Seed))

	spectrum := make([]complex128, nsamp/2+1)
	periodPerS := float64(out.SampleRate) / float64(nsamp)

	switch out.Mode.kind {
	case modeHarmonic:
		harmonics := input.Harmonics()
		for _, note := range out.Chord {
			addNote(
				Note{Spectrum: spectrum, PeriodPerS: periodPerS, FreqHz: note.Pitch.Freq()},
				harmonics,
				out.Mode.stdev,
				master*note.Volume.Amplitude(),
				rng,
			)
		}
	case modePreserveSpectrum, modePreserveFormants:
		return nil, fmt.Errorf("%w: synth mode %s", ErrNotImplemented, out.Mode)
	default:
		panic(fmt.Sprintf("padsynth: unknown synth mode kind %d", out.Mode.kind))
	}

	// A real-valued inverse transform of even length requires a purely real
	// Nyquist bin; keep its magnitude and the sign of its real part.
	if nsamp%2 == 0 {
		nyq := spectrum[len(spectrum)-1]
		spectrum[len(spectrum)-1] = complex(math.Copysign(cmplx.Abs(nyq), real(nyq)), 0)
	}

	// The forward transform divides by its slice length, so the inverse is
	// left unnormalized.
	fft := fourier.NewFFT(nsamp)
	return fft.Sequence(nil, spectrum), nil
}

// Process runs the whole pipeline: validate, analyze the loop, extract
// harmonics and synthesize the chord. samples is the full source sample,
// mono and normalized, not yet trimmed to the loop.
func Process(cfg *Config, samples []float64, sourceRate int) ([]float64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	spectrum, err := AnalyzeLoop(cfg.Input, samples, sourceRate)
	if err != nil {
		return nil, err
	}

	return Synthesize(cfg.Output, Note{
		Spectrum:   spectrum.Bins,
		PeriodPerS: spectrum.PeriodPerS,
		FreqHz:     cfg.Input.Pitch.Freq(),
	})
}
