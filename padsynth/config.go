package padsynth

import (
	"fmt"
	"math"
)

// LoopEndAuto selects the end of the input sample as the loop end.
const LoopEndAuto = -1

// Pitch is a tagged pitch specification: an absolute frequency or a MIDI
// note number. The zero value is not valid; use Hz or MIDI.
type Pitch struct {
	kind pitchKind
	hz   float64
	midi int
}

type pitchKind int

const (
	pitchHz pitchKind = iota
	pitchMIDI
)

// Hz specifies a pitch as an absolute frequency in cycles per second.
func Hz(freq float64) Pitch { return Pitch{kind: pitchHz, hz: freq} }

// MIDI specifies a pitch as a MIDI note number (69 = A4 = 440 Hz).
func MIDI(note int) Pitch { return Pitch{kind: pitchMIDI, midi: note} }

// Freq resolves the pitch to a frequency in Hz.
func (p Pitch) Freq() float64 {
	switch p.kind {
	case pitchHz:
		return p.hz
	case pitchMIDI:
		return MIDIToFreq(p.midi)
	default:
		panic(fmt.Sprintf("padsynth: unknown pitch kind %d", p.kind))
	}
}

// Volume is a tagged volume specification in one of three units: linear
// amplitude, power, or power-domain decibels.
type Volume struct {
	kind  volumeKind
	value float64
}

type volumeKind int

const (
	volumeAmpl volumeKind = iota
	volumePower
	volumeDb
)

// Ampl specifies a volume as a linear amplitude.
func Ampl(a float64) Volume { return Volume{kind: volumeAmpl, value: a} }

// Power specifies a volume as a power; the linear amplitude is sqrt(p).
func Power(p float64) Volume { return Volume{kind: volumePower, value: p} }

// Db specifies a volume in power-domain decibels; the linear gain is
// 10^(db/10), so -20 dB scales the amplitude by 0.01.
func Db(db float64) Volume { return Volume{kind: volumeDb, value: db} }

// Amplitude resolves the volume to a linear amplitude.
func (v Volume) Amplitude() float64 {
	switch v.kind {
	case volumeAmpl:
		return v.value
	case volumePower:
		return math.Sqrt(v.value)
	case volumeDb:
		return math.Pow(10, v.value/10)
	default:
		panic(fmt.Sprintf("padsynth: unknown volume kind %d", v.kind))
	}
}

// Duration is a tagged output-duration specification: a sample count or a
// time in milliseconds.
type Duration struct {
	kind    durationKind
	samples int
	ms      float64
}

type durationKind int

const (
	durationSamples durationKind = iota
	durationMillis
)

// Samples specifies a duration directly as a sample count.
func Samples(n int) Duration { return Duration{kind: durationSamples, samples: n} }

// Milliseconds specifies a duration as a time; the sample count is rounded.
func Milliseconds(ms float64) Duration { return Duration{kind: durationMillis, ms: ms} }

// NumSamples resolves the duration to a sample count at the given rate.
func (d Duration) NumSamples(sampleRate int) int {
	switch d.kind {
	case durationSamples:
		return d.samples
	case durationMillis:
		return int(math.Round(d.ms / 1000 * float64(sampleRate)))
	default:
		panic(fmt.Sprintf("padsynth: unknown duration kind %d", d.kind))
	}
}

// SynthMode selects the resynthesis algorithm. Only Harmonic is implemented;
// the preserve-spectrum and preserve-formants variants are declared extension
// points that fail validation with ErrNotImplemented.
type SynthMode struct {
	kind  synthModeKind
	stdev float64
	fund  Pitch
}

type synthModeKind int

const (
	modeHarmonic synthModeKind = iota
	modePreserveSpectrum
	modePreserveFormants
)

// Harmonic spreads each input harmonic over a Gaussian frequency window
// whose relative width is stdev (standard deviation / center frequency).
func Harmonic(stdev float64) SynthMode {
	return SynthMode{kind: modeHarmonic, stdev: stdev}
}

// PreserveSpectrum resamples an interpolator over the entire input spectrum
// instead of rebuilding evenly-spaced harmonics. Not implemented.
func PreserveSpectrum() SynthMode {
	return SynthMode{kind: modePreserveSpectrum}
}

// PreserveFormants respreads harmonics while keeping the input's spectral
// envelope anchored to fundPitch. Not implemented.
func PreserveFormants(stdev float64, fundPitch Pitch) SynthMode {
	return SynthMode{kind: modePreserveFormants, stdev: stdev, fund: fundPitch}
}

// HarmonicStdev reports the Gaussian spread of a Harmonic mode; ok is false
// for the other variants.
func (m SynthMode) HarmonicStdev() (stdev float64, ok bool) {
	if m.kind != modeHarmonic {
		return 0, false
	}
	return m.stdev, true
}

func (m SynthMode) String() string {
	switch m.kind {
	case modeHarmonic:
		return "harmonic"
	case modePreserveSpectrum:
		return "preserve-spectrum"
	case modePreserveFormants:
		return "preserve-formants"
	default:
		panic(fmt.Sprintf("padsynth: unknown synth mode kind %d", m.kind))
	}
}

// Config describes one full resynthesis run.
type Config struct {
	Input  Input
	Output Output
}

// Input describes the analyzed side: where the loop sits in the source
// sample, how its rate is reinterpreted, and its fundamental pitch.
type Input struct {
	// LoopBegin is the first sample of the loop.
	LoopBegin int
	// LoopEnd is exclusive; LoopEndAuto (negative) selects the end of the
	// input sample.
	LoopEnd int

	Transpose Transpose

	// Pitch is the fundamental used to split the spectrum into harmonics.
	Pitch Pitch
}

// Transpose reinterprets the source sample rate for cent-level detuning.
type Transpose struct {
	// SampleRate overrides the source WAV rate when > 0.
	SampleRate int
	// DetuneCents scales the effective rate by 2^(cents/1200).
	DetuneCents float64
}

// Output describes the synthesized side: container format, chord, volume,
// synthesis mode and the seed for the shared random stream.
type Output struct {
	SampleRate int
	Duration   Duration
	Mode       SynthMode

	MasterVolume Volume
	// RandomAmplitudes additionally randomizes envelope magnitudes; only
	// the false (random-phase-only) path is implemented.
	RandomAmplitudes bool
	Chord            []ChordNote

	Seed int64
}

// ChordNote is one entry of the output chord.
type ChordNote struct {
	Pitch  Pitch
	Volume Volume
}

// Validate rejects configurations the engine cannot run, before any
// transform work happens.
func (c *Config) Validate() error {
	if c.Input.LoopBegin < 0 {
		return fmt.Errorf("%w: loop begin %d must be >= 0", ErrInvalidConfig, c.Input.LoopBegin)
	}
	if c.Input.LoopEnd >= 0 && c.Input.LoopEnd <= c.Input.LoopBegin {
		return fmt.Errorf("%w: loop end %d must be greater than loop begin %d",
			ErrInvalidConfig, c.Input.LoopEnd, c.Input.LoopBegin)
	}
	if c.Input.Transpose.SampleRate < 0 {
		return fmt.Errorf("%w: transpose sample rate %d must be >= 0", ErrInvalidConfig, c.Input.Transpose.SampleRate)
	}
	if f := c.Input.Pitch.Freq(); !(f > 0) {
		return fmt.Errorf("%w: input pitch resolves to %g Hz, must be > 0", ErrInvalidConfig, f)
	}

	if c.Output.SampleRate <= 0 {
		return fmt.Errorf("%w: output sample rate %d must be > 0", ErrInvalidConfig, c.Output.SampleRate)
	}
	if n := c.Output.Duration.NumSamples(c.Output.SampleRate); n < 1 {
		return fmt.Errorf("%w: output duration resolves to %d samples, must be >= 1", ErrInvalidConfig, n)
	}
	switch c.Output.Mode.kind {
	case modeHarmonic:
		if c.Output.Mode.stdev <= 0 {
			return fmt.Errorf("%w: harmonic mode stdev must be greater than 0, is %g",
				ErrInvalidConfig, c.Output.Mode.stdev)
		}
	case modePreserveSpectrum, modePreserveFormants:
		return fmt.Errorf("%w: synth mode %s", ErrNotImplemented, c.Output.Mode)
	default:
		panic(fmt.Sprintf("padsynth: unknown synth mode kind %d", c.Output.Mode.kind))
	}
	if c.Output.RandomAmplitudes {
		return fmt.Errorf("%w: random_amplitudes=true", ErrNotImplemented)
	}
	if len(c.Output.Chord) == 0 {
		return fmt.Errorf("%w: chord must contain at least one note", ErrInvalidConfig)
	}
	for i, note := range c.Output.Chord {
		if f := note.Pitch.Freq(); !(f > 0) {
			return fmt.Errorf("%w: chord[%d] pitch resolves to %g Hz, must be > 0", ErrInvalidConfig, i, f)
		}
	}
	return nil
}
