package analysis

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/window"
	"github.com/cwbudde/algo-padsynth/padsynth"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Metrics contains distance measurements between a reference recording and a
// resynthesized candidate. Chord output is steady-state, so the comparison
// is purely spectral: averaged band spectra, per-harmonic amplitudes and
// overall level, with no onset alignment or decay fitting.
type Metrics struct {
	SampleRate int `json:"sample_rate"`

	ReferenceFrames int `json:"reference_frames"`
	CandidateFrames int `json:"candidate_frames"`
	AnalyzedFrames  int `json:"analyzed_frames"`

	LevelDiffDB    float64 `json:"level_diff_db"`
	SpectralRMSEDB float64 `json:"spectral_rmse_db"`
	HarmonicRMSEDB float64 `json:"harmonic_rmse_db"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

const (
	compareFrame = 1024
	compareHop   = compareFrame / 2
	minFrames    = 256
	maxHarmonics = 64
)

// Compare returns objective distance metrics and a combined score in [0,1]
// (0 = identical). fundamentalHz enables the harmonic-amplitude metric when
// positive; pass 0 when the chord root is unknown.
func Compare(reference []float64, candidate []float64, sampleRate int, fundamentalHz float64) Metrics {
	m := Metrics{
		SampleRate:      sampleRate,
		ReferenceFrames: len(reference),
		CandidateFrames: len(candidate),
	}
	if sampleRate <= 0 || len(reference) == 0 || len(candidate) == 0 {
		m.Score = 1.0
		m.Similarity = 0.0
		return m
	}

	n := len(reference)
	if len(candidate) < n {
		n = len(candidate)
	}
	if n < minFrames {
		m.Score = 1.0
		m.Similarity = 0.0
		return m
	}
	ref := reference[:n]
	cand := candidate[:n]
	m.AnalyzedFrames = n

	m.LevelDiffDB = linToDB(rms(cand)) - linToDB(rms(ref))

	frame := compareFrame
	if frame > n {
		frame = n
	}
	refSpec := meanSpectrum(ref, frame)
	candSpec := meanSpectrum(cand, frame)
	m.SpectralRMSEDB = spectrumRMSEDB(refSpec, candSpec)

	harmNorm := 0.0
	if fundamentalHz > 0 {
		m.HarmonicRMSEDB = harmonicRMSEDB(ref, cand, sampleRate, fundamentalHz)
		harmNorm = clamp01(m.HarmonicRMSEDB / 30.0)
	}

	specNorm := clamp01(m.SpectralRMSEDB / 30.0)
	levelNorm := clamp01(math.Abs(m.LevelDiffDB) / 24.0)
	if fundamentalHz > 0 {
		m.Score = clamp01(0.45*specNorm + 0.35*harmNorm + 0.20*levelNorm)
	} else {
		m.Score = clamp01(0.75*specNorm + 0.25*levelNorm)
	}
	m.Similarity = clamp01(math.Exp(-4.0 * m.Score))

	return m
}

// meanSpectrum averages Hann-windowed magnitude spectra over hopped frames.
func meanSpectrum(x []float64, frame int) []float64 {
	if frame < 2 || len(x) < frame {
		return nil
	}
	win := window.Generate(window.TypeHann, frame, window.WithPeriodic())
	fft := fourier.NewFFT(frame)

	hop := frame / 2
	if hop < 1 {
		hop = 1
	}
	buf := make([]float64, frame)
	spec := make([]complex128, frame/2+1)
	avg := make([]float64, frame/2+1)
	frames := 0
	for pos := 0; pos+frame <= len(x); pos += hop {
		for i := 0; i < frame; i++ {
			buf[i] = x[pos+i] * win[i]
		}
		spec = fft.Coefficients(spec, buf)
		for k, c := range spec {
			avg[k] += math.Hypot(real(c), imag(c))
		}
		frames++
	}
	if frames == 0 {
		return nil
	}
	scale := 1.0 / float64(frames)
	for k := range avg {
		avg[k] *= scale
	}
	return avg
}

// spectrumRMSEDB compares two averaged magnitude spectra bin-by-bin in dB,
// skipping DC.
func spectrumRMSEDB(a []float64, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < 2 {
		return 0
	}
	var sum float64
	for k := 1; k < n; k++ {
		d := linToDB(a[k]) - linToDB(b[k])
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}

// harmonicRMSEDB compares per-harmonic amplitudes of the two signals, using
// the engine's own band extractor over a whole-signal spectrum.
func harmonicRMSEDB(ref []float64, cand []float64, sampleRate int, fundamentalHz float64) float64 {
	refAmps := wholeSignalHarmonics(ref, sampleRate, fundamentalHz)
	candAmps := wholeSignalHarmonics(cand, sampleRate, fundamentalHz)
	n := len(refAmps)
	if len(candAmps) < n {
		n = len(candAmps)
	}
	if n > maxHarmonics {
		n = maxHarmonics
	}
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := linToDB(refAmps[i]) - linToDB(candAmps[i])
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

func wholeSignalHarmonics(x []float64, sampleRate int, fundamentalHz float64) []float64 {
	spec, err := padsynth.AnalyzeLoop(padsynth.Input{
		LoopBegin: 0,
		LoopEnd:   padsynth.LoopEndAuto,
	}, x, sampleRate)
	if err != nil {
		return nil
	}
	note := padsynth.Note{
		Spectrum:   spec.Bins,
		PeriodPerS: spec.PeriodPerS,
		FreqHz:     fundamentalHz,
	}
	return note.Harmonics()
}

func rms(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
