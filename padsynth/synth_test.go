package padsynth

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func testLoopSamples(n int) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Sin(2*math.Pi*float64(i)/float64(n)) +
			0.5*math.Sin(4*math.Pi*float64(i)/float64(n))
	}
	return samples
}

func testConfig() *Config {
	return &Config{
		Input: Input{
			LoopEnd: LoopEndAuto,
			Pitch:   Hz(440),
		},
		Output: Output{
			SampleRate:   48000,
			Duration:     Samples(4096),
			Mode:         Harmonic(0.01),
			MasterVolume: Ampl(1.0),
			Chord:        []ChordNote{{Pitch: Hz(440), Volume: Ampl(1.0)}},
			Seed:         1,
		},
	}
}

func TestAddHarmonicAccumulatesUnitPower(t *testing.T) {
	spectrum := make([]complex128, 2049)
	rng := rand.New(rand.NewSource(7))

	const volume = 0.35
	if !addHarmonic(spectrum, 10.0, 4400.0, 0.01, volume, rng) {
		t.Fatal("expected harmonic inside spectrum to be added")
	}
	// The envelope is normalized to unit root-sum-power before scaling.
	if got := rootSumPower(spectrum); math.Abs(got-volume) > 1e-9 {
		t.Fatalf("spectrum power = %v, want %v", got, volume)
	}
}

func TestAddHarmonicSkipsZeroSpread(t *testing.T) {
	spectrum := make([]complex128, 64)
	rng := rand.New(rand.NewSource(1))

	if addHarmonic(spectrum, 1.0, 10.0, 0, 1.0, rng) {
		t.Fatal("expected zero stdev to stop the harmonic loop")
	}
	if addHarmonic(spectrum, 1.0, 0, 0.01, 1.0, rng) {
		t.Fatal("expected zero frequency to stop the harmonic loop")
	}
	for i, b := range spectrum {
		if b != 0 {
			t.Fatalf("skipped harmonic wrote to bin %d: %v", i, b)
		}
	}
}

func TestAddHarmonicStopsBeyondNyquist(t *testing.T) {
	spectrum := make([]complex128, 64)
	rng := rand.New(rand.NewSource(1))

	// Center at bin 1000 with narrow spread: window starts past the end.
	if addHarmonic(spectrum, 1.0, 1000.0, 0.001, 1.0, rng) {
		t.Fatal("expected harmonic past the spectrum end to stop the loop")
	}
	for i, b := range spectrum {
		if b != 0 {
			t.Fatalf("out-of-range harmonic wrote to bin %d: %v", i, b)
		}
	}
}

func TestAddHarmonicWideSpreadClampsToDC(t *testing.T) {
	spectrum := make([]complex128, 64)
	rng := rand.New(rand.NewSource(3))

	// 3*stdev exceeds the center, so the window would dip below DC; the
	// deviation clamp keeps it alive and the bin range clips at zero.
	if !addHarmonic(spectrum, 1.0, 4.0, 2.0, 1.0, rng) {
		t.Fatal("expected wide-spread harmonic to be added")
	}
	if got := rootSumPower(spectrum); math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("spectrum power = %v, want 1", got)
	}
}

func TestProcessIsDeterministicPerSeed(t *testing.T) {
	samples := testLoopSamples(256)

	cfg := testConfig()
	a, err := Process(cfg, samples, 48000)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	b, err := Process(cfg, samples, 48000)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged at sample %d: %v != %v", i, a[i], b[i])
		}
	}

	cfg.Output.Seed = 2
	c, err := Process(cfg, samples, 48000)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical output")
	}
}

func TestAddNotePowerMatchesHarmonics(t *testing.T) {
	// Narrow, non-overlapping, all-below-Nyquist harmonics: the accumulated
	// spectrum power equals the sum of squared per-harmonic volumes.
	harmonics := []float64{1.0, 0.5, 0.25}
	const volume = 0.5

	spectrum := make([]complex128, 2049)
	rng := rand.New(rand.NewSource(1))
	addNote(
		Note{Spectrum: spectrum, PeriodPerS: 11.71875, FreqHz: 440},
		harmonics, 0.01, volume, rng,
	)

	var want float64
	for _, a := range harmonics {
		want += (volume * a) * (volume * a)
	}
	got := rootSumPower(spectrum)
	if math.Abs(got*got-want) > 1e-9 {
		t.Fatalf("accumulated spectrum power = %v, want %v", got*got, want)
	}
}

func TestSynthesizeOutputLengthAndRealness(t *testing.T) {
	samples := testLoopSamples(16)

	for _, nsamp := range []int{16, 17, 4096} {
		cfg := testConfig()
		cfg.Output.Duration = Samples(nsamp)
		out, err := Process(cfg, samples, 48000)
		if err != nil {
			t.Fatalf("nsamp=%d: Process failed: %v", nsamp, err)
		}
		if len(out) != nsamp {
			t.Fatalf("nsamp=%d: output length = %d", nsamp, len(out))
		}
		nonZero := false
		for _, s := range out {
			if math.IsNaN(s) || math.IsInf(s, 0) {
				t.Fatalf("nsamp=%d: non-finite output sample", nsamp)
			}
			if s != 0 {
				nonZero = true
			}
		}
		if !nonZero {
			t.Fatalf("nsamp=%d: output is all zero", nsamp)
		}
	}
}

func TestProcessRejectsInvalidConfig(t *testing.T) {
	samples := testLoopSamples(256)

	cfg := testConfig()
	cfg.Output.Mode = Harmonic(0)
	if _, err := Process(cfg, samples, 48000); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("zero stdev: expected ErrInvalidConfig, got %v", err)
	}

	cfg = testConfig()
	cfg.Input.LoopBegin = 10
	cfg.Input.LoopEnd = 10
	if _, err := Process(cfg, samples, 48000); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("empty loop: expected ErrInvalidConfig, got %v", err)
	}

	cfg = testConfig()
	cfg.Output.Chord = nil
	if _, err := Process(cfg, samples, 48000); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("empty chord: expected ErrInvalidConfig, got %v", err)
	}
}

func TestProcessRejectsUnimplementedModes(t *testing.T) {
	samples := testLoopSamples(256)

	cfg := testConfig()
	cfg.Output.Mode = PreserveSpectrum()
	if _, err := Process(cfg, samples, 48000); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("preserve_spectrum: expected ErrNotImplemented, got %v", err)
	}

	cfg = testConfig()
	cfg.Output.Mode = PreserveFormants(0.01, Hz(440))
	if _, err := Process(cfg, samples, 48000); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("preserve_formants: expected ErrNotImplemented, got %v", err)
	}

	cfg = testConfig()
	cfg.Output.RandomAmplitudes = true
	if _, err := Process(cfg, samples, 48000); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("random_amplitudes: expected ErrNotImplemented, got %v", err)
	}
}
