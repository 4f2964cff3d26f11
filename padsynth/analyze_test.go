package padsynth

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"gonum.org/v1/gonum/dsp/fourier"
)

func TestAnalyzeLoopRejectsBadWindows(t *testing.T) {
	samples := make([]float64, 100)

	cases := []struct {
		name  string
		input Input
	}{
		{"negative begin", Input{LoopBegin: -1, LoopEnd: 10}},
		{"end equals begin", Input{LoopBegin: 10, LoopEnd: 10}},
		{"end before begin", Input{LoopBegin: 20, LoopEnd: 10}},
		{"end past input", Input{LoopBegin: 0, LoopEnd: 101}},
		{"auto end with begin past input", Input{LoopBegin: 100, LoopEnd: LoopEndAuto}},
	}
	for _, tc := range cases {
		_, err := AnalyzeLoop(tc.input, samples, 48000)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", tc.name, err)
		}
	}
}

func TestAnalyzeLoopAutoEndUsesFullInput(t *testing.T) {
	samples := make([]float64, 77)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * float64(i) / 7)
	}

	spec, err := AnalyzeLoop(Input{LoopEnd: LoopEndAuto}, samples, 44100)
	if err != nil {
		t.Fatalf("AnalyzeLoop failed: %v", err)
	}
	if got, want := len(spec.Bins), 77/2+1; got != want {
		t.Fatalf("bin count = %d, want %d", got, want)
	}
	if got, want := spec.PeriodPerS, 44100.0/77.0; math.Abs(got-want) > 1e-9 {
		t.Fatalf("PeriodPerS = %v, want %v", got, want)
	}
}

// A pure cosine at a whole number of cycles must land in exactly one bin with
// amplitude A/2 after the 1/N normalization, regardless of the slice length.
func TestAnalyzeLoopNormalizationIsLengthIndependent(t *testing.T) {
	const amp = 0.8
	for _, n := range []int{64, 100, 77, 1024} {
		samples := make([]float64, n)
		cycles := 5
		for i := range samples {
			samples[i] = amp * math.Cos(2*math.Pi*float64(cycles)*float64(i)/float64(n))
		}

		spec, err := AnalyzeLoop(Input{LoopEnd: LoopEndAuto}, samples, 48000)
		if err != nil {
			t.Fatalf("n=%d: AnalyzeLoop failed: %v", n, err)
		}
		got := cmplx.Abs(spec.Bins[cycles])
		if math.Abs(got-amp/2) > 1e-9 {
			t.Fatalf("n=%d: bin %d amplitude = %v, want %v", n, cycles, got, amp/2)
		}
	}
}

func TestAnalyzeLoopTransposeOverridesRate(t *testing.T) {
	samples := make([]float64, 128)

	spec, err := AnalyzeLoop(Input{
		LoopEnd:   LoopEndAuto,
		Transpose: Transpose{SampleRate: 96000},
	}, samples, 48000)
	if err != nil {
		t.Fatalf("AnalyzeLoop failed: %v", err)
	}
	if got, want := spec.PeriodPerS, 96000.0/128.0; math.Abs(got-want) > 1e-9 {
		t.Fatalf("PeriodPerS = %v, want %v", got, want)
	}

	spec, err = AnalyzeLoop(Input{
		LoopEnd:   LoopEndAuto,
		Transpose: Transpose{DetuneCents: 1200},
	}, samples, 48000)
	if err != nil {
		t.Fatalf("AnalyzeLoop failed: %v", err)
	}
	if got, want := spec.PeriodPerS, 2*48000.0/128.0; math.Abs(got-want) > 1e-9 {
		t.Fatalf("detuned PeriodPerS = %v, want %v", got, want)
	}
}

// The forward transform carries the 1/N normalization, so the unnormalized
// inverse must reproduce the input exactly.
func TestAnalyzeLoopRoundTrip(t *testing.T) {
	const n = 73
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Sin(0.37*float64(i)) + 0.25*math.Cos(1.9*float64(i))
	}

	spec, err := AnalyzeLoop(Input{LoopEnd: LoopEndAuto}, samples, 48000)
	if err != nil {
		t.Fatalf("AnalyzeLoop failed: %v", err)
	}

	back := fourier.NewFFT(n).Sequence(nil, spec.Bins)
	if len(back) != n {
		t.Fatalf("inverse length = %d, want %d", len(back), n)
	}
	for i := range back {
		if math.Abs(back[i]-samples[i]) > 1e-9 {
			t.Fatalf("round trip mismatch at %d: got %v, want %v", i, back[i], samples[i])
		}
	}
}
