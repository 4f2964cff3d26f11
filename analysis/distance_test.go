package analysis

import (
	"math"
	"testing"
)

func toneMix(n int, sampleRate int, freqs []float64, amps []float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		t := float64(i) / float64(sampleRate)
		for j, f := range freqs {
			x[i] += amps[j] * math.Sin(2*math.Pi*f*t)
		}
	}
	return x
}

func TestCompareIdenticalSignals(t *testing.T) {
	const rate = 48000
	x := toneMix(rate/2, rate, []float64{220, 440, 660}, []float64{1.0, 0.5, 0.25})

	m := Compare(x, x, rate, 220)
	if m.Score > 1e-9 {
		t.Fatalf("identical signals: score = %v, want ~0", m.Score)
	}
	if math.Abs(m.Similarity-1.0) > 1e-6 {
		t.Fatalf("identical signals: similarity = %v, want ~1", m.Similarity)
	}
	if m.LevelDiffDB != 0 {
		t.Fatalf("identical signals: level diff = %v dB, want 0", m.LevelDiffDB)
	}
	if m.AnalyzedFrames != rate/2 {
		t.Fatalf("analyzed frames = %d, want %d", m.AnalyzedFrames, rate/2)
	}
}

func TestCompareDegenerateInputs(t *testing.T) {
	x := toneMix(4096, 48000, []float64{440}, []float64{1.0})

	for _, tc := range []struct {
		name      string
		ref, cand []float64
		rate      int
	}{
		{"empty reference", nil, x, 48000},
		{"empty candidate", x, nil, 48000},
		{"zero sample rate", x, x, 0},
		{"too short overlap", x[:100], x, 48000},
	} {
		m := Compare(tc.ref, tc.cand, tc.rate, 440)
		if m.Score != 1.0 || m.Similarity != 0.0 {
			t.Fatalf("%s: score = %v similarity = %v, want 1 and 0", tc.name, m.Score, m.Similarity)
		}
	}
}

func TestCompareLevelDifference(t *testing.T) {
	const rate = 48000
	ref := toneMix(rate/2, rate, []float64{440}, []float64{1.0})
	quiet := make([]float64, len(ref))
	for i, v := range ref {
		quiet[i] = v * 0.5
	}

	m := Compare(ref, quiet, rate, 440)
	if math.Abs(m.LevelDiffDB-(-6.0206)) > 0.01 {
		t.Fatalf("level diff = %v dB, want about -6.02", m.LevelDiffDB)
	}
	if m.Score <= 0 {
		t.Fatalf("halved level: score = %v, want > 0", m.Score)
	}
}

func TestCompareRanksCloserCandidateLower(t *testing.T) {
	const rate = 48000
	ref := toneMix(rate/2, rate, []float64{220, 440, 660}, []float64{1.0, 0.5, 0.25})
	near := toneMix(rate/2, rate, []float64{220, 440, 660}, []float64{0.9, 0.55, 0.25})
	far := toneMix(rate/2, rate, []float64{233, 466}, []float64{1.0, 1.0})

	mNear := Compare(ref, near, rate, 220)
	mFar := Compare(ref, far, rate, 220)
	if mNear.Score >= mFar.Score {
		t.Fatalf("near candidate score %v not below far candidate score %v", mNear.Score, mFar.Score)
	}
}

func TestCompareWithoutFundamental(t *testing.T) {
	const rate = 48000
	x := toneMix(rate/2, rate, []float64{440}, []float64{1.0})

	m := Compare(x, x, rate, 0)
	if m.HarmonicRMSEDB != 0 {
		t.Fatalf("harmonic metric computed without fundamental: %v", m.HarmonicRMSEDB)
	}
	if m.Score > 1e-9 {
		t.Fatalf("identical signals without fundamental: score = %v, want ~0", m.Score)
	}
}
