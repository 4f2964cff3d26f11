package padsynth

import (
	"math"
	"testing"
)

func TestMIDIToFreqReferencePoints(t *testing.T) {
	cases := []struct {
		midi int
		want float64
	}{
		{69, 440.0},
		{57, 220.0},
		{81, 880.0},
		{60, 261.6255653005986},
	}
	for _, tc := range cases {
		got := MIDIToFreq(tc.midi)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("MIDIToFreq(%d) = %v, want %v", tc.midi, got, tc.want)
		}
	}
}

func TestCentsToFreqRatio(t *testing.T) {
	if got := CentsToFreqRatio(0); got != 1.0 {
		t.Fatalf("CentsToFreqRatio(0) = %v, want 1", got)
	}
	if got := CentsToFreqRatio(1200); math.Abs(got-2.0) > 1e-12 {
		t.Fatalf("CentsToFreqRatio(1200) = %v, want 2", got)
	}
	if got := CentsToFreqRatio(-1200); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("CentsToFreqRatio(-1200) = %v, want 0.5", got)
	}
	// 100 cents = one semitone.
	if got := CentsToFreqRatio(100); math.Abs(got-math.Pow(2, 1.0/12.0)) > 1e-12 {
		t.Fatalf("CentsToFreqRatio(100) = %v, want 2^(1/12)", got)
	}
}

func TestVolumeAmplitudeConversions(t *testing.T) {
	if got := Ampl(0.5).Amplitude(); got != 0.5 {
		t.Fatalf("Ampl(0.5).Amplitude() = %v, want 0.5", got)
	}
	if got := Power(0.25).Amplitude(); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("Power(0.25).Amplitude() = %v, want 0.5", got)
	}
	// -20 dB power corresponds to an amplitude factor of 0.01, so Db(-20)
	// carries a hundredth of the energy of Power(1.0).
	if got := Db(-20).Amplitude(); math.Abs(got-0.01) > 1e-12 {
		t.Fatalf("Db(-20).Amplitude() = %v, want 0.01", got)
	}
	if got := Db(0).Amplitude(); math.Abs(got-1.0) > 1e-12 {
		t.Fatalf("Db(0).Amplitude() = %v, want 1", got)
	}
	if got := Power(1.0).Amplitude(); got != 1.0 {
		t.Fatalf("Power(1.0).Amplitude() = %v, want 1", got)
	}
}

func TestDurationNumSamples(t *testing.T) {
	if got := Samples(65536).NumSamples(48000); got != 65536 {
		t.Fatalf("Samples(65536).NumSamples(48000) = %d, want 65536", got)
	}
	if got := Milliseconds(1000).NumSamples(48000); got != 48000 {
		t.Fatalf("Milliseconds(1000).NumSamples(48000) = %d, want 48000", got)
	}
	// Fractional sample counts round to nearest.
	if got := Milliseconds(1.5).NumSamples(44100); got != 66 {
		t.Fatalf("Milliseconds(1.5).NumSamples(44100) = %d, want 66", got)
	}
	if got := Milliseconds(0).NumSamples(48000); got != 0 {
		t.Fatalf("Milliseconds(0).NumSamples(48000) = %d, want 0", got)
	}
}

func TestRootSumPower(t *testing.T) {
	bins := []complex128{complex(3, 0), complex(0, 4)}
	if got := rootSumPower(bins); math.Abs(got-5.0) > 1e-12 {
		t.Fatalf("rootSumPower = %v, want 5", got)
	}
	if got := rootSumPower(nil); got != 0 {
		t.Fatalf("rootSumPower(nil) = %v, want 0", got)
	}
}
