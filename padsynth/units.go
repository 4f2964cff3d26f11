package padsynth

import "math"

// CentsToFreqRatio converts a detune in cents to a linear frequency
// multiplier (100 cents per equal-tempered semitone).
func CentsToFreqRatio(cents float64) float64 {
	return math.Pow(2, cents/1200)
}

// MIDIToFreq converts a MIDI note number to its frequency in Hz
// (69 = A4 = 440 Hz).
func MIDIToFreq(midi int) float64 {
	return 440 * math.Pow(2, float64(midi-69)/12)
}

// rootSumPower computes the total power of a run of FFT bins and takes the
// square root to find the equivalent amplitude.
func rootSumPower(bins []complex128) float64 {
	var sum float64
	for _, c := range bins {
		re, im := real(c), imag(c)
		sum += re*re + im*im
	}
	return math.Sqrt(sum)
}
