package padsynth

import (
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Spectrum is a one-sided complex spectrum (bin 0 = DC, n/2+1 bins for a
// real signal of length n) paired with its bin-to-frequency scale factor.
type Spectrum struct {
	Bins []complex128

	// PeriodPerS converts cycles/period (FFT bin units) to cycles/second.
	// "Period" is the number of samples fed into the FFT; period/s is an
	// unusual unit but it is the direct bridge between Hz and bin indices.
	PeriodPerS float64
}

// Note couples a spectrum with the fundamental frequency it represents. It
// is read-only for the analyzed input and additively accumulated into for
// the synthesized output.
type Note struct {
	Spectrum   []complex128
	PeriodPerS float64
	FreqHz     float64
}

// AnalyzeLoop trims samples to the configured loop window, forward-transforms
// the slice (arbitrary length, it need not be even) and normalizes every bin
// by the slice length so total spectral power is independent of loop length.
func AnalyzeLoop(in Input, samples []float64, sourceRate int) (Spectrum, error) {
	begin := in.LoopBegin
	end := in.LoopEnd
	if end < 0 {
		end = len(samples)
	}
	if begin < 0 {
		return Spectrum{}, fmt.Errorf("%w: loop begin %d must be >= 0", ErrInvalidConfig, begin)
	}
	if end <= begin {
		return Spectrum{}, fmt.Errorf("%w: loop end %d must be greater than loop begin %d",
			ErrInvalidConfig, end, begin)
	}
	if end > len(samples) {
		return Spectrum{}, fmt.Errorf("%w: loop end %d exceeds input length %d",
			ErrInvalidConfig, end, len(samples))
	}

	slice := samples[begin:end]
	n := len(slice)

	fft := fourier.NewFFT(n)
	bins := fft.Coefficients(nil, slice)
	inv := complex(1/float64(n), 0)
	for i := range bins {
		bins[i] *= inv
	}

	rate := float64(sourceRate)
	if in.Transpose.SampleRate > 0 {
		rate = float64(in.Transpose.SampleRate)
	}
	rate *= CentsToFreqRatio(in.Transpose.DetuneCents)

	return Spectrum{
		Bins:       bins,
		PeriodPerS: rate / float64(n),
	}, nil
}
