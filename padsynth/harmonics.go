package padsynth

import "math"

// Harmonics extracts the amplitude of each harmonic of the note: the
// spectrum is partitioned into half-open bands [ceil((h-0.5)c), ceil((h+0.5)c))
// where c is the fundamental in cycles/period, and each band is reduced to
// its root-sum-of-squares amplitude. Entry 0 corresponds to harmonic 1; DC
// is excluded by construction. The sequence ends once a band's lower bound
// reaches the spectrum length.
func (n Note) Harmonics() []float64 {
	cycPerPeriod := n.FreqHz / n.PeriodPerS
	if !(cycPerPeriod > 0) {
		return nil
	}

	// ceil converts floating-point bin positions into half-open range
	// endpoints.
	binFor := func(h float64) int {
		return int(math.Ceil(h * cycPerPeriod))
	}

	var amps []float64
	for h := 1; ; h++ {
		bottom := binFor(float64(h) - 0.5)
		if bottom >= len(n.Spectrum) {
			break
		}
		top := binFor(float64(h) + 0.5)
		if top > len(n.Spectrum) {
			top = len(n.Spectrum)
		}
		amps = append(amps, rootSumPower(n.Spectrum[bottom:top]))
	}
	return amps
}
