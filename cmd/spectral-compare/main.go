package main

import (
	"flag"
	"fmt"
	"math"
	"math/cmplx"
	"os"

	"github.com/cwbudde/algo-dsp/dsp/window"
	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-padsynth/internal/wavio"
)

const (
	fftSize = 4096
	hopSize = 2048
)

func main() {
	refPath := flag.String("reference", "reference/chord.wav", "Reference WAV")
	candPath := flag.String("candidate", "output.wav", "Resynthesized WAV to compare")
	f0 := flag.Float64("f0", 0, "Chord root frequency in Hz; enables the harmonic peak table when > 0")
	maxHarms := flag.Int("harmonics", 16, "Harmonic rows to print when -f0 is set")
	flag.Parse()

	ref, refRate, err := wavio.ReadWAVMono(*refPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ref: %v\n", err)
		os.Exit(1)
	}
	cand, candRate, err := wavio.ReadWAVMono(*candPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cand: %v\n", err)
		os.Exit(1)
	}
	if refRate != candRate {
		fmt.Fprintf(os.Stderr, "sample rate mismatch: ref=%d cand=%d\n", refRate, candRate)
		os.Exit(1)
	}
	sr := refRate

	fmt.Printf("Reference: %d frames @ %d Hz (%.2fs)\n", len(ref), sr, float64(len(ref))/float64(sr))
	fmt.Printf("Candidate: %d frames @ %d Hz (%.2fs)\n\n", len(cand), sr, float64(len(cand))/float64(sr))

	plan, err := algofft.NewPlanReal64(fftSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fft plan: %v\n", err)
		os.Exit(1)
	}
	hann := window.Generate(window.TypeHann, fftSize, window.WithPeriodic())
	forward := func(dst []complex128, src []float64) {
		plan.Forward(dst, src)
	}

	avgRef := averageSpectrum(forward, hann, ref)
	avgCand := averageSpectrum(forward, hann, cand)
	if avgRef == nil || avgCand == nil {
		fmt.Fprintf(os.Stderr, "inputs shorter than one %d-sample analysis frame\n", fftSize)
		os.Exit(1)
	}

	type band struct {
		name string
		loHz float64
		hiHz float64
	}
	bands := []band{
		{"sub-bass (20-100Hz)", 20, 100},
		{"bass (100-300Hz)", 100, 300},
		{"low-mid (300-1kHz)", 300, 1000},
		{"mid (1-3kHz)", 1000, 3000},
		{"hi-mid (3-6kHz)", 3000, 6000},
		{"high (6-12kHz)", 6000, 12000},
		{"air (12-20kHz)", 12000, 20000},
	}

	binHz := float64(sr) / float64(fftSize)
	nBins := fftSize / 2

	fmt.Println("--- band levels ---")
	for _, b := range bands {
		loK := int(b.loHz / binHz)
		hiK := int(b.hiHz / binHz)
		if loK < 1 {
			loK = 1
		}
		if hiK >= nBins {
			hiK = nBins - 1
		}
		if loK > hiK {
			continue
		}

		var sumSq, refPow, candPow float64
		cnt := 0
		for k := loK; k <= hiK; k++ {
			d := linToDB(avgRef[k]) - linToDB(avgCand[k])
			sumSq += d * d
			refPow += avgRef[k] * avgRef[k]
			candPow += avgCand[k] * avgCand[k]
			cnt++
		}
		rmseDB := math.Sqrt(sumSq / float64(cnt))
		refDB := 10 * math.Log10(math.Max(refPow/float64(cnt), 1e-24))
		candDB := 10 * math.Log10(math.Max(candPow/float64(cnt), 1e-24))
		marker := ""
		if rmseDB > 15 {
			marker = " <<<"
		}
		if rmseDB > 25 {
			marker = " <<< !!!"
		}
		fmt.Printf("  %-22s RMSE=%5.1fdB  ref=%6.1fdB  cand=%6.1fdB  diff=%+5.1fdB%s\n",
			b.name, rmseDB, refDB, candDB, candDB-refDB, marker)
	}

	if *f0 > 0 {
		fmt.Printf("\n--- harmonic peaks (f0 = %.2f Hz) ---\n", *f0)
		for h := 1; h <= *maxHarms; h++ {
			target := *f0 * float64(h)
			center := target / binHz
			if int(center)+1 >= nBins {
				break
			}
			refPk, refBin := peakNear(avgRef, center, nBins)
			candPk, candBin := peakNear(avgCand, center, nBins)
			fmt.Printf("  h%-3d %8.1fHz  ref=%6.1fdB@%4d  cand=%6.1fdB@%4d  diff=%+5.1fdB\n",
				h, target, linToDB(refPk), refBin, linToDB(candPk), candBin,
				linToDB(candPk)-linToDB(refPk))
		}
	}
}

// averageSpectrum returns the Hann-windowed magnitude spectrum averaged over
// hopped frames, or nil when the signal is shorter than one frame.
func averageSpectrum(forward func(dst []complex128, src []float64), hann []float64, x []float64) []float64 {
	if len(x) < fftSize {
		return nil
	}
	buf := make([]float64, fftSize)
	spec := make([]complex128, fftSize/2+1)
	avg := make([]float64, fftSize/2+1)
	frames := 0
	for pos := 0; pos+fftSize <= len(x); pos += hopSize {
		for i := 0; i < fftSize; i++ {
			buf[i] = x[pos+i] * hann[i]
		}
		forward(spec, buf)
		for k := range spec {
			avg[k] += cmplx.Abs(spec[k])
		}
		frames++
	}
	scale := 1.0 / float64(frames)
	for k := range avg {
		avg[k] *= scale
	}
	return avg
}

// peakNear finds the largest magnitude within one bin-rounding of center.
func peakNear(spec []float64, center float64, nBins int) (float64, int) {
	lo := int(math.Floor(center)) - 1
	hi := int(math.Ceil(center)) + 1
	if lo < 1 {
		lo = 1
	}
	if hi >= nBins {
		hi = nBins - 1
	}
	best := 0.0
	bestBin := lo
	for k := lo; k <= hi; k++ {
		if spec[k] > best {
			best = spec[k]
			bestBin = k
		}
	}
	return best, bestBin
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}
