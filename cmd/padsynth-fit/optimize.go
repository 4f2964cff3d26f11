package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/cwbudde/algo-padsynth/analysis"
	"github.com/cwbudde/algo-padsynth/padsynth"
	"github.com/cwbudde/mayfly"
)

type topCandidate struct {
	Eval       int                `json:"eval"`
	Score      float64            `json:"score"`
	Similarity float64            `json:"similarity"`
	Knobs      map[string]float64 `json:"knobs"`
}

type fitConfig struct {
	samples   []float64
	wavRate   int
	reference []float64
	baseCfg   *padsynth.Config
	defs      []knobDef
	rootHz    float64

	seed        int64
	timeBudget  float64
	maxEvals    int
	reportEvery int
	topK        int

	mayflyVariant    string
	mayflyPop        int
	mayflyRoundEvals int
}

type fitResult struct {
	best        candidate
	bestMetrics analysis.Metrics
	top         []topCandidate
	evals       int
	elapsed     float64
}

func runFit(cfg *fitConfig) (*fitResult, error) {
	start := time.Now()
	deadline := start.Add(time.Duration(cfg.timeBudget * float64(time.Second)))

	best := initialCandidate(cfg.baseCfg, cfg.defs)
	bestMetrics, err := evaluateCandidate(cfg, best)
	if err != nil {
		return nil, fmt.Errorf("initial evaluation failed: %w", err)
	}
	fmt.Printf("Start score=%.4f similarity=%.2f%%\n", bestMetrics.Score, bestMetrics.Similarity*100.0)

	top := updateTopCandidates(nil, cfg.topK, 1, bestMetrics, cfg.defs, best)
	evals := 1

	for round := 1; ; round++ {
		if time.Now().After(deadline) || evals >= cfg.maxEvals {
			break
		}
		budget := cfg.maxEvals - evals
		if budget > cfg.mayflyRoundEvals {
			budget = cfg.mayflyRoundEvals
		}
		iters := budget / (2 * cfg.mayflyPop)
		if iters < 1 {
			iters = 1
		}

		mayflyConfig, err := newMayflyConfig(cfg.mayflyVariant, cfg.mayflyPop, len(cfg.defs), iters)
		if err != nil {
			return nil, fmt.Errorf("mayfly round %d setup failed: %w", round, err)
		}
		mayflyConfig.Rand = rand.New(rand.NewSource(cfg.seed + int64(round)*7919))
		mayflyConfig.ObjectiveFunc = func(pos []float64) float64 {
			if time.Now().After(deadline) || evals >= cfg.maxEvals {
				return bestMetrics.Score + 1.0
			}
			evals++
			cand := fromNormalized(pos, cfg.defs)
			metrics, err := evaluateCandidate(cfg, cand)
			if err != nil {
				return bestMetrics.Score + 0.8
			}

			top = updateTopCandidates(top, cfg.topK, evals, metrics, cfg.defs, cand)
			if metrics.Score < bestMetrics.Score {
				best = cloneCandidate(cand)
				bestMetrics = metrics
				fmt.Printf("Improved eval=%d score=%.4f sim=%.2f%%\n", evals, metrics.Score, metrics.Similarity*100.0)
			}
			if cfg.reportEvery > 0 && evals%cfg.reportEvery == 0 {
				fmt.Printf("Progress eval=%d/%d elapsed=%.1fs best=%.4f\n",
					evals, cfg.maxEvals, time.Since(start).Seconds(), bestMetrics.Score)
			}
			return metrics.Score
		}

		if _, err := runMayfly(mayflyConfig); err != nil {
			fmt.Fprintf(os.Stderr, "mayfly round %d failed: %v\n", round, err)
		}
	}

	return &fitResult{
		best:        best,
		bestMetrics: bestMetrics,
		top:         top,
		evals:       evals,
		elapsed:     time.Since(start).Seconds(),
	}, nil
}

func evaluateCandidate(cfg *fitConfig, cand candidate) (analysis.Metrics, error) {
	candCfg := applyCandidate(cfg.baseCfg, cfg.defs, cand)
	out, err := padsynth.Process(candCfg, cfg.samples, cfg.wavRate)
	if err != nil {
		return analysis.Metrics{}, err
	}
	return analysis.Compare(cfg.reference, out, candCfg.Output.SampleRate, cfg.rootHz), nil
}

func newMayflyConfig(variant string, pop int, dims int, iters int) (*mayfly.Config, error) {
	var cfg *mayfly.Config
	switch variant {
	case "ma":
		cfg = mayfly.NewDefaultConfig()
	case "desma":
		cfg = mayfly.NewDESMAConfig()
	case "olce":
		cfg = mayfly.NewOLCEConfig()
	case "eobbma":
		cfg = mayfly.NewEOBBMAConfig()
	case "gsasma":
		cfg = mayfly.NewGSASMAConfig()
	case "mpma":
		cfg = mayfly.NewMPMAConfig()
	case "aoblmoa":
		cfg = mayfly.NewAOBLMOAConfig()
	default:
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	// Mayfly's implementation assumes NC/2 parent pairs are available from both
	// male and female populations.
	cfg.NC = 2 * pop
	// Keep at least one mutation to avoid stalling on small populations.
	nm := int(math.Round(0.05 * float64(pop)))
	if nm < 1 {
		nm = 1
	}
	cfg.NM = nm
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}

func updateTopCandidates(top []topCandidate, topK int, eval int, metrics analysis.Metrics, defs []knobDef, cand candidate) []topCandidate {
	top = append(top, topCandidate{
		Eval:       eval,
		Score:      metrics.Score,
		Similarity: metrics.Similarity,
		Knobs:      knobMap(defs, cand),
	})
	sort.Slice(top, func(i, j int) bool {
		if top[i].Score == top[j].Score {
			return top[i].Eval < top[j].Eval
		}
		return top[i].Score < top[j].Score
	})
	if len(top) > topK {
		top = top[:topK]
	}
	return top
}
