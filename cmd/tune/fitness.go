package main

import (
	"math"
	"sync"

	"github.com/pthm-cable/grains/config"
	"github.com/pthm-cable/grains/game"
	"github.com/pthm-cable/grains/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	frames      int32
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64

	mu          sync.Mutex
	lastSummary runSummary // from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, frames int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		frames:      frames,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 1.0,
	}
}

// Fitness weights and targets.
const (
	warmupWindows     = 2    // windows ignored while the initial scatter falls
	targetContacts    = 4.0  // neighbour contacts per particle in a resting pile
	contactWeight     = 0.5  // weight of the squared contact error
	faultPenalty      = 1e3  // per non-finite particle-frame
	explosionSpeedCap = 1e3  // mean speed treated as a blown-up run
)

// runSummary condenses the windows of one or more runs.
type runSummary struct {
	KineticEnergy float64 // mean over post-warmup windows
	Contacts      float64 // contacts per particle per frame
	Faults        int
	Windows       int
}

// LastSummary returns the averaged summary of the most recent evaluation.
func (fe *FitnessEvaluator) LastSummary() runSummary {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSummary
}

// Evaluate computes fitness for a parameter vector (lower = better). A good
// parameter set lets the pile come to rest without particles interpenetrating
// or the integration blowing up.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	// Run all seeds in parallel
	results := make([]runSummary, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = summarize(fe.runSimulation(cfg, s))
		}(i, seed)
	}
	wg.Wait()

	var total float64
	var avg runSummary
	for _, r := range results {
		total += computeFitness(r)
		avg.KineticEnergy += r.KineticEnergy
		avg.Contacts += r.Contacts
		avg.Faults += r.Faults
		avg.Windows += r.Windows
	}
	n := float64(len(results))
	avg.KineticEnergy /= n
	avg.Contacts /= n

	fe.mu.Lock()
	fe.lastSummary = avg
	fe.mu.Unlock()

	return total / n
}

// runSimulation runs one headless game to completion and returns its windows.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) []telemetry.WindowStats {
	var windows []telemetry.WindowStats
	g := game.NewGameWithOptions(game.Options{
		Seed:           seed,
		Headless:       true,
		StatsWindowSec: fe.statsWindow,
		Config:         cfg,
		StatsCallback: func(ws telemetry.WindowStats) {
			windows = append(windows, ws)
		},
	})
	defer g.Unload()

	for g.Frame() < fe.frames {
		g.UpdateHeadless()
	}
	return windows
}

// copyConfig returns a copy of the base config that evaluations may mutate.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// summarize averages the post-warmup windows of a run.
func summarize(windows []telemetry.WindowStats) runSummary {
	var s runSummary
	for _, w := range windows {
		s.Faults += w.Faults
	}
	if len(windows) <= warmupWindows {
		return s
	}

	var contacts, particleFrames float64
	for _, w := range windows[warmupWindows:] {
		ke := w.KineticEnergy
		if math.IsNaN(ke) || w.SpeedMean > explosionSpeedCap {
			ke = explosionSpeedCap * explosionSpeedCap
		}
		s.KineticEnergy += ke
		contacts += float64(w.Contacts)
		particleFrames += float64(w.Count * w.Frames)
		s.Windows++
	}
	s.KineticEnergy /= float64(s.Windows)
	if particleFrames > 0 {
		s.Contacts = contacts / particleFrames
	}
	return s
}

// computeFitness calculates the scalar fitness (lower = better).
func computeFitness(s runSummary) float64 {
	if s.Windows == 0 {
		return faultPenalty * faultPenalty
	}
	d := s.Contacts - targetContacts
	return s.KineticEnergy + contactWeight*d*d + faultPenalty*float64(s.Faults)
}
