// Package main measures step throughput across particle counts and kernel
// toggles.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/grains/config"
	"github.com/pthm-cable/grains/game"
	"github.com/pthm-cable/grains/systems"
	"github.com/pthm-cable/grains/telemetry"
)

var defaultCounts = []int{100, 500, 1000, 2000, 5000, 10000}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	frames := flag.Int("frames", 300, "Physics frames per configuration")
	seed := flag.Int64("seed", 1, "RNG seed")
	outputDir := flag.String("output-dir", "", "Write bench.csv to this directory")
	quick := flag.Bool("quick", false, "Only run the partitioned configurations")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg.Population.Max = max(cfg.Population.Max, defaultCounts[len(defaultCounts)-1])

	om, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output manager", "error", err)
		os.Exit(1)
	}
	defer om.Close()

	var results []telemetry.BenchResult
	for _, n := range defaultCounts {
		for _, flags := range matrix(*quick) {
			r := run(cfg, *seed, n, *frames, flags)
			results = append(results, r)
			fmt.Printf("%6d particles  grid=%-5v parallel=%-5v reduced=%-5v  %8.1f fps  %8.1f ms  faults=%d\n",
				r.Particles, r.Grid, r.Parallel, r.Reduced, r.AvgFPS, r.ElapsedMS, r.Faults)
		}
	}

	if err := om.WriteBench(results); err != nil {
		slog.Error("failed to write bench results", "error", err)
	}
}

// matrix returns the toggle combinations to measure. Reduced comparisons only
// apply to the grid path, so brute force is measured once.
func matrix(quick bool) []systems.Flags {
	var out []systems.Flags
	for _, parallel := range []bool{false, true} {
		for _, reduced := range []bool{false, true} {
			out = append(out, systems.Flags{Gravity: true, Partitioned: true, Parallel: parallel, ReducedComparisons: reduced})
		}
		if !quick {
			out = append(out, systems.Flags{Gravity: true, Parallel: parallel})
		}
	}
	return out
}

// run steps a fresh simulation for frames steps and reports wall-clock speed.
func run(cfg *config.Config, seed int64, n, frames int, flags systems.Flags) telemetry.BenchResult {
	sim := game.NewSimulation(cfg, seed)
	defer sim.Close()

	if err := sim.Reset(n); err != nil {
		slog.Error("failed to populate", "particles", n, "error", err)
	}
	sim.SetFlags(flags)

	faults := 0
	start := time.Now()
	for range frames {
		sim.Advance(cfg.Physics.DT)
		faults += sim.LastStep().Faults
	}
	elapsed := time.Since(start)

	fps := 0.0
	if elapsed > 0 {
		fps = float64(frames) / elapsed.Seconds()
	}
	return telemetry.BenchResult{
		Particles: sim.Count(),
		Parallel:  flags.Parallel,
		Reduced:   flags.ReducedComparisons,
		Grid:      flags.Partitioned,
		Frames:    frames,
		ElapsedMS: float64(elapsed.Microseconds()) / 1000,
		AvgFPS:    fps,
		Faults:    faults,
	}
}
