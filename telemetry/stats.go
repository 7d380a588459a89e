package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"github.com/pthm-cable/grains/components"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartFrame int32   `csv:"-"`
	WindowEndFrame   int32   `csv:"window_end"`
	SimTimeSec       float64 `csv:"sim_time"`

	// Population at window end
	Count   int `csv:"count"`
	Default int `csv:"default"`
	Liquid  int `csv:"liquid"`
	Sand    int `csv:"sand"`
	Gas     int `csv:"gas"`
	Stone   int `csv:"stone"`

	// Kernel counters summed over the window
	Frames   int     `csv:"frames"`
	Faults   int     `csv:"faults"`
	Contacts int     `csv:"contacts"`
	Workers  float64 `csv:"workers"` // mean index ranges per frame

	// Speed distribution (sampled at window end, finite particles only)
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP10  float64 `csv:"speed_p10"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`
	SpeedMax  float64 `csv:"speed_max"`

	// Mean of v^2/2, kinetic energy per unit mass
	KineticEnergy float64 `csv:"kinetic_energy"`
}

// SpeedSummary is the distribution of particle speeds.
type SpeedSummary struct {
	Mean, Std     float64
	P10, P50, P90 float64
	Max           float64
}

// Percentile returns the p-th empirical quantile of a sorted slice.
// p is clamped to [0, 1]. Returns 0 if the slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	p = math.Max(0, math.Min(1, p))
	if p == 0 {
		return sorted[0]
	}
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// ComputeSpeedStats summarises speeds. The slice is sorted in place.
func ComputeSpeedStats(speeds []float64) SpeedSummary {
	if len(speeds) == 0 {
		return SpeedSummary{}
	}
	sort.Float64s(speeds)

	mean, std := stat.MeanStdDev(speeds, nil)
	if len(speeds) == 1 {
		std = 0
	}
	return SpeedSummary{
		Mean: mean,
		Std:  std,
		P10:  Percentile(speeds, 0.10),
		P50:  Percentile(speeds, 0.50),
		P90:  Percentile(speeds, 0.90),
		Max:  speeds[len(speeds)-1],
	}
}

// SpecificKineticEnergy returns the mean of (vx^2+vy^2)/2 over the first n
// entries.
func SpecificKineticEnergy(velX, velY []float32, n int) float64 {
	if n == 0 {
		return 0
	}
	vx := blas32.Vector{N: n, Inc: 1, Data: velX[:n]}
	vy := blas32.Vector{N: n, Inc: 1, Data: velY[:n]}
	sumSq := float64(blas32.Dot(vx, vx)) + float64(blas32.Dot(vy, vy))
	return sumSq / float64(2*n)
}

// Speeds appends the speed of every finite particle to dst.
func Speeds(dst []float64, velX, velY []float32, n int) []float64 {
	for i := 0; i < n; i++ {
		v := components.Vec2{X: velX[i], Y: velY[i]}
		if !v.IsFinite() {
			continue
		}
		dst = append(dst, float64(v.Len()))
	}
	return dst
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartFrame)),
		slog.Int("window_end", int(s.WindowEndFrame)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("count", s.Count),
		slog.Int("default", s.Default),
		slog.Int("liquid", s.Liquid),
		slog.Int("sand", s.Sand),
		slog.Int("gas", s.Gas),
		slog.Int("stone", s.Stone),
		slog.Int("faults", s.Faults),
		slog.Int("contacts", s.Contacts),
		slog.Float64("workers", s.Workers),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_std", s.SpeedStd),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("kinetic_energy", s.KineticEnergy),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndFrame,
		"sim_time", s.SimTimeSec,
		"count", s.Count,
		"faults", s.Faults,
		"contacts", s.Contacts,
		"speed_mean", s.SpeedMean,
		"speed_std", s.SpeedStd,
		"speed_p10", s.SpeedP10,
		"speed_p50", s.SpeedP50,
		"speed_p90", s.SpeedP90,
		"speed_max", s.SpeedMax,
		"kinetic_energy", s.KineticEnergy,
	)
}
