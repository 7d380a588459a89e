package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase identifies one timed part of a frame.
type Phase uint8

const (
	PhaseSpatialHash Phase = iota
	PhaseForceIntegrate
	PhaseRender
	PhaseTelemetry
	NumPhases
)

var phaseNames = [NumPhases]string{"spatial_hash", "force_integrate", "render", "telemetry"}

func (p Phase) String() string {
	if p < NumPhases {
		return phaseNames[p]
	}
	return "unknown"
}

// PhaseDurations holds one duration per phase.
type PhaseDurations [NumPhases]time.Duration

// perfSample holds timing data for a single tick.
type perfSample struct {
	tick   time.Duration
	phases PhaseDurations
}

// PerfCollector tracks frame timings over a rolling window. It never
// allocates after construction, so it can run every frame.
type PerfCollector struct {
	samples     []perfSample
	writeIndex  int
	sampleCount int

	current    PhaseDurations
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool

	lastFrameTime time.Time
	frameDuration time.Duration

	// Instantaneous FPS per drawn frame, ring buffer for the HUD graph
	fpsHistory []float64
	fpsIndex   int
	fpsCount   int

	scratch []float64
}

// NewPerfCollector creates a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		samples:    make([]perfSample, windowSize),
		fpsHistory: make([]float64, windowSize),
		scratch:    make([]float64, 0, windowSize),
	}
}

// StartTick begins timing a new tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.current = PhaseDurations{}
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = phase
	p.inPhase = true
}

// EndPhase closes the running phase without starting another.
func (p *PerfCollector) EndPhase() {
	p.closePhase(time.Now())
}

func (p *PerfCollector) closePhase(now time.Time) {
	if !p.inPhase {
		return
	}
	if p.phase < NumPhases {
		p.current[p.phase] += now.Sub(p.phaseStart)
	}
	p.inPhase = false
}

// RecordPhase adds a duration measured elsewhere to the current tick.
// The physics step times its own phases, so they arrive after the fact.
func (p *PerfCollector) RecordPhase(phase Phase, d time.Duration) {
	if phase < NumPhases {
		p.current[phase] += d
	}
}

// EndTick closes the tick and stores its sample.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)

	p.samples[p.writeIndex] = perfSample{tick: now.Sub(p.tickStart), phases: p.current}
	p.writeIndex = (p.writeIndex + 1) % len(p.samples)
	if p.sampleCount < len(p.samples) {
		p.sampleCount++
	}
}

// RecordFrame marks a presented frame for FPS measurement.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
		if p.frameDuration > 0 {
			p.fpsHistory[p.fpsIndex] = float64(time.Second) / float64(p.frameDuration)
			p.fpsIndex = (p.fpsIndex + 1) % len(p.fpsHistory)
			if p.fpsCount < len(p.fpsHistory) {
				p.fpsCount++
			}
		}
	}
	p.lastFrameTime = now
}

// FPSHistory returns the recorded per-frame FPS values, oldest first.
func (p *PerfCollector) FPSHistory() []float64 {
	out := make([]float64, 0, p.fpsCount)
	start := p.fpsIndex - p.fpsCount
	if start < 0 {
		start += len(p.fpsHistory)
	}
	for i := 0; i < p.fpsCount; i++ {
		out = append(out, p.fpsHistory[(start+i)%len(p.fpsHistory)])
	}
	return out
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	P95TickDuration time.Duration

	PhaseAvg PhaseDurations
	PhasePct [NumPhases]float64 // share of the average tick, in percent

	TicksPerSecond float64

	// Frame timing (graphics mode)
	FrameDuration time.Duration
	FPS           float64
}

// Stats aggregates the current window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{FrameDuration: p.frameDuration}
	if p.frameDuration > 0 {
		s.FPS = float64(time.Second) / float64(p.frameDuration)
	}
	if p.sampleCount == 0 {
		return s
	}

	var total time.Duration
	var phaseSum PhaseDurations
	ticks := p.scratch[:0]
	for i := 0; i < p.sampleCount; i++ {
		smp := p.samples[i]
		total += smp.tick
		if i == 0 || smp.tick < s.MinTickDuration {
			s.MinTickDuration = smp.tick
		}
		s.MaxTickDuration = max(s.MaxTickDuration, smp.tick)
		for ph, d := range smp.phases {
			phaseSum[ph] += d
		}
		ticks = append(ticks, float64(smp.tick))
	}
	sort.Float64s(ticks)
	s.P95TickDuration = time.Duration(stat.Quantile(0.95, stat.Empirical, ticks, nil))

	n := time.Duration(p.sampleCount)
	s.AvgTickDuration = total / n
	for ph, sum := range phaseSum {
		s.PhaseAvg[ph] = sum / n
		if s.AvgTickDuration > 0 {
			s.PhasePct[ph] = float64(s.PhaseAvg[ph]) / float64(s.AvgTickDuration) * 100
		}
	}
	if s.AvgTickDuration > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTickDuration)
	}
	return s
}

// LogStats logs the stats at info level.
func (s PerfStats) LogStats() {
	slog.Info("perf", "stats", s)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("p95_tick_us", s.P95TickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for ph := Phase(0); ph < NumPhases; ph++ {
		if s.PhasePct[ph] > 0.1 {
			attrs = append(attrs, slog.Float64(ph.String()+"_pct", float64(int(s.PhasePct[ph]*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat row for perf.csv.
type PerfStatsCSV struct {
	WindowEnd         int32   `csv:"window_end"`
	Particles         int     `csv:"particles"`
	AvgTickUS         int64   `csv:"avg_tick_us"`
	P95TickUS         int64   `csv:"p95_tick_us"`
	MaxTickUS         int64   `csv:"max_tick_us"`
	FPS               float64 `csv:"fps"`
	SpatialHashUS     int64   `csv:"spatial_hash_us"`
	ForceIntegrateUS  int64   `csv:"force_integrate_us"`
	RenderUS          int64   `csv:"render_us"`
	ForceIntegratePct float64 `csv:"force_integrate_pct"`
}

// ToCSV flattens the stats for a window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int32, particles int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:         windowEnd,
		Particles:         particles,
		AvgTickUS:         s.AvgTickDuration.Microseconds(),
		P95TickUS:         s.P95TickDuration.Microseconds(),
		MaxTickUS:         s.MaxTickDuration.Microseconds(),
		FPS:               s.FPS,
		SpatialHashUS:     s.PhaseAvg[PhaseSpatialHash].Microseconds(),
		ForceIntegrateUS:  s.PhaseAvg[PhaseForceIntegrate].Microseconds(),
		RenderUS:          s.PhaseAvg[PhaseRender].Microseconds(),
		ForceIntegratePct: s.PhasePct[PhaseForceIntegrate],
	}
}
