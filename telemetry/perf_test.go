package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseSpatialHash)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseForceIntegrate)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}
	if stats.PhaseAvg[PhaseSpatialHash] <= 0 {
		t.Error("expected spatial_hash phase to be tracked")
	}
	if stats.PhaseAvg[PhaseForceIntegrate] <= stats.PhaseAvg[PhaseSpatialHash] {
		t.Errorf("force_integrate %v should exceed spatial_hash %v",
			stats.PhaseAvg[PhaseForceIntegrate], stats.PhaseAvg[PhaseSpatialHash])
	}
	if stats.PhaseAvg[PhaseRender] != 0 {
		t.Errorf("render phase = %v, want 0", stats.PhaseAvg[PhaseRender])
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseSpatialHash)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration after window filled")
	}
	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
	if stats.MinTickDuration > stats.P95TickDuration || stats.P95TickDuration > stats.MaxTickDuration {
		t.Errorf("tick order violated: min %v p95 %v max %v",
			stats.MinTickDuration, stats.P95TickDuration, stats.MaxTickDuration)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	stats := NewPerfCollector(10).Stats()
	if stats.AvgTickDuration != 0 || stats.TicksPerSecond != 0 {
		t.Errorf("empty collector stats = %+v, want zero", stats)
	}
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("expected frame duration >= 15ms, got %v", stats.FrameDuration)
	}
	if stats.FPS <= 0 || stats.FPS > 70 {
		t.Errorf("FPS = %v, want in (0, 70]", stats.FPS)
	}
}

func TestPerfCollector_RecordPhase(t *testing.T) {
	pc := NewPerfCollector(4)

	for i := 0; i < 4; i++ {
		pc.StartTick()
		pc.RecordPhase(PhaseSpatialHash, 2*time.Millisecond)
		pc.RecordPhase(PhaseForceIntegrate, 6*time.Millisecond)
		pc.RecordPhase(PhaseForceIntegrate, 2*time.Millisecond)
		pc.RecordPhase(NumPhases, time.Second)
		pc.EndTick()
	}

	stats := pc.Stats()
	if got := stats.PhaseAvg[PhaseSpatialHash]; got != 2*time.Millisecond {
		t.Errorf("spatial_hash avg = %v, want 2ms", got)
	}
	if got := stats.PhaseAvg[PhaseForceIntegrate]; got != 8*time.Millisecond {
		t.Errorf("force_integrate avg = %v, want 8ms", got)
	}

	row := stats.ToCSV(100, 5000)
	if row.ForceIntegrateUS != 8000 || row.Particles != 5000 || row.WindowEnd != 100 {
		t.Errorf("unexpected CSV row: %+v", row)
	}
}

func TestPerfCollector_FPSHistory(t *testing.T) {
	pc := NewPerfCollector(3)
	if len(pc.FPSHistory()) != 0 {
		t.Fatal("expected empty history")
	}

	for i := 0; i < 6; i++ {
		pc.RecordFrame()
		time.Sleep(time.Millisecond)
	}

	hist := pc.FPSHistory()
	if len(hist) != 3 {
		t.Fatalf("history length = %d, want window size 3", len(hist))
	}
	for i, fps := range hist {
		if fps <= 0 {
			t.Errorf("history[%d] = %v, want positive", i, fps)
		}
	}
}

func TestPerfCollector_EndPhase(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.StartTick()
	pc.StartPhase(PhaseTelemetry)
	time.Sleep(50 * time.Microsecond)
	pc.EndPhase()
	// Time after EndPhase belongs to no phase
	time.Sleep(2 * time.Millisecond)
	pc.EndTick()

	stats := pc.Stats()
	tel := stats.PhaseAvg[PhaseTelemetry]
	if tel <= 0 {
		t.Fatal("expected telemetry phase to be recorded")
	}
	if tel >= stats.AvgTickDuration {
		t.Errorf("telemetry %v should be less than tick %v", tel, stats.AvgTickDuration)
	}

	// A second EndPhase is a no-op
	pc.StartTick()
	pc.EndPhase()
	pc.EndTick()
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{PhaseSpatialHash, "spatial_hash"},
		{PhaseRender, "render"},
		{NumPhases, "unknown"},
	}
	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.phase, got, tt.want)
		}
	}
}
