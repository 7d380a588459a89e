package game

import (
	"errors"
	"image/color"
	"math"
	"testing"

	"github.com/pthm-cable/grains/components"
	"github.com/pthm-cable/grains/config"
)

func newTestSimulation(t testing.TB, mutate func(cfg *config.Config)) *Simulation {
	t.Helper()
	cfg := config.Default()
	cfg.Physics.Workers = 2
	if mutate != nil {
		mutate(cfg)
	}
	s := NewSimulation(cfg, 42)
	t.Cleanup(s.Close)
	return s
}

func TestResetPopulates(t *testing.T) {
	s := newTestSimulation(t, nil)
	if err := s.Reset(50); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if s.Count() != 50 {
		t.Fatalf("Count = %d, want 50", s.Count())
	}
	if s.Frame() != 0 {
		t.Errorf("Frame = %d after reset, want 0", s.Frame())
	}

	w, h := s.Bounds()
	maxSpeed := float32(s.Config().Population.MaxSpeed)
	mass := float32(s.Config().Population.Radius * s.Config().Population.Density)
	for i := 0; i < s.Count(); i++ {
		p := s.Position(i)
		if p.X < 0 || p.X > w || p.Y < 0 || p.Y > h {
			t.Errorf("particle %d at %v outside %vx%v", i, p, w, h)
		}
		if v := s.Velocity(i); v.Len() >= maxSpeed+1e-4 {
			t.Errorf("particle %d speed %v >= %v", i, v.Len(), maxSpeed)
		}
		if s.Kinds()[i] != components.KindDefault {
			t.Errorf("particle %d kind %v, want default", i, s.Kinds()[i])
		}
		if math.Abs(float64(s.Store().Mass[i]-mass)) > 1e-6 {
			t.Errorf("particle %d mass %v, want %v", i, s.Store().Mass[i], mass)
		}
		if s.Colors()[i].A != 255 {
			t.Errorf("particle %d colour not opaque: %v", i, s.Colors()[i])
		}
	}
}

func TestResetRejectsNegative(t *testing.T) {
	s := newTestSimulation(t, nil)
	if err := s.Reset(10); err != nil {
		t.Fatal(err)
	}

	err := s.Reset(-1)
	if !errors.Is(err, ErrInvalidCount) {
		t.Fatalf("Reset(-1) error = %v, want ErrInvalidCount", err)
	}
	if s.Count() != 10 {
		t.Errorf("Count = %d after rejected reset, want 10", s.Count())
	}
}

func TestCountsClampToMax(t *testing.T) {
	s := newTestSimulation(t, func(cfg *config.Config) { cfg.Population.Max = 100 })

	if err := s.Reset(500); err != nil {
		t.Fatal(err)
	}
	if s.Count() != 100 {
		t.Errorf("Reset(500) count = %d, want 100", s.Count())
	}
	if err := s.SetParticleCount(1000); err != nil {
		t.Fatal(err)
	}
	if s.Count() != 100 {
		t.Errorf("SetParticleCount(1000) count = %d, want 100", s.Count())
	}
}

func TestSetParticleCountKeepsExisting(t *testing.T) {
	s := newTestSimulation(t, nil)
	if err := s.Reset(20); err != nil {
		t.Fatal(err)
	}
	before := make([]components.Vec2, 10)
	for i := range before {
		before[i] = s.Position(i)
	}

	if err := s.SetParticleCount(10); err != nil {
		t.Fatal(err)
	}
	if s.Count() != 10 {
		t.Fatalf("shrink count = %d, want 10", s.Count())
	}

	if err := s.SetParticleCount(30); err != nil {
		t.Fatal(err)
	}
	if s.Count() != 30 {
		t.Fatalf("grow count = %d, want 30", s.Count())
	}
	for i, p := range before {
		if s.Position(i) != p {
			t.Errorf("particle %d moved from %v to %v", i, p, s.Position(i))
		}
	}

	if err := s.SetParticleCount(-5); !errors.Is(err, ErrInvalidCount) {
		t.Errorf("SetParticleCount(-5) error = %v, want ErrInvalidCount", err)
	}
	if s.Count() != 30 {
		t.Errorf("count changed by rejected call: %d", s.Count())
	}
}

func TestSpawnAt(t *testing.T) {
	s := newTestSimulation(t, func(cfg *config.Config) { cfg.Population.Max = 8 })
	if err := s.Reset(0); err != nil {
		t.Fatal(err)
	}

	n, err := s.SpawnAt(100, 100, 5)
	if err != nil || n != 5 {
		t.Fatalf("SpawnAt = %d, %v; want 5, nil", n, err)
	}

	pop := s.Config().Population
	for i := 0; i < s.Count(); i++ {
		d := s.Position(i).Sub(components.Vec2{X: 100, Y: 100}).Len()
		if d > float32(pop.SpawnJitter)+1e-3 {
			t.Errorf("particle %d spawned %v from target", i, d)
		}
		if v := s.Velocity(i).Len(); v > float32(pop.SpawnSpeed)+1e-3 {
			t.Errorf("particle %d spawn speed %v", i, v)
		}
		if s.Kinds()[i] != pop.SpawnKind {
			t.Errorf("particle %d kind %v, want %v", i, s.Kinds()[i], pop.SpawnKind)
		}
	}

	// Only three slots left below the maximum
	n, err = s.SpawnAt(100, 100, 5)
	if err != nil || n != 3 {
		t.Errorf("SpawnAt near max = %d, %v; want 3, nil", n, err)
	}
	n, err = s.SpawnAt(100, 100, 5)
	if err != nil || n != 0 {
		t.Errorf("SpawnAt at max = %d, %v; want 0, nil", n, err)
	}
}

func TestSpawnAtRejectsInvalid(t *testing.T) {
	s := newTestSimulation(t, nil)
	if err := s.Reset(0); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		x, y  float32
		count int
		want  error
	}{
		{"nan x", float32(math.NaN()), 10, 1, ErrInvalidPosition},
		{"inf y", 10, float32(math.Inf(-1)), 1, ErrInvalidPosition},
		{"negative count", 10, 10, -1, ErrInvalidCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := s.SpawnAt(tt.x, tt.y, tt.count)
			if !errors.Is(err, tt.want) || n != 0 {
				t.Errorf("SpawnAt = %d, %v; want 0, %v", n, err, tt.want)
			}
		})
	}
	if s.Count() != 0 {
		t.Errorf("rejected spawns added %d particles", s.Count())
	}

	// Near the wall the scatter is clamped into the world
	if _, err := s.SpawnAt(0, 0, 20); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < s.Count(); i++ {
		if p := s.Position(i); p.X < 0 || p.Y < 0 {
			t.Errorf("particle %d at %v outside the world", i, p)
		}
	}
}

func TestAdvancePaused(t *testing.T) {
	s := newTestSimulation(t, nil)
	if err := s.Reset(100); err != nil {
		t.Fatal(err)
	}
	if s.Paused() {
		t.Fatal("new simulation should be running")
	}

	s.Stop()
	xs := append([]float32(nil), s.PositionsX()...)
	s.Advance(0.016)
	if s.Frame() != 0 {
		t.Errorf("paused Advance moved frame to %d", s.Frame())
	}
	for i, x := range s.PositionsX() {
		if x != xs[i] {
			t.Fatalf("particle %d moved while paused", i)
		}
	}

	s.Start()
	s.Advance(0.016)
	if s.Frame() != 1 {
		t.Errorf("Frame = %d after running Advance, want 1", s.Frame())
	}
	if s.LastStep().Count != 100 {
		t.Errorf("LastStep().Count = %d, want 100", s.LastStep().Count)
	}
}

func TestToggles(t *testing.T) {
	s := newTestSimulation(t, nil)
	f := s.Flags()
	if !f.Gravity || !f.Partitioned || !f.Parallel || !f.ReducedComparisons {
		t.Fatalf("flags from defaults = %+v, want all on", f)
	}

	s.ToggleGravity()
	s.TogglePartitioned()
	s.ToggleParallel()
	s.ToggleReducedComparisons()
	f = s.Flags()
	if f.Gravity || f.Partitioned || f.Parallel || f.ReducedComparisons {
		t.Errorf("flags after toggling = %+v, want all off", f)
	}

	s.SetGravity(true)
	s.SetReducedComparisons(true)
	f = s.Flags()
	if !f.Gravity || f.Partitioned || f.Parallel || !f.ReducedComparisons {
		t.Errorf("flags after setters = %+v", f)
	}
}

func TestPointerTarget(t *testing.T) {
	s := newTestSimulation(t, nil)
	if _, ok := s.PointerTarget(); ok {
		t.Fatal("pointer active on a new simulation")
	}
	s.SetPointerTarget(10, 20)
	if p, ok := s.PointerTarget(); !ok || p != (components.Vec2{X: 10, Y: 20}) {
		t.Errorf("PointerTarget = %v, %v", p, ok)
	}
	s.ClearPointerTarget()
	if _, ok := s.PointerTarget(); ok {
		t.Error("pointer still active after clear")
	}
}

func TestAverageVelocity(t *testing.T) {
	s := newTestSimulation(t, nil)
	if got := s.AverageVelocity(); got != (components.Vec2{}) {
		t.Errorf("empty average = %v, want zero", got)
	}

	st := s.Store()
	st.Add(10, 10, 2, 0, 1, 1, components.KindDefault, color.RGBA{})
	st.Add(20, 20, 4, 2, 1, 1, components.KindDefault, color.RGBA{})
	st.Add(30, 30, float32(math.NaN()), 0, 1, 1, components.KindDefault, color.RGBA{})

	if got := s.AverageVelocity(); got != (components.Vec2{X: 3, Y: 1}) {
		t.Errorf("AverageVelocity = %v, want (3, 1)", got)
	}
	if got := s.AverageSpeed(); math.Abs(got-math.Sqrt(10)) > 1e-6 {
		t.Errorf("AverageSpeed = %v, want sqrt(10)", got)
	}
}

func TestSameSeedSamePopulation(t *testing.T) {
	a := newTestSimulation(t, nil)
	b := newTestSimulation(t, nil)
	if err := a.Reset(200); err != nil {
		t.Fatal(err)
	}
	if err := b.Reset(200); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 200; i++ {
		if a.Position(i) != b.Position(i) || a.Velocity(i) != b.Velocity(i) || a.Colors()[i] != b.Colors()[i] {
			t.Fatalf("particle %d differs between equal seeds", i)
		}
	}

	for range 10 {
		a.Advance(0.016)
		b.Advance(0.016)
	}
	for i := 0; i < 200; i++ {
		if a.Position(i) != b.Position(i) {
			t.Fatalf("particle %d diverged after stepping", i)
		}
	}
}

func TestResize(t *testing.T) {
	s := newTestSimulation(t, nil)
	s.Resize(100, 50)
	if w, h := s.Bounds(); w != 100 || h != 50 {
		t.Fatalf("Bounds = %v x %v, want 100 x 50", w, h)
	}
	if err := s.Reset(100); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < s.Count(); i++ {
		if p := s.Position(i); p.X > 100 || p.Y > 50 {
			t.Errorf("particle %d at %v outside resized world", i, p)
		}
	}
}

func TestRunsWithoutFaults(t *testing.T) {
	s := newTestSimulation(t, nil)
	if err := s.Reset(1000); err != nil {
		t.Fatal(err)
	}
	for range 60 {
		s.Advance(0.016)
		if s.LastStep().Faults != 0 {
			t.Fatalf("frame %d: %d faults", s.Frame(), s.LastStep().Faults)
		}
	}
	for i := 0; i < s.Count(); i++ {
		if !s.Store().Finite(i) {
			t.Fatalf("particle %d not finite after stepping", i)
		}
	}
}
