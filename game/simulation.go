package game

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/pthm-cable/grains/components"
	"github.com/pthm-cable/grains/config"
	"github.com/pthm-cable/grains/systems"
)

var (
	// ErrInvalidCount is returned for negative particle counts.
	ErrInvalidCount = errors.New("invalid particle count")
	// ErrInvalidPosition is returned for non-finite spawn positions.
	ErrInvalidPosition = errors.New("invalid spawn position")
)

// Simulation owns the particle store and the physics step and is the surface
// drivers and renderers talk to. It is not safe for concurrent use.
type Simulation struct {
	cfg     *config.Config
	store   *systems.ParticleStore
	step    *systems.PhysicsStep
	factory *Factory

	maxCount int
	paused   bool
	frame    int32
	last     systems.StepStats
}

// NewSimulation creates an empty, running simulation. Call Reset to populate it.
func NewSimulation(cfg *config.Config, seed int64) *Simulation {
	hash := systems.NewSpatialHash(cfg.Derived.WorldW32, cfg.Derived.WorldH32, cfg.Derived.CellSize32)
	step := systems.NewPhysicsStep(hash, systems.ForceFieldFromConfig(cfg.Forces), systems.StepOptions{
		WorldW:            cfg.Derived.WorldW32,
		WorldH:            cfg.Derived.WorldH32,
		Gravity:           float32(cfg.Physics.Gravity),
		Workers:           cfg.Physics.Workers,
		ParallelThreshold: cfg.Physics.ParallelThreshold,
		Flags: systems.Flags{
			Gravity:            cfg.Physics.GravityEnabled,
			Partitioned:        cfg.Physics.Partitioned,
			Parallel:           cfg.Physics.Parallel,
			ReducedComparisons: cfg.Physics.ReducedComparisons,
		},
	})

	return &Simulation{
		cfg:      cfg,
		store:    systems.NewParticleStore(cfg.Population.Initial),
		step:     step,
		factory:  NewFactory(cfg, seed),
		maxCount: cfg.Population.Max,
	}
}

// Close stops the physics workers.
func (s *Simulation) Close() {
	s.step.Close()
}

// validCount rejects negative counts and clamps to the configured maximum.
func (s *Simulation) validCount(count int) (int, error) {
	if count < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	if s.maxCount > 0 && count > s.maxCount {
		count = s.maxCount
	}
	return count, nil
}

// Reset replaces every particle with count freshly randomised ones.
func (s *Simulation) Reset(count int) error {
	count, err := s.validCount(count)
	if err != nil {
		return err
	}
	if err := s.store.Reserve(count); err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	s.store.Clear()
	s.frame = 0
	s.last = systems.StepStats{}
	return s.factory.Populate(s.store, count)
}

// SetParticleCount grows or shrinks the population to count, keeping the
// particles that remain.
func (s *Simulation) SetParticleCount(count int) error {
	count, err := s.validCount(count)
	if err != nil {
		return err
	}

	n := s.store.Len()
	if count <= n {
		s.store.Truncate(count)
		return nil
	}
	if err := s.store.Reserve(count); err != nil {
		return fmt.Errorf("set particle count: %w", err)
	}
	return s.factory.Populate(s.store, count-n)
}

// SpawnAt appends up to count particles around (x, y) with small random
// velocities. The population maximum limits how many are added.
func (s *Simulation) SpawnAt(x, y float32, count int) (int, error) {
	if count < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	if !components.Finite(x) || !components.Finite(y) {
		return 0, fmt.Errorf("%w: (%v, %v)", ErrInvalidPosition, x, y)
	}
	if s.maxCount > 0 {
		count = min(count, s.maxCount-s.store.Len())
	}
	if count <= 0 {
		return 0, nil
	}
	return s.factory.SpawnAt(s.store, x, y, count)
}

// Advance runs one physics step unless the simulation is stopped.
func (s *Simulation) Advance(dt float64) {
	if s.paused {
		return
	}
	s.last = s.step.Advance(s.store, dt)
	s.frame++
}

// Start resumes stepping.
func (s *Simulation) Start() { s.paused = false }

// Stop pauses stepping. Advance becomes a no-op.
func (s *Simulation) Stop() { s.paused = true }

// Paused reports whether the simulation is stopped.
func (s *Simulation) Paused() bool { return s.paused }

// SetPointerTarget enables pointer repulsion at a world position.
func (s *Simulation) SetPointerTarget(x, y float32) { s.step.SetPointer(x, y) }

// ClearPointerTarget disables pointer repulsion.
func (s *Simulation) ClearPointerTarget() { s.step.ClearPointer() }

// PointerTarget returns the pointer position and whether it is active.
func (s *Simulation) PointerTarget() (components.Vec2, bool) { return s.step.Pointer() }

// Read accessors. Slices alias the store and are valid until the next
// mutating call; only the first Count() entries are live.

func (s *Simulation) PositionsX() []float32 { return s.store.PosX[:s.store.Len()] }
func (s *Simulation) PositionsY() []float32 { return s.store.PosY[:s.store.Len()] }
func (s *Simulation) VelocitiesX() []float32 { return s.store.VelX[:s.store.Len()] }
func (s *Simulation) VelocitiesY() []float32 { return s.store.VelY[:s.store.Len()] }
func (s *Simulation) Radii() []float32 { return s.store.Radius[:s.store.Len()] }
func (s *Simulation) Colors() []color.RGBA { return s.store.Color[:s.store.Len()] }
func (s *Simulation) Kinds() []components.Kind { return s.store.Kind[:s.store.Len()] }
func (s *Simulation) Store() *systems.ParticleStore { return s.store }

// Position returns particle i's position.
func (s *Simulation) Position(i int) components.Vec2 { return s.store.Position(i) }

// Velocity returns particle i's velocity.
func (s *Simulation) Velocity(i int) components.Vec2 { return s.store.Velocity(i) }

// Count returns the number of live particles.
func (s *Simulation) Count() int { return s.store.Len() }

// Capacity returns the allocated particle capacity.
func (s *Simulation) Capacity() int { return s.store.Cap() }

// Frame returns the number of steps taken since the last Reset.
func (s *Simulation) Frame() int32 { return s.frame }

// LastStep returns the stats of the most recent Advance.
func (s *Simulation) LastStep() systems.StepStats { return s.last }

// Bounds returns the world extent.
func (s *Simulation) Bounds() (w, h float32) { return s.step.Bounds() }

// Resize changes the world extent. Particles outside it are clamped back in
// by the next Advance.
func (s *Simulation) Resize(w, h float32) {
	s.step.Resize(w, h)
	s.factory.Resize(w, h)
}

// Config returns the configuration the simulation was built from.
func (s *Simulation) Config() *config.Config { return s.cfg }

// AverageVelocity returns the mean velocity over finite particles.
func (s *Simulation) AverageVelocity() components.Vec2 {
	var sumX, sumY float64
	var n int
	for i := 0; i < s.store.Len(); i++ {
		v := s.store.Velocity(i)
		if !v.IsFinite() {
			continue
		}
		sumX += float64(v.X)
		sumY += float64(v.Y)
		n++
	}
	if n == 0 {
		return components.Vec2{}
	}
	return components.Vec2{X: float32(sumX / float64(n)), Y: float32(sumY / float64(n))}
}

// AverageSpeed returns the magnitude of AverageVelocity.
func (s *Simulation) AverageSpeed() float64 {
	v := s.AverageVelocity()
	return math.Hypot(float64(v.X), float64(v.Y))
}

// Flags returns the current step toggles.
func (s *Simulation) Flags() systems.Flags { return s.step.Flags() }

// SetFlags replaces all step toggles at once.
func (s *Simulation) SetFlags(f systems.Flags) { s.step.SetFlags(f) }

func (s *Simulation) setFlags(fn func(f *systems.Flags)) {
	f := s.step.Flags()
	fn(&f)
	s.step.SetFlags(f)
}

func (s *Simulation) SetGravity(on bool) { s.setFlags(func(f *systems.Flags) { f.Gravity = on }) }
func (s *Simulation) SetPartitioned(on bool) { s.setFlags(func(f *systems.Flags) { f.Partitioned = on }) }
func (s *Simulation) SetParallel(on bool) { s.setFlags(func(f *systems.Flags) { f.Parallel = on }) }
func (s *Simulation) SetReducedComparisons(on bool) { s.setFlags(func(f *systems.Flags) { f.ReducedComparisons = on }) }

func (s *Simulation) ToggleGravity() { s.SetGravity(!s.Flags().Gravity) }
func (s *Simulation) TogglePartitioned() { s.SetPartitioned(!s.Flags().Partitioned) }
func (s *Simulation) ToggleParallel() { s.SetParallel(!s.Flags().Parallel) }
func (s *Simulation) ToggleReducedComparisons() {
	s.SetReducedComparisons(!s.Flags().ReducedComparisons)
}

// SetForceField replaces the interaction tunables.
func (s *Simulation) SetForceField(f systems.ForceField) { s.step.SetField(f) }

// ForceField returns the interaction tunables.
func (s *Simulation) ForceField() systems.ForceField { return s.step.Field() }
