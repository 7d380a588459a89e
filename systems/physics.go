// Package systems contains the particle physics kernel: the structure-of-arrays
// store, the spatial hash broad phase, the force field and the per-frame step.
package systems

import (
	"time"

	"github.com/pthm-cable/grains/components"
)

// Flags select the step's branches. They are read once at the start of every
// Advance.
type Flags struct {
	Gravity            bool
	Partitioned        bool // Spatial hash broad phase; false compares all pairs
	Parallel           bool // Worker pool; false runs on the caller's goroutine
	ReducedComparisons bool // 3x3 cell neighbourhood; false scans 5x5
}

// DefaultFlags enables every optimisation and gravity.
func DefaultFlags() Flags {
	return Flags{Gravity: true, Partitioned: true, Parallel: true, ReducedComparisons: true}
}

// StepOptions configures a PhysicsStep.
type StepOptions struct {
	WorldW, WorldH    float32
	Gravity           float32 // Gravity magnitude, +Y down
	Workers           int     // 0 = GOMAXPROCS
	ParallelThreshold int     // 0 = DefaultParallelThreshold
	Flags             Flags
}

// StepStats summarises one Advance.
type StepStats struct {
	Count         int
	Workers       int // Index ranges processed (1 when inline)
	Faults        int // Particles skipped for non-finite state
	Contacts      int // Overlapping neighbour evaluations, both sides counted
	HashDuration  time.Duration
	ForceDuration time.Duration
}

// chunkResult is written only by the worker owning the slot.
type chunkResult struct {
	faults   int
	contacts int
}

// frameState is published to the workers before dispatch and read-only while
// they run.
type frameState struct {
	store       *ParticleStore
	count       int
	dt          float32
	gravity     float32 // 0 when disabled
	pointerOn   bool
	pointer     components.Vec2
	partitioned bool
	reach       int // neighbourhood radius in cells
}

// PhysicsStep advances a ParticleStore by one frame: hash rebuild, then a
// partitioned force+integrate pass, then boundary response.
//
// Each particle accumulates only the forces it experiences, recomputing its
// side of every pair on its own. No worker writes outside its index range, so
// no synchronisation is needed beyond the fork-join around the pass.
//
// A PhysicsStep is driven from a single goroutine; setters must not race with
// Advance.
type PhysicsStep struct {
	hash          *SpatialHash
	field         ForceField
	width, height float32
	gravity       float32
	flags         Flags

	pointer   components.Vec2
	pointerOn bool

	// Brute-force mode position snapshot
	snapX, snapY []float32

	pool      *workerPool
	threshold int
	frame     frameState
	results   []chunkResult
}

// NewPhysicsStep creates a step over the given hash. The hash is owned by the
// step for the duration of each Advance.
func NewPhysicsStep(hash *SpatialHash, field ForceField, opts StepOptions) *PhysicsStep {
	threshold := opts.ParallelThreshold
	if threshold <= 0 {
		threshold = DefaultParallelThreshold
	}

	p := &PhysicsStep{
		hash:      hash,
		field:     field,
		width:     opts.WorldW,
		height:    opts.WorldH,
		gravity:   opts.Gravity,
		flags:     opts.Flags,
		threshold: threshold,
	}
	workers := resolveWorkers(opts.Workers)
	p.pool = newWorkerPool(workers, p.processChunk)
	p.results = make([]chunkResult, workers)
	return p
}

// Close stops the worker goroutines. The step may still be used afterwards;
// the pool restarts on demand.
func (p *PhysicsStep) Close() {
	p.pool.stop()
}

func (p *PhysicsStep) Flags() Flags          { return p.flags }
func (p *PhysicsStep) SetFlags(f Flags)      { p.flags = f }
func (p *PhysicsStep) Field() ForceField     { return p.field }
func (p *PhysicsStep) SetField(f ForceField) { p.field = f }
func (p *PhysicsStep) Workers() int          { return p.pool.numWorkers }
func (p *PhysicsStep) Hash() *SpatialHash    { return p.hash }

// SetGravity sets the gravity magnitude.
func (p *PhysicsStep) SetGravity(g float32) { p.gravity = g }

// SetPointer enables pointer repulsion centred on (x, y).
func (p *PhysicsStep) SetPointer(x, y float32) {
	p.pointer = components.Vec2{X: x, Y: y}
	p.pointerOn = true
}

// ClearPointer disables pointer repulsion.
func (p *PhysicsStep) ClearPointer() {
	p.pointerOn = false
}

// Pointer returns the pointer target and whether it is active.
func (p *PhysicsStep) Pointer() (components.Vec2, bool) {
	return p.pointer, p.pointerOn
}

// Bounds returns the world extent particles are clamped to.
func (p *PhysicsStep) Bounds() (w, h float32) {
	return p.width, p.height
}

// Resize changes the world extent and the hash coverage.
func (p *PhysicsStep) Resize(w, h float32) {
	p.width, p.height = w, h
	p.hash.Resize(w, h)
}

// Advance runs one frame on store.
func (p *PhysicsStep) Advance(store *ParticleStore, dt float64) StepStats {
	n := store.Len()
	stats := StepStats{Count: n}
	if n == 0 {
		return stats
	}
	flags := p.flags

	// 1. Broad phase. Finishes before any worker starts.
	t0 := time.Now()
	if flags.Partitioned {
		p.hash.Build(store.PosX, store.PosY, n)
	} else {
		p.snapshot(store, n)
	}
	stats.HashDuration = time.Since(t0)

	reach := 2
	if flags.ReducedComparisons {
		reach = 1
	}
	var g float32
	if flags.Gravity {
		g = p.gravity
	}
	p.frame = frameState{
		store:       store,
		count:       n,
		dt:          float32(dt),
		gravity:     g,
		pointerOn:   p.pointerOn,
		pointer:     p.pointer,
		partitioned: flags.Partitioned,
		reach:       reach,
	}

	// 2-4. Partition, force+integrate, join.
	t1 := time.Now()
	clear(p.results)
	if !flags.Parallel || n < p.threshold || p.pool.numWorkers < 2 {
		p.processChunk(0, n, 0)
		stats.Workers = 1
	} else {
		stats.Workers = p.pool.run(n)
	}
	stats.ForceDuration = time.Since(t1)

	for i := range p.results[:stats.Workers] {
		stats.Faults += p.results[i].faults
		stats.Contacts += p.results[i].contacts
	}
	p.frame.store = nil

	return stats
}

// snapshot copies positions for the all-pairs path.
func (p *PhysicsStep) snapshot(store *ParticleStore, n int) {
	if cap(p.snapX) < n {
		p.snapX = make([]float32, n)
		p.snapY = make([]float32, n)
	}
	p.snapX = p.snapX[:n]
	p.snapY = p.snapY[:n]
	copy(p.snapX, store.PosX[:n])
	copy(p.snapY, store.PosY[:n])
}

// processChunk integrates particles [start, end). It writes only to those
// indices and to its own result slot.
func (p *PhysicsStep) processChunk(start, end, slot int) {
	fr := &p.frame
	s := fr.store
	field := p.field
	res := &p.results[slot]

	for i := start; i < end; i++ {
		if !s.Finite(i) {
			res.faults++
			continue
		}

		self := Body{
			Pos:    components.Vec2{X: s.PosX[i], Y: s.PosY[i]},
			Radius: s.Radius[i],
			Kind:   s.Kind[i],
		}

		// Gravity is an acceleration; scale to a force so invMass cancels it.
		force := field.Gravity(self.Kind, fr.gravity).Scale(s.Mass[i])
		if fr.pointerOn {
			force = force.Add(field.PointerRepulsion(self.Pos, fr.pointer, field.PointerRadius, field.PointerStrength))
		}

		var velScale float32 = 1
		var contacts int
		if fr.partitioned {
			force, velScale, contacts = p.accumulateCells(i, self, force)
		} else {
			force, velScale, contacts = p.accumulateAll(i, self, force)
		}
		res.contacts += contacts

		// Semi-implicit Euler
		invMass := s.InvMass[i] * fr.dt
		vel := components.Vec2{
			X: s.VelX[i]*velScale + force.X*invMass,
			Y: s.VelY[i]*velScale + force.Y*invMass,
		}
		if self.Kind == components.KindGas {
			vel = vel.Scale(field.GasDamping)
		}

		pos := self.Pos
		if self.Kind.Mobile() {
			pos = pos.Add(vel.Scale(fr.dt))
		}
		pos, vel = field.Boundary(pos, vel, p.width, p.height)

		s.PosX[i], s.PosY[i] = pos.X, pos.Y
		s.VelX[i], s.VelY[i] = vel.X, vel.Y
	}
}

// accumulateCells sums the reactions i experiences from candidates in the
// cell neighbourhood around its home cell.
func (p *PhysicsStep) accumulateCells(i int, self Body, force components.Vec2) (components.Vec2, float32, int) {
	h := p.hash
	s := p.frame.store
	field := p.field
	reach := p.frame.reach
	velScale := float32(1)
	contacts := 0

	cx, cy := h.CellOf(self.Pos.X, self.Pos.Y)
	for dy := -reach; dy <= reach; dy++ {
		for dx := -reach; dx <= reach; dx++ {
			start, count := h.Cell(cx+dx, cy+dy)
			for k := start; k < start+count; k++ {
				j := int(h.sortedIndices[k])
				if j == i {
					continue
				}
				other := Body{
					Pos:    components.Vec2{X: h.SortedX[k], Y: h.SortedY[k]},
					Radius: s.Radius[j],
					Kind:   s.Kind[j],
				}
				inter := field.PairwiseRepulsion(self, other)
				if inter.Touching {
					force = force.Add(inter.Force)
					velScale *= inter.VelocityScale
					contacts++
				}
			}
		}
	}
	return force, velScale, contacts
}

// accumulateAll is the all-pairs fallback with the same per-side semantics.
func (p *PhysicsStep) accumulateAll(i int, self Body, force components.Vec2) (components.Vec2, float32, int) {
	s := p.frame.store
	field := p.field
	velScale := float32(1)
	contacts := 0

	for j := 0; j < p.frame.count; j++ {
		if j == i {
			continue
		}
		other := Body{
			Pos:    components.Vec2{X: p.snapX[j], Y: p.snapY[j]},
			Radius: s.Radius[j],
			Kind:   s.Kind[j],
		}
		inter := field.PairwiseRepulsion(self, other)
		if inter.Touching {
			force = force.Add(inter.Force)
			velScale *= inter.VelocityScale
			contacts++
		}
	}
	return force, velScale, contacts
}
