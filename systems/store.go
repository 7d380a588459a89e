package systems

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/pthm-cable/grains/components"
)

// MaxParticles bounds the store capacity. Particle indices travel through the
// spatial hash as uint32.
const MaxParticles = 1 << 26

// growMin is the minimum number of slots added when Add runs out of room.
const growMin = 1000

// ErrCapacityExceeded is returned when a reservation cannot be satisfied.
var ErrCapacityExceeded = errors.New("particle capacity exceeded")

// ParticleStore owns per-particle attributes as parallel arrays.
// A particle is nothing more than an index into these arrays.
//
// Every array has length Cap(); only [0, Len()) is live. Data past Len() is
// stale and must not be read.
type ParticleStore struct {
	PosX, PosY []float32
	VelX, VelY []float32
	Radius     []float32
	Mass       []float32
	InvMass    []float32 // 1/Mass, 0 for immovable particles
	Color      []color.RGBA
	Kind       []components.Kind

	count int
}

// NewParticleStore creates a store with room for capacity particles.
func NewParticleStore(capacity int) *ParticleStore {
	s := &ParticleStore{}
	if capacity > 0 {
		// Cannot fail below MaxParticles; clamp silently otherwise.
		_ = s.Reserve(min(capacity, MaxParticles))
	}
	return s
}

// Len returns the number of live particles.
func (s *ParticleStore) Len() int { return s.count }

// Cap returns the allocated capacity shared by all arrays.
func (s *ParticleStore) Cap() int { return len(s.PosX) }

// Reserve grows every array to hold at least n particles, preserving contents.
func (s *ParticleStore) Reserve(n int) error {
	if n <= s.Cap() {
		return nil
	}
	if n > MaxParticles {
		return fmt.Errorf("reserving %d particles (max %d): %w", n, MaxParticles, ErrCapacityExceeded)
	}

	s.PosX = growFloats(s.PosX, n)
	s.PosY = growFloats(s.PosY, n)
	s.VelX = growFloats(s.VelX, n)
	s.VelY = growFloats(s.VelY, n)
	s.Radius = growFloats(s.Radius, n)
	s.Mass = growFloats(s.Mass, n)
	s.InvMass = growFloats(s.InvMass, n)

	colors := make([]color.RGBA, n)
	copy(colors, s.Color)
	s.Color = colors

	kinds := make([]components.Kind, n)
	copy(kinds, s.Kind)
	s.Kind = kinds

	return nil
}

func growFloats(src []float32, n int) []float32 {
	dst := make([]float32, n)
	copy(dst, src)
	return dst
}

// Add appends a particle and returns its index.
func (s *ParticleStore) Add(x, y, vx, vy, radius, mass float32, kind components.Kind, col color.RGBA) (int, error) {
	if s.count == s.Cap() {
		c := s.Cap()
		grow := max(2*c, c+growMin)
		if grow > MaxParticles {
			grow = max(MaxParticles, c+1)
		}
		if err := s.Reserve(grow); err != nil {
			return -1, err
		}
	}

	i := s.count
	s.PosX[i], s.PosY[i] = x, y
	s.VelX[i], s.VelY[i] = vx, vy
	s.Radius[i] = radius
	s.Mass[i] = mass
	if mass != 0 {
		s.InvMass[i] = 1 / mass
	} else {
		s.InvMass[i] = 0
	}
	s.Kind[i] = kind
	s.Color[i] = col
	s.count++

	return i, nil
}

// Clear drops every particle without releasing or zeroing memory.
func (s *ParticleStore) Clear() {
	s.count = 0
}

// Truncate shrinks the live count to n. Larger n is ignored.
func (s *ParticleStore) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n < s.count {
		s.count = n
	}
}

// Position returns particle i's position.
func (s *ParticleStore) Position(i int) components.Vec2 {
	return components.Vec2{X: s.PosX[i], Y: s.PosY[i]}
}

// Velocity returns particle i's velocity.
func (s *ParticleStore) Velocity(i int) components.Vec2 {
	return components.Vec2{X: s.VelX[i], Y: s.VelY[i]}
}

// Finite reports whether particle i's position and velocity hold real numbers.
func (s *ParticleStore) Finite(i int) bool {
	return components.Finite(s.PosX[i]) && components.Finite(s.PosY[i]) &&
		components.Finite(s.VelX[i]) && components.Finite(s.VelY[i])
}
