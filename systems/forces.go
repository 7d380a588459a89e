package systems

import (
	"math"

	"github.com/pthm-cable/grains/components"
	"github.com/pthm-cable/grains/config"
)

// ForceField holds the interaction tunables. All methods are pure: they read
// their arguments and return values, never touching shared state.
type ForceField struct {
	RepulsionStrength float32 // Force per unit overlap
	PointerRadius     float32
	PointerStrength   float32
	SandFriction      float32 // Fraction of velocity a sand particle loses per contact
	LiquidSoftness    float32 // Force scale for liquid-liquid pairs
	BuoyancyFactor    float32 // Gravity scale for gas; negative rises
	GasDamping        float32 // Per-step air damping for gas
	Restitution       float32 // Velocity retained (inverted) on wall contact
	MinDistSq         float32 // Squared distance below which a pair is degenerate
}

// DefaultForceField returns the stock tunables.
func DefaultForceField() ForceField {
	return ForceField{
		RepulsionStrength: 400,
		PointerRadius:     100,
		PointerStrength:   100,
		SandFriction:      0.1,
		LiquidSoftness:    0.5,
		BuoyancyFactor:    -0.1,
		GasDamping:        0.95,
		Restitution:       0.9,
		MinDistSq:         1e-4,
	}
}

// ForceFieldFromConfig builds a field from the forces config section.
func ForceFieldFromConfig(c config.ForcesConfig) ForceField {
	return ForceField{
		RepulsionStrength: float32(c.RepulsionStrength),
		PointerRadius:     float32(c.PointerRadius),
		PointerStrength:   float32(c.PointerStrength),
		SandFriction:      float32(c.SandFriction),
		LiquidSoftness:    float32(c.LiquidSoftness),
		BuoyancyFactor:    float32(c.BuoyancyFactor),
		GasDamping:        float32(c.GasDamping),
		Restitution:       float32(c.Restitution),
		MinDistSq:         float32(c.MinDistSq),
	}
}

// Body is the view of one particle a pairwise interaction needs.
type Body struct {
	Pos    components.Vec2
	Radius float32
	Kind   components.Kind
}

// Interaction is the effect of one neighbour on a particle.
type Interaction struct {
	Force         components.Vec2 // Force on the first body of the pair
	VelocityScale float32         // Multiplier for the first body's velocity (1 = none)
	Touching      bool
}

var noInteraction = Interaction{VelocityScale: 1}

// Gravity returns the gravity force (per unit mass) for a kind.
// Screen coordinates: +Y points down.
func (f ForceField) Gravity(kind components.Kind, g float32) components.Vec2 {
	switch kind {
	case components.KindStone:
		return components.Vec2{}
	case components.KindGas:
		return components.Vec2{Y: g * f.BuoyancyFactor}
	default:
		return components.Vec2{Y: g}
	}
}

// PointerRepulsion pushes pos away from the pointer. The magnitude falls off
// linearly from strength at the pointer to zero at radius.
func (f ForceField) PointerRepulsion(pos, pointer components.Vec2, radius, strength float32) components.Vec2 {
	d := pos.Sub(pointer)
	distSq := d.LenSq()
	// Written as !(a < b) so NaN distances fall out here too
	if !(distSq < radius*radius) || distSq <= f.MinDistSq {
		return components.Vec2{}
	}

	dist := float32(math.Sqrt(float64(distSq)))
	mag := strength * (1 - dist/radius)
	return d.Scale(mag / dist)
}

// PairwiseRepulsion returns the reaction a experiences from b. It is evaluated
// from a's side only; b's reaction is computed independently when b is the
// first argument.
func (f ForceField) PairwiseRepulsion(a, b Body) Interaction {
	d := b.Pos.Sub(a.Pos)
	distSq := d.LenSq()
	radSum := a.Radius + b.Radius
	if !(distSq < radSum*radSum) || distSq <= f.MinDistSq {
		return noInteraction
	}

	dist := float32(math.Sqrt(float64(distSq)))
	mag := (radSum - dist) * f.RepulsionStrength

	scale := float32(1)
	switch {
	case a.Kind == components.KindLiquid && b.Kind == components.KindLiquid:
		mag *= f.LiquidSoftness
	case a.Kind == components.KindSand:
		// Dry friction acts on the sand side of the pair
		scale = 1 - f.SandFriction
	}

	// Push a away from b along the separating axis
	return Interaction{
		Force:         d.Scale(-mag / dist),
		VelocityScale: scale,
		Touching:      true,
	}
}

// Boundary clamps pos into [0,w]x[0,h]. A clamped axis has its velocity
// inverted and scaled by the restitution.
func (f ForceField) Boundary(pos, vel components.Vec2, w, h float32) (components.Vec2, components.Vec2) {
	if pos.X < 0 {
		pos.X = 0
		vel.X *= -f.Restitution
	} else if pos.X > w {
		pos.X = w
		vel.X *= -f.Restitution
	}

	if pos.Y < 0 {
		pos.Y = 0
		vel.Y *= -f.Restitution
	} else if pos.Y > h {
		pos.Y = h
		vel.Y *= -f.Restitution
	}
	return pos, vel
}
