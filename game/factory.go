package game

import (
	"fmt"
	"image/color"
	"math"
	"math/rand"

	"github.com/aquilax/go-perlin"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/pthm-cable/grains/components"
	"github.com/pthm-cable/grains/config"
	"github.com/pthm-cable/grains/systems"
)

// kindHues holds the base HSV colour of each kind. Default particles pick a
// random hue instead.
var kindHues = [components.NumKinds]struct{ h, s, v float64 }{
	components.KindDefault: {0, 0.7, 0.95},
	components.KindLiquid:  {210, 0.75, 0.9},
	components.KindSand:    {42, 0.6, 0.85},
	components.KindGas:     {160, 0.25, 0.95},
	components.KindStone:   {0, 0, 0.5},
}

// Factory creates particles with randomised attributes. It owns its own
// random source so a seed reproduces a population exactly.
type Factory struct {
	rng   *rand.Rand
	noise *perlin.Perlin
	pop   config.PopulationConfig

	worldW, worldH float32
	cumWeights     [components.NumKinds]float64 // running sum of kind weights
}

// NewFactory creates a factory for cfg's population settings.
func NewFactory(cfg *config.Config, seed int64) *Factory {
	f := &Factory{
		rng:    rand.New(rand.NewSource(seed)),
		noise:  perlin.NewPerlin(2, 2, 3, seed),
		pop:    cfg.Population,
		worldW: cfg.Derived.WorldW32,
		worldH: cfg.Derived.WorldH32,
	}

	w := cfg.Population.KindWeights
	weights := [components.NumKinds]float64{
		components.KindDefault: w.Default,
		components.KindLiquid:  w.Liquid,
		components.KindSand:    w.Sand,
		components.KindGas:     w.Gas,
		components.KindStone:   w.Stone,
	}
	var sum float64
	for k, wt := range weights {
		sum += max(wt, 0)
		f.cumWeights[k] = sum
	}
	return f
}

// Resize updates the area new particles are placed in.
func (f *Factory) Resize(w, h float32) {
	f.worldW, f.worldH = w, h
}

// Populate appends count particles spread over the world.
func (f *Factory) Populate(store *systems.ParticleStore, count int) error {
	for i := 0; i < count; i++ {
		x := f.rng.Float32() * f.worldW
		y := f.rng.Float32() * f.worldH
		kind := f.pickKind(x, y)
		vx, vy := f.randomVelocity(f.pop.MaxSpeed)
		if err := f.add(store, x, y, vx, vy, kind); err != nil {
			return fmt.Errorf("populate: %w", err)
		}
	}
	return nil
}

// SpawnAt appends count particles of the configured spawn kind scattered
// around (x, y). Returns the number added.
func (f *Factory) SpawnAt(store *systems.ParticleStore, x, y float32, count int) (int, error) {
	for i := 0; i < count; i++ {
		// Uniform over a disk
		angle := f.rng.Float64() * 2 * math.Pi
		r := f.pop.SpawnJitter * math.Sqrt(f.rng.Float64())
		px := clampf(x+float32(r*math.Cos(angle)), 0, f.worldW)
		py := clampf(y+float32(r*math.Sin(angle)), 0, f.worldH)

		vx, vy := f.randomVelocity(f.pop.SpawnSpeed)
		if err := f.add(store, px, py, vx, vy, f.pop.SpawnKind); err != nil {
			return i, fmt.Errorf("spawn: %w", err)
		}
	}
	return count, nil
}

func (f *Factory) add(store *systems.ParticleStore, x, y, vx, vy float32, kind components.Kind) error {
	radius := float32(f.pop.Radius)
	mass := radius * float32(f.pop.Density)
	if !kind.Mobile() {
		mass, vx, vy = 0, 0, 0
	}
	_, err := store.Add(x, y, vx, vy, radius, mass, kind, f.colorFor(kind))
	return err
}

// randomVelocity returns a velocity with a uniform direction and a speed in
// [0, maxSpeed).
func (f *Factory) randomVelocity(maxSpeed float64) (float32, float32) {
	angle := f.rng.Float64() * 2 * math.Pi
	speed := f.rng.Float64() * maxSpeed
	return float32(speed * math.Cos(angle)), float32(speed * math.Sin(angle))
}

// pickKind selects a kind by weight. The noise layout draws from a smooth
// field so kinds form patches; the uniform layout draws independently.
func (f *Factory) pickKind(x, y float32) components.Kind {
	total := f.cumWeights[components.NumKinds-1]
	if total <= 0 {
		return components.KindDefault
	}

	var t float64
	if f.pop.Layout == "noise" {
		// Summed octaves rarely leave [-0.5, 0.5]
		n := f.noise.Noise2D(float64(x)*f.pop.NoiseScale, float64(y)*f.pop.NoiseScale)
		t = math.Max(0, math.Min(0.999999, 0.5+n))
	} else {
		t = f.rng.Float64()
	}

	target := t * total
	for k, c := range f.cumWeights {
		if target < c {
			return components.Kind(k)
		}
	}
	return components.Kind(components.NumKinds - 1)
}

// colorFor returns a jittered colour from the kind's palette.
func (f *Factory) colorFor(kind components.Kind) color.RGBA {
	base := kindHues[components.KindDefault]
	if int(kind) < components.NumKinds {
		base = kindHues[kind]
	}

	h := base.h + (f.rng.Float64()-0.5)*16
	if kind == components.KindDefault {
		h = f.rng.Float64() * 360
	}
	h = math.Mod(h+360, 360)
	v := base.v + (f.rng.Float64()-0.5)*0.1

	c := colorful.Hsv(h, base.s, v).Clamped()
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
