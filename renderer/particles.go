package renderer

import (
	"image/color"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/pthm-cable/grains/camera"
	"github.com/pthm-cable/grains/components"
)

// ColorMode selects how particles are tinted.
type ColorMode int

const (
	ColorByKind  ColorMode = iota // Each particle's own colour
	ColorBySpeed                  // Blue (still) to red (fast)
)

// ParseColorMode maps a config string to a ColorMode. Unknown names use kind.
func ParseColorMode(s string) ColorMode {
	if s == "speed" {
		return ColorBySpeed
	}
	return ColorByKind
}

// speedSteps is the size of the speed palette lookup table.
const speedSteps = 64

// ParticleSource is the read view the renderer draws from. Slices are
// parallel and only read for this frame.
type ParticleSource interface {
	PositionsX() []float32
	PositionsY() []float32
	VelocitiesX() []float32
	VelocitiesY() []float32
	Radii() []float32
	Colors() []color.RGBA
}

// ParticleRenderer draws particles as tinted circle sprites. One white
// circle texture is rendered per integer radius and reused.
type ParticleRenderer struct {
	sprites  map[int]rl.RenderTexture2D
	palette  [speedSteps]rl.Color
	mode     ColorMode
	maxSpeed float32
}

// NewParticleRenderer creates a new particle renderer. Textures are created
// lazily, so the raylib window must exist before the first Draw.
func NewParticleRenderer(mode ColorMode, maxSpeed float32) *ParticleRenderer {
	r := &ParticleRenderer{
		sprites:  make(map[int]rl.RenderTexture2D),
		mode:     mode,
		maxSpeed: maxSpeed,
	}
	if r.maxSpeed <= 0 {
		r.maxSpeed = 50
	}

	slow, _ := colorful.Hex("#2050ff")
	fast, _ := colorful.Hex("#ff3020")
	for i := range r.palette {
		c := slow.BlendLab(fast, float64(i)/float64(speedSteps-1)).Clamped()
		cr, cg, cb := c.RGB255()
		r.palette[i] = rl.Color{R: cr, G: cg, B: cb, A: 255}
	}
	return r
}

// Mode returns the current colour mode.
func (r *ParticleRenderer) Mode() ColorMode { return r.mode }

// SetMode changes the colour mode.
func (r *ParticleRenderer) SetMode(m ColorMode) { r.mode = m }

// ToggleMode flips between kind and speed colouring.
func (r *ParticleRenderer) ToggleMode() {
	if r.mode == ColorByKind {
		r.mode = ColorBySpeed
	} else {
		r.mode = ColorByKind
	}
}

// sprite returns the cached circle texture for a radius, creating it on first use.
func (r *ParticleRenderer) sprite(radius int) rl.RenderTexture2D {
	if tex, ok := r.sprites[radius]; ok {
		return tex
	}
	size := int32(radius*2 + 2)
	tex := rl.LoadRenderTexture(size, size)
	rl.BeginTextureMode(tex)
	rl.ClearBackground(rl.Blank)
	rl.DrawCircle(size/2, size/2, float32(radius), rl.White)
	rl.EndTextureMode()
	rl.SetTextureFilter(tex.Texture, rl.FilterBilinear)
	r.sprites[radius] = tex
	return tex
}

// Draw renders every finite particle in the camera's view.
func (r *ParticleRenderer) Draw(src ParticleSource, cam *camera.Camera) {
	xs, ys := src.PositionsX(), src.PositionsY()
	vxs, vys := src.VelocitiesX(), src.VelocitiesY()
	radii, cols := src.Radii(), src.Colors()

	rl.BeginMode2D(cam.Camera2D())
	rl.DrawRectangleLinesEx(rl.Rectangle{Width: cam.World.X, Height: cam.World.Y}, 1/cam.Zoom, rl.DarkGray)

	for i := range xs {
		x, y, radius := xs[i], ys[i], radii[i]
		if !components.Finite(x) || !components.Finite(y) || !components.Finite(radius) {
			continue
		}
		if !cam.IsVisible(components.V2(x, y), radius) {
			continue
		}

		tint := rl.Color(cols[i])
		if r.mode == ColorBySpeed {
			tint = r.speedColor(vxs[i], vys[i])
		}

		ri := max(1, int(radius+0.5))
		tex := r.sprite(ri)
		size := float32(tex.Texture.Width)
		// Render textures are stored upside down; negative height flips them back
		srcRect := rl.Rectangle{Width: size, Height: -size}
		dst := rl.Rectangle{X: x - size/2, Y: y - size/2, Width: size, Height: size}
		rl.DrawTexturePro(tex.Texture, srcRect, dst, rl.Vector2{}, 0, tint)
	}

	rl.EndMode2D()
}

// speedColor maps a velocity onto the blue to red palette.
func (r *ParticleRenderer) speedColor(vx, vy float32) rl.Color {
	speed := float32(math.Hypot(float64(vx), float64(vy)))
	if !components.Finite(speed) {
		return r.palette[speedSteps-1]
	}
	idx := int(speed / r.maxSpeed * (speedSteps - 1))
	return r.palette[max(0, min(speedSteps-1, idx))]
}

// Unload frees the cached sprite textures.
func (r *ParticleRenderer) Unload() {
	for radius, tex := range r.sprites {
		rl.UnloadRenderTexture(tex)
		delete(r.sprites, radius)
	}
}
