// Package camera maps between screen pixels and the walled simulation world.
package camera

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/grains/components"
)

// DefaultMaxZoom is the closest zoom the camera allows.
const DefaultMaxZoom = 8

// Camera is a pan/zoom view onto a bounded world. The centre never leaves the
// world and the furthest zoom shows all of it.
type Camera struct {
	Center components.Vec2 // world point shown at the viewport centre
	Zoom   float32         // screen pixels per world unit

	View  components.Vec2 // viewport size in pixels
	World components.Vec2 // world size

	MinZoom, MaxZoom float32
}

// New creates a camera centred on the world, zoomed out to show all of it.
func New(viewportW, viewportH, worldW, worldH float32) *Camera {
	c := &Camera{
		View:    components.V2(viewportW, viewportH),
		World:   components.V2(worldW, worldH),
		MaxZoom: DefaultMaxZoom,
	}
	c.MinZoom = c.fitZoom()
	c.Reset()
	return c
}

// fitZoom is the zoom at which the whole world fits in the viewport, capped at 1.
func (c *Camera) fitZoom() float32 {
	if c.World.X <= 0 || c.World.Y <= 0 {
		return 1
	}
	return min(c.View.X/c.World.X, c.View.Y/c.World.Y, 1)
}

func (c *Camera) halfView() components.Vec2 {
	return c.View.Scale(0.5)
}

// WorldToScreen converts a world point to viewport pixels.
func (c *Camera) WorldToScreen(p components.Vec2) components.Vec2 {
	return c.halfView().Add(p.Sub(c.Center).Scale(c.Zoom))
}

// ScreenToWorld converts viewport pixels to a world point. The result may
// lie outside the world when the view shows its margin.
func (c *Camera) ScreenToWorld(s components.Vec2) components.Vec2 {
	return c.Center.Add(s.Sub(c.halfView()).Scale(1 / c.Zoom))
}

// InViewport reports whether a screen point falls inside the viewport.
func (c *Camera) InViewport(s components.Vec2) bool {
	return s.X >= 0 && s.Y >= 0 && s.X < c.View.X && s.Y < c.View.Y
}

// IsVisible reports whether a circle at p could overlap the viewport.
func (c *Camera) IsVisible(p components.Vec2, radius float32) bool {
	lo, hi := c.VisibleWorldBounds()
	return p.X+radius >= lo.X && p.X-radius <= hi.X &&
		p.Y+radius >= lo.Y && p.Y-radius <= hi.Y
}

// VisibleWorldBounds returns the world-space corners of the viewport.
func (c *Camera) VisibleWorldBounds() (lo, hi components.Vec2) {
	half := c.halfView().Scale(1 / c.Zoom)
	return c.Center.Sub(half), c.Center.Add(half)
}

// Resize updates the viewport size and the zoom floor.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.View = components.V2(viewportW, viewportH)
	c.MinZoom = c.fitZoom()
	c.SetZoom(c.Zoom)
}

// ResizeWorld updates the world size and keeps the centre inside it.
func (c *Camera) ResizeWorld(worldW, worldH float32) {
	c.World = components.V2(worldW, worldH)
	c.MinZoom = c.fitZoom()
	c.SetZoom(c.Zoom)
	c.Pan(components.Vec2{})
}

// Pan moves the camera by a delta in screen pixels.
func (c *Camera) Pan(d components.Vec2) {
	p := c.Center.Add(d.Scale(1 / c.Zoom))
	c.Center = components.V2(
		max(0, min(c.World.X, p.X)),
		max(0, min(c.World.Y, p.Y)),
	)
}

// SetZoom sets the zoom, clamped to [MinZoom, MaxZoom].
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = max(c.MinZoom, min(c.MaxZoom, zoom))
}

// ZoomBy multiplies the zoom around the viewport centre.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// ZoomAt multiplies the zoom keeping the world point under screen point s
// fixed, as far as the pan clamp allows.
func (c *Camera) ZoomAt(s components.Vec2, factor float32) {
	anchor := c.ScreenToWorld(s)
	c.SetZoom(c.Zoom * factor)
	drift := anchor.Sub(c.ScreenToWorld(s))
	c.Pan(drift.Scale(c.Zoom))
}

// Reset centres the camera and zooms out to the whole world.
func (c *Camera) Reset() {
	c.Center = c.World.Scale(0.5)
	c.Zoom = c.MinZoom
}

// Camera2D returns the raylib camera for drawing in world coordinates.
func (c *Camera) Camera2D() rl.Camera2D {
	half := c.halfView()
	return rl.Camera2D{
		Offset: rl.Vector2{X: half.X, Y: half.Y},
		Target: rl.Vector2{X: c.Center.X, Y: c.Center.Y},
		Zoom:   c.Zoom,
	}
}
