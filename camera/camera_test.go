package camera

import (
	"math"
	"testing"

	"github.com/pthm-cable/grains/components"
)

func near(a, b components.Vec2) bool {
	return math.Abs(float64(a.X-b.X)) < 0.01 && math.Abs(float64(a.Y-b.Y)) < 0.01
}

func TestNew(t *testing.T) {
	cam := New(1200, 800, 1200, 800)

	if cam.Center != components.V2(600, 400) {
		t.Errorf("expected camera at (600, 400), got %v", cam.Center)
	}
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
}

func TestNewFitsLargeWorld(t *testing.T) {
	// World twice the viewport: starting zoom shows all of it
	cam := New(600, 400, 1200, 800)
	if cam.Zoom != 0.5 {
		t.Errorf("expected zoom 0.5, got %f", cam.Zoom)
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(1200, 800, 1200, 800)

	if s := cam.WorldToScreen(components.V2(600, 400)); !near(s, components.V2(600, 400)) {
		t.Errorf("expected screen center (600, 400), got %v", s)
	}

	// At 1:1 with the world filling the view, world and screen coincide
	if s := cam.WorldToScreen(components.Vec2{}); s != (components.Vec2{}) {
		t.Errorf("expected origin at (0, 0), got %v", s)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)
	cam.SetZoom(2)
	cam.Pan(components.V2(100, -50))

	points := []components.Vec2{
		{X: 640, Y: 360},  // center
		{X: 100, Y: 100},  // top-left
		{X: 1200, Y: 600}, // near bottom-right
		{X: -20, Y: 900},  // outside the viewport
	}
	for _, s := range points {
		w := cam.ScreenToWorld(s)
		if back := cam.WorldToScreen(w); !near(back, s) {
			t.Errorf("roundtrip failed: %v -> %v -> %v", s, w, back)
		}
	}
}

func TestPan(t *testing.T) {
	tests := []struct {
		name  string
		zoom  float32
		delta components.Vec2
		want  components.Vec2
	}{
		{"clamps left", 1, components.V2(-10000, 0), components.V2(0, 400)},
		{"clamps bottom", 1, components.V2(0, 10000), components.V2(600, 800)},
		{"scales with zoom", 2, components.V2(100, 0), components.V2(650, 400)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := New(1200, 800, 1200, 800)
			cam.SetZoom(tt.zoom)
			cam.Pan(tt.delta)
			if cam.Center != tt.want {
				t.Errorf("Center = %v, want %v", cam.Center, tt.want)
			}
		})
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)

	// MinZoom should be min(1280/2560, 720/1440) = 0.5
	if cam.MinZoom != 0.5 {
		t.Errorf("expected MinZoom 0.5, got %f", cam.MinZoom)
	}

	cam.SetZoom(0.1)
	if cam.Zoom != 0.5 {
		t.Errorf("expected zoom clamped to 0.5, got %f", cam.Zoom)
	}

	cam.SetZoom(100.0)
	if cam.Zoom != DefaultMaxZoom {
		t.Errorf("expected zoom clamped to %v, got %f", DefaultMaxZoom, cam.Zoom)
	}
}

func TestZoomAtKeepsAnchor(t *testing.T) {
	cam := New(1200, 800, 1200, 800)
	s := components.V2(300, 200)
	before := cam.ScreenToWorld(s)

	cam.ZoomAt(s, 2)
	if cam.Zoom != 2 {
		t.Fatalf("Zoom = %v, want 2", cam.Zoom)
	}
	if after := cam.ScreenToWorld(s); !near(after, before) {
		t.Errorf("anchor moved from %v to %v", before, after)
	}
}

func TestMinZoomShowsWholeWorld(t *testing.T) {
	cam := New(800, 600, 1600, 800)

	// MinZoom should be min(800/1600, 600/800) = 0.5
	if math.Abs(float64(cam.MinZoom-0.5)) > 0.001 {
		t.Errorf("expected MinZoom 0.5, got %f", cam.MinZoom)
	}

	lo, hi := cam.VisibleWorldBounds()
	if lo.X > 0 || lo.Y > 0 || hi.X < cam.World.X || hi.Y < cam.World.Y {
		t.Errorf("visible bounds %v-%v do not cover world", lo, hi)
	}
}

func TestResize(t *testing.T) {
	cam := New(1200, 800, 1200, 800)
	cam.Resize(600, 400)

	if cam.MinZoom != 0.5 {
		t.Errorf("expected MinZoom 0.5 after resize, got %f", cam.MinZoom)
	}
	if cam.Zoom != 1 {
		t.Errorf("zoom should be unchanged, got %f", cam.Zoom)
	}

	cam.ResizeWorld(300, 200)
	if cam.Center.X > 300 || cam.Center.Y > 200 {
		t.Errorf("centre %v should be clamped into the new world", cam.Center)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)
	cam.SetZoom(1)

	// Visible range in world coords: (640, 360) to (1920, 1080)
	tests := []struct {
		p      components.Vec2
		radius float32
		want   bool
	}{
		{components.V2(1280, 720), 10, true},
		{components.V2(2400, 1300), 10, false},
		{components.V2(600, 720), 100, true},
		{components.V2(600, 720), 10, false},
	}
	for _, tt := range tests {
		if got := cam.IsVisible(tt.p, tt.radius); got != tt.want {
			t.Errorf("IsVisible(%v, %v) = %v, want %v", tt.p, tt.radius, got, tt.want)
		}
	}
}

func TestInViewport(t *testing.T) {
	cam := New(1200, 800, 1200, 800)

	tests := []struct {
		s    components.Vec2
		want bool
	}{
		{components.V2(0, 0), true},
		{components.V2(1199, 799), true},
		{components.V2(1200, 10), false},
		{components.V2(-1, 10), false},
	}
	for _, tt := range tests {
		if got := cam.InViewport(tt.s); got != tt.want {
			t.Errorf("InViewport(%v) = %v, want %v", tt.s, got, tt.want)
		}
	}
}

func TestReset(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)
	cam.Center = components.V2(500, 500)
	cam.Zoom = 2.5

	cam.Reset()

	if cam.Center != components.V2(1280, 720) {
		t.Errorf("expected position (1280, 720), got %v", cam.Center)
	}
	if cam.Zoom != 0.5 {
		t.Errorf("expected zoom 0.5, got %f", cam.Zoom)
	}
}

func TestCamera2D(t *testing.T) {
	cam := New(1000, 500, 1000, 500)
	c2 := cam.Camera2D()
	if c2.Offset.X != 500 || c2.Offset.Y != 250 || c2.Target.X != 500 || c2.Zoom != 1 {
		t.Errorf("Camera2D = %+v", c2)
	}
}
