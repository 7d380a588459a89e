package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/grains/components"
	"github.com/pthm-cable/grains/renderer"
)

// countStep is how many particles the bracket keys add or remove.
const countStep = 500

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		if g.sim.Paused() {
			g.sim.Start()
		} else {
			g.sim.Stop()
		}
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < 10 {
		g.stepsPerUpdate++
	}

	// Step toggles
	if rl.IsKeyPressed(rl.KeyG) {
		g.sim.ToggleGravity()
	}
	if rl.IsKeyPressed(rl.KeyH) {
		g.sim.TogglePartitioned()
	}
	if rl.IsKeyPressed(rl.KeyP) {
		g.sim.ToggleParallel()
	}
	if rl.IsKeyPressed(rl.KeyR) {
		g.sim.ToggleReducedComparisons()
	}

	if rl.IsKeyPressed(rl.KeyC) {
		g.particles.ToggleMode()
	}
	if rl.IsKeyPressed(rl.KeyF1) {
		g.showPerf = !g.showPerf
	}

	// Population
	if rl.IsKeyPressed(rl.KeyBackspace) {
		if err := g.Reset(g.sim.Count()); err != nil {
			slog.Error("reset failed", "error", err)
		}
	}
	if rl.IsKeyPressed(rl.KeyRightBracket) {
		g.setParticleCount(g.sim.Count() + countStep)
	}
	if rl.IsKeyPressed(rl.KeyLeftBracket) {
		g.setParticleCount(max(0, g.sim.Count()-countStep))
	}

	g.handlePointer()
	g.handleCameraInput()
}

// setParticleCount resizes the population and keeps the panel slider in sync.
func (g *Game) setParticleCount(n int) {
	if err := g.sim.SetParticleCount(n); err != nil {
		slog.Error("set particle count failed", "count", n, "error", err)
		return
	}
	g.controls.Sync(g.sim.Count())
}

// handlePointer maps mouse buttons inside the world view to pointer
// repulsion (left drag) and spawning (right click).
func (g *Game) handlePointer() {
	mouse := mousePosition()
	if !g.camera.InViewport(mouse) {
		g.sim.ClearPointerTarget()
		return
	}
	w := g.camera.ScreenToWorld(mouse)
	wx, wy := w.X, w.Y

	if rl.IsMouseButtonDown(rl.MouseButtonLeft) {
		g.sim.SetPointerTarget(wx, wy)
	} else {
		g.sim.ClearPointerTarget()
	}

	if rl.IsMouseButtonPressed(rl.MouseButtonRight) {
		worldW, worldH := g.sim.Bounds()
		if wx < 0 || wy < 0 || wx > worldW || wy > worldH {
			return
		}
		n, err := g.sim.SpawnAt(wx, wy, g.spawnCount)
		if err != nil {
			slog.Error("spawn failed", "error", err)
		}
		if n > 0 {
			g.controls.Sync(g.sim.Count())
		}
	}
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	viewW := w - float32(g.cfg.Screen.PanelWidth)
	g.camera.Resize(viewW, h)
	g.controls.SetPosition(int32(viewW), 0)

	// A world without configured size follows the window
	if g.cfg.World.Width == 0 && g.cfg.World.Height == 0 {
		g.sim.Resize(viewW, h)
		g.camera.ResizeWorld(viewW, h)
	}
}

// handleCameraInput processes camera pan/zoom controls.
func (g *Game) handleCameraInput() {
	// Screen pixels per frame; Pan converts to world units
	panSpeed := float32(8.0)

	// Arrow key panning
	if rl.IsKeyDown(rl.KeyRight) {
		g.camera.Pan(components.V2(panSpeed, 0))
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.camera.Pan(components.V2(-panSpeed, 0))
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Pan(components.V2(0, panSpeed))
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.camera.Pan(components.V2(0, -panSpeed))
	}

	// Zoom controls: mouse wheel over the world view or +/- keys
	mouse := mousePosition()
	if wheelMove := rl.GetMouseWheelMove(); wheelMove != 0 && g.camera.InViewport(mouse) {
		g.camera.ZoomAt(mouse, 1.0+wheelMove*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}

	// Home key to reset camera
	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}

func mousePosition() components.Vec2 {
	m := rl.GetMousePosition()
	return components.V2(m.X, m.Y)
}

// colorModeName is shown in the controls legend.
func colorModeName(m renderer.ColorMode) string {
	if m == renderer.ColorBySpeed {
		return "speed"
	}
	return "kind"
}
