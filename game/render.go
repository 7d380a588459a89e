package game

import (
	"fmt"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/grains/telemetry"
	"github.com/pthm-cable/grains/ui"
)

// Draw renders the frame and closes the perf sample opened by Update.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()
	g.perfCollector.StartPhase(telemetry.PhaseRender)
	defer g.perfCollector.EndTick()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	viewW := int32(g.camera.View.X)
	viewH := int32(g.camera.View.Y)

	rl.BeginScissorMode(0, 0, viewW, viewH)
	g.particles.Draw(g.sim, g.camera)
	g.drawPointer()
	rl.EndScissorMode()

	g.hud.Draw(ui.HUDData{
		Count:       g.sim.Count(),
		Capacity:    g.sim.Capacity(),
		Frame:       g.sim.Frame(),
		FPS:         rl.GetFPS(),
		AvgVelocity: g.sim.AverageVelocity(),
		AvgSpeed:    g.sim.AverageSpeed(),
		Paused:      g.sim.Paused(),
		Flags:       g.sim.Flags(),
		Step:        g.sim.LastStep(),
	})
	g.hud.DrawControls(viewH, fmt.Sprintf(
		"[Space] run/stop  [LMB] repel  [RMB] spawn  [[ ]] count  [Bksp] reset  [C] colour: %s  [</>] %dx",
		colorModeName(g.particles.Mode()), g.stepsPerUpdate,
	))

	g.drawPanel(viewW)

	rl.EndDrawing()
}

// drawPointer outlines the pointer repulsion radius while it is active.
func (g *Game) drawPointer() {
	p, ok := g.sim.PointerTarget()
	if !ok {
		return
	}
	s := g.camera.WorldToScreen(p)
	radius := g.sim.ForceField().PointerRadius * g.camera.Zoom
	rl.DrawCircleLines(int32(s.X), int32(s.Y), radius, rl.Color{R: 255, G: 255, B: 255, A: 90})
}

// drawPanel renders the control column and applies what the user clicked.
func (g *Game) drawPanel(x int32) {
	panelW := int32(g.cfg.Screen.PanelWidth)
	if panelW <= 0 {
		return
	}
	g.controls.DrawBackground(int32(g.screenHeight))

	actions, y := g.controls.Draw(ui.ControlState{
		Paused:   g.sim.Paused(),
		Flags:    g.sim.Flags(),
		Count:    g.sim.Count(),
		MaxCount: g.cfg.Population.Max,
	})
	g.applyControls(actions)

	if g.showPerf {
		g.perfPanel.SetPosition(x+10, y+10)
		g.perfPanel.Draw(g.perfCollector.Stats(), g.perfCollector.FPSHistory(), g.cfg.Screen.TargetFPS)
	}
}

func (g *Game) applyControls(a ui.ControlActions) {
	switch {
	case a.Start:
		g.sim.Start()
	case a.Stop:
		g.sim.Stop()
	}
	if a.Reset {
		if err := g.Reset(g.sim.Count()); err != nil {
			slog.Error("reset failed", "error", err)
		}
	}
	if a.Flags != g.sim.Flags() {
		g.sim.SetFlags(a.Flags)
	}
	if a.SetCount {
		g.setParticleCount(a.Count)
	}
}
