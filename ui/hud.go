package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/grains/components"
	"github.com/pthm-cable/grains/systems"
	"github.com/pthm-cable/grains/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Count       int
	Capacity    int
	Frame       int32
	FPS         int32
	AvgVelocity components.Vec2
	AvgSpeed    float64
	Paused      bool
	Flags       systems.Flags
	Step        systems.StepStats
}

// HUD renders the main heads-up display over the particle view.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD in the top-left corner of the view.
func (h *HUD) Draw(data HUDData) {
	th := h.renderer.Theme
	x := th.Padding
	y := th.Padding
	line := th.HUDFontSize + 4

	rl.DrawText(fmt.Sprintf("Particles: %d / %d", data.Count, data.Capacity), x, y, th.HUDTitleSize, th.HUDTitle)
	y += th.HUDTitleSize + 5

	rl.DrawText(
		fmt.Sprintf("Frame: %d | FPS: %d | Contacts: %d | Ranges: %d", data.Frame, data.FPS, data.Step.Contacts, data.Step.Workers),
		x, y, th.HUDFontSize, th.HUDText,
	)
	y += line
	rl.DrawText(
		fmt.Sprintf("Avg velocity: (%.2f, %.2f) | speed %.2f", data.AvgVelocity.X, data.AvgVelocity.Y, data.AvgSpeed),
		x, y, th.HUDFontSize, th.HUDText,
	)
	y += line

	status, col := "Running", th.StatusRun
	if data.Paused {
		status, col = "PAUSED", th.StatusStop
	}
	rl.DrawText(status, x, y, th.HUDFontSize, col)
	y += line

	if data.Step.Faults > 0 {
		rl.DrawText(fmt.Sprintf("Skipped non-finite: %d", data.Step.Faults), x, y, th.HUDFontSize, th.Fault)
	}
}

// DrawControls renders the key legend along the bottom of the view.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	th := h.renderer.Theme
	rl.DrawText(controls, th.Padding, screenHeight-25, th.FontSize+2, th.HUDLegend)
}

// PerfPanel renders the frame phase breakdown and an FPS history graph.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y, width int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel and returns the Y below it.
func (p *PerfPanel) Draw(stats telemetry.PerfStats, fpsHistory []float64, targetFPS int) int32 {
	r := p.renderer
	x := p.x
	y := r.DrawSectionHeader(x, p.y, "Performance")

	y = r.DrawLabelValue(x, y, "Tick", stats.AvgTickDuration.Round(time.Microsecond).String())
	y = r.DrawLabelValue(x, y, "P95", stats.P95TickDuration.Round(time.Microsecond).String())
	for _, phase := range []telemetry.Phase{telemetry.PhaseSpatialHash, telemetry.PhaseForceIntegrate, telemetry.PhaseRender} {
		y = r.DrawBar(x, y, phaseLabel(phase), float32(stats.PhasePct[phase]/100), p.width)
	}

	ceil := float64(targetFPS) * 1.5
	if ceil <= 0 {
		ceil = 90
	}
	y = r.DrawLabelValue(x, y, "FPS", fmt.Sprintf("%.0f", stats.FPS))
	return r.DrawGraph(x, y, p.width, 40, fpsHistory, ceil)
}

func phaseLabel(phase telemetry.Phase) string {
	switch phase {
	case telemetry.PhaseSpatialHash:
		return "Hash"
	case telemetry.PhaseForceIntegrate:
		return "Forces"
	case telemetry.PhaseRender:
		return "Render"
	}
	return phase.String()
}
