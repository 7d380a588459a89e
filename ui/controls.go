package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/grains/systems"
)

// ControlState is the simulation state the panel reflects.
type ControlState struct {
	Paused   bool
	Flags    systems.Flags
	Count    int
	MaxCount int
}

// ControlActions reports what the user asked for this frame.
type ControlActions struct {
	Start, Stop, Reset bool
	Flags              systems.Flags
	SetCount           bool
	Count              int
}

// ControlPanel renders the right-hand control column: run buttons, step
// toggles and the particle count slider.
type ControlPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32

	// Slider position, applied with the Apply button
	pendingCount float32
	synced       bool
}

// NewControlPanel creates a new control panel.
func NewControlPanel(x, y, width int32) *ControlPanel {
	return &ControlPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (c *ControlPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// DrawBackground fills the column from the panel's top down to height.
func (c *ControlPanel) DrawBackground(height int32) {
	c.renderer.DrawPanel(c.x, c.y, c.width, height-c.y)
}

// Draw renders the panel and returns the actions triggered this frame and
// the Y below the panel.
func (c *ControlPanel) Draw(state ControlState) (ControlActions, int32) {
	r := c.renderer
	pad := r.Theme.Padding
	x := float32(c.x + pad)
	w := float32(c.width - 2*pad)

	if !c.synced {
		c.pendingCount = float32(state.Count)
		c.synced = true
	}

	actions := ControlActions{Flags: state.Flags}
	y := r.DrawSectionHeader(c.x+pad, c.y+pad, "Simulation")

	half := (w - float32(pad)) / 2
	if state.Paused {
		actions.Start = gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: half, Height: 24}, "Start")
	} else {
		actions.Stop = gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: half, Height: 24}, "Stop")
	}
	actions.Reset = gui.Button(rl.Rectangle{X: x + half + float32(pad), Y: float32(y), Width: half, Height: 24}, "Reset")
	y += 34

	y = r.DrawSectionHeader(c.x+pad, y, "Step")
	toggles := []struct {
		label string
		value *bool
	}{
		{"Gravity [G]", &actions.Flags.Gravity},
		{"Spatial grid [H]", &actions.Flags.Partitioned},
		{"Parallel [P]", &actions.Flags.Parallel},
		{"3x3 cells [R]", &actions.Flags.ReducedComparisons},
	}
	for _, t := range toggles {
		*t.value = gui.CheckBox(rl.Rectangle{X: x, Y: float32(y), Width: 16, Height: 16}, t.label, *t.value)
		y += 24
	}

	y = r.DrawSectionHeader(c.x+pad, y+4, "Particles")
	maxCount := float32(state.MaxCount)
	if maxCount <= 0 {
		maxCount = float32(systems.MaxParticles)
	}
	c.pendingCount = gui.SliderBar(
		rl.Rectangle{X: x, Y: float32(y), Width: w, Height: 18},
		"", "",
		c.pendingCount, 0, maxCount,
	)
	y += 22
	y = r.DrawLabelValue(c.x+pad, y, "Target", fmt.Sprintf("%d", int(c.pendingCount)))
	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: w, Height: 24}, "Apply") {
		actions.SetCount = true
		actions.Count = int(c.pendingCount)
	}
	y += 34

	return actions, y
}

// Sync moves the slider to count, e.g. after a reset or a keyboard change.
func (c *ControlPanel) Sync(count int) {
	c.pendingCount = float32(count)
	c.synced = true
}
