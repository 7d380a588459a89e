// Package ui draws the heads-up display and the control panel that sit
// beside the particle view.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// Theme holds UI colours and metrics.
type Theme struct {
	// Side panel
	PanelBg       rl.Color
	PanelBorder   rl.Color
	SectionHeader rl.Color
	LabelColor    rl.Color
	ValueColor    rl.Color
	BarBg         rl.Color
	BarFill       rl.Color
	GraphLine     rl.Color
	GraphGrid     rl.Color

	// Overlay text on the particle view
	HUDTitle   rl.Color
	HUDText    rl.Color
	HUDLegend  rl.Color
	StatusRun  rl.Color
	StatusStop rl.Color
	Fault      rl.Color

	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	BarHeight      int32
	FontSize       int32
	HeaderFontSize int32
	HUDFontSize    int32
	HUDTitleSize   int32
}

// DefaultTheme returns the dark theme used over the black particle view.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:       rl.Color{R: 18, G: 20, B: 26, A: 245},
		PanelBorder:   rl.Color{R: 55, G: 60, B: 72, A: 255},
		SectionHeader: rl.Gold,
		LabelColor:    rl.Gray,
		ValueColor:    rl.RayWhite,
		BarBg:         rl.Color{R: 35, G: 38, B: 45, A: 255},
		BarFill:       rl.Color{R: 80, G: 140, B: 220, A: 255},
		GraphLine:     rl.Color{R: 90, G: 210, B: 120, A: 255},
		GraphGrid:     rl.Color{R: 55, G: 55, B: 60, A: 255},

		HUDTitle:   rl.White,
		HUDText:    rl.LightGray,
		HUDLegend:  rl.Gray,
		StatusRun:  rl.Green,
		StatusStop: rl.Yellow,
		Fault:      rl.Red,

		Padding:        10,
		LineHeight:     16,
		LabelWidth:     70,
		BarHeight:      12,
		FontSize:       12,
		HeaderFontSize: 14,
		HUDFontSize:    16,
		HUDTitleSize:   20,
	}
}
