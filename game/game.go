package game

import (
	"log/slog"

	"github.com/pthm-cable/grains/camera"
	"github.com/pthm-cable/grains/config"
	"github.com/pthm-cable/grains/renderer"
	"github.com/pthm-cable/grains/telemetry"
	"github.com/pthm-cable/grains/ui"
)

// Options configures a Game.
type Options struct {
	Seed           int64
	LogStats       bool    // Log window stats via slog
	StatsWindowSec float64 // 0 = config telemetry.stats_window
	OutputDir      string  // CSV output directory (empty = disabled)
	Headless       bool    // No raylib resources are created
	StepsPerUpdate int     // Physics steps per Update call

	// Config overrides the global configuration when set.
	Config *config.Config

	// StatsCallback receives every flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// Game drives a Simulation frame by frame: physics, telemetry, input and
// drawing.
type Game struct {
	sim *Simulation
	cfg *config.Config
	dt  float64

	headless       bool
	stepsPerUpdate int
	spawnCount     int

	// Telemetry
	logStats      bool
	statsCallback func(telemetry.WindowStats)
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager

	// Rendering (nil when headless)
	camera    *camera.Camera
	particles *renderer.ParticleRenderer
	hud       *ui.HUD
	perfPanel *ui.PerfPanel
	controls  *ui.ControlPanel
	showPerf  bool

	screenWidth, screenHeight float32
}

// NewGameWithOptions creates a game with a freshly populated simulation.
func NewGameWithOptions(opts Options) *Game {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}
	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}

	g := &Game{
		sim:            NewSimulation(cfg, opts.Seed),
		cfg:            cfg,
		dt:             cfg.Physics.DT,
		headless:       opts.Headless,
		stepsPerUpdate: steps,
		spawnCount:     25,
		logStats:       opts.LogStats,
		statsCallback:  opts.StatsCallback,
		collector:      telemetry.NewCollector(statsWindow, cfg.Derived.DT32),
		perfCollector:  telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		screenWidth:    float32(cfg.Screen.Width),
		screenHeight:   float32(cfg.Screen.Height),
		showPerf:       true,
	}

	if err := g.sim.Reset(cfg.Population.Initial); err != nil {
		slog.Error("failed to populate simulation", "error", err)
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		slog.Error("failed to create output manager", "error", err)
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	if !opts.Headless {
		g.initRendering()
	}

	slog.Info("simulation created",
		"seed", opts.Seed,
		"particles", g.sim.Count(),
		"world_w", cfg.Derived.WorldW32,
		"world_h", cfg.Derived.WorldH32,
		"workers", g.sim.step.Workers(),
		"headless", opts.Headless,
	)
	return g
}

// initRendering creates the view-side collaborators.
func (g *Game) initRendering() {
	viewW := g.screenWidth - float32(g.cfg.Screen.PanelWidth)
	worldW, worldH := g.sim.Bounds()

	g.camera = camera.New(viewW, g.screenHeight, worldW, worldH)
	g.particles = renderer.NewParticleRenderer(
		renderer.ParseColorMode(g.cfg.Render.ColorMode),
		float32(g.cfg.Render.MaxSpeedColor),
	)
	g.hud = ui.NewHUD()
	g.controls = ui.NewControlPanel(int32(viewW), 0, int32(g.cfg.Screen.PanelWidth))
	g.perfPanel = ui.NewPerfPanel(int32(viewW)+10, 0, int32(g.cfg.Screen.PanelWidth)-20)
}

// Update handles input and runs the physics steps for one frame. The frame's
// perf sample is closed by Draw.
func (g *Game) Update() {
	g.handleInput()

	g.perfCollector.StartTick()
	g.simulate()
}

// UpdateHeadless runs the physics steps for one frame without input or drawing.
func (g *Game) UpdateHeadless() {
	g.perfCollector.StartTick()
	g.simulate()
	g.perfCollector.EndTick()
}

// simulate advances the simulation stepsPerUpdate times and feeds telemetry.
func (g *Game) simulate() {
	if g.sim.Paused() {
		return
	}

	for i := 0; i < g.stepsPerUpdate; i++ {
		g.sim.Advance(g.dt)

		st := g.sim.LastStep()
		g.perfCollector.RecordPhase(telemetry.PhaseSpatialHash, st.HashDuration)
		g.perfCollector.RecordPhase(telemetry.PhaseForceIntegrate, st.ForceDuration)
		g.collector.RecordStep(st)

		g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
		g.flushTelemetry()
		g.perfCollector.EndPhase()
	}
}

// Reset repopulates the simulation and restarts the telemetry window.
func (g *Game) Reset(count int) error {
	if err := g.sim.Reset(count); err != nil {
		return err
	}
	g.collector.Reset(g.sim.Frame())
	if g.controls != nil {
		g.controls.Sync(g.sim.Count())
	}
	slog.Info("simulation reset", "particles", g.sim.Count())
	return nil
}

// Simulation returns the underlying simulation.
func (g *Game) Simulation() *Simulation { return g.sim }

// Frame returns the number of physics steps since the last reset.
func (g *Game) Frame() int32 { return g.sim.Frame() }

// Unload releases workers, GPU resources and output files.
func (g *Game) Unload() {
	g.sim.Close()
	if g.particles != nil {
		g.particles.Unload()
	}
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output files", "error", err)
	}
}
