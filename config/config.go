// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/pthm-cable/grains/components"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	World      WorldConfig      `yaml:"world"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Forces     ForcesConfig     `yaml:"forces"`
	Population PopulationConfig `yaml:"population"`
	Render     RenderConfig     `yaml:"render"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width      int `yaml:"width"`
	Height     int `yaml:"height"`
	TargetFPS  int `yaml:"target_fps"`
	PanelWidth int `yaml:"panel_width"` // Control panel to the right of the world view
}

// WorldConfig holds simulation world dimensions.
type WorldConfig struct {
	Width  int `yaml:"width"`  // World width in world units (0 = screen width minus panel)
	Height int `yaml:"height"` // World height in world units (0 = screen height)
}

// PhysicsConfig holds the step pipeline settings.
type PhysicsConfig struct {
	DT                 float64 `yaml:"dt"`
	CellSize           float64 `yaml:"cell_size"` // Spatial hash cell size; powers of two use the shift path
	Gravity            float64 `yaml:"gravity"`
	GravityEnabled     bool    `yaml:"gravity_enabled"`
	Partitioned        bool    `yaml:"partitioned"`         // Spatial hash broad phase (false = all pairs)
	Parallel           bool    `yaml:"parallel"`            // Worker pool
	ReducedComparisons bool    `yaml:"reduced_comparisons"` // 3x3 neighbourhood instead of 5x5
	Workers            int     `yaml:"workers"`             // 0 = GOMAXPROCS
	ParallelThreshold  int     `yaml:"parallel_threshold"`  // Below this count the step runs inline
}

// ForcesConfig holds force field tunables.
type ForcesConfig struct {
	RepulsionStrength float64 `yaml:"repulsion_strength"`
	PointerRadius     float64 `yaml:"pointer_radius"`
	PointerStrength   float64 `yaml:"pointer_strength"`
	SandFriction      float64 `yaml:"sand_friction"`   // Velocity fraction removed per sand contact
	LiquidSoftness    float64 `yaml:"liquid_softness"` // Force scale for liquid-liquid pairs
	BuoyancyFactor    float64 `yaml:"buoyancy_factor"` // Gravity scale for gas (negative rises)
	GasDamping        float64 `yaml:"gas_damping"`     // Per-step velocity multiplier for gas
	Restitution       float64 `yaml:"restitution"`     // Wall bounce velocity retention
	MinDistSq         float64 `yaml:"min_dist_sq"`     // Degenerate pair guard
}

// KindWeights holds relative spawn weights per particle kind.
type KindWeights struct {
	Default float64 `yaml:"default"`
	Liquid  float64 `yaml:"liquid"`
	Sand    float64 `yaml:"sand"`
	Gas     float64 `yaml:"gas"`
	Stone   float64 `yaml:"stone"`
}

// PopulationConfig holds particle creation parameters.
type PopulationConfig struct {
	Initial     int             `yaml:"initial"`
	Max         int             `yaml:"max"`
	Radius      float64         `yaml:"radius"`
	Density     float64         `yaml:"density"`      // mass = radius * density
	MaxSpeed    float64         `yaml:"max_speed"`    // Initial speed upper bound on reset
	SpawnSpeed  float64         `yaml:"spawn_speed"`  // Speed upper bound for pointer spawns
	SpawnJitter float64         `yaml:"spawn_jitter"` // Positional scatter for pointer spawns
	Layout      string          `yaml:"layout"`       // "uniform" or "noise"
	NoiseScale  float64         `yaml:"noise_scale"`  // World-to-noise frequency for the noise layout
	KindWeights KindWeights     `yaml:"kind_weights"`
	SpawnKind   components.Kind `yaml:"spawn_kind"` // Kind placed by pointer spawns
}

// RenderConfig holds rendering collaborator settings.
type RenderConfig struct {
	ColorMode     string  `yaml:"color_mode"` // "kind" or "speed"
	MaxSpeedColor float64 `yaml:"max_speed_color"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32       float32 // Physics.DT as float32
	WorldW32   float32 // Effective world width as float32
	WorldH32   float32 // Effective world height as float32
	CellSize32 float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate rejects configurations the kernel cannot run with.
func (c *Config) Validate() error {
	if c.Physics.DT <= 0 {
		return fmt.Errorf("physics.dt must be positive, got %v", c.Physics.DT)
	}
	if c.Physics.CellSize <= 0 {
		return fmt.Errorf("physics.cell_size must be positive, got %v", c.Physics.CellSize)
	}
	if c.Population.Radius <= 0 {
		return fmt.Errorf("population.radius must be positive, got %v", c.Population.Radius)
	}
	if c.Population.Max < 0 || c.Population.Initial < 0 {
		return fmt.Errorf("population counts must not be negative")
	}
	if c.Forces.Restitution < 0 || c.Forces.Restitution > 1 {
		return fmt.Errorf("forces.restitution must be in [0, 1], got %v", c.Forces.Restitution)
	}
	switch c.Population.Layout {
	case "", "uniform", "noise":
	default:
		return fmt.Errorf("population.layout must be uniform or noise, got %q", c.Population.Layout)
	}
	switch c.Render.ColorMode {
	case "", "kind", "speed":
	default:
		return fmt.Errorf("render.color_mode must be kind or speed, got %q", c.Render.ColorMode)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.CellSize32 = float32(c.Physics.CellSize)

	// World dimensions default to the screen area left of the control panel
	worldW := c.World.Width
	if worldW == 0 {
		worldW = c.Screen.Width - c.Screen.PanelWidth
	}
	worldH := c.World.Height
	if worldH == 0 {
		worldH = c.Screen.Height
	}
	c.Derived.WorldW32 = float32(worldW)
	c.Derived.WorldH32 = float32(worldH)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
