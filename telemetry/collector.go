package telemetry

import (
	"github.com/pthm-cable/grains/components"
	"github.com/pthm-cable/grains/systems"
)

// Collector accumulates per-frame kernel counters within time windows and
// produces WindowStats.
type Collector struct {
	windowDurationSec    float64
	windowDurationFrames int32
	dt                   float32

	// Current window tracking
	windowStartFrame int32

	// Counters for current window
	frames   int
	faults   int
	contacts int
	workers  int

	speeds []float64 // scratch, reused between flushes
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per frame (used for frame-to-time conversion)
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	framesPerWindow := int32(windowDurationSec / float64(dt))
	if framesPerWindow < 1 {
		framesPerWindow = 1
	}

	return &Collector{
		windowDurationSec:    windowDurationSec,
		windowDurationFrames: framesPerWindow,
		dt:                   dt,
	}
}

// RecordStep adds one Advance's counters to the current window.
func (c *Collector) RecordStep(s systems.StepStats) {
	c.frames++
	c.faults += s.Faults
	c.contacts += s.Contacts
	c.workers += s.Workers
}

// ShouldFlush returns true if enough frames have passed to flush the window.
func (c *Collector) ShouldFlush(currentFrame int32) bool {
	return currentFrame-c.windowStartFrame >= c.windowDurationFrames
}

// Flush produces a WindowStats from the store's current state and resets the
// counters for the next window.
func (c *Collector) Flush(currentFrame int32, store *systems.ParticleStore) WindowStats {
	n := store.Len()

	c.speeds = Speeds(c.speeds[:0], store.VelX, store.VelY, n)
	speed := ComputeSpeedStats(c.speeds)

	var kinds [components.NumKinds]int
	for _, k := range store.Kind[:n] {
		if int(k) < components.NumKinds {
			kinds[k]++
		}
	}

	var workers float64
	if c.frames > 0 {
		workers = float64(c.workers) / float64(c.frames)
	}

	stats := WindowStats{
		WindowStartFrame: c.windowStartFrame,
		WindowEndFrame:   currentFrame,
		SimTimeSec:       float64(currentFrame) * float64(c.dt),

		Count:   n,
		Default: kinds[components.KindDefault],
		Liquid:  kinds[components.KindLiquid],
		Sand:    kinds[components.KindSand],
		Gas:     kinds[components.KindGas],
		Stone:   kinds[components.KindStone],

		Frames:   c.frames,
		Faults:   c.faults,
		Contacts: c.contacts,
		Workers:  workers,

		SpeedMean: speed.Mean,
		SpeedStd:  speed.Std,
		SpeedP10:  speed.P10,
		SpeedP50:  speed.P50,
		SpeedP90:  speed.P90,
		SpeedMax:  speed.Max,

		KineticEnergy: SpecificKineticEnergy(store.VelX, store.VelY, n),
	}

	c.Reset(currentFrame)
	return stats
}

// Reset discards the current window and starts a new one at frame.
func (c *Collector) Reset(frame int32) {
	c.windowStartFrame = frame
	c.frames = 0
	c.faults = 0
	c.contacts = 0
	c.workers = 0
}

// WindowDurationFrames returns the number of frames per window.
func (c *Collector) WindowDurationFrames() int32 {
	return c.windowDurationFrames
}
