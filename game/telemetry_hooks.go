package game

import "log/slog"

// flushTelemetry checks if the stats window should be flushed and writes it out.
func (g *Game) flushTelemetry() {
	frame := g.sim.Frame()
	if !g.collector.ShouldFlush(frame) {
		return
	}

	stats := g.collector.Flush(frame, g.sim.Store())
	perfStats := g.perfCollector.Stats()

	// Call stats callback if provided
	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if stats.Faults > 0 {
		slog.Warn("non-finite particles skipped", "frame", frame, "faults", stats.Faults)
	}

	// Write to CSV if output manager is enabled
	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndFrame, stats.Count); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}
