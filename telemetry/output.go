package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/pthm-cable/grains/config"
)

// BenchResult is one row of the benchmark matrix.
type BenchResult struct {
	Particles int     `csv:"particles"`
	Parallel  bool    `csv:"parallel"`
	Reduced   bool    `csv:"reduced"`
	Grid      bool    `csv:"grid"`
	Frames    int     `csv:"frames"`
	ElapsedMS float64 `csv:"elapsed_ms"`
	AvgFPS    float64 `csv:"avg_fps"`
	Faults    int     `csv:"faults"`
}

// csvFile appends records to a CSV file, writing the header once.
type csvFile struct {
	f             *os.File
	headerWritten bool
}

func (c *csvFile) write(records any) error {
	if !c.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, c.f); err != nil {
			return err
		}
		c.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, c.f)
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir       string
	telemetry *csvFile
	perf      *csvFile
	bench     *csvFile // created on first WriteBench
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating telemetry.csv: %w", err)
	}
	om.telemetry = &csvFile{f: f}

	f, err = os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		om.telemetry.f.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perf = &csvFile{f: f}

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	if err := om.telemetry.write([]WindowStats{stats}); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32, particles int) error {
	if om == nil {
		return nil
	}
	if err := om.perf.write([]PerfStatsCSV{stats.ToCSV(windowEnd, particles)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteBench appends benchmark rows to bench.csv.
func (om *OutputManager) WriteBench(results []BenchResult) error {
	if om == nil || len(results) == 0 {
		return nil
	}
	if om.bench == nil {
		f, err := os.Create(filepath.Join(om.dir, "bench.csv"))
		if err != nil {
			return fmt.Errorf("creating bench.csv: %w", err)
		}
		om.bench = &csvFile{f: f}
	}
	if err := om.bench.write(results); err != nil {
		return fmt.Errorf("writing bench: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, c := range []*csvFile{om.telemetry, om.perf, om.bench} {
		if c == nil {
			continue
		}
		if err := c.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
