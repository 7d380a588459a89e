package main

import (
	"testing"

	"github.com/pthm-cable/grains/config"
)

func TestMatrix(t *testing.T) {
	tests := []struct {
		quick bool
		want  int
	}{
		{false, 6},
		{true, 4},
	}
	for _, tt := range tests {
		m := matrix(tt.quick)
		if len(m) != tt.want {
			t.Errorf("matrix(%v) has %d entries, want %d", tt.quick, len(m), tt.want)
		}
		for _, f := range m {
			if !f.Partitioned && f.ReducedComparisons {
				t.Errorf("brute force entry with reduced comparisons: %+v", f)
			}
		}
	}
}

func TestRun(t *testing.T) {
	cfg := config.Default()
	for _, flags := range matrix(false) {
		r := run(cfg, 1, 200, 5, flags)
		if r.Particles != 200 || r.Frames != 5 {
			t.Errorf("%+v: got %d particles %d frames", flags, r.Particles, r.Frames)
		}
		if r.Faults != 0 {
			t.Errorf("%+v: %d faults", flags, r.Faults)
		}
		if r.Grid != flags.Partitioned || r.Parallel != flags.Parallel {
			t.Errorf("result flags %+v do not match %+v", r, flags)
		}
	}
}
