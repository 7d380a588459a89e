package main

import (
	"github.com/pthm-cable/grains/config"
)

// ParamSpec is one searchable force constant.
type ParamSpec struct {
	Path     string  // config key, for output
	Min, Max float64 // search bounds

	field func(f *config.ForcesConfig) *float64
}

// ParamVector maps between the optimizer's unit cube and force settings.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector returns the searched force constants.
func NewParamVector() *ParamVector {
	return &ParamVector{Specs: []ParamSpec{
		{"forces.repulsion_strength", 50, 1500, func(f *config.ForcesConfig) *float64 { return &f.RepulsionStrength }},
		{"forces.restitution", 0.3, 1.0, func(f *config.ForcesConfig) *float64 { return &f.Restitution }},
		{"forces.sand_friction", 0, 0.5, func(f *config.ForcesConfig) *float64 { return &f.SandFriction }},
		{"forces.liquid_softness", 0.1, 1.0, func(f *config.ForcesConfig) *float64 { return &f.LiquidSoftness }},
		{"forces.gas_damping", 0.8, 1.0, func(f *config.ForcesConfig) *float64 { return &f.GasDamping }},
	}}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int { return len(pv.Specs) }

// Start reads the starting point from a config, clamped into bounds.
func (pv *ParamVector) Start(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = *spec.field(&cfg.Forces)
	}
	return pv.Clamp(v)
}

// Normalize maps raw values onto [0, 1] per parameter.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	out := make([]float64, len(raw))
	for i, spec := range pv.Specs {
		out[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return out
}

// Denormalize is the inverse of Normalize. The optimizer may step outside
// the unit cube, so the result is not clamped.
func (pv *ParamVector) Denormalize(unit []float64) []float64 {
	out := make([]float64, len(unit))
	for i, spec := range pv.Specs {
		out[i] = spec.Min + unit[i]*(spec.Max-spec.Min)
	}
	return out
}

// Clamp restricts every value to its bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, spec := range pv.Specs {
		out[i] = max(spec.Min, min(spec.Max, v[i]))
	}
	return out
}

// ApplyToConfig writes clamped values into cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		*pv.Specs[i].field(&cfg.Forces) = v
	}
}

// TuneRow is one line of tune_log.csv.
type TuneRow struct {
	Eval           int     `csv:"eval"`
	Fitness        float64 `csv:"fitness"`
	Repulsion      float64 `csv:"repulsion_strength"`
	Restitution    float64 `csv:"restitution"`
	SandFriction   float64 `csv:"sand_friction"`
	LiquidSoftness float64 `csv:"liquid_softness"`
	GasDamping     float64 `csv:"gas_damping"`
}

// Row builds a log row for the values actually used by an evaluation.
func (pv *ParamVector) Row(eval int, fitness float64, values []float64) TuneRow {
	var f config.ForcesConfig
	for i, v := range pv.Clamp(values) {
		*pv.Specs[i].field(&f) = v
	}
	return TuneRow{
		Eval:           eval,
		Fitness:        fitness,
		Repulsion:      f.RepulsionStrength,
		Restitution:    f.Restitution,
		SandFriction:   f.SandFriction,
		LiquidSoftness: f.LiquidSoftness,
		GasDamping:     f.GasDamping,
	}
}
