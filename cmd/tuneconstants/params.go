// Package main tunes the circuit's constants with CMA-ES so a simulated
// run hits a target fall-damage/landing profile, grounded on the teacher's
// cmd/optimize parameter-vector design.
package main

import (
	"github.com/pthm-cable/worldcore/config"
)

// ParamSpec describes one optimizable constant and its bounds.
type ParamSpec struct {
	Name    string
	Min     float64
	Max     float64
	Default float64
}

// ParamVector is the ordered set of constants this run tunes.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector returns the standard set of tunable physics/landing
// constants. Behaviour and block constants are left fixed: they have no
// bearing on the fall-damage profile the fitness function scores.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "gravity_pull", Min: -40.0, Max: -5.0, Default: -20.0},
			{Name: "terminal_velocity", Min: 10.0, Max: 100.0, Default: 50.0},
			{Name: "grace_distance", Min: 0.01, Max: 1.0, Default: 0.1},
			{Name: "friction_coefficient", Min: 0.0, Max: 0.95, Default: 0.3},
			{Name: "safe_landing_speed", Min: 1.0, Max: 30.0, Default: 10.0},
			{Name: "fall_damage_scale", Min: 0.1, Max: 10.0, Default: 1.0},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int { return len(pv.Specs) }

// DefaultVector returns the default parameter values.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize maps raw values into [0,1] for the optimizer.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return out
}

// Denormalize maps [0,1] optimizer values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return out
}

// Clamp keeps every value within its bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		out[i] = val
	}
	return out
}

// ApplyToConfig writes clamped values into cfg's physics/landing constants.
func (pv *ParamVector) ApplyToConfig(cfg *config.Constants, values []float64) {
	clamped := pv.Clamp(values)
	cfg.Physics.GravityPull = clamped[0]
	cfg.Physics.TerminalVelocity = clamped[1]
	cfg.Derived.NegativeTerminalVelocity = -clamped[1]
	cfg.Physics.GraceDistance = clamped[2]
	cfg.Physics.FrictionCoefficient = clamped[3]
	cfg.Landing.SafeLandingSpeed = clamped[4]
	cfg.Landing.FallDamageScale = clamped[5]
}
