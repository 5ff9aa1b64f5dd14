// Package config provides configuration loading and access for the
// dataflow circuit's tunable constants.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Constants holds every tunable constant the circuit's semantics depend on.
// Keeping them in one struct, loaded from one file, is deliberate: spec.md §6
// calls out that these must be documented and tunable as a single block, not
// scattered through the implementation.
type Constants struct {
	Physics   PhysicsConstants   `yaml:"physics"`
	Landing   LandingConstants   `yaml:"landing"`
	Behaviour BehaviourConstants `yaml:"behaviour"`
	Block     BlockConstants     `yaml:"block"`

	// Derived holds values computed after loading.
	Derived DerivedConstants `yaml:"-"`
}

// PhysicsConstants holds gravity/friction/velocity tunables.
type PhysicsConstants struct {
	GravityPull          float64 `yaml:"gravity_pull"`          // negative, applied to vz each tick
	TerminalVelocity     float64 `yaml:"terminal_velocity"`     // clamp on downward vz
	GraceDistance        float64 `yaml:"grace_distance"`        // standing vs unsupported threshold
	FrictionCoefficient  float64 `yaml:"friction_coefficient"`  // ground friction, applied once to velocity
}

// LandingConstants holds fall-damage and cooldown tunables.
type LandingConstants struct {
	SafeLandingSpeed     float64 `yaml:"safe_landing_speed"`
	FallDamageScale      float64 `yaml:"fall_damage_scale"`
	LandingCooldownTicks uint64  `yaml:"landing_cooldown_ticks"`
}

// BehaviourConstants holds fear/movement tunables.
type BehaviourConstants struct {
	FearThreshold float64 `yaml:"fear_threshold"`
}

// BlockConstants holds floor-derivation tunables.
type BlockConstants struct {
	CentreOffset float64 `yaml:"centre_offset"` // spec.md fixes this at 0.5
	TopOffset    float64 `yaml:"top_offset"`    // spec.md fixes this at 1.0
}

// DerivedConstants holds values computed from the loaded constants.
type DerivedConstants struct {
	NegativeTerminalVelocity float64 // -TerminalVelocity, the clamp floor for vz
}

// global holds the loaded constants.
var global *Constants

// Init loads constants from the given path, or uses embedded defaults if
// path is empty. Must be called before Cfg().
func Init(path string) error {
	c, err := Load(path)
	if err != nil {
		return err
	}
	global = c
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global constants. Panics if Init was not called.
func Cfg() *Constants {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads constants from a YAML file, merging with embedded defaults. If
// path is empty, only embedded defaults are used.
func Load(path string) (*Constants, error) {
	c := &Constants{}
	if err := yaml.Unmarshal(defaultsYAML, c); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	c.computeDerived()
	return c, nil
}

// WriteYAML writes the constants to path, e.g. so cmd/tuneconstants can
// persist a tuned set for reuse.
func (c *Constants) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling constants: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing constants file: %w", err)
	}
	return nil
}

func (c *Constants) computeDerived() {
	c.Derived.NegativeTerminalVelocity = -c.Physics.TerminalVelocity
}
