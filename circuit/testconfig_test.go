package circuit

import "github.com/pthm-cable/worldcore/config"

// testConfig returns a Constants value with round, easy-to-reason-about
// numbers rather than the shipped defaults, so scenario expectations can be
// computed by hand.
func testConfig() *config.Constants {
	c := &config.Constants{
		Physics: config.PhysicsConstants{
			GravityPull:         -1.0,
			TerminalVelocity:    20.0,
			GraceDistance:       0.1,
			FrictionCoefficient: 0.5,
		},
		Landing: config.LandingConstants{
			SafeLandingSpeed:     5.0,
			FallDamageScale:      2.0,
			LandingCooldownTicks: 3,
		},
		Behaviour: config.BehaviourConstants{
			FearThreshold: 0.3,
		},
		Block: config.BlockConstants{
			CentreOffset: 0.5,
			TopOffset:    1.0,
		},
	}
	c.Derived.NegativeTerminalVelocity = -c.Physics.TerminalVelocity
	return c
}
