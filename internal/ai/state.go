package ai

import (
	"errors"
	"fmt"

	"github.com/timetolife1989-cloud/mechdefense/internal/model"
)

// ErrUnknownState is returned when a transition names a state that does not exist.
var ErrUnknownState = errors.New("ai: unknown state")

// StateID identifies one variant of the enemy state machine.
type StateID uint8

const (
	StateIdle StateID = iota
	StatePatrol
	StateChase
	StateAttack
	StateFlee
	StateDead
)

var stateNames = [...]string{
	StateIdle:   "Idle",
	StatePatrol: "Patrol",
	StateChase:  "Chase",
	StateAttack: "Attack",
	StateFlee:   "Flee",
	StateDead:   "Dead",
}

// String returns the state name used for transitions.
func (s StateID) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("StateID(%d)", uint8(s))
}

// ParseState resolves a state name. Names are case-sensitive.
func ParseState(name string) (StateID, error) {
	for i, n := range stateNames {
		if n == name {
			return StateID(i), nil
		}
	}
	return StateIdle, fmt.Errorf("%w: %q", ErrUnknownState, name)
}

// Behaviour tunables.
const (
	maxIdleTime           = 2.0  // seconds in Idle before patrolling
	patrolRadius          = 10.0 // half-extent of the patrol square around the entity
	patrolArriveDistance  = 2.0
	fleeDistance          = 20.0
	fleeRecoverFraction   = 0.5 // health fraction at which a fleeing enemy re-engages
	deadRemovalDelay      = 3.0 // seconds
	DefaultAttackCooldown = 1.5 // seconds
)

// Context is everything a state may observe or command.
// Implemented by EnemyController; tests use a fake.
type Context interface {
	HasTarget() bool
	TargetPosition() model.Vec3
	DistanceToTarget() float64

	AttackRange() float64
	DetectionRange() float64
	FleeHealthThreshold() float64
	AttackCooldown() float64

	// HealthFraction reports current/max health; ok is false without a health component.
	HealthFraction() (float64, bool)
	// Position reports the body position; ok is false once the body is gone.
	Position() (model.Vec3, bool)

	MoveTowards(point model.Vec3)
	Stop()
	DisableBody()
	Attack()
	Despawn()

	ChangeState(name string) error
}
