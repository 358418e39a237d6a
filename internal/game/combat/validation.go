package combat

import "errors"

// rangeTolerance absorbs float noise between the range check that chose to
// attack and the one that validates it.
const rangeTolerance = 1e-6

var (
	ErrAttackerDead = errors.New("combat: attacker is dead")
	ErrTargetDead   = errors.New("combat: target is dead")
	ErrOutOfRange   = errors.New("combat: target out of range")
)

// Engagement describes an attack about to be resolved.
type Engagement struct {
	AttackerAlive bool
	TargetAlive   bool
	Distance      float64
	Range         float64 // non-positive means unlimited
}

// ValidateAttack reports why an attack must not proceed, or nil.
//
// Checks, in order:
//   - attacker alive
//   - target alive
//   - target in range
func ValidateAttack(e Engagement) error {
	if !e.AttackerAlive {
		return ErrAttackerDead
	}
	if !e.TargetAlive {
		return ErrTargetDead
	}
	if !IsInAttackRange(e.Distance, e.Range) {
		return ErrOutOfRange
	}
	return nil
}

// IsInAttackRange reports whether distance is within attackRange.
func IsInAttackRange(distance, attackRange float64) bool {
	if attackRange <= 0 {
		return true
	}
	return distance <= attackRange+rangeTolerance
}
