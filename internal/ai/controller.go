package ai

import (
	"math"

	"github.com/timetolife1989-cloud/mechdefense/internal/event"
	"github.com/timetolife1989-cloud/mechdefense/internal/model"
)

// Controller is a tickable AI owner registered with the TickManager.
type Controller interface {
	Handle() model.Handle
	State() StateID
	Tick(dt float64)
}

// Body is the world-side view the controller drives.
// Implemented by *world.World.
type Body interface {
	Position(h model.Handle) (model.Vec3, bool)
	TargetPosition() (model.Vec3, bool)
	MoveTowards(h model.Handle, point model.Vec3)
	Stop(h model.Handle)
	DisableBody(h model.Handle)
	Destroy(h model.Handle)
}

// Vitals is the health-side view. Implemented by *health.System.
type Vitals interface {
	HealthFraction() float64
	IsDead() bool
}

// AttackFunc performs one attack on behalf of attacker.
// Injected to avoid an import cycle with the combat/simulation layer.
type AttackFunc func(attacker model.Handle)

// Stats are the per-enemy AI tunables.
type Stats struct {
	DetectionRange      float64 `yaml:"detection_range"`
	AttackRange         float64 `yaml:"attack_range"`
	FleeHealthThreshold float64 `yaml:"flee_health_threshold"`
	AttackCooldown      float64 `yaml:"attack_cooldown"`
}

// DefaultStats returns the controller defaults (30 detection, 5 attack, flee below 20%).
func DefaultStats() Stats {
	return Stats{
		DetectionRange:      30,
		AttackRange:         5,
		FleeHealthThreshold: 0.2,
		AttackCooldown:      DefaultAttackCooldown,
	}
}

// EnemyController binds one enemy's state machine to the world and its health.
// It implements Context for the states.
type EnemyController struct {
	handle model.Handle
	stats  Stats
	body   Body
	vitals Vitals
	attack AttackFunc
	events event.Emitter

	machine *Machine

	hasTarget bool
	targetPos model.Vec3
}

// NewEnemyController creates a controller and enters the initial Idle state.
// vitals, attack and events may be nil.
func NewEnemyController(h model.Handle, stats Stats, body Body, vitals Vitals, attack AttackFunc, events event.Emitter, rng Rand) *EnemyController {
	if events == nil {
		events = event.Discard{}
	}
	c := &EnemyController{
		handle:  h,
		stats:   stats,
		body:    body,
		vitals:  vitals,
		attack:  attack,
		events:  events,
		machine: NewMachine(rng),
	}
	c.machine.Start(c)
	return c
}

// Handle returns the controlled entity.
func (c *EnemyController) Handle() model.Handle { return c.handle }

// State returns the active state.
func (c *EnemyController) State() StateID { return c.machine.State() }

// Machine exposes the underlying state machine.
func (c *EnemyController) Machine() *Machine { return c.machine }

// Tick refreshes the target, updates the active state and applies any
// requested transition, in that order.
func (c *EnemyController) Tick(dt float64) {
	c.refreshTarget()

	prev := c.machine.State()
	c.machine.Update(c, dt)
	if next := c.machine.State(); next != prev {
		c.emitState(next)
	}
}

// OnDeath switches the controller to Dead immediately.
func (c *EnemyController) OnDeath() {
	if c.machine.State() == StateDead {
		return
	}
	c.ChangeState(StateDead.String())
}

// refreshTarget acquires the world target within detection range and drops
// it once it leaves that range or disappears.
func (c *EnemyController) refreshTarget() {
	if c.machine.State() == StateDead {
		c.hasTarget = false
		return
	}

	tpos, ok := c.body.TargetPosition()
	if !ok {
		c.hasTarget = false
		return
	}
	pos, ok := c.body.Position(c.handle)
	if !ok {
		c.hasTarget = false
		return
	}

	if pos.DistanceTo(tpos) <= c.stats.DetectionRange {
		c.hasTarget = true
		c.targetPos = tpos
	} else {
		c.hasTarget = false
	}
}

// HasTarget implements Context.
func (c *EnemyController) HasTarget() bool { return c.hasTarget }

// TargetPosition implements Context.
func (c *EnemyController) TargetPosition() model.Vec3 { return c.targetPos }

// DistanceToTarget implements Context. It is +Inf without a target.
func (c *EnemyController) DistanceToTarget() float64 {
	if !c.hasTarget {
		return math.Inf(1)
	}
	pos, ok := c.body.Position(c.handle)
	if !ok {
		return math.Inf(1)
	}
	return pos.DistanceTo(c.targetPos)
}

// AttackRange implements Context.
func (c *EnemyController) AttackRange() float64 { return c.stats.AttackRange }

// DetectionRange implements Context.
func (c *EnemyController) DetectionRange() float64 { return c.stats.DetectionRange }

// FleeHealthThreshold implements Context.
func (c *EnemyController) FleeHealthThreshold() float64 { return c.stats.FleeHealthThreshold }

// AttackCooldown implements Context.
func (c *EnemyController) AttackCooldown() float64 {
	if c.stats.AttackCooldown <= 0 {
		return DefaultAttackCooldown
	}
	return c.stats.AttackCooldown
}

// HealthFraction implements Context.
func (c *EnemyController) HealthFraction() (float64, bool) {
	if c.vitals == nil {
		return 0, false
	}
	return c.vitals.HealthFraction(), true
}

// Position implements Context.
func (c *EnemyController) Position() (model.Vec3, bool) {
	return c.body.Position(c.handle)
}

// MoveTowards implements Context.
func (c *EnemyController) MoveTowards(point model.Vec3) { c.body.MoveTowards(c.handle, point) }

// Stop implements Context.
func (c *EnemyController) Stop() { c.body.Stop(c.handle) }

// DisableBody implements Context.
func (c *EnemyController) DisableBody() { c.body.DisableBody(c.handle) }

// Attack implements Context.
func (c *EnemyController) Attack() {
	if c.attack == nil {
		return
	}
	if c.vitals != nil && c.vitals.IsDead() {
		return
	}
	c.attack(c.handle)
}

// Despawn implements Context. The body is destroyed; registries drop the
// handle on the next cleanup pass.
func (c *EnemyController) Despawn() { c.body.Destroy(c.handle) }

// ChangeState implements Context.
func (c *EnemyController) ChangeState(name string) error {
	prev := c.machine.State()
	if err := c.machine.Request(c, name); err != nil {
		return err
	}
	// Immediate transitions (outside Update) are reported here; deferred ones by Tick.
	if next := c.machine.State(); next != prev {
		c.emitState(next)
	}
	return nil
}

func (c *EnemyController) emitState(s StateID) {
	e := event.Event{Kind: event.StateChanged, Entity: c.handle, State: s.String()}
	if pos, ok := c.body.Position(c.handle); ok {
		e.Position = pos
	}
	c.events.Emit(e)
}
