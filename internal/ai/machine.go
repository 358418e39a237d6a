package ai

import (
	"log/slog"

	"github.com/timetolife1989-cloud/mechdefense/internal/model"
)

// Rand is the uniform source used to pick patrol points.
type Rand interface {
	Float64() float64
}

// Machine is the enemy behaviour state machine.
//
// States are a closed set of variants dispatched by switch; per-state timers
// live here rather than in separate objects. Transitions requested while an
// Update is running are deferred until it returns and only the first one is
// applied, so cascading transitions take one extra tick. Dead is terminal.
type Machine struct {
	rng     Rand
	current StateID

	updating bool
	pending  StateID
	hasPend  bool

	idleElapsed    float64
	patrolTarget   model.Vec3
	patrolValid    bool
	attackCooldown float64
	deadTimer      float64
	despawned      bool

	// transitions counts applied transitions (observable in tests).
	transitions int
}

// NewMachine creates a machine in Idle. Enter for Idle runs on the first Start.
func NewMachine(rng Rand) *Machine {
	return &Machine{rng: rng, current: StateIdle}
}

// State returns the active state.
func (m *Machine) State() StateID { return m.current }

// Transitions returns how many transitions have been applied.
func (m *Machine) Transitions() int { return m.transitions }

// Despawned reports whether the dead removal has fired.
func (m *Machine) Despawned() bool { return m.despawned }

// Start enters the initial state.
func (m *Machine) Start(ctx Context) {
	m.enter(ctx, m.current)
}

// Request asks for a transition by name.
//
// During Update the request is deferred (first wins). Outside Update it is
// applied immediately, running Enter. Requests out of Dead are ignored.
func (m *Machine) Request(ctx Context, name string) error {
	id, err := ParseState(name)
	if err != nil {
		slog.Error("AI state transition rejected", "state", name, "current", m.current, "error", err)
		return err
	}
	if m.current == StateDead {
		return nil
	}
	if m.updating {
		// Death always wins over a behavioural transition.
		if !m.hasPend || id == StateDead {
			m.pending, m.hasPend = id, true
		}
		return nil
	}
	m.apply(ctx, id)
	return nil
}

// Update runs the active state's tick and then applies a pending transition.
func (m *Machine) Update(ctx Context, dt float64) {
	m.updating = true
	switch m.current {
	case StateIdle:
		m.updateIdle(ctx, dt)
	case StatePatrol:
		m.updatePatrol(ctx)
	case StateChase:
		m.updateChase(ctx)
	case StateAttack:
		m.updateAttack(ctx, dt)
	case StateFlee:
		m.updateFlee(ctx)
	case StateDead:
		m.updateDead(ctx, dt)
	}
	m.updating = false

	if m.hasPend {
		next := m.pending
		m.hasPend = false
		if m.current != StateDead {
			m.apply(ctx, next)
		}
	}
}

// request asks ctx for a transition to a known state. StateID names always
// parse, so the error path of ChangeState cannot trigger here.
func request(ctx Context, id StateID) {
	_ = ctx.ChangeState(id.String())
}

func (m *Machine) apply(ctx Context, next StateID) {
	prev := m.current
	m.current = next
	m.transitions++
	m.enter(ctx, next)

	traceTransition(prev, next)
}

func (m *Machine) enter(ctx Context, id StateID) {
	switch id {
	case StateIdle:
		m.idleElapsed = 0
		ctx.Stop()
	case StatePatrol:
		m.enterPatrol(ctx)
	case StateDead:
		ctx.Stop()
		ctx.DisableBody()
		m.deadTimer = deadRemovalDelay
	}
}

func (m *Machine) updateIdle(ctx Context, dt float64) {
	m.idleElapsed += dt

	if ctx.HasTarget() {
		request(ctx, StateChase)
		return
	}
	if m.idleElapsed >= maxIdleTime {
		request(ctx, StatePatrol)
	}
}

func (m *Machine) enterPatrol(ctx Context) {
	pos, ok := ctx.Position()
	if !ok {
		m.patrolValid = false
		return
	}
	m.patrolTarget = pos.Add(model.NewVec3(m.spread(), 0, m.spread()))
	m.patrolValid = true
}

// spread returns a uniform offset in [-patrolRadius, patrolRadius).
func (m *Machine) spread() float64 {
	if m.rng == nil {
		return 0
	}
	return (m.rng.Float64()*2 - 1) * patrolRadius
}

func (m *Machine) updatePatrol(ctx Context) {
	if ctx.HasTarget() {
		request(ctx, StateChase)
		return
	}

	pos, ok := ctx.Position()
	if !ok || !m.patrolValid {
		request(ctx, StateIdle)
		return
	}

	if pos.Flat().DistanceTo(m.patrolTarget.Flat()) < patrolArriveDistance {
		request(ctx, StateIdle)
		return
	}
	ctx.MoveTowards(m.patrolTarget)
}

func (m *Machine) updateChase(ctx Context) {
	if !ctx.HasTarget() {
		request(ctx, StateIdle)
		return
	}
	if ctx.DistanceToTarget() <= ctx.AttackRange() {
		request(ctx, StateAttack)
		return
	}
	if frac, ok := ctx.HealthFraction(); ok && frac < ctx.FleeHealthThreshold() {
		request(ctx, StateFlee)
		return
	}
	ctx.MoveTowards(ctx.TargetPosition())
}

func (m *Machine) updateAttack(ctx Context, dt float64) {
	if !ctx.HasTarget() {
		request(ctx, StateIdle)
		return
	}
	if ctx.DistanceToTarget() > ctx.AttackRange() {
		request(ctx, StateChase)
		return
	}

	ctx.Stop()

	m.attackCooldown -= dt
	if m.attackCooldown <= 0 {
		ctx.Attack()
		m.attackCooldown = ctx.AttackCooldown()
		if m.attackCooldown <= 0 {
			m.attackCooldown = DefaultAttackCooldown
		}
	}
}

func (m *Machine) updateFlee(ctx Context) {
	if !ctx.HasTarget() {
		request(ctx, StateIdle)
		return
	}
	pos, ok := ctx.Position()
	if !ok {
		request(ctx, StateIdle)
		return
	}

	away := pos.Sub(ctx.TargetPosition()).Normalized()
	ctx.MoveTowards(pos.Add(away.Scale(fleeDistance)))

	if frac, ok := ctx.HealthFraction(); ok && frac > fleeRecoverFraction {
		request(ctx, StateChase)
	} else if ctx.DistanceToTarget() > ctx.DetectionRange()*2 {
		request(ctx, StateIdle)
	}
}

func (m *Machine) updateDead(ctx Context, dt float64) {
	if m.despawned {
		return
	}
	m.deadTimer -= dt
	if m.deadTimer <= 0 {
		m.despawned = true
		ctx.Despawn()
	}
}
