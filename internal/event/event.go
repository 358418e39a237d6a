// Package event defines the typed notifications emitted by the simulation core.
//
// Events are appended to a Queue during a tick and drained once at the end of
// the tick by whoever owns the loop. Nothing is delivered through callbacks,
// so producers never re-enter consumers mid-tick.
package event

import "github.com/timetolife1989-cloud/mechdefense/internal/model"

// Kind identifies an event type.
type Kind string

const (
	// Wave lifecycle
	WaveStarted       Kind = "wave_started"
	WaveCompleted     Kind = "wave_completed"
	AllWavesCompleted Kind = "all_waves_completed"
	EnemySpawned      Kind = "enemy_spawned"
	BossSpawned       Kind = "boss_spawned"
	EnemyRemoved      Kind = "enemy_removed"
	ExperienceGranted Kind = "experience_granted"

	// Health & shield
	DamageTaken          Kind = "damage_taken"
	HealthChanged        Kind = "health_changed"
	ShieldChanged        Kind = "shield_changed"
	ShieldBroken         Kind = "shield_broken"
	Healed               Kind = "healed"
	EntityDied           Kind = "entity_died"
	Revived              Kind = "revived"
	InvincibilityStarted Kind = "invincibility_started"
	InvincibilityEnded   Kind = "invincibility_ended"

	// AI
	StateChanged Kind = "ai_state_changed"
)

// Event is a single notification. Payload fields not relevant to Kind are zero.
type Event struct {
	Kind Kind   `json:"kind"`
	Tick uint64 `json:"tick"`

	Entity    model.Handle `json:"entity,omitempty"`
	Archetype string       `json:"archetype,omitempty"`
	Position  model.Vec3   `json:"position"`

	Wave         int  `json:"wave,omitempty"`
	TotalEnemies int  `json:"total_enemies,omitempty"`
	Boss         bool `json:"boss,omitempty"`
	Experience   int  `json:"experience,omitempty"`
	Credits      int  `json:"credits,omitempty"`

	Amount     float64 `json:"amount,omitempty"`
	Current    float64 `json:"current,omitempty"`
	Max        float64 `json:"max,omitempty"`
	DamageType string  `json:"damage_type,omitempty"`

	State  string `json:"state,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Emitter accepts events.
type Emitter interface {
	Emit(e Event)
}

// Queue is a FIFO of events for the current tick.
// Not safe for concurrent use: it belongs to the simulation loop.
type Queue struct {
	events []Event
	tick   uint64
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{events: make([]Event, 0, 64)}
}

// SetTick sets the tick number stamped on subsequently emitted events.
func (q *Queue) SetTick(tick uint64) {
	q.tick = tick
}

// Emit appends e, stamping the current tick.
func (q *Queue) Emit(e Event) {
	e.Tick = q.tick
	q.events = append(q.events, e)
}

// Len returns number of pending events.
func (q *Queue) Len() int {
	return len(q.events)
}

// Drain returns all pending events in emission order and empties the queue.
// The returned slice is owned by the caller.
func (q *Queue) Drain() []Event {
	if len(q.events) == 0 {
		return nil
	}
	out := q.events
	q.events = make([]Event, 0, cap(out))
	return out
}

// Discard is an Emitter that drops everything.
type Discard struct{}

// Emit implements Emitter.
func (Discard) Emit(Event) {}
