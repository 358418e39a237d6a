package health

import (
	"log/slog"
	"math"

	"github.com/timetolife1989-cloud/mechdefense/internal/event"
	"github.com/timetolife1989-cloud/mechdefense/internal/model"
)

// Config holds the tunables of a health component.
type Config struct {
	MaxHealth             float64 `yaml:"max_health"`
	InvincibilityDuration float64 `yaml:"invincibility_duration"` // seconds, 0 disables

	HasShield        bool    `yaml:"has_shield"`
	MaxShield        float64 `yaml:"max_shield"`
	ShieldRegenRate  float64 `yaml:"shield_regen_rate"`  // units per second
	ShieldRegenDelay float64 `yaml:"shield_regen_delay"` // seconds after last damage
}

// DefaultConfig returns the stock values: 100 HP, 1s invincibility,
// no shield (50 max, 5/s after 3s when enabled).
func DefaultConfig() Config {
	return Config{
		MaxHealth:             100,
		InvincibilityDuration: 1.0,
		HasShield:             false,
		MaxShield:             50,
		ShieldRegenRate:       5,
		ShieldRegenDelay:      3,
	}
}

// Locator reports the owner's position for event payloads.
type Locator func() model.Vec3

// System is the health/shield state of one entity.
//
// Invariants: 0 ≤ current health ≤ max health, 0 ≤ shield ≤ max shield.
// The shield absorbs damage before health. All timers are countdown fields
// advanced by Tick; nothing blocks.
//
// Not safe for concurrent use.
type System struct {
	owner   model.Handle
	cfg     Config
	events  event.Emitter
	locator Locator

	currentHealth float64
	currentShield float64
	dead          bool

	// invincible is the permanent flag (e.g. cheats, cutscenes).
	invincible bool
	// invincibilityTimer > 0 while the post-hit window is open.
	invincibilityTimer float64
	// shieldRegenTimer counts seconds since the last damage instance.
	shieldRegenTimer float64
}

// New creates a health system at full health (and full shield when enabled).
// A non-positive or non-finite MaxHealth falls back to the default.
func New(owner model.Handle, cfg Config, events event.Emitter) *System {
	if !validAmount(cfg.MaxHealth) {
		cfg.MaxHealth = DefaultConfig().MaxHealth
	}
	if !validAmount(cfg.MaxShield) {
		cfg.MaxShield = 0
	}
	if events == nil {
		events = event.Discard{}
	}

	s := &System{
		owner:         owner,
		cfg:           cfg,
		events:        events,
		currentHealth: cfg.MaxHealth,
	}
	if cfg.HasShield {
		s.currentShield = cfg.MaxShield
	}
	return s
}

// SetLocator sets the position source used for event payloads.
func (s *System) SetLocator(fn Locator) {
	s.locator = fn
}

// Owner returns the owning entity handle.
func (s *System) Owner() model.Handle { return s.owner }

// Config returns the configuration in use.
func (s *System) Config() Config { return s.cfg }

// CurrentHealth returns current health.
func (s *System) CurrentHealth() float64 { return s.currentHealth }

// MaxHealth returns maximum health.
func (s *System) MaxHealth() float64 { return s.cfg.MaxHealth }

// CurrentShield returns current shield.
func (s *System) CurrentShield() float64 { return s.currentShield }

// MaxShield returns maximum shield.
func (s *System) MaxShield() float64 { return s.cfg.MaxShield }

// HasShield reports whether this entity carries a shield layer.
func (s *System) HasShield() bool { return s.cfg.HasShield }

// IsDead reports whether the entity is dead.
func (s *System) IsDead() bool { return s.dead }

// IsAlive reports whether the entity is alive.
func (s *System) IsAlive() bool { return !s.dead }

// IsInvincible reports whether damage is currently blocked,
// either by the permanent flag or by an open post-hit window.
func (s *System) IsInvincible() bool {
	return s.invincible || s.invincibilityTimer > 0
}

// InvincibilityTimer returns remaining seconds of the post-hit window.
func (s *System) InvincibilityTimer() float64 { return s.invincibilityTimer }

// ShieldRegenTimer returns seconds elapsed since the last damage instance.
func (s *System) ShieldRegenTimer() float64 { return s.shieldRegenTimer }

// SetInvincible sets the permanent invincibility flag.
func (s *System) SetInvincible(v bool) {
	s.invincible = v
}

// HealthFraction returns current/max health in [0, 1].
func (s *System) HealthFraction() float64 {
	if s.cfg.MaxHealth <= 0 {
		return 0
	}
	return s.currentHealth / s.cfg.MaxHealth
}

// ShieldFraction returns current/max shield in [0, 1].
func (s *System) ShieldFraction() float64 {
	if s.cfg.MaxShield <= 0 {
		return 0
	}
	return s.currentShield / s.cfg.MaxShield
}

// TakeDamage applies damage, shield first, then health.
// No-op when dead, invincible or amount is not a positive finite number.
func (s *System) TakeDamage(amount float64, damageType string) {
	if s.dead || s.IsInvincible() {
		return
	}
	if !validAmount(amount) {
		return
	}

	s.shieldRegenTimer = 0

	if s.cfg.HasShield && s.currentShield > 0 {
		absorbed := min(amount, s.currentShield)
		s.currentShield -= absorbed
		amount -= absorbed

		s.emit(event.Event{Kind: event.ShieldChanged, Current: s.currentShield, Max: s.cfg.MaxShield})
		s.emit(event.Event{Kind: event.DamageTaken, Amount: absorbed, DamageType: damageType, Reason: "shield"})

		if s.currentShield <= 0 {
			s.currentShield = 0
			s.emit(event.Event{Kind: event.ShieldBroken})
		}
	}

	if amount > 0 {
		s.currentHealth = max(s.currentHealth-amount, 0)

		s.emit(event.Event{Kind: event.HealthChanged, Current: s.currentHealth, Max: s.cfg.MaxHealth})
		s.emit(event.Event{Kind: event.DamageTaken, Amount: amount, DamageType: damageType, Reason: "health"})
	}

	if s.currentHealth <= 0 {
		s.die()
		return
	}
	if s.cfg.InvincibilityDuration > 0 {
		s.startInvincibility()
	}
}

// Heal restores health up to max. No-op when dead or amount is not a
// positive finite number.
func (s *System) Heal(amount float64) {
	if s.dead || !validAmount(amount) {
		return
	}
	s.currentHealth = min(s.currentHealth+amount, s.cfg.MaxHealth)

	s.emit(event.Event{Kind: event.HealthChanged, Current: s.currentHealth, Max: s.cfg.MaxHealth})
	s.emit(event.Event{Kind: event.Healed, Amount: amount})
}

// RestoreShield restores shield up to max. No-op without a shield,
// when dead or amount is not a positive finite number.
func (s *System) RestoreShield(amount float64) {
	if !s.cfg.HasShield || s.dead || !validAmount(amount) {
		return
	}
	s.currentShield = min(s.currentShield+amount, s.cfg.MaxShield)
	s.emit(event.Event{Kind: event.ShieldChanged, Current: s.currentShield, Max: s.cfg.MaxShield})
}

// Revive brings a dead entity back. A non-positive or non-finite amount
// revives at max health; otherwise health is min(amount, max). The shield is
// refilled.
// No-op when alive.
func (s *System) Revive(amount float64) {
	if !s.dead {
		return
	}
	s.dead = false

	if !validAmount(amount) {
		s.currentHealth = s.cfg.MaxHealth
	} else {
		s.currentHealth = min(amount, s.cfg.MaxHealth)
	}
	if s.cfg.HasShield {
		s.currentShield = s.cfg.MaxShield
	}
	s.shieldRegenTimer = 0

	s.emit(event.Event{Kind: event.Revived})
	s.emit(event.Event{Kind: event.HealthChanged, Current: s.currentHealth, Max: s.cfg.MaxHealth})
}

// SetMaxHealth changes max health keeping the current health ratio.
// Non-positive and non-finite values are ignored.
func (s *System) SetMaxHealth(newMax float64) {
	if !validAmount(newMax) {
		return
	}
	ratio := s.HealthFraction()
	s.cfg.MaxHealth = newMax
	s.currentHealth = newMax * ratio
	s.emit(event.Event{Kind: event.HealthChanged, Current: s.currentHealth, Max: s.cfg.MaxHealth})
}

// Tick advances the invincibility window and shield regeneration.
func (s *System) Tick(dt float64) {
	if !validAmount(dt) {
		return
	}

	if s.invincibilityTimer > 0 {
		s.invincibilityTimer -= dt
		if s.invincibilityTimer <= 0 {
			s.invincibilityTimer = 0
			s.emit(event.Event{Kind: event.InvincibilityEnded})
		}
	}

	if !s.cfg.HasShield || s.dead || s.currentShield >= s.cfg.MaxShield {
		return
	}

	s.shieldRegenTimer += dt
	if s.shieldRegenTimer >= s.cfg.ShieldRegenDelay && s.cfg.ShieldRegenRate > 0 {
		s.currentShield = min(s.currentShield+s.cfg.ShieldRegenRate*dt, s.cfg.MaxShield)
		s.emit(event.Event{Kind: event.ShieldChanged, Current: s.currentShield, Max: s.cfg.MaxShield})
	}
}

func (s *System) startInvincibility() {
	if s.invincibilityTimer > 0 {
		return
	}
	s.invincibilityTimer = s.cfg.InvincibilityDuration
	s.emit(event.Event{Kind: event.InvincibilityStarted})
}

func (s *System) die() {
	if s.dead {
		return
	}
	s.dead = true
	s.currentHealth = 0
	s.invincibilityTimer = 0

	s.emit(event.Event{Kind: event.EntityDied})
	slog.Debug("entity died", "entity", s.owner)
}

func (s *System) emit(e event.Event) {
	e.Entity = s.owner
	if s.locator != nil {
		e.Position = s.locator()
	}
	s.events.Emit(e)
}

// validAmount reports whether v is a positive finite number. NaN fails the
// comparison, so it never reaches the shield or health arithmetic.
func validAmount(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
