// Package sim wires the world, AI, combat, health and wave spawner into one
// deterministic step function.
package sim

import (
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/timetolife1989-cloud/mechdefense/internal/ai"
	"github.com/timetolife1989-cloud/mechdefense/internal/event"
	"github.com/timetolife1989-cloud/mechdefense/internal/game/combat"
	"github.com/timetolife1989-cloud/mechdefense/internal/game/health"
	"github.com/timetolife1989-cloud/mechdefense/internal/model"
	"github.com/timetolife1989-cloud/mechdefense/internal/spawn"
	"github.com/timetolife1989-cloud/mechdefense/internal/world"
)

// Player is the defended entity with its turret.
type Player struct {
	Handle model.Handle
	Health *health.System

	fireTimer    float64
	respawnTimer float64
	down         bool
}

// Stats are cumulative counters for the run.
type Stats struct {
	Spawned      int     `json:"spawned"`
	Kills        int     `json:"kills"`
	ShotsFired   int     `json:"shots_fired"`
	Crits        int     `json:"crits"`
	DamageDealt  float64 `json:"damage_dealt"`
	DamageTaken  float64 `json:"damage_taken"`
	PlayerDeaths int     `json:"player_deaths"`
}

// Simulation owns every component and advances them with Step.
// Not safe for concurrent use: drive it from one goroutine (see Run).
type Simulation struct {
	cfg        Config
	rng        *rand.Rand
	world      *world.World
	events     *event.Queue
	resolver   *combat.Resolver
	tickMgr    *ai.TickManager
	spawner    *spawn.Spawner
	archetypes *model.ArchetypeRegistry

	enemies map[model.Handle]*Enemy
	player  *Player

	tick    uint64
	elapsed float64
	stats   Stats
}

// New builds a simulation. reward may be nil.
func New(cfg Config, archetypes *model.ArchetypeRegistry, defs []spawn.Definition, reward spawn.Rewarder) *Simulation {
	s := &Simulation{
		cfg:        cfg,
		rng:        rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		world:      world.New(),
		events:     event.NewQueue(),
		tickMgr:    ai.NewTickManager(),
		archetypes: archetypes,
		enemies:    make(map[model.Handle]*Enemy),
	}
	s.resolver = combat.NewResolver(combat.NewCalculator(cfg.Effectiveness, cfg.ArmorConstant), s.rng)

	ph := s.world.AddPlayer(cfg.Player.Position, 0)
	s.world.SetTarget(ph)
	phs := health.New(ph, cfg.Player.Health, s.events)
	phs.SetLocator(s.locator(ph))
	s.player = &Player{Handle: ph, Health: phs}

	spCfg := cfg.Spawner
	if len(spCfg.Points) == 0 {
		spCfg.Position = cfg.Player.Position
	}
	s.spawner = spawn.New(spCfg, defs, factory{s: s}, s.world, reward, s.events, s.rng)

	slog.Info("simulation created",
		"seed", cfg.Seed,
		"waves", s.spawner.WaveCount(),
		"archetypes", archetypes.Len(),
		"spawn_points", len(s.spawner.Points()))
	return s
}

// Step advances the simulation by dt seconds and returns the events emitted
// during the step, in emission order.
//
// Order: spawner, cleanup of destroyed entities, AI (registration order),
// movement, health timers, player respawn, turret, death pass.
func (s *Simulation) Step(dt float64) []event.Event {
	s.tick++
	s.elapsed += dt
	s.events.SetTick(s.tick)

	s.spawner.Tick(dt)
	s.cleanup()
	s.tickMgr.TickAll(dt)
	s.world.Integrate(dt)

	s.player.Health.Tick(dt)
	for _, h := range s.tickMgr.Handles() {
		if e, ok := s.enemies[h]; ok {
			e.Health.Tick(dt)
		}
	}

	s.updatePlayer(dt)
	s.fireTurret(dt)
	s.deathPass()

	return s.events.Drain()
}

func (s *Simulation) cleanup() {
	for _, h := range s.world.Cleanup() {
		e, ok := s.enemies[h]
		if !ok {
			continue
		}
		s.tickMgr.Unregister(h)
		delete(s.enemies, h)
		s.events.Emit(event.Event{Kind: event.EnemyRemoved, Entity: h, Archetype: e.Archetype.Name, Wave: e.Wave})
	}
}

// enemyAttack resolves one enemy swing against the player.
func (s *Simulation) enemyAttack(attacker model.Handle) {
	e, ok := s.enemies[attacker]
	if !ok {
		return
	}
	if err := combat.ValidateAttack(combat.Engagement{
		AttackerAlive: e.Health.IsAlive(),
		TargetAlive:   s.player.Health.IsAlive(),
		Distance:      s.distance(attacker, s.player.Handle),
		Range:         e.Stats.AttackRange,
	}); err != nil {
		if ai.IsDebugEnabled() {
			slog.Debug("enemy attack rejected", "handle", attacker, "reason", err)
		}
		return
	}

	res := s.resolver.Resolve(
		combat.Hit{
			Base:           e.Damage,
			Type:           e.Archetype.DamageType,
			CritChance:     s.cfg.EnemyCritChance,
			CritMultiplier: s.cfg.EnemyCritMultiplier,
		},
		combat.Defense{Armor: s.cfg.Player.Armor, ArmorClass: s.cfg.Player.ArmorClass},
	)

	before := s.player.Health.CurrentHealth() + s.player.Health.CurrentShield()
	s.player.Health.TakeDamage(res.Damage, e.Archetype.DamageType.String())
	s.stats.DamageTaken += before - s.player.Health.CurrentHealth() - s.player.Health.CurrentShield()
}

func (s *Simulation) updatePlayer(dt float64) {
	p := s.player
	if !p.down {
		return
	}
	if s.cfg.Player.RespawnDelay <= 0 {
		return
	}
	p.respawnTimer -= dt
	if p.respawnTimer <= 0 {
		p.down = false
		p.Health.Revive(-1)
		s.world.SetTarget(p.Handle)
		slog.Info("player respawned", "tick", s.tick)
	}
}

// fireTurret shoots the nearest enemy in range once per FireInterval.
func (s *Simulation) fireTurret(dt float64) {
	p := s.player
	t := s.cfg.Player.Turret
	if p.down || t.Damage <= 0 || t.FireInterval <= 0 {
		return
	}

	if p.fireTimer > 0 {
		p.fireTimer -= dt
		if p.fireTimer > 0 {
			return
		}
	}

	pos, ok := s.world.Position(p.Handle)
	if !ok {
		return
	}
	target, found := s.world.Nearest(pos, t.Range)
	if !found {
		p.fireTimer = 0
		return
	}
	e, ok := s.enemies[target]
	if !ok {
		return
	}
	if err := combat.ValidateAttack(combat.Engagement{
		AttackerAlive: p.Health.IsAlive(),
		TargetAlive:   e.Health.IsAlive(),
		Distance:      s.distance(p.Handle, target),
		Range:         t.Range,
	}); err != nil {
		// Dead enemies keep their bodies disabled, so Nearest already skips them.
		return
	}

	res := s.resolver.Resolve(
		combat.Hit{Base: t.Damage, Type: t.DamageType, CritChance: t.CritChance, CritMultiplier: t.CritMultiplier},
		e.Defense(),
	)
	e.Health.TakeDamage(res.Damage, t.DamageType.String())

	s.stats.ShotsFired++
	s.stats.DamageDealt += res.Damage
	if res.Crit {
		s.stats.Crits++
	}
	p.fireTimer = t.FireInterval
}

// distance is the 3D distance between two live bodies, +Inf if either is gone.
func (s *Simulation) distance(a, b model.Handle) float64 {
	pa, ok := s.world.Position(a)
	if !ok {
		return math.Inf(1)
	}
	pb, ok := s.world.Position(b)
	if !ok {
		return math.Inf(1)
	}
	return pa.DistanceTo(pb)
}

// deathPass moves newly dead enemies into the Dead state and downs the player.
func (s *Simulation) deathPass() {
	for _, h := range s.tickMgr.Handles() {
		e, ok := s.enemies[h]
		if !ok || !e.Health.IsDead() || e.Controller.State() == ai.StateDead {
			continue
		}
		e.Controller.OnDeath()
		s.stats.Kills++
	}

	p := s.player
	if p.Health.IsDead() && !p.down {
		p.down = true
		p.respawnTimer = s.cfg.Player.RespawnDelay
		s.world.ClearTarget()
		s.stats.PlayerDeaths++
		slog.Warn("player down", "tick", s.tick, "respawn_in", s.cfg.Player.RespawnDelay)
	}
}

func (s *Simulation) locator(h model.Handle) health.Locator {
	return func() model.Vec3 {
		pos, _ := s.world.Position(h)
		return pos
	}
}

// Tick returns the number of steps taken.
func (s *Simulation) Tick() uint64 { return s.tick }

// Elapsed returns simulated seconds.
func (s *Simulation) Elapsed() float64 { return s.elapsed }

// Stats returns the run counters.
func (s *Simulation) Stats() Stats { return s.stats }

// Spawner exposes the wave spawner for administrative commands.
func (s *Simulation) Spawner() *spawn.Spawner { return s.spawner }

// World exposes the entity layer.
func (s *Simulation) World() *world.World { return s.world }

// Player returns the defended entity.
func (s *Simulation) Player() *Player { return s.player }

// Enemy returns a live enemy by handle.
func (s *Simulation) Enemy(h model.Handle) (*Enemy, bool) {
	e, ok := s.enemies[h]
	return e, ok
}

// EnemyCount returns the number of tracked enemy instances (dead ones included
// until their removal).
func (s *Simulation) EnemyCount() int { return len(s.enemies) }

// Finished reports whether every wave has been completed.
func (s *Simulation) Finished() bool { return s.spawner.Phase() == spawn.PhaseFinished }

// SetDefinitions hot-swaps the wave table (applies from the next wave).
func (s *Simulation) SetDefinitions(defs []spawn.Definition) {
	s.spawner.SetDefinitions(defs)
}

// SetArchetypes swaps the archetype registry used for future spawns.
func (s *Simulation) SetArchetypes(r *model.ArchetypeRegistry) {
	s.archetypes = r
}
