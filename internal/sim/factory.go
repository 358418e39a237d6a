package sim

import (
	"fmt"
	"log/slog"

	"github.com/timetolife1989-cloud/mechdefense/internal/ai"
	"github.com/timetolife1989-cloud/mechdefense/internal/game/combat"
	"github.com/timetolife1989-cloud/mechdefense/internal/game/health"
	"github.com/timetolife1989-cloud/mechdefense/internal/model"
	"github.com/timetolife1989-cloud/mechdefense/internal/spawn"
)

// Enemy is one live enemy instance. It owns its controller and health.
type Enemy struct {
	Handle     model.Handle
	Archetype  model.Archetype
	Wave       int
	Damage     float64 // attack damage after wave scaling
	Stats      ai.Stats
	Health     *health.System
	Controller *ai.EnemyController
}

// Defense returns the enemy's armor profile.
func (e *Enemy) Defense() combat.Defense {
	return combat.Defense{Armor: e.Archetype.Armor, ArmorClass: e.Archetype.ArmorClass}
}

// factory instantiates archetypes into the simulation. It implements spawn.Factory.
type factory struct {
	s *Simulation
}

// Spawn creates the body, health and controller for req at pos.
func (f factory) Spawn(req spawn.Request, pos model.Vec3) (model.Handle, error) {
	s := f.s

	arch, ok := s.archetypes.Get(req.Archetype)
	if !ok {
		return model.InvalidHandle, fmt.Errorf("%w: %q", spawn.ErrUnknownArchetype, req.Archetype)
	}

	hp, dmg := arch.MaxHealth, arch.AttackDamage
	if s.cfg.ScaleDifficulty {
		hp = combat.ScaleEnemyHP(hp, req.Wave) * combat.EliteHPMultiplier(req.Wave)
		dmg = combat.ScaleEnemyDamage(dmg, req.Wave) * combat.EliteDamageMultiplier(req.Wave)
	}

	h := s.world.AddEnemy(pos, arch.MoveSpeed)

	hcfg := health.DefaultConfig()
	hcfg.MaxHealth = hp
	hcfg.InvincibilityDuration = s.cfg.EnemyInvincibility
	hcfg.HasShield = arch.Shield > 0
	hcfg.MaxShield = arch.Shield

	hs := health.New(h, hcfg, s.events)
	hs.SetLocator(s.locator(h))

	e := &Enemy{
		Handle:    h,
		Archetype: arch,
		Wave:      req.Wave,
		Damage:    dmg,
		Stats:     s.cfg.statsFor(arch),
		Health:    hs,
	}
	e.Controller = ai.NewEnemyController(h, e.Stats, s.world, hs, s.enemyAttack, s.events, s.rng)

	s.enemies[h] = e
	s.tickMgr.Register(h, e.Controller)
	s.stats.Spawned++

	if ai.IsDebugEnabled() {
		slog.Debug("enemy spawned",
			"handle", h,
			"archetype", arch.Name,
			"wave", req.Wave,
			"hp", hp,
			"position", pos)
	}
	return h, nil
}
