package sim

import (
	"github.com/timetolife1989-cloud/mechdefense/internal/ai"
	"github.com/timetolife1989-cloud/mechdefense/internal/game/combat"
	"github.com/timetolife1989-cloud/mechdefense/internal/game/health"
	"github.com/timetolife1989-cloud/mechdefense/internal/model"
	"github.com/timetolife1989-cloud/mechdefense/internal/spawn"
)

// TurretConfig describes the player's automatic defence weapon.
type TurretConfig struct {
	Damage         float64           `yaml:"damage"`
	DamageType     combat.DamageType `yaml:"damage_type"`
	FireInterval   float64           `yaml:"fire_interval"` // seconds between shots
	Range          float64           `yaml:"range"`
	CritChance     float64           `yaml:"crit_chance"`
	CritMultiplier float64           `yaml:"crit_multiplier"`
}

// PlayerConfig describes the defended entity.
type PlayerConfig struct {
	Position     model.Vec3        `yaml:"position"`
	Health       health.Config     `yaml:"health"`
	Armor        float64           `yaml:"armor"`
	ArmorClass   combat.ArmorClass `yaml:"armor_class"`
	RespawnDelay float64           `yaml:"respawn_delay"` // seconds; 0 disables respawn
	Turret       TurretConfig      `yaml:"turret"`
}

// Config is everything the simulation needs besides archetypes and waves.
type Config struct {
	Seed uint64 `yaml:"seed"`

	// ScaleDifficulty applies per-wave HP/damage scaling to spawned enemies.
	ScaleDifficulty bool `yaml:"scale_difficulty"`

	// AI holds fallbacks for archetype fields left at zero.
	AI ai.Stats `yaml:"ai"`

	EnemyCritChance     float64 `yaml:"enemy_crit_chance"`
	EnemyCritMultiplier float64 `yaml:"enemy_crit_multiplier"`
	// EnemyInvincibility is the post-hit window for enemies (seconds).
	EnemyInvincibility float64 `yaml:"enemy_invincibility"`

	Player  PlayerConfig `yaml:"player"`
	Spawner spawn.Config `yaml:"spawner"`

	// Combat tuning is parsed by the config package.
	ArmorConstant float64                   `yaml:"-"`
	Effectiveness combat.EffectivenessTable `yaml:"-"`
}

// DefaultConfig returns a playable setup: a turret at the origin, the stock
// spawner timings and four circle spawn points at 40 units.
func DefaultConfig() Config {
	player := health.DefaultConfig()
	player.MaxHealth = 500
	player.HasShield = true
	player.MaxShield = 100

	sp := spawn.DefaultConfig()
	sp.Points = []spawn.Point{
		{Position: model.NewVec3(40, 0, 0), Pattern: spawn.PatternRandom},
		{Position: model.NewVec3(-40, 0, 0), Pattern: spawn.PatternRandom},
		{Position: model.NewVec3(0, 0, 40), Pattern: spawn.PatternRandom},
		{Position: model.NewVec3(0, 0, -40), Pattern: spawn.PatternRandom},
	}

	return Config{
		Seed:                1,
		ScaleDifficulty:     true,
		AI:                  ai.DefaultStats(),
		EnemyCritChance:     0.05,
		EnemyCritMultiplier: 1.5,
		Player: PlayerConfig{
			Health:       player,
			Armor:        50,
			ArmorClass:   combat.ArmorHeavy,
			RespawnDelay: 5,
			Turret: TurretConfig{
				Damage:         25,
				DamageType:     combat.DamageKinetic,
				FireInterval:   0.5,
				Range:          35,
				CritChance:     0.1,
				CritMultiplier: 2,
			},
		},
		Spawner:       sp,
		ArmorConstant: combat.DefaultArmorConstant,
	}
}

// statsFor merges archetype stats over the configured AI fallbacks.
func (c Config) statsFor(a model.Archetype) ai.Stats {
	s := c.AI
	if a.DetectionRange > 0 {
		s.DetectionRange = a.DetectionRange
	}
	if a.AttackRange > 0 {
		s.AttackRange = a.AttackRange
	}
	if a.AttackCooldown > 0 {
		s.AttackCooldown = a.AttackCooldown
	}
	if a.FleeHealthThreshold > 0 {
		s.FleeHealthThreshold = a.FleeHealthThreshold
	}
	return s
}
