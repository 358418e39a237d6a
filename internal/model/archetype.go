package model

import (
	"fmt"
	"slices"

	"github.com/timetolife1989-cloud/mechdefense/internal/game/combat"
)

// Built-in archetype identifiers.
const (
	ArchetypeGrunt   = "Grunt"
	ArchetypeSwarm   = "Swarm"
	ArchetypeShooter = "Shooter"
	ArchetypeTank    = "Tank"
	ArchetypeFlyer   = "Flyer"

	// ArchetypeFrostTitan is the stock boss. Boss waves whose boss is not
	// registered spawn it instead.
	ArchetypeFrostTitan = "FrostTitan"
)

// Archetype is a named enemy template with base stats.
// Values are per-wave-1; the spawner's factory scales health and damage by wave.
type Archetype struct {
	Name           string            `yaml:"name" json:"name"`
	MaxHealth      float64           `yaml:"max_health" json:"max_health"`
	MoveSpeed      float64           `yaml:"move_speed" json:"move_speed"`
	AttackDamage   float64           `yaml:"attack_damage" json:"attack_damage"`
	AttackRange    float64           `yaml:"attack_range" json:"attack_range"`
	AttackCooldown float64           `yaml:"attack_cooldown" json:"attack_cooldown"` // seconds
	DetectionRange float64           `yaml:"detection_range" json:"detection_range"`
	DamageType     combat.DamageType `yaml:"damage_type" json:"damage_type"`
	Armor          float64           `yaml:"armor" json:"armor"`
	ArmorClass     combat.ArmorClass `yaml:"armor_class" json:"armor_class"`

	// Shield is the max shield; 0 means unshielded.
	Shield float64 `yaml:"shield" json:"shield"`
	// FleeHealthThreshold overrides the controller default when > 0.
	FleeHealthThreshold float64 `yaml:"flee_health_threshold" json:"flee_health_threshold"`
}

// Validate checks that the template can be instantiated.
func (a Archetype) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("archetype: empty name")
	}
	if a.MaxHealth <= 0 {
		return fmt.Errorf("archetype %s: max_health must be positive, got %v", a.Name, a.MaxHealth)
	}
	if a.MoveSpeed < 0 || a.AttackRange < 0 || a.DetectionRange < 0 {
		return fmt.Errorf("archetype %s: negative speed or range", a.Name)
	}
	return nil
}

// DefaultArchetypes returns the five stock enemy templates and the stock boss.
func DefaultArchetypes() []Archetype {
	return []Archetype{
		{
			Name: ArchetypeGrunt, MaxHealth: 50, MoveSpeed: 4,
			AttackDamage: 8, AttackRange: 2, AttackCooldown: 1.5, DetectionRange: 35,
			DamageType: combat.DamageKinetic, Armor: 10, ArmorClass: combat.ArmorLight,
		},
		{
			Name: ArchetypeSwarm, MaxHealth: 20, MoveSpeed: 6,
			AttackDamage: 5, AttackRange: 1.5, AttackCooldown: 0.8, DetectionRange: 40,
			DamageType: combat.DamageKinetic, ArmorClass: combat.ArmorLight,
		},
		{
			Name: ArchetypeShooter, MaxHealth: 40, MoveSpeed: 3,
			AttackDamage: 12, AttackRange: 25, AttackCooldown: 2, DetectionRange: 40,
			DamageType: combat.DamageEnergy, Armor: 5, ArmorClass: combat.ArmorLight,
			FleeHealthThreshold: 0.3,
		},
		{
			Name: ArchetypeTank, MaxHealth: 200, MoveSpeed: 2,
			AttackDamage: 25, AttackRange: 3, AttackCooldown: 2, DetectionRange: 30,
			DamageType: combat.DamageExplosive, Armor: 100, ArmorClass: combat.ArmorHeavy,
			Shield: 50,
		},
		{
			Name: ArchetypeFlyer, MaxHealth: 35, MoveSpeed: 5,
			AttackDamage: 15, AttackRange: 2, AttackCooldown: 3, DetectionRange: 45,
			DamageType: combat.DamageTesla, ArmorClass: combat.ArmorShield,
		},
		{
			Name: ArchetypeFrostTitan, MaxHealth: 50000, MoveSpeed: 2,
			AttackDamage: 35, AttackRange: 4, AttackCooldown: 2.5, DetectionRange: 50,
			DamageType: combat.DamageCryo, Armor: 50, ArmorClass: combat.ArmorHeavy,
			FleeHealthThreshold: 0.01,
		},
	}
}

// ArchetypeRegistry resolves archetypes by name.
type ArchetypeRegistry struct {
	byName map[string]Archetype
}

// NewArchetypeRegistry builds a registry. Later entries override earlier ones
// with the same name.
func NewArchetypeRegistry(archetypes []Archetype) (*ArchetypeRegistry, error) {
	r := &ArchetypeRegistry{byName: make(map[string]Archetype, len(archetypes))}
	for _, a := range archetypes {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		r.byName[a.Name] = a
	}
	return r, nil
}

// Get returns the archetype with the given name.
func (r *ArchetypeRegistry) Get(name string) (Archetype, bool) {
	a, ok := r.byName[name]
	return a, ok
}

// Names returns registered names in sorted order.
func (r *ArchetypeRegistry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of registered archetypes.
func (r *ArchetypeRegistry) Len() int {
	return len(r.byName)
}
