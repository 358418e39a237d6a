package combat

import (
	"fmt"
	"math"
	"strings"
)

// DamageType is the elemental/physical class of an incoming hit.
type DamageType uint8

const (
	DamageKinetic   DamageType = iota // bullets, physical
	DamageEnergy                      // plasma, lasers
	DamageExplosive                   // rockets, grenades
	DamageCryo
	DamageTesla
	DamageTrue // ignores armor
)

var damageTypeNames = [...]string{
	DamageKinetic:   "Kinetic",
	DamageEnergy:    "Energy",
	DamageExplosive: "Explosive",
	DamageCryo:      "Cryo",
	DamageTesla:     "Tesla",
	DamageTrue:      "True",
}

// String returns the canonical damage type name.
func (d DamageType) String() string {
	if int(d) < len(damageTypeNames) {
		return damageTypeNames[d]
	}
	return "Unknown"
}

// ParseDamageType parses a damage type name, case-insensitive.
func ParseDamageType(s string) (DamageType, error) {
	for i, name := range damageTypeNames {
		if strings.EqualFold(name, s) {
			return DamageType(i), nil
		}
	}
	return DamageKinetic, fmt.Errorf("unknown damage type %q", s)
}

// MarshalText implements encoding.TextMarshaler (JSON, YAML).
func (d DamageType) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler (JSON, YAML).
func (d *DamageType) UnmarshalText(text []byte) error {
	v, err := ParseDamageType(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ArmorClass is the defensive class of a target.
type ArmorClass string

const (
	ArmorLight  ArmorClass = "Light"
	ArmorHeavy  ArmorClass = "Heavy"
	ArmorShield ArmorClass = "Shield"
)

// CanonicalArmorClass maps a case-insensitive name onto a known class.
// Unknown names are returned unchanged; they resolve to a neutral multiplier.
func CanonicalArmorClass(s string) ArmorClass {
	for _, c := range []ArmorClass{ArmorLight, ArmorHeavy, ArmorShield} {
		if strings.EqualFold(string(c), s) {
			return c
		}
	}
	return ArmorClass(s)
}

// DefaultArmorConstant is the armor value that halves incoming damage.
const DefaultArmorConstant = 100.0

// EffectivenessTable maps damage type × armor class to a multiplier.
// Missing entries leave damage unmodified.
type EffectivenessTable map[DamageType]map[ArmorClass]float64

// DefaultEffectiveness returns the stock gameplay table.
func DefaultEffectiveness() EffectivenessTable {
	return EffectivenessTable{
		DamageKinetic:   {ArmorLight: 1.2, ArmorHeavy: 0.8, ArmorShield: 0.5},
		DamageEnergy:    {ArmorLight: 0.9, ArmorHeavy: 1.1, ArmorShield: 2.0},
		DamageExplosive: {ArmorLight: 1.5, ArmorHeavy: 1.0, ArmorShield: 0.3},
		DamageCryo:      {ArmorLight: 1.0, ArmorHeavy: 0.7, ArmorShield: 1.5},
		DamageTesla:     {ArmorLight: 1.3, ArmorHeavy: 0.9, ArmorShield: 2.5},
		DamageTrue:      {ArmorLight: 1.0, ArmorHeavy: 1.0, ArmorShield: 1.0},
	}
}

// Calculator resolves raw hits into final damage values.
// It holds only configuration data and is safe for concurrent use.
type Calculator struct {
	armorConstant float64
	table         EffectivenessTable
}

// NewCalculator creates a calculator over the given table.
// A nil table selects DefaultEffectiveness, a non-positive armor constant
// selects DefaultArmorConstant.
func NewCalculator(table EffectivenessTable, armorConstant float64) *Calculator {
	if table == nil {
		table = DefaultEffectiveness()
	}
	if armorConstant <= 0 {
		armorConstant = DefaultArmorConstant
	}
	return &Calculator{
		armorConstant: armorConstant,
		table:         table,
	}
}

// ArmorConstant returns the armor value that halves damage.
func (c *Calculator) ArmorConstant() float64 {
	return c.armorConstant
}

// Effectiveness returns the type multiplier for damageType against armorType.
func (c *Calculator) Effectiveness(damageType DamageType, armorType ArmorClass) (float64, bool) {
	row, ok := c.table[damageType]
	if !ok {
		return 1, false
	}
	mult, ok := row[armorType]
	if !ok {
		return 1, false
	}
	return mult, true
}

// MitigationFactor returns the fraction of damage removed by armor:
// armor / (armor + constant). Negative and NaN armor count as zero,
// infinite armor mitigates everything.
func (c *Calculator) MitigationFactor(armor float64) float64 {
	if !(armor > 0) {
		return 0
	}
	if math.IsInf(armor, 1) {
		return 1
	}
	return armor / (armor + c.armorConstant)
}

// CalculateDamage runs the damage pipeline:
// armor mitigation (skipped for True damage) → type effectiveness →
// critical multiplier → floor at 1.
//
// The critical decision is an input (see RollCritical), so the result is
// fully determined by the arguments.
func (c *Calculator) CalculateDamage(
	baseDamage float64,
	damageType DamageType,
	armor float64,
	armorType ArmorClass,
	isCritical bool,
	critMultiplier float64,
) float64 {
	damage := baseDamage

	if damageType != DamageTrue {
		damage *= 1 - c.MitigationFactor(armor)
	}

	if mult, ok := c.Effectiveness(damageType, armorType); ok {
		damage *= mult
	}

	if isCritical {
		damage *= critMultiplier
	}

	// Minimum 1 damage. NaN from a non-finite input also lands on the floor.
	if math.IsNaN(damage) {
		return 1
	}
	return max(1, damage)
}
