package combat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateDamage_KineticVsHeavy(t *testing.T) {
	calc := NewCalculator(nil, 0)

	// mitigation 100/(100+100)=0.5, effectiveness 0.8 → 100*0.5*0.8
	got := calc.CalculateDamage(100, DamageKinetic, 100, ArmorHeavy, false, 1.5)
	assert.InDelta(t, 40.0, got, 1e-9)
}

func TestCalculateDamage_Table(t *testing.T) {
	calc := NewCalculator(nil, 0)

	tests := []struct {
		name       string
		base       float64
		damageType DamageType
		armor      float64
		armorType  ArmorClass
		crit       bool
		critMult   float64
		want       float64
	}{
		{name: "no armor unknown class", base: 100, damageType: DamageKinetic, armor: 0, armorType: "Organic", want: 100},
		{name: "energy vs shield", base: 50, damageType: DamageEnergy, armor: 0, armorType: ArmorShield, want: 100},
		{name: "explosive vs shield", base: 100, damageType: DamageExplosive, armor: 0, armorType: ArmorShield, want: 30},
		{name: "tesla vs shield", base: 10, damageType: DamageTesla, armor: 0, armorType: ArmorShield, want: 25},
		{name: "cryo vs heavy", base: 100, damageType: DamageCryo, armor: 0, armorType: ArmorHeavy, want: 70},
		{name: "true ignores armor", base: 100, damageType: DamageTrue, armor: 300, armorType: ArmorHeavy, want: 100},
		{name: "critical multiplier", base: 100, damageType: DamageTrue, armor: 0, armorType: ArmorLight, crit: true, critMult: 2, want: 200},
		{name: "crit multiplier ignored when not critical", base: 100, damageType: DamageTrue, armorType: ArmorLight, critMult: 3, want: 100},
		{name: "floored at one", base: 0.1, damageType: DamageExplosive, armor: 1000, armorType: ArmorShield, want: 1},
		{name: "zero base still floored", base: 0, damageType: DamageKinetic, armorType: ArmorLight, want: 1},
		{name: "negative armor treated as zero", base: 100, damageType: DamageKinetic, armor: -50, armorType: "None", want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.CalculateDamage(tt.base, tt.damageType, tt.armor, tt.armorType, tt.crit, tt.critMult)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestCalculateDamage_MonotonicInArmor(t *testing.T) {
	calc := NewCalculator(nil, 0)

	for dt := DamageKinetic; dt <= DamageTrue; dt++ {
		for _, class := range []ArmorClass{ArmorLight, ArmorHeavy, ArmorShield} {
			prev := calc.CalculateDamage(250, dt, 0, class, false, 1)
			for armor := 1.0; armor <= 2000; armor += 7 {
				cur := calc.CalculateDamage(250, dt, armor, class, false, 1)
				if cur > prev+1e-9 {
					t.Fatalf("%s vs %s: damage increased with armor %.0f: %.4f > %.4f", dt, class, armor, cur, prev)
				}
				prev = cur
			}
		}
	}
}

func TestCalculateDamage_NeverBelowOne(t *testing.T) {
	calc := NewCalculator(nil, 0)

	for dt := DamageKinetic; dt < DamageTrue; dt++ {
		for _, base := range []float64{0.001, 0.5, 1, 3, 1000} {
			for _, armor := range []float64{0, 10, 1e4, 1e9} {
				got := calc.CalculateDamage(base, dt, armor, ArmorShield, false, 1)
				assert.GreaterOrEqual(t, got, 1.0, "type=%s base=%v armor=%v", dt, base, armor)
			}
		}
	}
}

func TestCalculateDamage_NonFiniteInputs(t *testing.T) {
	calc := NewCalculator(nil, 0)
	nan, inf := math.NaN(), math.Inf(1)

	tests := []struct {
		name  string
		base  float64
		armor float64
		want  float64
	}{
		{name: "infinite armor", base: 100, armor: inf, want: 1},
		{name: "NaN armor counts as none", base: 100, armor: nan, want: 100},
		{name: "negative infinite armor counts as none", base: 100, armor: -inf, want: 100},
		{name: "NaN base", base: nan, armor: 10, want: 1},
		{name: "infinite base against infinite armor", base: inf, armor: inf, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.CalculateDamage(tt.base, DamageKinetic, tt.armor, "None", false, 1)
			assert.False(t, math.IsNaN(got))
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	assert.Equal(t, 1.0, calc.MitigationFactor(inf))
	assert.Equal(t, 0.0, calc.MitigationFactor(nan))

	// Monotonic up to and including infinite armor.
	assert.GreaterOrEqual(t,
		calc.CalculateDamage(250, DamageKinetic, 1e12, ArmorLight, false, 1),
		calc.CalculateDamage(250, DamageKinetic, inf, ArmorLight, false, 1))
}

func TestCalculateDamage_CustomTable(t *testing.T) {
	table := EffectivenessTable{
		DamageKinetic: {ArmorLight: 3},
	}
	calc := NewCalculator(table, 50)

	assert.InDelta(t, 50.0, calc.ArmorConstant(), 1e-9)

	// 50 armor vs 50 constant halves; ×3 light.
	got := calc.CalculateDamage(100, DamageKinetic, 50, ArmorLight, false, 1)
	assert.InDelta(t, 150.0, got, 1e-9)

	// Missing row leaves damage unmodified.
	got = calc.CalculateDamage(100, DamageEnergy, 0, ArmorLight, false, 1)
	assert.InDelta(t, 100.0, got, 1e-9)
}

func TestParseDamageType(t *testing.T) {
	for dt := DamageKinetic; dt <= DamageTrue; dt++ {
		parsed, err := ParseDamageType(dt.String())
		require.NoError(t, err)
		assert.Equal(t, dt, parsed)
	}

	parsed, err := ParseDamageType("energy")
	require.NoError(t, err)
	assert.Equal(t, DamageEnergy, parsed)

	_, err = ParseDamageType("Plasma")
	assert.Error(t, err)

	var d DamageType
	require.NoError(t, d.UnmarshalText([]byte("Tesla")))
	assert.Equal(t, DamageTesla, d)
	assert.Error(t, d.UnmarshalText([]byte("bogus")))
}

func BenchmarkCalculateDamage(b *testing.B) {
	calc := NewCalculator(nil, 0)
	b.ReportAllocs()
	for b.Loop() {
		_ = calc.CalculateDamage(100, DamageKinetic, 100, ArmorHeavy, true, 1.5)
	}
}

func TestCanonicalArmorClass(t *testing.T) {
	assert.Equal(t, ArmorHeavy, CanonicalArmorClass("heavy"))
	assert.Equal(t, ArmorShield, CanonicalArmorClass("SHIELD"))
	assert.Equal(t, ArmorClass("Plated"), CanonicalArmorClass("Plated"))
}
