package combat

import "math"

// Difficulty scaling for waves.
// Waves 1-10 scale linearly; later waves scale by percentage per wave.
const (
	linearWaveCap        = 10
	hpPerLinearWave      = 50
	hpPercentPerWave     = 0.15
	damagePercentPerWave = 0.10
	countWaveStep        = 5
	countPercentPerStep  = 0.10
	eliteWaveThreshold   = 31
	xpPerWave            = 100
	creditsPerWave       = 50
)

// ScaleEnemyHP scales base HP for the given wave.
func ScaleEnemyHP(baseHP float64, wave int) float64 {
	if wave <= 0 {
		return baseHP
	}
	if wave <= linearWaveCap {
		return baseHP + float64(wave*hpPerLinearWave)
	}
	return math.Round(baseHP * (1 + float64(wave-linearWaveCap)*hpPercentPerWave))
}

// ScaleEnemyDamage scales base damage; no scaling until wave 11.
func ScaleEnemyDamage(baseDamage float64, wave int) float64 {
	if wave <= linearWaveCap {
		return baseDamage
	}
	return math.Round(baseDamage * (1 + float64(wave-linearWaveCap)*damagePercentPerWave))
}

// ScaleEnemyCount adds 10% more enemies per 5 waves.
func ScaleEnemyCount(baseCount, wave int) int {
	if wave <= 0 {
		return baseCount
	}
	mult := 1 + float64(wave/countWaveStep)*countPercentPerStep
	return int(math.Round(float64(baseCount) * mult))
}

// XPReward is the experience granted for completing a wave.
func XPReward(wave int) int {
	return wave * xpPerWave
}

// CreditsReward is the currency granted for completing a wave.
func CreditsReward(wave int) int {
	return wave * creditsPerWave
}

// IsEliteWave reports whether enemies of this wave are elite variants.
func IsEliteWave(wave int) bool {
	return wave >= eliteWaveThreshold
}

// EliteHPMultiplier returns 2.0 on elite waves, 1.0 otherwise.
func EliteHPMultiplier(wave int) float64 {
	if IsEliteWave(wave) {
		return 2.0
	}
	return 1.0
}

// EliteDamageMultiplier returns 1.5 on elite waves, 1.0 otherwise.
func EliteDamageMultiplier(wave int) float64 {
	if IsEliteWave(wave) {
		return 1.5
	}
	return 1.0
}
