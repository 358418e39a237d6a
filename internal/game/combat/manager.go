package combat

import "log/slog"

// Rand is the uniform random source used for critical rolls.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
}

// RollCritical performs an independent Bernoulli trial with probability critChance.
func RollCritical(rng Rand, critChance float64) bool {
	if rng == nil || critChance <= 0 {
		return false
	}
	return rng.Float64() < critChance
}

// Hit describes one outgoing attack before mitigation.
type Hit struct {
	Base           float64
	Type           DamageType
	CritChance     float64
	CritMultiplier float64
}

// Defense describes the receiving side of a hit.
type Defense struct {
	Armor      float64
	ArmorClass ArmorClass
}

// HitResult holds the outcome of one resolved hit (observable in tests).
type HitResult struct {
	Damage float64
	Crit   bool
}

// Resolver couples the calculator with a crit random source.
// The random source is owned by the caller's simulation loop, so a Resolver
// must only be used from that loop.
type Resolver struct {
	calc *Calculator
	rng  Rand

	// hitObserver is a test hook (nil in production).
	hitObserver func(Hit, HitResult)
}

// NewResolver creates a hit resolver.
func NewResolver(calc *Calculator, rng Rand) *Resolver {
	return &Resolver{calc: calc, rng: rng}
}

// SetHitObserver installs a callback invoked after every resolved hit.
func (r *Resolver) SetHitObserver(fn func(Hit, HitResult)) {
	r.hitObserver = fn
}

// Calculator returns the underlying damage calculator.
func (r *Resolver) Calculator() *Calculator {
	return r.calc
}

// Resolve rolls for a critical and runs the damage pipeline.
func (r *Resolver) Resolve(hit Hit, def Defense) HitResult {
	crit := RollCritical(r.rng, hit.CritChance)
	dmg := r.calc.CalculateDamage(hit.Base, hit.Type, def.Armor, def.ArmorClass, crit, hit.CritMultiplier)

	res := HitResult{Damage: dmg, Crit: crit}

	if crit {
		slog.Debug("critical hit",
			"type", hit.Type,
			"base", hit.Base,
			"damage", dmg)
	}

	if r.hitObserver != nil {
		r.hitObserver(hit, res)
	}
	return res
}
