package spawn

import (
	"fmt"

	"github.com/timetolife1989-cloud/mechdefense/internal/game/combat"
	"github.com/timetolife1989-cloud/mechdefense/internal/model"
)

// BossWaveInterval makes every tenth wave a boss wave regardless of its
// definition.
const BossWaveInterval = 10

// Entry is one (archetype, count) pair of a wave composition.
type Entry struct {
	Archetype string `yaml:"archetype"`
	Count     int    `yaml:"count"`
}

// Definition is an ordered wave composition. It is immutable once built:
// NewDefinition copies its input and accessors return copies.
//
// On a boss wave the entries are the boss's support enemies and the boss is
// queued ahead of them.
type Definition struct {
	entries []Entry
	total   int

	bossWave bool
	boss     string
}

// NewDefinition validates and copies entries.
func NewDefinition(entries []Entry) (Definition, error) {
	d := Definition{entries: make([]Entry, 0, len(entries))}
	for i, e := range entries {
		if e.Archetype == "" {
			return Definition{}, fmt.Errorf("entry %d: empty archetype", i)
		}
		if e.Count < 0 {
			return Definition{}, fmt.Errorf("entry %d (%s): negative count %d", i, e.Archetype, e.Count)
		}
		d.entries = append(d.entries, e)
		d.total += e.Count
	}
	return d, nil
}

// MustDefinition is NewDefinition that panics on error. For static tables.
func MustDefinition(entries ...Entry) Definition {
	d, err := NewDefinition(entries)
	if err != nil {
		panic(err)
	}
	return d
}

// Entries returns a copy of the composition.
func (d Definition) Entries() []Entry {
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Total returns the number of enemies in the entries, excluding any boss.
func (d Definition) Total() int { return d.total }

// WithBoss returns a copy marked as a boss wave. An empty name lets the wave
// number pick the boss (see BossForWave).
func (d Definition) WithBoss(name string) Definition {
	d.entries = d.Entries()
	d.bossWave = true
	d.boss = name
	return d
}

// Boss returns the configured boss name, empty when chosen by wave number.
func (d Definition) Boss() string { return d.boss }

// IsBossWave reports whether the definition spawns a boss when run as the
// given wave: it is marked as one, or wave is a multiple of BossWaveInterval.
func (d Definition) IsBossWave(wave int) bool {
	return d.bossWave || (wave > 0 && wave%BossWaveInterval == 0)
}

// BossName returns the boss spawned when the definition runs as wave.
func (d Definition) BossName(wave int) string {
	if d.boss != "" {
		return d.boss
	}
	return BossForWave(wave)
}

// Size returns the number of spawns when the definition runs as wave.
func (d Definition) Size(wave int) int {
	if d.IsBossWave(wave) {
		return d.total + 1
	}
	return d.total
}

// Requests expands the composition into spawn requests: the boss first on a
// boss wave, then the entries in definition order.
func (d Definition) Requests(wave int) []Request {
	size := d.Size(wave)
	out := make([]Request, 0, size)
	if d.IsBossWave(wave) {
		out = append(out, Request{Archetype: d.BossName(wave), Wave: wave, Total: size, Boss: true})
	}
	for _, e := range d.entries {
		for range e.Count {
			out = append(out, Request{Archetype: e.Archetype, Wave: wave, Index: len(out), Total: size})
		}
	}
	return out
}

// BossForWave names the boss of a wave: FrostTitan, InfernoColossus,
// VoidWraith, StormLord and ChaosBringer for waves 10 through 50, FrostTitan
// otherwise.
func BossForWave(wave int) string {
	switch wave {
	case 20:
		return "InfernoColossus"
	case 30:
		return "VoidWraith"
	case 40:
		return "StormLord"
	case 50:
		return "ChaosBringer"
	}
	return model.ArchetypeFrostTitan
}

// GeneratedDefinitions builds an n-wave campaign. Every tenth wave is a boss
// wave with five Grunts in support; the others grow in three tiers
// (1-10, 11-30, 31+) with counts scaled by combat.ScaleEnemyCount.
func GeneratedDefinitions(n int) []Definition {
	defs := make([]Definition, 0, max(n, 0))
	for wave := 1; wave <= n; wave++ {
		if wave%BossWaveInterval == 0 {
			defs = append(defs, MustDefinition(Entry{model.ArchetypeGrunt, 5}).WithBoss(BossForWave(wave)))
			continue
		}
		defs = append(defs, MustDefinition(generatedEntries(wave)...))
	}
	return defs
}

func generatedEntries(wave int) []Entry {
	scaled := func(archetype string, base int) Entry {
		return Entry{Archetype: archetype, Count: combat.ScaleEnemyCount(base, wave)}
	}

	switch {
	case wave <= 10:
		entries := []Entry{scaled(model.ArchetypeGrunt, 5+wave)}
		if wave >= 5 {
			entries = append(entries, scaled(model.ArchetypeShooter, wave/2))
		}
		return entries
	case wave <= 30:
		entries := []Entry{
			scaled(model.ArchetypeGrunt, 10+wave/2),
			scaled(model.ArchetypeShooter, 5+wave/3),
			scaled(model.ArchetypeTank, 2+wave/5),
		}
		if wave >= 15 {
			entries = append(entries, scaled(model.ArchetypeFlyer, 3+wave/4))
		}
		return entries
	default:
		return []Entry{
			scaled(model.ArchetypeGrunt, 20+wave/2),
			scaled(model.ArchetypeShooter, 10+wave/3),
			scaled(model.ArchetypeTank, 5+wave/4),
			scaled(model.ArchetypeFlyer, 8+wave/3),
			scaled(model.ArchetypeSwarm, 15+wave/2),
		}
	}
}

// DefaultDefinitions returns the stock five-wave escalation.
func DefaultDefinitions() []Definition {
	return []Definition{
		MustDefinition(
			Entry{model.ArchetypeGrunt, 5},
			Entry{model.ArchetypeSwarm, 3},
		),
		MustDefinition(
			Entry{model.ArchetypeGrunt, 8},
			Entry{model.ArchetypeShooter, 2},
			Entry{model.ArchetypeSwarm, 5},
		),
		MustDefinition(
			Entry{model.ArchetypeGrunt, 10},
			Entry{model.ArchetypeShooter, 3},
			Entry{model.ArchetypeTank, 1},
			Entry{model.ArchetypeSwarm, 8},
		),
		MustDefinition(
			Entry{model.ArchetypeGrunt, 12},
			Entry{model.ArchetypeShooter, 4},
			Entry{model.ArchetypeFlyer, 3},
			Entry{model.ArchetypeSwarm, 10},
		),
		MustDefinition(
			Entry{model.ArchetypeGrunt, 15},
			Entry{model.ArchetypeShooter, 5},
			Entry{model.ArchetypeTank, 2},
			Entry{model.ArchetypeFlyer, 4},
			Entry{model.ArchetypeSwarm, 12},
		),
	}
}

// Request is one pending spawn.
type Request struct {
	Archetype string
	Wave      int
	Index     int // position within the wave, 0-based
	Total     int // wave size
	Boss      bool
}
