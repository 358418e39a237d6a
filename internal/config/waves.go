package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/timetolife1989-cloud/mechdefense/internal/model"
	"github.com/timetolife1989-cloud/mechdefense/internal/sim"
	"github.com/timetolife1989-cloud/mechdefense/internal/spawn"
)

// WaveSpec is one wave composition as written in the waves file. Naming a
// boss makes it a boss wave; boss_wave alone lets the wave number pick one.
// On a boss wave the enemies are the boss's support.
type WaveSpec struct {
	BossWave bool          `yaml:"boss_wave"`
	Boss     string        `yaml:"boss"`
	Enemies  []spawn.Entry `yaml:"enemies"`
}

// WavesFile is the hot reloadable content definition: archetype overrides
// and the wave table.
type WavesFile struct {
	// Archetypes are merged over the built-in archetypes by name.
	Archetypes []model.Archetype `yaml:"archetypes"`
	// Waves replaces the built-in table when non-empty.
	Waves []WaveSpec `yaml:"waves"`
	// Generate builds a campaign of that many waves when Waves is empty.
	Generate int `yaml:"generate"`
}

// Waves is a validated waves file.
type Waves struct {
	Archetypes  *model.ArchetypeRegistry
	Definitions []spawn.Definition
}

// Reload converts w into a runner reload message.
func (w Waves) Reload() sim.Reload {
	return sim.Reload{Definitions: w.Definitions, Archetypes: w.Archetypes}
}

// DefaultWaves returns the built-in archetypes and waves.
func DefaultWaves() Waves {
	reg, err := model.NewArchetypeRegistry(model.DefaultArchetypes())
	if err != nil {
		panic(fmt.Sprintf("built-in archetypes: %v", err))
	}
	return Waves{Archetypes: reg, Definitions: spawn.DefaultDefinitions()}
}

// LoadWaves loads a waves file. An empty path or a missing file returns
// the built-in content.
func LoadWaves(path string) (Waves, error) {
	if path == "" {
		return DefaultWaves(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultWaves(), nil
		}
		return Waves{}, fmt.Errorf("reading waves %s: %w", path, err)
	}

	w, err := ParseWaves(data)
	if err != nil {
		return Waves{}, fmt.Errorf("waves %s: %w", path, err)
	}
	return w, nil
}

// ParseWaves decodes and validates waves file content. Every archetype a
// wave names must be known after merging.
func ParseWaves(data []byte) (Waves, error) {
	var f WavesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Waves{}, fmt.Errorf("parsing: %w", err)
	}

	all := append(model.DefaultArchetypes(), f.Archetypes...)
	reg, err := model.NewArchetypeRegistry(all)
	if err != nil {
		return Waves{}, fmt.Errorf("archetypes: %w", err)
	}

	if f.Generate < 0 {
		return Waves{}, fmt.Errorf("generate must not be negative, got %d", f.Generate)
	}
	if len(f.Waves) == 0 {
		if f.Generate > 0 {
			return Waves{Archetypes: reg, Definitions: spawn.GeneratedDefinitions(f.Generate)}, nil
		}
		return Waves{Archetypes: reg, Definitions: spawn.DefaultDefinitions()}, nil
	}

	defs := make([]spawn.Definition, 0, len(f.Waves))
	for i, ws := range f.Waves {
		for _, e := range ws.Enemies {
			if _, ok := reg.Get(e.Archetype); !ok {
				return Waves{}, fmt.Errorf("wave %d: %w: %q", i+1, spawn.ErrUnknownArchetype, e.Archetype)
			}
		}
		if ws.Boss != "" {
			if _, ok := reg.Get(ws.Boss); !ok {
				return Waves{}, fmt.Errorf("wave %d boss: %w: %q", i+1, spawn.ErrUnknownArchetype, ws.Boss)
			}
		}
		d, err := spawn.NewDefinition(ws.Enemies)
		if err != nil {
			return Waves{}, fmt.Errorf("wave %d: %w", i+1, err)
		}
		if ws.BossWave || ws.Boss != "" {
			d = d.WithBoss(ws.Boss)
		}
		defs = append(defs, d)
	}

	return Waves{Archetypes: reg, Definitions: defs}, nil
}
