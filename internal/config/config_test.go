package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timetolife1989-cloud/mechdefense/internal/game/combat"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `
log_level: debug
tick_interval: 20ms
exit_when_finished: true
sim:
  seed: 7
  spawner:
    time_between_waves: 4
    spawn_delay: 0.25
    spawn_points:
      - position: {x: 10, y: 0, z: 0}
        pattern: circle
        radius: 8
combat:
  armor_constant: 50
  effectiveness:
    kinetic:
      heavy: 0.9
database:
  enabled: true
  port: 6543
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 20*time.Millisecond, cfg.TickInterval)
	assert.True(t, cfg.ExitWhenFinished)
	assert.Equal(t, uint64(7), cfg.Sim.Seed)
	assert.Equal(t, 4.0, cfg.Sim.Spawner.TimeBetweenWaves)
	assert.Equal(t, 0.25, cfg.Sim.Spawner.SpawnDelay)
	require.Len(t, cfg.Sim.Spawner.Points, 1)
	assert.Equal(t, 8.0, cfg.Sim.Spawner.Points[0].Radius)

	// Untouched sections keep their defaults.
	assert.Equal(t, Default().Sim.Player, cfg.Sim.Player)
	assert.Equal(t, "127.0.0.1", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.True(t, cfg.Database.Enabled)

	sc, err := cfg.SimConfig()
	require.NoError(t, err)
	assert.Equal(t, 50.0, sc.ArmorConstant)
	assert.Equal(t, 0.9, sc.Effectiveness[combat.DamageKinetic][combat.ArmorHeavy])
	// Other entries keep stock values.
	assert.Equal(t,
		combat.DefaultEffectiveness()[combat.DamageEnergy][combat.ArmorShield],
		sc.Effectiveness[combat.DamageEnergy][combat.ArmorShield])
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "tick_interval: [1, 2"},
		{"zero tick", "tick_interval: 0s"},
		{"unknown damage type", "combat:\n  effectiveness:\n    plasma:\n      light: 1\n"},
		{"negative multiplier", "combat:\n  effectiveness:\n    kinetic:\n      light: -1\n"},
		{"zero armor constant", "combat:\n  armor_constant: 0\n"},
		{"stream without addr", "stream:\n  enabled: true\n  addr: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "config.yaml", tt.content))
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Password: "p", DBName: "waves", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://u:p@db:5432/waves?sslmode=disable", d.DSN())
}

func TestShippedConfigFiles(t *testing.T) {
	cfg, err := Load("../../config/wavesim.yaml")
	require.NoError(t, err)
	assert.Equal(t, "config/waves.yaml", cfg.WavesFile)
	assert.Len(t, cfg.Sim.Spawner.Points, 4)
	assert.Equal(t, combat.DamageKinetic, cfg.Sim.Player.Turret.DamageType)

	sc, err := cfg.SimConfig()
	require.NoError(t, err)
	assert.Equal(t, 1.5, sc.Effectiveness[combat.DamageExplosive][combat.ArmorHeavy])

	w, err := LoadWaves("../../config/waves.yaml")
	require.NoError(t, err)
	assert.Len(t, w.Definitions, 5)
	_, ok := w.Archetypes.Get("Brute")
	assert.True(t, ok)
	_, ok = w.Archetypes.Get("Warden")
	assert.True(t, ok)
	assert.True(t, w.Definitions[4].IsBossWave(5))
	assert.Equal(t, "Warden", w.Definitions[4].Boss())
	assert.False(t, w.Definitions[0].IsBossWave(1))
}
