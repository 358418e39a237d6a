package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/timetolife1989-cloud/mechdefense/internal/game/combat"
	"github.com/timetolife1989-cloud/mechdefense/internal/sim"
)

// Config holds all configuration for the wave simulator.
type Config struct {
	LogLevel string `yaml:"log_level"`

	// Loop
	TickInterval     time.Duration `yaml:"tick_interval"`
	ExitWhenFinished bool          `yaml:"exit_when_finished"`

	// WavesFile holds archetypes and wave compositions; hot reloaded when Watch is set.
	WavesFile string `yaml:"waves_file"`
	Watch     bool   `yaml:"watch"`

	Sim    sim.Config   `yaml:"sim"`
	Combat CombatConfig `yaml:"combat"`

	Stream   StreamConfig   `yaml:"stream"`
	Database DatabaseConfig `yaml:"database"`
}

// CombatConfig is the damage pipeline tuning. Effectiveness is keyed by
// damage type name, then armor class name.
type CombatConfig struct {
	ArmorConstant float64                       `yaml:"armor_constant"`
	Effectiveness map[string]map[string]float64 `yaml:"effectiveness"`
}

// StreamConfig controls the WebSocket event stream.
type StreamConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Addr       string `yaml:"addr"`
	Path       string `yaml:"path"`
	SendBuffer int    `yaml:"send_buffer"` // per-client outbox capacity
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`

	// QueueSize bounds pending writes handed off by the simulation.
	QueueSize int `yaml:"queue_size"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Default returns Config with sensible defaults.
func Default() Config {
	return Config{
		LogLevel:     "info",
		TickInterval: 50 * time.Millisecond,
		Sim:          sim.DefaultConfig(),
		Combat: CombatConfig{
			ArmorConstant: combat.DefaultArmorConstant,
		},
		Stream: StreamConfig{
			Enabled:    true,
			Addr:       "127.0.0.1:8080",
			Path:       "/events",
			SendBuffer: 64,
		},
		Database: DatabaseConfig{
			Enabled:   false,
			Host:      "127.0.0.1",
			Port:      5432,
			User:      "mechdefense",
			Password:  "mechdefense",
			DBName:    "mechdefense",
			SSLMode:   "disable",
			QueueSize: 256,
		},
	}
}

// Load loads config from a YAML file.
// If the file doesn't exist, returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks values the simulation cannot recover from.
func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	}
	if c.Sim.Spawner.SpawnDelay < 0 || c.Sim.Spawner.TimeBetweenWaves < 0 {
		return fmt.Errorf("spawner delays must not be negative")
	}
	if c.Stream.Enabled && c.Stream.Addr == "" {
		return fmt.Errorf("stream.addr is required when the stream is enabled")
	}
	if c.Combat.ArmorConstant <= 0 {
		return fmt.Errorf("combat.armor_constant must be positive, got %v", c.Combat.ArmorConstant)
	}
	if _, err := c.Combat.Table(); err != nil {
		return err
	}
	return nil
}

// Table converts the configured effectiveness overrides into a full table.
// Overrides are merged onto the stock table; unnamed entries keep stock values.
func (c CombatConfig) Table() (combat.EffectivenessTable, error) {
	table := combat.DefaultEffectiveness()
	for typeName, row := range c.Effectiveness {
		dt, err := combat.ParseDamageType(typeName)
		if err != nil {
			return nil, fmt.Errorf("combat.effectiveness: %w", err)
		}
		if table[dt] == nil {
			table[dt] = make(map[combat.ArmorClass]float64, len(row))
		}
		for armor, mult := range row {
			if mult < 0 {
				return nil, fmt.Errorf("combat.effectiveness.%s.%s: negative multiplier %v", typeName, armor, mult)
			}
			table[dt][combat.CanonicalArmorClass(armor)] = mult
		}
	}
	return table, nil
}

// SimConfig returns the simulation config with combat tuning applied.
func (c Config) SimConfig() (sim.Config, error) {
	table, err := c.Combat.Table()
	if err != nil {
		return sim.Config{}, err
	}
	out := c.Sim
	out.ArmorConstant = c.Combat.ArmorConstant
	out.Effectiveness = table
	return out, nil
}
