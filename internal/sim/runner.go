package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/timetolife1989-cloud/mechdefense/internal/event"
	"github.com/timetolife1989-cloud/mechdefense/internal/model"
	"github.com/timetolife1989-cloud/mechdefense/internal/spawn"
)

// Command is an administrative request applied between steps.
type Command string

const (
	CommandStartNextWave Command = "start_next_wave"
	CommandForceComplete Command = "force_complete_wave"
	CommandStopSpawning  Command = "stop_spawning"
)

// ParseCommand validates a command name.
func ParseCommand(s string) (Command, error) {
	switch c := Command(s); c {
	case CommandStartNextWave, CommandForceComplete, CommandStopSpawning:
		return c, nil
	}
	return "", fmt.Errorf("unknown command %q", s)
}

// Apply executes c against the simulation.
func (s *Simulation) Apply(c Command) error {
	switch c {
	case CommandStartNextWave:
		return s.spawner.StartNextWave()
	case CommandForceComplete:
		s.spawner.ForceCompleteWave()
	case CommandStopSpawning:
		s.spawner.StopSpawning()
	default:
		return fmt.Errorf("unknown command %q", c)
	}
	return nil
}

// Reload carries replacement data for a running simulation. Nil fields are left unchanged.
type Reload struct {
	Definitions []spawn.Definition
	Archetypes  *model.ArchetypeRegistry
}

// RunnerConfig controls the wall-clock loop.
type RunnerConfig struct {
	// Interval is the wall-clock tick period; each tick advances Interval seconds.
	Interval time.Duration
	// ExitWhenFinished stops the loop after the all-waves-completed step.
	ExitWhenFinished bool
}

// Runner drives a Simulation from a ticker and fans its events out.
type Runner struct {
	sim      *Simulation
	cfg      RunnerConfig
	out      []chan<- []event.Event
	reload   <-chan Reload
	commands <-chan Command
}

// NewRunner creates a runner. Sinks receive every non-empty event batch.
func NewRunner(s *Simulation, cfg RunnerConfig) *Runner {
	if cfg.Interval <= 0 {
		cfg.Interval = 50 * time.Millisecond
	}
	return &Runner{sim: s, cfg: cfg}
}

// AddSink registers an event batch consumer. Sends never block the loop:
// a full sink drops the batch with a warning.
func (r *Runner) AddSink(ch chan<- []event.Event) { r.out = append(r.out, ch) }

// SetReload sets the hot reload source.
func (r *Runner) SetReload(ch <-chan Reload) { r.reload = ch }

// SetCommands sets the administrative command source.
func (r *Runner) SetCommands(ch <-chan Command) { r.commands = ch }

// Run blocks until ctx is canceled or, with ExitWhenFinished, the last wave ends.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	dt := r.cfg.Interval.Seconds()
	slog.Info("simulation loop started", "interval", r.cfg.Interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("simulation loop stopping", "tick", r.sim.Tick(), "stats", r.sim.Stats())
			return ctx.Err()

		case rl := <-r.reload:
			r.applyReload(rl)

		case c := <-r.commands:
			if err := r.sim.Apply(c); err != nil {
				slog.Warn("command rejected", "command", c, "error", err)
			} else {
				slog.Info("command applied", "command", c)
			}

		case <-ticker.C:
			r.publish(r.sim.Step(dt))

			if r.cfg.ExitWhenFinished && r.sim.Finished() {
				slog.Info("all waves completed, simulation loop exiting",
					"tick", r.sim.Tick(),
					"elapsed", r.sim.Elapsed(),
					"stats", r.sim.Stats())
				return nil
			}
		}
	}
}

func (r *Runner) applyReload(rl Reload) {
	if rl.Archetypes != nil {
		r.sim.SetArchetypes(rl.Archetypes)
	}
	if rl.Definitions != nil {
		r.sim.SetDefinitions(rl.Definitions)
	}
}

func (r *Runner) publish(batch []event.Event) {
	if len(batch) == 0 {
		return
	}
	for _, ch := range r.out {
		select {
		case ch <- batch:
		default:
			slog.Warn("event sink full, dropping batch", "events", len(batch), "tick", r.sim.Tick())
		}
	}
}
