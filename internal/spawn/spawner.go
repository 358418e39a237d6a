package spawn

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/timetolife1989-cloud/mechdefense/internal/event"
	"github.com/timetolife1989-cloud/mechdefense/internal/game/combat"
	"github.com/timetolife1989-cloud/mechdefense/internal/model"
)

var (
	// ErrWaveActive is returned by StartNextWave while a wave is running.
	ErrWaveActive = errors.New("spawn: wave already active")
	// ErrUnknownArchetype is returned by factories for unregistered archetypes.
	ErrUnknownArchetype = errors.New("spawn: unknown archetype")
	// ErrFinished is returned by StartNextWave after the last wave.
	ErrFinished = errors.New("spawn: all waves completed")
)

// Rand is the uniform source for spawn point selection and scatter.
type Rand interface {
	Float64() float64
}

// Factory instantiates an enemy for a request at pos.
type Factory interface {
	Spawn(req Request, pos model.Vec3) (model.Handle, error)
}

// World is what the spawner needs from the entity layer.
type World interface {
	Validity
	Destroy(h model.Handle)
}

// Rewarder receives wave completion rewards.
type Rewarder interface {
	GrantExperience(amount int, reason string)
}

// RewardFunc adapts a function to Rewarder.
type RewardFunc func(amount int, reason string)

// GrantExperience calls f.
func (f RewardFunc) GrantExperience(amount int, reason string) { f(amount, reason) }

// Phase is the spawner's lifecycle phase.
type Phase uint8

const (
	PhaseIdle Phase = iota // no wave started yet
	PhaseInterWave
	PhaseWaveActive
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInterWave:
		return "inter_wave"
	case PhaseWaveActive:
		return "wave_active"
	case PhaseFinished:
		return "finished"
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

// Config holds spawner tunables.
type Config struct {
	TimeBetweenWaves float64    `yaml:"time_between_waves"` // seconds
	SpawnDelay       float64    `yaml:"spawn_delay"`        // seconds between spawns
	AutoStart        bool       `yaml:"auto_start"`
	Position         model.Vec3 `yaml:"position"`
	Points           []Point    `yaml:"spawn_points"`
}

// DefaultConfig returns 10s between waves, 1s pacing, auto start.
func DefaultConfig() Config {
	return Config{
		TimeBetweenWaves: 10,
		SpawnDelay:       1,
		AutoStart:        true,
	}
}

// Spawner runs the wave lifecycle. It owns the spawn queue and the active
// registry and must only be driven from the simulation tick.
type Spawner struct {
	cfg     Config
	defs    []Definition
	factory Factory
	world   World
	reward  Rewarder
	events  event.Emitter
	rng     Rand

	phase      Phase
	wave       int
	waveTimer  float64
	spawnTimer float64
	queue      Queue
	active     Registry

	spawnedThisWave int
}

// New creates a spawner. Zero spawn points fall back to one random point at
// cfg.Position. reward and events may be nil.
func New(cfg Config, defs []Definition, factory Factory, world World, reward Rewarder, events event.Emitter, rng Rand) *Spawner {
	if len(cfg.Points) == 0 {
		slog.Warn("no spawn points configured, using spawner position", "position", cfg.Position)
		cfg.Points = []Point{{Position: cfg.Position}}
	} else {
		cfg.Points = append([]Point(nil), cfg.Points...)
	}
	if cfg.SpawnDelay < 0 {
		cfg.SpawnDelay = 0
	}
	if events == nil {
		events = event.Discard{}
	}
	if reward == nil {
		reward = RewardFunc(func(int, string) {})
	}

	return &Spawner{
		cfg:     cfg,
		defs:    append([]Definition(nil), defs...),
		factory: factory,
		world:   world,
		reward:  reward,
		events:  events,
		rng:     rng,
	}
}

// Phase returns the current phase.
func (s *Spawner) Phase() Phase { return s.phase }

// CurrentWave returns the 1-based wave counter (0 before the first wave).
func (s *Spawner) CurrentWave() int { return s.wave }

// IsWaveActive reports whether a wave is running.
func (s *Spawner) IsWaveActive() bool { return s.phase == PhaseWaveActive }

// EnemiesRemaining returns the number of tracked live enemies.
func (s *Spawner) EnemiesRemaining() int { return s.active.Len() }

// Pending returns the number of queued spawns.
func (s *Spawner) Pending() int { return s.queue.Len() }

// WaveTimer returns the remaining inter-wave countdown.
func (s *Spawner) WaveTimer() float64 { return s.waveTimer }

// WaveCount returns the number of defined waves.
func (s *Spawner) WaveCount() int { return len(s.defs) }

// ActiveEnemies returns tracked handles in spawn order.
func (s *Spawner) ActiveEnemies() []model.Handle { return s.active.Handles() }

// Points returns the effective spawn points.
func (s *Spawner) Points() []Point { return append([]Point(nil), s.cfg.Points...) }

// SetDefinitions replaces the wave table. The running wave keeps its queue;
// the new table applies from the next StartNextWave.
func (s *Spawner) SetDefinitions(defs []Definition) {
	s.defs = append([]Definition(nil), defs...)
	slog.Info("wave definitions replaced", "waves", len(defs), "current_wave", s.wave)

	if s.phase == PhaseFinished && s.wave <= len(s.defs) {
		s.phase = PhaseInterWave
		s.wave--
		s.waveTimer = s.cfg.TimeBetweenWaves
	}
}

// Tick advances the spawner by dt seconds.
func (s *Spawner) Tick(dt float64) {
	s.active.Prune(s.world)

	switch s.phase {
	case PhaseIdle:
		if s.cfg.AutoStart {
			s.StartNextWave()
		}

	case PhaseWaveActive:
		if s.queue.Len() > 0 {
			s.spawnTimer -= dt
			if s.spawnTimer <= 0 {
				s.spawnNext()
				s.spawnTimer = s.cfg.SpawnDelay
			}
		} else if s.active.Len() == 0 {
			s.completeWave()
		}

	case PhaseInterWave:
		s.waveTimer -= dt
		if s.waveTimer <= 0 {
			s.StartNextWave()
		}
	}
}

// StartNextWave advances the wave counter and fills the queue.
// Past the last definition it emits AllWavesCompleted and finishes.
func (s *Spawner) StartNextWave() error {
	switch s.phase {
	case PhaseWaveActive:
		slog.Warn("cannot start new wave, current wave is active", "wave", s.wave)
		return ErrWaveActive
	case PhaseFinished:
		return ErrFinished
	}

	s.wave++
	if s.wave > len(s.defs) {
		s.phase = PhaseFinished
		s.waveTimer = 0
		s.queue.Clear()
		s.events.Emit(event.Event{Kind: event.AllWavesCompleted, Wave: s.wave - 1})
		slog.Info("all waves completed", "waves", len(s.defs))
		return nil
	}

	def := s.defs[s.wave-1]
	boss := def.IsBossWave(s.wave)
	s.queue.Reset(def.Requests(s.wave))
	// The first enemy arrives on the next tick; SpawnDelay paces the rest.
	s.spawnTimer = 0
	s.waveTimer = 0
	s.spawnedThisWave = 0
	s.phase = PhaseWaveActive

	s.events.Emit(event.Event{
		Kind:         event.WaveStarted,
		Wave:         s.wave,
		TotalEnemies: def.Size(s.wave),
		Boss:         boss,
		Position:     s.cfg.Position,
	})
	slog.Info("wave started", "wave", s.wave, "enemies", def.Size(s.wave), "boss_wave", boss)
	return nil
}

// ForceCompleteWave destroys every active enemy, drops pending spawns and
// completes the wave immediately. No-op when no wave is active.
func (s *Spawner) ForceCompleteWave() {
	if s.phase != PhaseWaveActive {
		return
	}
	for _, h := range s.active.Handles() {
		if s.world.IsValid(h) {
			s.world.Destroy(h)
		}
	}
	s.active.Clear()
	s.queue.Clear()

	slog.Info("wave force-completed", "wave", s.wave)
	s.completeWave()
}

// StopSpawning discards the remaining queued spawns of the current wave.
// The wave completes once the already spawned enemies are gone.
func (s *Spawner) StopSpawning() {
	if n := s.queue.Len(); n > 0 {
		slog.Info("spawning stopped", "wave", s.wave, "discarded", n)
	}
	s.queue.Clear()
}

func (s *Spawner) spawnNext() {
	req, ok := s.queue.Pop()
	if !ok {
		return
	}

	var pos model.Vec3
	if req.Boss {
		// Bosses enter at the first spawn point.
		pos = s.cfg.Points[0].Position
	} else {
		point := s.cfg.Points[s.pickPoint()]
		pos = point.Place(req.Index, req.Total, s.rng)
	}

	h, err := s.factory.Spawn(req, pos)
	if err != nil && req.Boss && errors.Is(err, ErrUnknownArchetype) && req.Archetype != model.ArchetypeFrostTitan {
		slog.Warn("unknown boss, spawning default", "boss", req.Archetype, "default", model.ArchetypeFrostTitan)
		req.Archetype = model.ArchetypeFrostTitan
		h, err = s.factory.Spawn(req, pos)
	}
	if err != nil {
		slog.Error("enemy spawn failed", "archetype", req.Archetype, "wave", req.Wave, "error", err)
		return
	}

	s.active.Add(h)
	s.spawnedThisWave++
	s.events.Emit(event.Event{
		Kind:      event.EnemySpawned,
		Entity:    h,
		Archetype: req.Archetype,
		Position:  pos,
		Wave:      s.wave,
		Boss:      req.Boss,
	})
	if req.Boss {
		s.events.Emit(event.Event{
			Kind:      event.BossSpawned,
			Entity:    h,
			Archetype: req.Archetype,
			Position:  pos,
			Wave:      s.wave,
			Boss:      true,
		})
		slog.Info("boss spawned", "boss", req.Archetype, "wave", s.wave)
	}
}

func (s *Spawner) pickPoint() int {
	n := len(s.cfg.Points)
	if n == 1 || s.rng == nil {
		return 0
	}
	return min(int(s.rng.Float64()*float64(n)), n-1)
}

func (s *Spawner) completeWave() {
	s.phase = PhaseInterWave
	s.waveTimer = s.cfg.TimeBetweenWaves

	xp := combat.XPReward(s.wave)
	credits := combat.CreditsReward(s.wave)
	reason := fmt.Sprintf("Wave %d completion", s.wave)
	s.reward.GrantExperience(xp, reason)

	s.events.Emit(event.Event{Kind: event.ExperienceGranted, Wave: s.wave, Amount: float64(xp), Reason: reason})
	s.events.Emit(event.Event{
		Kind:         event.WaveCompleted,
		Wave:         s.wave,
		TotalEnemies: s.spawnedThisWave,
		Experience:   xp,
		Credits:      credits,
	})

	slog.Info("wave completed", "wave", s.wave, "xp", xp, "credits", credits, "next_in", s.cfg.TimeBetweenWaves)
}
