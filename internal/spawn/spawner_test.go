package spawn

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timetolife1989-cloud/mechdefense/internal/event"
	"github.com/timetolife1989-cloud/mechdefense/internal/model"
)

type fakeWorld struct {
	live      map[model.Handle]bool
	destroyed []model.Handle
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{live: make(map[model.Handle]bool)}
}

func (w *fakeWorld) IsValid(h model.Handle) bool { return w.live[h] }

func (w *fakeWorld) Destroy(h model.Handle) {
	delete(w.live, h)
	w.destroyed = append(w.destroyed, h)
}

// killAll simulates every live enemy dying and being removed.
func (w *fakeWorld) killAll() {
	for h := range w.live {
		delete(w.live, h)
	}
}

type fakeFactory struct {
	world    *fakeWorld
	next     model.Handle
	requests []Request
	fail     map[string]bool
}

func (f *fakeFactory) Spawn(req Request, _ model.Vec3) (model.Handle, error) {
	if f.fail[req.Archetype] {
		return model.InvalidHandle, ErrUnknownArchetype
	}
	f.next++
	f.world.live[f.next] = true
	f.requests = append(f.requests, req)
	return f.next, nil
}

type rewardLog struct {
	amounts []int
	reasons []string
}

func (r *rewardLog) GrantExperience(amount int, reason string) {
	r.amounts = append(r.amounts, amount)
	r.reasons = append(r.reasons, reason)
}

type seqRand struct{ v float64 }

func (r seqRand) Float64() float64 { return r.v }

type harness struct {
	world   *fakeWorld
	factory *fakeFactory
	reward  *rewardLog
	events  *event.Queue
	sp      *Spawner
}

func newHarness(cfg Config, defs []Definition) *harness {
	w := newFakeWorld()
	h := &harness{
		world:   w,
		factory: &fakeFactory{world: w},
		reward:  &rewardLog{},
		events:  event.NewQueue(),
	}
	h.sp = New(cfg, defs, h.factory, w, h.reward, h.events, seqRand{v: 0.3})
	return h
}

func countKind(events []event.Event, k event.Kind) int {
	n := 0
	for _, e := range events {
		if e.Kind == k {
			n++
		}
	}
	return n
}

func TestSpawner_FirstWavePacing(t *testing.T) {
	h := newHarness(DefaultConfig(), DefaultDefinitions())

	h.sp.Tick(0) // auto start
	require.Equal(t, PhaseWaveActive, h.sp.Phase())
	require.Equal(t, 1, h.sp.CurrentWave())
	started := h.events.Drain()
	require.Len(t, started, 1)
	assert.Equal(t, event.WaveStarted, started[0].Kind)
	assert.Equal(t, 8, started[0].TotalEnemies)

	// The first enemy arrives on the next tick, then one per SpawnDelay.
	var spawnTimes []int
	for tick := 1; tick <= 12; tick++ {
		h.sp.Tick(0.5)
		for _, e := range h.events.Drain() {
			if e.Kind == event.EnemySpawned {
				spawnTimes = append(spawnTimes, tick)
			}
			assert.NotEqual(t, event.WaveCompleted, e.Kind, "wave must not complete with live enemies")
		}
	}
	assert.Len(t, spawnTimes, 6)
	assert.Equal(t, 1, spawnTimes[0])
	for i := 1; i < len(spawnTimes); i++ {
		assert.Equal(t, 2, spawnTimes[i]-spawnTimes[i-1])
	}

	for range 4 {
		h.sp.Tick(0.5)
	}
	assert.Len(t, h.factory.requests, 8)
	assert.Equal(t, 0, h.sp.Pending())
	assert.Equal(t, 8, h.sp.EnemiesRemaining())

	var archetypes []string
	for _, r := range h.factory.requests {
		archetypes = append(archetypes, r.Archetype)
	}
	assert.Equal(t, []string{"Grunt", "Grunt", "Grunt", "Grunt", "Grunt", "Swarm", "Swarm", "Swarm"}, archetypes)

	h.events.Drain()
	h.world.killAll()
	h.sp.Tick(0.5)

	assert.Equal(t, PhaseInterWave, h.sp.Phase())
	assert.Equal(t, []int{100}, h.reward.amounts)
	assert.Equal(t, []string{"Wave 1 completion"}, h.reward.reasons)
	done := h.events.Drain()
	assert.Equal(t, 1, countKind(done, event.WaveCompleted))
	assert.Equal(t, 1, countKind(done, event.ExperienceGranted))
	for _, e := range done {
		if e.Kind == event.WaveCompleted {
			assert.Equal(t, 100, e.Experience)
			assert.Equal(t, 50, e.Credits)
			assert.Equal(t, 8, e.TotalEnemies)
		}
	}
}

func TestSpawner_EveryWaveSpawnsExactlyItsDefinition(t *testing.T) {
	defs := DefaultDefinitions()
	cfg := DefaultConfig()
	cfg.TimeBetweenWaves = 2
	h := newHarness(cfg, defs)

	for wave := 1; wave <= len(defs); wave++ {
		before := len(h.factory.requests)
		for h.sp.Pending() > 0 || h.sp.Phase() != PhaseWaveActive {
			h.sp.Tick(1)
		}
		require.Equal(t, wave, h.sp.CurrentWave())
		assert.Equal(t, defs[wave-1].Total(), len(h.factory.requests)-before, "wave %d", wave)

		h.world.killAll()
		h.sp.Tick(1)
		require.Equal(t, PhaseInterWave, h.sp.Phase())
	}

	assert.Equal(t, []int{100, 200, 300, 400, 500}, h.reward.amounts)

	h.events.Drain()
	h.sp.Tick(2)
	assert.Equal(t, PhaseFinished, h.sp.Phase())
	assert.Equal(t, 1, countKind(h.events.Drain(), event.AllWavesCompleted))
	assert.ErrorIs(t, h.sp.StartNextWave(), ErrFinished)

	// Terminal: nothing else happens.
	h.sp.Tick(100)
	assert.Equal(t, 0, h.events.Len())
}

func TestSpawner_ForceCompleteWave(t *testing.T) {
	h := newHarness(DefaultConfig(), DefaultDefinitions())
	h.sp.Tick(0)
	h.sp.Tick(1)
	h.sp.Tick(1)
	require.Equal(t, 2, h.sp.EnemiesRemaining())

	h.sp.ForceCompleteWave()

	assert.Len(t, h.world.destroyed, 2)
	assert.Equal(t, 0, h.sp.EnemiesRemaining())
	assert.Equal(t, 0, h.sp.Pending())
	assert.Equal(t, PhaseInterWave, h.sp.Phase())
	assert.Equal(t, []int{100}, h.reward.amounts)

	// Not active any more: second call is a no-op.
	h.sp.ForceCompleteWave()
	assert.Len(t, h.reward.amounts, 1)
}

func TestSpawner_StartNextWaveWhileActive(t *testing.T) {
	h := newHarness(DefaultConfig(), DefaultDefinitions())
	require.NoError(t, h.sp.StartNextWave())

	err := h.sp.StartNextWave()
	assert.True(t, errors.Is(err, ErrWaveActive))
	assert.Equal(t, 1, h.sp.CurrentWave())
}

func TestSpawner_ManualStartWithoutAutoStart(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoStart = false
	h := newHarness(cfg, DefaultDefinitions())

	h.sp.Tick(100)
	assert.Equal(t, PhaseIdle, h.sp.Phase())
	assert.Equal(t, 0, h.sp.CurrentWave())

	require.NoError(t, h.sp.StartNextWave())
	assert.Equal(t, PhaseWaveActive, h.sp.Phase())
}

func TestSpawner_PrunesInvalidHandles(t *testing.T) {
	h := newHarness(DefaultConfig(), DefaultDefinitions())
	h.sp.Tick(0)
	h.sp.Tick(1)
	h.sp.Tick(1)
	require.Equal(t, 2, h.sp.EnemiesRemaining())

	delete(h.world.live, h.sp.ActiveEnemies()[0])
	h.sp.Tick(0.1)
	assert.Equal(t, 1, h.sp.EnemiesRemaining())
}

func TestSpawner_FailedSpawnIsSkipped(t *testing.T) {
	defs := []Definition{MustDefinition(Entry{"Ghost", 2}, Entry{"Grunt", 1})}
	h := newHarness(DefaultConfig(), defs)
	h.factory.fail = map[string]bool{"Ghost": true}

	h.sp.Tick(0)
	for range 3 {
		h.sp.Tick(1)
	}
	assert.Equal(t, 1, h.sp.EnemiesRemaining())
	assert.Equal(t, 0, h.sp.Pending())
}

func TestSpawner_StopSpawning(t *testing.T) {
	h := newHarness(DefaultConfig(), DefaultDefinitions())
	h.sp.Tick(0)
	h.sp.Tick(1)

	h.sp.StopSpawning()
	assert.Equal(t, 0, h.sp.Pending())

	h.world.killAll()
	h.sp.Tick(1)
	assert.Equal(t, PhaseInterWave, h.sp.Phase())
}

func TestSpawner_NoSpawnPointsUsesOwnPosition(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Position = model.NewVec3(7, 0, -3)
	h := newHarness(cfg, DefaultDefinitions())

	points := h.sp.Points()
	require.Len(t, points, 1)
	assert.Equal(t, cfg.Position, points[0].Position)
}

func TestSpawner_SetDefinitionsAppliesNextWave(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimeBetweenWaves = 1
	h := newHarness(cfg, []Definition{MustDefinition(Entry{"Grunt", 2})})
	h.sp.Tick(0)

	h.sp.SetDefinitions([]Definition{
		MustDefinition(Entry{"Swarm", 1}),
		MustDefinition(Entry{"Tank", 1}),
	})
	assert.Equal(t, 2, h.sp.Pending(), "running wave keeps its queue")

	h.sp.Tick(1)
	h.sp.Tick(1)
	h.world.killAll()
	h.sp.Tick(1) // complete wave 1
	h.sp.Tick(1) // start wave 2
	h.sp.Tick(1) // spawn

	require.Equal(t, 2, h.sp.CurrentWave())
	last := h.factory.requests[len(h.factory.requests)-1]
	assert.Equal(t, "Tank", last.Archetype)
}

func TestSpawner_SetDefinitionsResumesAfterFinish(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimeBetweenWaves = 1
	h := newHarness(cfg, []Definition{MustDefinition(Entry{"Grunt", 1})})

	h.sp.Tick(0)
	h.sp.Tick(1)
	h.world.killAll()
	h.sp.Tick(1)
	h.sp.Tick(1)
	require.Equal(t, PhaseFinished, h.sp.Phase())

	h.sp.SetDefinitions([]Definition{MustDefinition(Entry{"Grunt", 1}), MustDefinition(Entry{"Tank", 1})})
	assert.Equal(t, PhaseInterWave, h.sp.Phase())

	h.sp.Tick(1)
	assert.Equal(t, 2, h.sp.CurrentWave())
	assert.Equal(t, PhaseWaveActive, h.sp.Phase())
}

func TestSpawner_BossWaveSpawnsBossFirst(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Points = []Point{
		{Position: model.NewVec3(40, 0, 0)},
		{Position: model.NewVec3(-40, 0, 0)},
	}
	defs := []Definition{MustDefinition(Entry{"Grunt", 2}).WithBoss("FrostTitan")}
	h := newHarness(cfg, defs)

	h.sp.Tick(0)
	started := h.events.Drain()
	require.Len(t, started, 1)
	assert.True(t, started[0].Boss)
	assert.Equal(t, 3, started[0].TotalEnemies)

	h.sp.Tick(1)
	events := h.events.Drain()
	require.Equal(t, 1, countKind(events, event.BossSpawned))
	for _, e := range events {
		if e.Kind == event.BossSpawned {
			assert.Equal(t, "FrostTitan", e.Archetype)
			assert.Equal(t, 1, e.Wave)
			assert.Equal(t, cfg.Points[0].Position, e.Position, "bosses enter at the first point")
		}
	}

	for range 2 {
		h.sp.Tick(1)
	}
	require.Len(t, h.factory.requests, 3)
	assert.True(t, h.factory.requests[0].Boss)
	assert.Equal(t, "Grunt", h.factory.requests[1].Archetype)
	assert.Equal(t, 3, h.sp.EnemiesRemaining())
}

func TestSpawner_EveryTenthWaveIsBossWave(t *testing.T) {
	defs := make([]Definition, BossWaveInterval)
	for i := range defs {
		defs[i] = MustDefinition(Entry{"Grunt", 1})
	}
	cfg := DefaultConfig()
	cfg.TimeBetweenWaves = 1
	h := newHarness(cfg, defs)

	var started []event.Event
	for h.sp.CurrentWave() < BossWaveInterval || h.sp.Pending() > 0 {
		h.sp.Tick(1)
		for _, e := range h.events.Drain() {
			if e.Kind == event.WaveStarted {
				started = append(started, e)
			}
		}
		h.world.killAll()
	}

	require.Len(t, started, BossWaveInterval)
	for _, e := range started[:BossWaveInterval-1] {
		assert.False(t, e.Boss, "wave %d", e.Wave)
	}
	last := started[BossWaveInterval-1]
	assert.True(t, last.Boss)
	assert.Equal(t, 2, last.TotalEnemies)
}

func TestSpawner_UnknownBossFallsBackToDefault(t *testing.T) {
	defs := []Definition{MustDefinition().WithBoss("VoidWraith")}
	h := newHarness(DefaultConfig(), defs)
	h.factory.fail = map[string]bool{"VoidWraith": true}

	h.sp.Tick(0)
	h.sp.Tick(1)

	require.Len(t, h.factory.requests, 1)
	assert.Equal(t, model.ArchetypeFrostTitan, h.factory.requests[0].Archetype)
	assert.Equal(t, 1, h.sp.EnemiesRemaining())
}
