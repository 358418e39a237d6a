package spawn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/timetolife1989-cloud/mechdefense/internal/model"
)

func TestDefaultDefinitions_Escalate(t *testing.T) {
	defs := DefaultDefinitions()
	require.Len(t, defs, 5)

	wantTotals := []int{8, 15, 22, 29, 38}
	for i, d := range defs {
		assert.Equal(t, wantTotals[i], d.Total(), "wave %d", i+1)
		if i > 0 {
			assert.GreaterOrEqual(t, len(d.Entries()), len(defs[i-1].Entries()), "variety never shrinks")
		}
	}
}

func TestDefinition_IsImmutable(t *testing.T) {
	src := []Entry{{"Grunt", 2}}
	d, err := NewDefinition(src)
	require.NoError(t, err)

	src[0].Count = 99
	got := d.Entries()
	got[0].Archetype = "Tank"

	assert.Equal(t, []Entry{{"Grunt", 2}}, d.Entries())
	assert.Equal(t, 2, d.Total())
}

func TestNewDefinition_Rejects(t *testing.T) {
	_, err := NewDefinition([]Entry{{"", 1}})
	assert.Error(t, err)
	_, err = NewDefinition([]Entry{{"Grunt", -1}})
	assert.Error(t, err)
}

func TestDefinition_Requests(t *testing.T) {
	d := MustDefinition(Entry{"Grunt", 2}, Entry{"Swarm", 1})
	reqs := d.Requests(3)

	require.Len(t, reqs, 3)
	assert.Equal(t, Request{Archetype: "Grunt", Wave: 3, Index: 0, Total: 3}, reqs[0])
	assert.Equal(t, Request{Archetype: "Swarm", Wave: 3, Index: 2, Total: 3}, reqs[2])
}

func TestDefinition_BossRequests(t *testing.T) {
	d := MustDefinition(Entry{"Grunt", 2}).WithBoss("StormLord")
	assert.True(t, d.IsBossWave(3))
	assert.Equal(t, 2, d.Total())
	assert.Equal(t, 3, d.Size(3))

	reqs := d.Requests(3)
	require.Len(t, reqs, 3)
	assert.Equal(t, Request{Archetype: "StormLord", Wave: 3, Index: 0, Total: 3, Boss: true}, reqs[0])
	assert.Equal(t, Request{Archetype: "Grunt", Wave: 3, Index: 1, Total: 3}, reqs[1])

	// Unmarked definitions become boss waves on multiples of ten.
	plain := MustDefinition(Entry{"Grunt", 1})
	assert.False(t, plain.IsBossWave(9))
	assert.True(t, plain.IsBossWave(20))
	reqs = plain.Requests(20)
	require.Len(t, reqs, 2)
	assert.Equal(t, "InfernoColossus", reqs[0].Archetype)
	assert.Equal(t, model.ArchetypeFrostTitan, MustDefinition().WithBoss("").BossName(7))
}

func TestBossForWave(t *testing.T) {
	assert.Equal(t, model.ArchetypeFrostTitan, BossForWave(10))
	assert.Equal(t, "InfernoColossus", BossForWave(20))
	assert.Equal(t, "VoidWraith", BossForWave(30))
	assert.Equal(t, "StormLord", BossForWave(40))
	assert.Equal(t, "ChaosBringer", BossForWave(50))
	assert.Equal(t, model.ArchetypeFrostTitan, BossForWave(60))
}

func TestGeneratedDefinitions(t *testing.T) {
	defs := GeneratedDefinitions(50)
	require.Len(t, defs, 50)

	// Wave 1: 5+1 Grunts, no count scaling below wave 5.
	assert.Equal(t, []Entry{{model.ArchetypeGrunt, 6}}, defs[0].Entries())
	// Wave 5: Grunts 10 and Shooters 2, both ×1.1.
	assert.Equal(t, []Entry{{model.ArchetypeGrunt, 11}, {model.ArchetypeShooter, 2}}, defs[4].Entries())
	// Wave 15 adds Flyers.
	assert.Len(t, defs[14].Entries(), 4)
	// Endgame waves field all five archetypes.
	assert.Len(t, defs[40].Entries(), 5)

	for i, d := range defs {
		wave := i + 1
		if wave%BossWaveInterval == 0 {
			assert.True(t, d.IsBossWave(wave), "wave %d", wave)
			assert.Equal(t, BossForWave(wave), d.BossName(wave))
			assert.Equal(t, 5, d.Total())
			continue
		}
		assert.False(t, d.IsBossWave(wave), "wave %d", wave)
		assert.Positive(t, d.Total(), "wave %d", wave)
	}

	assert.Empty(t, GeneratedDefinitions(0))
}

func TestQueue_FIFO(t *testing.T) {
	var q Queue
	q.Reset([]Request{{Archetype: "a"}, {Archetype: "b"}})

	r, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "a", r.Archetype)
	assert.Equal(t, 1, q.Len())

	r, _ = q.Pop()
	assert.Equal(t, "b", r.Archetype)

	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestPattern_Parse(t *testing.T) {
	for _, p := range []Pattern{PatternRandom, PatternCircle, PatternLine, PatternSurround} {
		got, err := ParsePattern(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	got, err := ParsePattern("SURROUND")
	require.NoError(t, err)
	assert.Equal(t, PatternSurround, got)

	got, err = ParsePattern("spiral")
	assert.Error(t, err)
	assert.Equal(t, PatternRandom, got)
}

func TestPoint_YAML(t *testing.T) {
	var p Point
	require.NoError(t, yaml.Unmarshal([]byte("position: {x: 1, y: 0, z: 2}\npattern: circle\nradius: 8\n"), &p))
	assert.Equal(t, PatternCircle, p.Pattern)
	assert.Equal(t, model.NewVec3(1, 0, 2), p.Position)
	assert.Equal(t, 8.0, p.Radius)
}

func TestPoint_Place(t *testing.T) {
	center := model.NewVec3(10, 0, 10)

	circle := Point{Position: center, Pattern: PatternCircle, Radius: 4}
	assert.InDelta(t, 14, circle.Place(0, 4, nil).X, 1e-9)
	assert.InDelta(t, 14, circle.Place(1, 4, nil).Z, 1e-9)

	surround := Point{Position: center, Pattern: PatternSurround, Radius: 4}
	assert.InDelta(t, 6, surround.Place(0, 1, nil).DistanceTo(center), 1e-9)

	line := Point{Position: center, Pattern: PatternLine, Radius: 10}
	assert.InDelta(t, 10-10+2.5, line.Place(0, 4, nil).X, 1e-9)
	assert.InDelta(t, 10+7.5, line.Place(3, 4, nil).X, 1e-9)

	random := Point{Position: center, RandomRadius: 3}
	for _, v := range []float64{0, 0.25, 0.5, 0.99} {
		pos := random.Place(0, 1, seqRand{v: v})
		assert.LessOrEqual(t, pos.DistanceTo(center), 3.0+1e-9)
		assert.Equal(t, 0.0, pos.Y)
	}

	assert.Equal(t, center, Point{Position: center, Pattern: PatternCircle}.Place(0, 0, nil))
	assert.False(t, math.IsNaN(Point{Position: center}.Place(0, 1, nil).X))
}
