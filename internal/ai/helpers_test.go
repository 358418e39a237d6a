package ai

import "github.com/timetolife1989-cloud/mechdefense/internal/model"

// fixedRand always returns v.
type fixedRand struct{ v float64 }

func (r fixedRand) Float64() float64 { return r.v }

// fakeContext is a scripted Context for exercising the machine directly.
type fakeContext struct {
	m *Machine

	hasTarget bool
	targetPos model.Vec3
	dist      float64

	attackRange float64
	detection   float64
	flee        float64
	cooldown    float64

	frac   float64
	fracOK bool
	pos    model.Vec3
	posOK  bool

	moves    []model.Vec3
	stops    int
	disabled int
	attacks  int
	despawns int

	// rejected collects names the machine refused.
	rejected []string

	// onMove runs inside MoveTowards, letting tests request extra transitions mid-Update.
	onMove func()
}

func newFakeContext(rng Rand) *fakeContext {
	f := &fakeContext{
		attackRange: 5,
		detection:   30,
		flee:        0.2,
		cooldown:    1.5,
		frac:        1,
		fracOK:      true,
		posOK:       true,
		dist:        1e9,
	}
	f.m = NewMachine(rng)
	f.m.Start(f)
	return f
}

func (f *fakeContext) HasTarget() bool                 { return f.hasTarget }
func (f *fakeContext) TargetPosition() model.Vec3      { return f.targetPos }
func (f *fakeContext) DistanceToTarget() float64       { return f.dist }
func (f *fakeContext) AttackRange() float64            { return f.attackRange }
func (f *fakeContext) DetectionRange() float64         { return f.detection }
func (f *fakeContext) FleeHealthThreshold() float64    { return f.flee }
func (f *fakeContext) AttackCooldown() float64         { return f.cooldown }
func (f *fakeContext) HealthFraction() (float64, bool) { return f.frac, f.fracOK }
func (f *fakeContext) Position() (model.Vec3, bool)    { return f.pos, f.posOK }
func (f *fakeContext) Stop()                           { f.stops++ }
func (f *fakeContext) DisableBody()                    { f.disabled++ }
func (f *fakeContext) Attack()                         { f.attacks++ }
func (f *fakeContext) Despawn()                        { f.despawns++ }

func (f *fakeContext) MoveTowards(p model.Vec3) {
	f.moves = append(f.moves, p)
	if f.onMove != nil {
		f.onMove()
	}
}

func (f *fakeContext) ChangeState(name string) error {
	err := f.m.Request(f, name)
	if err != nil {
		f.rejected = append(f.rejected, name)
	}
	return err
}

// force puts the machine into s outside of an Update.
func (f *fakeContext) force(s StateID) {
	if err := f.ChangeState(s.String()); err != nil {
		panic(err)
	}
}

// fakeBody implements Body for controller tests.
type fakeBody struct {
	self      model.Handle
	positions map[model.Handle]model.Vec3
	target    model.Vec3
	targetOK  bool

	moves     []model.Vec3
	stops     int
	disabled  bool
	destroyed []model.Handle
}

func newFakeBody() *fakeBody {
	return &fakeBody{
		self:      model.Handle(0x20000001),
		positions: map[model.Handle]model.Vec3{0x20000001: {}},
	}
}

func (b *fakeBody) Position(h model.Handle) (model.Vec3, bool) {
	p, ok := b.positions[h]
	return p, ok
}

func (b *fakeBody) TargetPosition() (model.Vec3, bool) { return b.target, b.targetOK }

func (b *fakeBody) MoveTowards(_ model.Handle, p model.Vec3) { b.moves = append(b.moves, p) }
func (b *fakeBody) Stop(model.Handle)                        { b.stops++ }
func (b *fakeBody) DisableBody(model.Handle)                 { b.disabled = true }

func (b *fakeBody) Destroy(h model.Handle) {
	b.destroyed = append(b.destroyed, h)
	delete(b.positions, h)
}

// fakeVitals implements Vitals.
type fakeVitals struct {
	frac float64
	dead bool
}

func (v *fakeVitals) HealthFraction() float64 { return v.frac }
func (v *fakeVitals) IsDead() bool            { return v.dead }
