package world

import (
	"log/slog"

	"github.com/timetolife1989-cloud/mechdefense/internal/model"
)

// Body is the simulated physical presence of an entity.
type Body struct {
	handle   model.Handle
	kind     Kind
	position model.Vec3
	velocity model.Vec3
	speed    float64

	// physics is false once the body is disabled (dead, no collision/motion).
	physics bool
	// destroyed bodies stay in the table until the next Cleanup pass.
	destroyed bool
}

// Kind distinguishes bodies for queries.
type Kind uint8

const (
	KindEnemy Kind = iota
	KindPlayer
)

// Handle returns the body's handle.
func (b *Body) Handle() model.Handle { return b.handle }

// Kind returns the body kind.
func (b *Body) Kind() Kind { return b.kind }

// Position returns the current position.
func (b *Body) Position() model.Vec3 { return b.position }

// Velocity returns the current velocity.
func (b *Body) Velocity() model.Vec3 { return b.velocity }

// Speed returns the movement speed in units per second.
func (b *Body) Speed() float64 { return b.speed }

// PhysicsEnabled reports whether the body still moves and collides.
func (b *Body) PhysicsEnabled() bool { return b.physics }

// World is the abstract spatial layer the simulation core runs over.
// It owns bodies by handle, answers distance/visibility queries and
// integrates direct-steering movement.
//
// Not safe for concurrent use: it belongs to the simulation loop.
type World struct {
	ids    *HandleGenerator
	bodies map[model.Handle]*Body
	order  []model.Handle // insertion order, for deterministic iteration
	grid   *Grid

	target model.Handle
}

// New creates an empty world.
func New() *World {
	return &World{
		ids:    NewHandleGenerator(),
		bodies: make(map[model.Handle]*Body),
		grid:   NewGrid(DefaultCellSize),
	}
}

// AddPlayer creates a player body at pos.
func (w *World) AddPlayer(pos model.Vec3, speed float64) model.Handle {
	return w.add(w.ids.NextPlayer(), KindPlayer, pos, speed)
}

// AddEnemy creates an enemy body at pos.
func (w *World) AddEnemy(pos model.Vec3, speed float64) model.Handle {
	return w.add(w.ids.NextEnemy(), KindEnemy, pos, speed)
}

func (w *World) add(h model.Handle, kind Kind, pos model.Vec3, speed float64) model.Handle {
	w.bodies[h] = &Body{
		handle:   h,
		kind:     kind,
		position: pos,
		speed:    speed,
		physics:  true,
	}
	w.order = append(w.order, h)
	w.grid.Insert(h, pos)
	return h
}

// Body returns the body for h. ok is false for unknown or destroyed handles.
func (w *World) Body(h model.Handle) (*Body, bool) {
	b, ok := w.bodies[h]
	if !ok || b.destroyed {
		return nil, false
	}
	return b, true
}

// IsValid reports whether h refers to a live (not destroyed) body.
func (w *World) IsValid(h model.Handle) bool {
	_, ok := w.Body(h)
	return ok
}

// Position returns the position of h.
func (w *World) Position(h model.Handle) (model.Vec3, bool) {
	b, ok := w.Body(h)
	if !ok {
		return model.Vec3{}, false
	}
	return b.position, true
}

// SetPosition teleports h.
func (w *World) SetPosition(h model.Handle, pos model.Vec3) {
	if b, ok := w.Body(h); ok {
		b.position = pos
		w.grid.Move(h, pos)
	}
}

// MoveTowards steers h directly at point (no pathfinding) on the ground plane.
// The velocity is applied by Integrate.
func (w *World) MoveTowards(h model.Handle, point model.Vec3) {
	b, ok := w.Body(h)
	if !ok || !b.physics {
		return
	}
	dir := point.Sub(b.position).Flat()
	dist := dir.Length()
	if dist < 1e-6 {
		b.velocity = model.Vec3{Y: b.velocity.Y}
		return
	}
	v := dir.Scale(b.speed / dist)
	v.Y = b.velocity.Y
	b.velocity = v
}

// Stop zeroes horizontal velocity of h.
func (w *World) Stop(h model.Handle) {
	if b, ok := w.Body(h); ok {
		b.velocity = model.Vec3{Y: b.velocity.Y}
	}
}

// DisableBody stops h and turns off its motion and collision.
func (w *World) DisableBody(h model.Handle) {
	if b, ok := w.Body(h); ok {
		b.velocity = model.Vec3{}
		b.physics = false
	}
}

// Destroy marks h destroyed. It becomes invalid immediately and is removed
// from the table on the next Cleanup.
func (w *World) Destroy(h model.Handle) {
	b, ok := w.bodies[h]
	if !ok || b.destroyed {
		return
	}
	b.destroyed = true
	b.velocity = model.Vec3{}
	if w.target == h {
		w.target = model.InvalidHandle
	}
}

// Cleanup removes destroyed bodies and returns their handles in insertion order.
func (w *World) Cleanup() []model.Handle {
	var removed []model.Handle
	kept := w.order[:0]
	for _, h := range w.order {
		b := w.bodies[h]
		if b.destroyed {
			delete(w.bodies, h)
			w.grid.Remove(h)
			removed = append(removed, h)
			continue
		}
		kept = append(kept, h)
	}
	w.order = kept

	if len(removed) > 0 {
		slog.Debug("world cleanup", "removed", len(removed), "remaining", len(w.order))
	}
	return removed
}

// Integrate advances every enabled body by velocity*dt.
func (w *World) Integrate(dt float64) {
	if dt <= 0 {
		return
	}
	for _, h := range w.order {
		b := w.bodies[h]
		if b.destroyed || !b.physics {
			continue
		}
		b.position = b.position.Add(b.velocity.Scale(dt))
		w.grid.Move(h, b.position)
	}
}

// SetTarget sets the entity enemies pursue (usually the player).
func (w *World) SetTarget(h model.Handle) {
	w.target = h
}

// ClearTarget removes the pursuit target.
func (w *World) ClearTarget() {
	w.target = model.InvalidHandle
}

// Target returns the current target handle and position.
// ok is false when there is no target or it is no longer valid.
func (w *World) Target() (model.Handle, model.Vec3, bool) {
	if !w.target.Valid() {
		return model.InvalidHandle, model.Vec3{}, false
	}
	pos, ok := w.Position(w.target)
	if !ok {
		return model.InvalidHandle, model.Vec3{}, false
	}
	return w.target, pos, true
}

// TargetPosition returns the target position when there is a valid target.
func (w *World) TargetPosition() (model.Vec3, bool) {
	_, pos, ok := w.Target()
	return pos, ok
}

// Enemies returns handles of live enemy bodies in insertion order.
func (w *World) Enemies() []model.Handle {
	out := make([]model.Handle, 0, len(w.order))
	for _, h := range w.order {
		b := w.bodies[h]
		if b.kind == KindEnemy && !b.destroyed {
			out = append(out, h)
		}
	}
	return out
}

// Nearest returns the closest live, physics-enabled enemy to pos within
// maxRange. Equidistant enemies resolve to the oldest (lowest handle).
func (w *World) Nearest(pos model.Vec3, maxRange float64) (model.Handle, bool) {
	best := model.InvalidHandle
	bestDist := maxRange * maxRange
	w.grid.Query(pos, maxRange, func(h model.Handle) {
		b := w.bodies[h]
		if b.kind != KindEnemy || b.destroyed || !b.physics {
			return
		}
		d := b.position.DistanceSquared(pos)
		if d < bestDist || (d == bestDist && (!best.Valid() || h < best)) {
			best, bestDist = h, d
		}
	})
	return best, best.Valid()
}

// ObjectCount returns the number of live bodies.
func (w *World) ObjectCount() int {
	n := 0
	for _, h := range w.order {
		if !w.bodies[h].destroyed {
			n++
		}
	}
	return n
}
