package spawn

import "github.com/timetolife1989-cloud/mechdefense/internal/model"

// Queue is a FIFO of pending spawn requests.
type Queue struct {
	items []Request
	head  int
}

// Reset replaces the queue contents.
func (q *Queue) Reset(reqs []Request) {
	q.items = append(q.items[:0], reqs...)
	q.head = 0
}

// Len returns the number of pending requests.
func (q *Queue) Len() int { return len(q.items) - q.head }

// Pop removes and returns the oldest request.
func (q *Queue) Pop() (Request, bool) {
	if q.head >= len(q.items) {
		return Request{}, false
	}
	r := q.items[q.head]
	q.head++
	if q.head == len(q.items) {
		q.items, q.head = q.items[:0], 0
	}
	return r, true
}

// Clear drops all pending requests.
func (q *Queue) Clear() {
	q.items, q.head = q.items[:0], 0
}

// Validity reports whether a handle still refers to a live entity.
type Validity interface {
	IsValid(h model.Handle) bool
}

// Registry is the ordered set of live enemies of the current wave.
type Registry struct {
	handles []model.Handle
}

// Add tracks h. Duplicates are ignored.
func (r *Registry) Add(h model.Handle) {
	for _, x := range r.handles {
		if x == h {
			return
		}
	}
	r.handles = append(r.handles, h)
}

// Prune drops handles that are no longer valid and returns how many were dropped.
func (r *Registry) Prune(v Validity) int {
	kept := r.handles[:0]
	for _, h := range r.handles {
		if v.IsValid(h) {
			kept = append(kept, h)
		}
	}
	dropped := len(r.handles) - len(kept)
	r.handles = kept
	return dropped
}

// Len returns the number of tracked handles.
func (r *Registry) Len() int { return len(r.handles) }

// Handles returns a copy of tracked handles in insertion order.
func (r *Registry) Handles() []model.Handle {
	out := make([]model.Handle, len(r.handles))
	copy(out, r.handles)
	return out
}

// Clear forgets every handle.
func (r *Registry) Clear() { r.handles = r.handles[:0] }
