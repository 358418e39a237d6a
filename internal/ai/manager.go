package ai

import (
	"fmt"
	"log/slog"

	"github.com/timetolife1989-cloud/mechdefense/internal/model"
)

// TickManager ticks all registered controllers in registration order.
// It is owned by the simulation loop and is not safe for concurrent use.
type TickManager struct {
	controllers map[model.Handle]Controller
	order       []model.Handle
}

// NewTickManager creates an empty tick manager.
func NewTickManager() *TickManager {
	return &TickManager{
		controllers: make(map[model.Handle]Controller),
	}
}

// Register adds a controller. Re-registering a handle replaces the controller
// but keeps its original position in the tick order.
func (m *TickManager) Register(h model.Handle, controller Controller) {
	if _, exists := m.controllers[h]; !exists {
		m.order = append(m.order, h)
	}
	m.controllers[h] = controller

	if IsDebugEnabled() {
		slog.Debug("AI controller registered",
			"handle", h,
			"state", controller.State())
	}
}

// Unregister removes the controller for h. Unknown handles are ignored.
func (m *TickManager) Unregister(h model.Handle) {
	if _, ok := m.controllers[h]; !ok {
		return
	}
	delete(m.controllers, h)

	for i, oh := range m.order {
		if oh == h {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}

	if IsDebugEnabled() {
		slog.Debug("AI controller unregistered", "handle", h)
	}
}

// TickAll ticks every controller once, in registration order.
// Controllers registered during the pass are ticked from the next pass on.
func (m *TickManager) TickAll(dt float64) {
	n := len(m.order)
	for i := 0; i < n && i < len(m.order); i++ {
		if c, ok := m.controllers[m.order[i]]; ok {
			c.Tick(dt)
		}
	}

	if n > 0 && IsDebugEnabled() {
		slog.Debug("AI tick completed", "controllers", n)
	}
}

// Count returns the number of registered controllers.
func (m *TickManager) Count() int {
	return len(m.order)
}

// GetController returns the controller for h.
func (m *TickManager) GetController(h model.Handle) (Controller, error) {
	c, ok := m.controllers[h]
	if !ok {
		return nil, fmt.Errorf("controller not found for handle %v", h)
	}
	return c, nil
}

// Handles returns registered handles in tick order.
func (m *TickManager) Handles() []model.Handle {
	out := make([]model.Handle, len(m.order))
	copy(out, m.order)
	return out
}
