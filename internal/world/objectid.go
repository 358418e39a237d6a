package world

import "github.com/timetolife1989-cloud/mechdefense/internal/model"

// HandleGenerator issues unique entity handles.
//
// Handle ranges (convention):
//
//	0x00000000:              invalid
//	0x10000000 - 0x1FFFFFFF: players and defenders
//	0x20000000 - 0xFFFFFFFF: enemies
//
// Handles are never reused, so a destroyed entity's handle stays invalid forever.
type HandleGenerator struct {
	nextPlayer uint32
	nextEnemy  uint32
}

// NewHandleGenerator creates a new generator.
func NewHandleGenerator() *HandleGenerator {
	return &HandleGenerator{
		nextPlayer: 0x10000000,
		nextEnemy:  0x20000000,
	}
}

// NextPlayer returns the next player-range handle.
func (g *HandleGenerator) NextPlayer() model.Handle {
	g.nextPlayer++
	return model.Handle(g.nextPlayer)
}

// NextEnemy returns the next enemy-range handle.
func (g *HandleGenerator) NextEnemy() model.Handle {
	g.nextEnemy++
	return model.Handle(g.nextEnemy)
}

// IsPlayerHandle reports whether h is in the player range.
func IsPlayerHandle(h model.Handle) bool {
	return h >= 0x10000000 && h < 0x20000000
}
