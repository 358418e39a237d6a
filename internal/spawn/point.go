package spawn

import (
	"fmt"
	"math"
	"strings"

	"github.com/timetolife1989-cloud/mechdefense/internal/model"
)

// Pattern arranges the enemies of one wave around a spawn point.
type Pattern uint8

const (
	PatternRandom Pattern = iota
	PatternCircle
	PatternLine
	PatternSurround
)

var patternNames = [...]string{
	PatternRandom:   "random",
	PatternCircle:   "circle",
	PatternLine:     "line",
	PatternSurround: "surround",
}

func (p Pattern) String() string {
	if int(p) < len(patternNames) {
		return patternNames[p]
	}
	return fmt.Sprintf("Pattern(%d)", uint8(p))
}

// ParsePattern parses a pattern name, case-insensitive. Unknown names fall
// back to random with an error so callers can log it.
func ParsePattern(s string) (Pattern, error) {
	for i, n := range patternNames {
		if strings.EqualFold(n, s) {
			return Pattern(i), nil
		}
	}
	return PatternRandom, fmt.Errorf("unknown spawn pattern %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Pattern) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Pattern) UnmarshalText(text []byte) error {
	v, err := ParsePattern(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

const (
	DefaultSpawnRadius  = 20.0
	DefaultRandomRadius = 5.0
	surroundFactor      = 1.5
)

// Point is a spawn location.
type Point struct {
	Position     model.Vec3 `yaml:"position"`
	Pattern      Pattern    `yaml:"pattern"`
	Radius       float64    `yaml:"radius"`        // circle/line/surround extent
	RandomRadius float64    `yaml:"random_radius"` // scatter for the random pattern
}

// Place returns where enemy index of total should appear.
func (p Point) Place(index, total int, rng Rand) model.Vec3 {
	radius := p.Radius
	if radius <= 0 {
		radius = DefaultSpawnRadius
	}

	switch p.Pattern {
	case PatternCircle:
		return ring(p.Position, index, total, radius)
	case PatternSurround:
		return ring(p.Position, index, total, radius*surroundFactor)
	case PatternLine:
		if total <= 0 {
			return p.Position
		}
		spacing := radius * 2 / float64(total)
		offset := -radius + spacing*float64(index) + spacing*0.5
		return p.Position.Add(model.NewVec3(offset, 0, 0))
	default:
		scatter := p.RandomRadius
		if scatter <= 0 {
			scatter = DefaultRandomRadius
		}
		if rng == nil {
			return p.Position
		}
		angle := rng.Float64() * 2 * math.Pi
		dist := rng.Float64() * scatter
		return p.Position.Add(model.NewVec3(math.Cos(angle)*dist, 0, math.Sin(angle)*dist))
	}
}

func ring(center model.Vec3, index, total int, radius float64) model.Vec3 {
	if total <= 0 {
		return center
	}
	angle := 2 * math.Pi * float64(index) / float64(total)
	return center.Add(model.NewVec3(math.Cos(angle)*radius, 0, math.Sin(angle)*radius))
}
