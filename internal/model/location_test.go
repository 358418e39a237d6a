package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3_Arithmetic(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, 6, 8)

	assert.Equal(t, NewVec3(5, 8, 11), a.Add(b))
	assert.Equal(t, NewVec3(3, 4, 5), b.Sub(a))
	assert.Equal(t, NewVec3(2, 4, 6), a.Scale(2))
}

func TestVec3_Distance(t *testing.T) {
	tests := []struct {
		name string
		a, b Vec3
		want float64
	}{
		{name: "same point", a: NewVec3(5, 5, 5), b: NewVec3(5, 5, 5), want: 0},
		{name: "axis aligned", a: NewVec3(0, 0, 0), b: NewVec3(10, 0, 0), want: 10},
		{name: "3-4-5 triangle", a: NewVec3(0, 0, 0), b: NewVec3(3, 0, 4), want: 5},
		{name: "negative coordinates", a: NewVec3(-3, 0, -4), b: NewVec3(0, 0, 0), want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.a.DistanceTo(tt.b), 1e-9)
			assert.InDelta(t, tt.want*tt.want, tt.a.DistanceSquared(tt.b), 1e-9)
		})
	}
}

func TestVec3_Normalized(t *testing.T) {
	n := NewVec3(3, 0, 4).Normalized()
	assert.InDelta(t, 1.0, n.Length(), 1e-9)
	assert.InDelta(t, 0.6, n.X, 1e-9)
	assert.InDelta(t, 0.8, n.Z, 1e-9)

	// Zero vector must not produce NaN.
	z := Vec3{}.Normalized()
	assert.False(t, math.IsNaN(z.X))
	assert.Equal(t, Vec3{}, z)
}

func TestVec3_Flat(t *testing.T) {
	assert.Equal(t, NewVec3(1, 0, 3), NewVec3(1, 2, 3).Flat())
}
