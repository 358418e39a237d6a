package model

import "math"

// Vec3 is a point or direction in simulation space.
// Value type, passed by value. Y is the vertical axis.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// NewVec3 creates a Vec3 with the given coordinates.
func NewVec3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Scale returns v * k.
func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// Length returns the euclidean length of v.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.LengthSquared())
}

// LengthSquared returns the squared length (no sqrt).
func (v Vec3) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Normalized returns the unit vector of v, or the zero vector when v has no length.
func (v Vec3) Normalized() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Flat returns v with the vertical component dropped.
func (v Vec3) Flat() Vec3 {
	v.Y = 0
	return v
}

// DistanceTo returns the distance between v and o.
func (v Vec3) DistanceTo(o Vec3) float64 {
	return v.Sub(o).Length()
}

// DistanceSquared returns the squared distance to o (no sqrt, for comparisons).
func (v Vec3) DistanceSquared(o Vec3) float64 {
	return v.Sub(o).LengthSquared()
}
