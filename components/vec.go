package components

import "math"

// Vec2 is a 2D float32 vector used for forces, positions and velocities.
type Vec2 struct {
	X, Y float32
}

// V2 builds a Vec2.
func V2(x, y float32) Vec2 {
	return Vec2{X: x, Y: y}
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec2) Scale(s float32) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

func (v Vec2) Dot(o Vec2) float32 {
	return v.X*o.X + v.Y*o.Y
}

// LenSq returns the squared length (avoid sqrt in hot path).
func (v Vec2) LenSq() float32 {
	return v.X*v.X + v.Y*v.Y
}

func (v Vec2) Len() float32 {
	return float32(math.Sqrt(float64(v.LenSq())))
}

// IsZero reports whether both components are exactly zero.
func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// IsFinite reports whether neither component is NaN or infinite.
func (v Vec2) IsFinite() bool {
	return Finite(v.X) && Finite(v.Y)
}

// Finite reports whether f is neither NaN nor ±Inf.
func Finite(f float32) bool {
	// NaN fails every comparison; Inf-Inf is NaN.
	return f-f == 0
}
