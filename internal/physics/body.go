package physics

import "github.com/bugduel/server/internal/geom"

// BodyHandle indexes a body within its World. Handles remain valid across
// Clone: a cloned World reuses the same handle space.
type BodyHandle int

// BallParams configures a dynamic ball body on insertion.
type BallParams struct {
	Mass        float64
	Restitution float64
	Damping     float64 // linear damping coefficient
	Radius      float64
}

// Body is a circle collider, optionally with dynamics. Tag carries the
// caller's opaque identifier; this layer never interprets it.
type Body struct {
	Tag         uint64
	Pos         geom.Vec2
	Vel         geom.Vec2
	Radius      float64
	Mass        float64
	Restitution float64

	invMass float64 // 0 for static bodies
	damping float64
	static  bool
}

func (b *Body) Static() bool {
	return b.static
}

// ApplyImpulse adds an instantaneous velocity change scaled by inverse mass.
// No-op on static bodies.
func (b *Body) ApplyImpulse(impulse geom.Vec2) {
	if b.static {
		return
	}
	b.Vel = b.Vel.Add(impulse.Scale(b.invMass))
}

func (b *Body) containsPoint(p geom.Vec2) bool {
	return b.Pos.Sub(p).LengthSquared() <= b.Radius*b.Radius
}
