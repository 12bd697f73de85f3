package physics

import (
	"math"

	"github.com/bugduel/server/internal/geom"
)

// Board dimensions and integration step. The board is a square arena
// enclosed by four static walls, one unit thick.
const (
	BoardWidth  = 23.0
	BoardHeight = 23.0
	Timestep    = 1.0 / 60.0

	propRestitution = 0.7
	ballRadius      = 0.5

	// Positional correction factors (Baumgarte-style).
	correctionPercent = 0.8
	correctionSlop    = 0.01
)

// Contact describes one touching collider pair observed during the last
// Step, with the velocities both bodies carried at detection time
// (before impulse resolution).
type Contact struct {
	TagA  uint64
	TagB  uint64
	Point geom.Vec2
	VelA  geom.Vec2
	VelB  geom.Vec2
}

type wall struct {
	min geom.Vec2
	max geom.Vec2
}

// World is a 2D rigid-body world: dynamic and static ball colliders inside
// a walled board, advanced by a fixed timestep. No gravity.
//
// Not safe for concurrent use; callers serialize access (single game loop).
type World struct {
	bodies   []*Body
	walls    []wall
	contacts []Contact
}

// NewWorld creates an empty walled board.
func NewWorld() *World {
	halfW, halfH := BoardWidth/2, BoardHeight/2
	return &World{
		walls: []wall{
			{min: geom.V(-halfW, -halfH-0.5), max: geom.V(halfW, -halfH+0.5)},
			{min: geom.V(-halfW, halfH-0.5), max: geom.V(halfW, halfH+0.5)},
			{min: geom.V(halfW-0.5, -halfH), max: geom.V(halfW+0.5, halfH)},
			{min: geom.V(-halfW-0.5, -halfH), max: geom.V(-halfW+0.5, halfH)},
		},
	}
}

// InsertBug creates a dynamic ball body tagged with the caller's id.
// Never fails: the board is bounded and small.
func (w *World) InsertBug(pos geom.Vec2, tag uint64, p BallParams) BodyHandle {
	radius := p.Radius
	if radius == 0 {
		radius = ballRadius
	}
	b := &Body{
		Tag:         tag,
		Pos:         pos,
		Radius:      radius,
		Mass:        p.Mass,
		Restitution: p.Restitution,
		damping:     p.Damping,
	}
	if p.Mass > 0 {
		b.invMass = 1 / p.Mass
	}
	w.bodies = append(w.bodies, b)
	return BodyHandle(len(w.bodies) - 1)
}

// InsertProp creates a static ball collider tagged with the caller's id.
func (w *World) InsertProp(pos geom.Vec2, tag uint64) BodyHandle {
	b := &Body{
		Tag:         tag,
		Pos:         pos,
		Radius:      ballRadius,
		Restitution: propRestitution,
		static:      true,
	}
	w.bodies = append(w.bodies, b)
	return BodyHandle(len(w.bodies) - 1)
}

// Body returns the body for a handle, or nil for an invalid handle.
func (w *World) Body(h BodyHandle) *Body {
	if h < 0 || int(h) >= len(w.bodies) {
		return nil
	}
	return w.bodies[h]
}

// BodyByTag returns the body carrying the given tag, or nil.
func (w *World) BodyByTag(tag uint64) *Body {
	for _, b := range w.bodies {
		if b.Tag == tag {
			return b
		}
	}
	return nil
}

// ApplyImpulse applies an impulse to the body behind a handle.
func (w *World) ApplyImpulse(h BodyHandle, impulse geom.Vec2) {
	if b := w.Body(h); b != nil {
		b.ApplyImpulse(impulse)
	}
}

// QueryPoint returns the tag of the topmost (most recently inserted) body
// whose collider contains p. Returns false on an empty or missed query.
func (w *World) QueryPoint(p geom.Vec2) (uint64, bool) {
	for i := len(w.bodies) - 1; i >= 0; i-- {
		if w.bodies[i].containsPoint(p) {
			return w.bodies[i].Tag, true
		}
	}
	return 0, false
}

// Contacts returns the collider pairs touching during the last Step.
// The returned slice is owned by the World; callers must not retain it
// across Steps.
func (w *World) Contacts() []Contact {
	return w.contacts
}

// Step advances the world by one fixed timestep: integrate velocities,
// detect contacts, then resolve them with impulses and positional
// correction. Contact records are captured before resolution so callers
// see the approach velocities of each collision.
func (w *World) Step() {
	for _, b := range w.bodies {
		if b.static {
			continue
		}
		b.Vel = b.Vel.Scale(1 / (1 + Timestep*b.damping))
		b.Pos = b.Pos.Add(b.Vel.Scale(Timestep))
	}

	w.contacts = w.contacts[:0]
	for i := 0; i < len(w.bodies); i++ {
		for j := i + 1; j < len(w.bodies); j++ {
			w.collideBodies(w.bodies[i], w.bodies[j])
		}
	}
	for _, b := range w.bodies {
		if !b.static {
			w.collideWalls(b)
		}
	}
}

// Clone duplicates all body state. Contact bookkeeping from the last Step
// is not carried over; it is rebuilt on the clone's next Step.
func (w *World) Clone() *World {
	c := &World{
		bodies: make([]*Body, len(w.bodies)),
		walls:  w.walls,
	}
	for i, b := range w.bodies {
		dup := *b
		c.bodies[i] = &dup
	}
	return c
}

func (w *World) collideBodies(a, b *Body) {
	if a.static && b.static {
		return
	}
	delta := b.Pos.Sub(a.Pos)
	distSq := delta.LengthSquared()
	total := a.Radius + b.Radius
	if distSq >= total*total {
		return
	}

	dist := math.Sqrt(distSq)
	normal := geom.V(1, 0)
	if dist > 0 {
		normal = delta.Scale(1 / dist)
	}
	penetration := total - dist
	point := a.Pos.Add(normal.Scale(a.Radius - penetration*0.5))

	w.contacts = append(w.contacts, Contact{
		TagA:  a.Tag,
		TagB:  b.Tag,
		Point: point,
		VelA:  a.Vel,
		VelB:  b.Vel,
	})

	resolve(a, b, normal, penetration)
}

func (w *World) collideWalls(b *Body) {
	for _, wl := range w.walls {
		closest := geom.V(
			math.Max(wl.min.X, math.Min(b.Pos.X, wl.max.X)),
			math.Max(wl.min.Y, math.Min(b.Pos.Y, wl.max.Y)),
		)
		delta := b.Pos.Sub(closest)
		distSq := delta.LengthSquared()
		if distSq >= b.Radius*b.Radius {
			continue
		}
		dist := math.Sqrt(distSq)
		normal := geom.V(0, 1)
		if dist > 0 {
			normal = delta.Scale(1 / dist)
		}
		penetration := b.Radius - dist

		velAlongNormal := b.Vel.Dot(normal)
		if velAlongNormal < 0 {
			j := -(1 + b.Restitution) * velAlongNormal * b.Mass
			b.ApplyImpulse(normal.Scale(j))
		}
		if penetration > correctionSlop {
			b.Pos = b.Pos.Add(normal.Scale((penetration - correctionSlop) * correctionPercent))
		}
	}
}

// resolve applies the collision impulse along the contact normal and
// corrects residual penetration.
func resolve(a, b *Body, normal geom.Vec2, penetration float64) {
	relVel := b.Vel.Sub(a.Vel)
	velAlongNormal := relVel.Dot(normal)

	invMassSum := a.invMass + b.invMass
	if invMassSum == 0 {
		return
	}

	if velAlongNormal < 0 {
		e := math.Min(a.Restitution, b.Restitution)
		j := -(1 + e) * velAlongNormal / invMassSum
		impulse := normal.Scale(j)
		a.ApplyImpulse(impulse.Scale(-1))
		b.ApplyImpulse(impulse)
	}

	if penetration > correctionSlop {
		correction := normal.Scale((penetration - correctionSlop) / invMassSum * correctionPercent)
		a.Pos = a.Pos.Sub(correction.Scale(a.invMass))
		b.Pos = b.Pos.Add(correction.Scale(b.invMass))
	}
}
