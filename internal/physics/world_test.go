package physics

import (
	"math"
	"testing"

	"github.com/bugduel/server/internal/geom"
)

func testParams() BallParams {
	return BallParams{Mass: 1.0, Restitution: 0.7, Damping: 1.5}
}

func TestImpulseMovesBody(t *testing.T) {
	w := NewWorld()
	h := w.InsertBug(geom.V(0, 0), 1, testParams())

	w.ApplyImpulse(h, geom.V(2, 0))
	for i := 0; i < 10; i++ {
		w.Step()
	}

	b := w.Body(h)
	if b.Pos.X <= 0 {
		t.Fatalf("expected body to move in +x, got pos %+v", b.Pos)
	}
	if b.Vel.X >= 2 {
		t.Fatalf("expected damping to reduce velocity below 2, got %+v", b.Vel)
	}
}

func TestDampingSettlesBody(t *testing.T) {
	w := NewWorld()
	h := w.InsertBug(geom.V(0, 0), 1, testParams())

	w.ApplyImpulse(h, geom.V(4, 0))
	for i := 0; i < 600; i++ {
		w.Step()
	}

	if speed := w.Body(h).Vel.Length(); speed > 0.01 {
		t.Fatalf("expected body to settle, speed still %f", speed)
	}
}

func TestWallsContainBody(t *testing.T) {
	w := NewWorld()
	h := w.InsertBug(geom.V(0, 0), 1, testParams())

	// Repeated hard shoves toward the right wall.
	for i := 0; i < 20; i++ {
		w.ApplyImpulse(h, geom.V(8, 0))
		for j := 0; j < 60; j++ {
			w.Step()
		}
	}

	b := w.Body(h)
	if math.Abs(b.Pos.X) > BoardWidth/2 || math.Abs(b.Pos.Y) > BoardHeight/2 {
		t.Fatalf("body escaped the board: %+v", b.Pos)
	}
}

func TestQueryPoint(t *testing.T) {
	w := NewWorld()

	if _, ok := w.QueryPoint(geom.V(0, 0)); ok {
		t.Fatal("empty world should report no hit")
	}

	w.InsertBug(geom.V(0, 0), 7, testParams())
	w.InsertProp(geom.V(3, 3), 300)

	tag, ok := w.QueryPoint(geom.V(0.2, 0.1))
	if !ok || tag != 7 {
		t.Fatalf("expected hit on tag 7, got tag=%d ok=%v", tag, ok)
	}
	tag, ok = w.QueryPoint(geom.V(3.1, 3.1))
	if !ok || tag != 300 {
		t.Fatalf("expected hit on prop tag 300, got tag=%d ok=%v", tag, ok)
	}
	if _, ok := w.QueryPoint(geom.V(9, 9)); ok {
		t.Fatal("expected miss far from all bodies")
	}
}

func TestQueryPointReturnsTopmost(t *testing.T) {
	w := NewWorld()
	w.InsertBug(geom.V(0, 0), 1, testParams())
	w.InsertBug(geom.V(0.1, 0), 2, testParams())

	tag, ok := w.QueryPoint(geom.V(0.05, 0))
	if !ok || tag != 2 {
		t.Fatalf("expected most recently inserted body, got tag=%d ok=%v", tag, ok)
	}
}

func TestContactsRecordApproachVelocities(t *testing.T) {
	w := NewWorld()
	ha := w.InsertBug(geom.V(-0.4, 0), 1, testParams())
	w.InsertBug(geom.V(0.4, 0), 2, testParams())

	w.Body(ha).Vel = geom.V(3, 0)
	w.Step()

	contacts := w.Contacts()
	if len(contacts) != 1 {
		t.Fatalf("expected 1 contact, got %d", len(contacts))
	}
	c := contacts[0]
	if c.TagA != 1 || c.TagB != 2 {
		t.Fatalf("unexpected contact tags: %d, %d", c.TagA, c.TagB)
	}
	if c.VelA.X < 2.5 {
		t.Fatalf("expected pre-resolution approach velocity ~3, got %+v", c.VelA)
	}
	if !c.VelB.IsZero() {
		t.Fatalf("expected stationary second body at detection, got %+v", c.VelB)
	}
}

func TestCollisionSeparatesBodies(t *testing.T) {
	w := NewWorld()
	ha := w.InsertBug(geom.V(-0.3, 0), 1, testParams())
	hb := w.InsertBug(geom.V(0.3, 0), 2, testParams())

	for i := 0; i < 30; i++ {
		w.Step()
	}

	dist := w.Body(ha).Pos.Distance(w.Body(hb).Pos)
	if dist < 0.9 {
		t.Fatalf("expected overlap to resolve toward radius sum 1.0, distance %f", dist)
	}
}

func TestStaticPropDoesNotMove(t *testing.T) {
	w := NewWorld()
	ha := w.InsertBug(geom.V(-1.2, 0), 1, testParams())
	hp := w.InsertProp(geom.V(0, 0), 300)

	w.Body(ha).Vel = geom.V(5, 0)
	for i := 0; i < 120; i++ {
		w.Step()
	}

	if !w.Body(hp).Pos.Sub(geom.V(0, 0)).IsZero() {
		t.Fatalf("static prop moved: %+v", w.Body(hp).Pos)
	}
	// The bug bounced off and sits left of the prop.
	if w.Body(ha).Pos.X >= 0 {
		t.Fatalf("expected bug to stay on the near side of the prop, got %+v", w.Body(ha).Pos)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	w := NewWorld()
	h := w.InsertBug(geom.V(0, 0), 1, testParams())

	c := w.Clone()
	c.ApplyImpulse(h, geom.V(4, 0))
	for i := 0; i < 30; i++ {
		c.Step()
	}

	if !w.Body(h).Pos.IsZero() {
		t.Fatalf("stepping a clone mutated the original: %+v", w.Body(h).Pos)
	}
	if c.Body(h).Pos.IsZero() {
		t.Fatal("clone did not advance")
	}
}
