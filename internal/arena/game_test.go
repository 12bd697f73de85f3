package arena

import (
	"testing"

	"github.com/bugduel/server/internal/geom"
)

func newTestGame() *Game {
	g := NewGame(DefaultTuning(), DefaultSorts())
	g.SpawnDefaultLayout()
	return g
}

func turnWithIndex(idx uint64) Turn {
	return Turn{ImpulseIntents: ImpulseIntents{}, Index: idx}
}

func TestStallWithoutTurns(t *testing.T) {
	g := newTestGame()

	for i := 0; i < 10; i++ {
		g.Tick()
	}
	if g.Ticks() != 0 {
		t.Fatalf("game advanced %d ticks with an empty queue", g.Ticks())
	}
}

func TestTickAdvancesAfterQueuedTurn(t *testing.T) {
	g := newTestGame()

	g.QueueTurns([]Turn{turnWithIndex(0)})
	g.Tick()
	if g.Ticks() != 1 {
		t.Fatalf("expected 1 tick after first turn, got %d", g.Ticks())
	}
	if g.TurnsCount() != 1 {
		t.Fatalf("expected 1 applied turn, got %d", g.TurnsCount())
	}

	// Mid-window ticks need no further turns.
	g.Tick()
	g.Tick()
	if g.Ticks() != 3 {
		t.Fatalf("expected 3 ticks, got %d", g.Ticks())
	}
}

func TestCatchUpDrainsBacklogInOneCall(t *testing.T) {
	g := newTestGame()
	window := DefaultTuning().turnTickCount()

	g.QueueTurns([]Turn{turnWithIndex(0), turnWithIndex(1), turnWithIndex(2)})
	g.Tick()

	// One call replays through two full windows to reach the last turn.
	if g.TurnsCount() != 3 {
		t.Fatalf("one call applied %d of 3 queued turns", g.TurnsCount())
	}
	if want := 2*window + 1; g.Ticks() != want {
		t.Fatalf("ticks after drain %d, want %d", g.Ticks(), want)
	}

	// With the queue empty the scheduler stalls at the next wrap.
	for g.TurnTicks() != 0 {
		g.Tick()
	}
	before := g.Ticks()
	g.Tick()
	if g.Ticks() != before {
		t.Fatal("advanced past the wrap with nothing queued")
	}
}

func TestExecuteTurnAcceptance(t *testing.T) {
	g := newTestGame()

	if !g.ExecuteTurn(turnWithIndex(5)) {
		t.Fatal("first turn should be accepted regardless of index")
	}
	if g.ExecuteTurn(turnWithIndex(5)) {
		t.Fatal("duplicate index accepted")
	}
	if g.ExecuteTurn(turnWithIndex(3)) {
		t.Fatal("stale index accepted")
	}
	if !g.ExecuteTurn(turnWithIndex(6)) {
		t.Fatal("monotonically greater index rejected")
	}
	if g.TurnsCount() != 2 {
		t.Fatalf("history has %d turns, want 2", g.TurnsCount())
	}
}

func TestExecuteTurnSkipsUnknownIDs(t *testing.T) {
	g := newTestGame()

	turn := Turn{ImpulseIntents: ImpulseIntents{
		1:     geom.V(1, 0),
		0xF00: geom.V(9, 9),
	}}
	if !g.ExecuteTurn(turn) {
		t.Fatal("turn with partially unknown ids rejected")
	}
	if g.Body(1).Vel.IsZero() {
		t.Fatal("known bug received no impulse")
	}
}

func TestExecuteTurnScalesAndClearsIntents(t *testing.T) {
	g := newTestGame()

	g.ExecuteTurn(Turn{ImpulseIntents: ImpulseIntents{1: geom.V(1, 0)}})
	vel := g.Body(1).Vel
	if vel.X <= 1 {
		t.Fatalf("impulse not scaled: vel %+v", vel)
	}
	if !g.Bug(1).ImpulseIntent().IsZero() {
		t.Fatal("intent not cleared after execution")
	}
}

func TestRejectedQueuedTurnDoesNotAdvance(t *testing.T) {
	g := newTestGame()

	g.ExecuteTurn(turnWithIndex(4))
	g.QueueTurns([]Turn{turnWithIndex(4)})
	g.Tick()

	if g.Ticks() != 0 {
		t.Fatalf("rejected turn advanced the clock: %d", g.Ticks())
	}
	if g.AllTurnsCount() != 1 {
		t.Fatalf("rejected turn not consumed: all=%d", g.AllTurnsCount())
	}
}

func TestAggregateTurnCollectsNonZeroIntents(t *testing.T) {
	g := newTestGame()

	g.SetImpulseIntent(1, geom.V(1, 0))
	g.SetImpulseIntent(2, geom.V(0, 0))
	g.SetImpulseIntent(3, geom.V(0.01, 0)) // below dead zone

	turn := g.AggregateTurn()
	if len(turn.ImpulseIntents) != 1 {
		t.Fatalf("expected only the one non-zero intent, got %+v", turn.ImpulseIntents)
	}
	if turn.Index != 0 {
		t.Fatalf("first aggregate index %d, want 0", turn.Index)
	}

	g.ExecuteTurn(turn)
	if next := g.AggregateTurn(); next.Index != 1 {
		t.Fatalf("aggregate index after one turn %d, want 1", next.Index)
	}
}

func TestTurnsSinceAndLastTurn(t *testing.T) {
	g := newTestGame()

	if g.LastTurn() != nil {
		t.Fatal("LastTurn on empty history")
	}
	g.ExecuteTurn(turnWithIndex(0))
	g.ExecuteTurn(turnWithIndex(1))
	g.ExecuteTurn(turnWithIndex(2))

	if got := g.TurnsSince(1); len(got) != 2 || got[0].Index != 1 {
		t.Fatalf("TurnsSince(1) = %+v", got)
	}
	if got := g.TurnsSince(9); got != nil {
		t.Fatalf("TurnsSince past end = %+v", got)
	}
	if g.LastTurn().Index != 2 {
		t.Fatalf("LastTurn index %d, want 2", g.LastTurn().Index)
	}
}

func TestTurnPercentageTime(t *testing.T) {
	g := newTestGame()
	g.QueueTurns([]Turn{turnWithIndex(0)})
	g.Tick()
	g.Tick()

	want := 2.0 / float64(DefaultTuning().turnTickCount())
	if got := g.TurnPercentageTime(); got != want {
		t.Fatalf("percentage %f, want %f", got, want)
	}
}

func TestDefaultLayoutIsMirrored(t *testing.T) {
	g := newTestGame()

	if g.BugCount() != 6 {
		t.Fatalf("expected 6 bugs, got %d", g.BugCount())
	}
	reds, blues := 0, 0
	g.ForEachBug(func(id EntityID, bug *BugData) {
		body := g.Body(id)
		switch bug.Team {
		case TeamRed:
			reds++
			if body.Pos.X >= 0 {
				t.Fatalf("red bug %d on blue side: %+v", id, body.Pos)
			}
		case TeamBlue:
			blues++
			if body.Pos.X <= 0 {
				t.Fatalf("blue bug %d on red side: %+v", id, body.Pos)
			}
		}
	})
	if reds != 3 || blues != 3 {
		t.Fatalf("team split %d/%d, want 3/3", reds, blues)
	}
}

func TestIntersectingBugIgnoresProps(t *testing.T) {
	g := newTestGame()

	if id, ok := g.IntersectingBug(geom.V(-6, 0)); !ok {
		t.Fatal("expected a bug at a spawn point")
	} else if !id.IsBug() {
		t.Fatalf("non-bug id %d returned", id)
	}

	if _, ok := g.IntersectingBug(geom.V(0, 5)); ok {
		t.Fatal("prop reported as bug")
	}
	if _, ok := g.IntersectingBug(geom.V(2, 2)); ok {
		t.Fatal("empty space reported as bug")
	}
}

func TestResultRequiresFullDominance(t *testing.T) {
	g := newTestGame()

	if g.Result() != nil {
		t.Fatal("fresh game already has a result")
	}
	g.captureProgress = g.BugCount() - 1
	if g.Result() != nil {
		t.Fatal("result before full dominance")
	}
	g.captureProgress = g.BugCount()
	res := g.Result()
	if res == nil || res.Winner != TeamRed {
		t.Fatalf("expected red win, got %+v", res)
	}
	g.captureProgress = -g.BugCount()
	res = g.Result()
	if res == nil || res.Winner != TeamBlue {
		t.Fatalf("expected blue win, got %+v", res)
	}
}
