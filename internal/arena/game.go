package arena

import (
	"github.com/bugduel/server/internal/geom"
	"github.com/bugduel/server/internal/physics"
)

// Tuning holds the adjustable parameters of the simulation core.
type Tuning struct {
	TicksPerSecond       int
	TurnSeconds          float64
	ImpulseScale         float64 // intent → physics impulse multiplier
	ImpactSpeedThreshold float64 // below this, collisions bounce without damage
	CaptureRadius        float64
	CaptureHealthFloor   int // a bug scores capture only while health > this
	RegenPerBoundary     int
}

// DefaultTuning returns the standard arena parameters: a 7-second turn
// window at 60 ticks per second.
func DefaultTuning() Tuning {
	return Tuning{
		TicksPerSecond:       60,
		TurnSeconds:          7.0,
		ImpulseScale:         2.0,
		ImpactSpeedThreshold: 2.0,
		CaptureRadius:        4.0,
		CaptureHealthFloor:   1,
		RegenPerBoundary:     1,
	}
}

func (t Tuning) turnTickCount() uint64 {
	return uint64(t.TurnSeconds * float64(t.TicksPerSecond))
}

// Result reports a finished game.
type Result struct {
	Winner Team
}

// Game owns the physics world, the entity store, the tick counter, the
// applied turn history, the pending turn queue, and the capture zone.
// Single execution context only: the scheduler is driven either by the
// client frame loop or under the server's lobby lock, never both.
type Game struct {
	tuning Tuning
	sorts  SortTable

	world   *physics.World
	store   *Store
	handles map[EntityID]physics.BodyHandle

	ticks           uint64
	turns           []Turn // applied history, append-only
	pending         []Turn // arrived but not yet applied, FIFO
	captureProgress int

	impacts  []ImpactEvent
	contacts []physics.Contact

	impactRule ImpactRule
}

// NewGame creates an empty walled board. Call SpawnDefaultLayout (or AddBug
// / AddProp directly) to populate it.
func NewGame(tuning Tuning, sorts SortTable) *Game {
	g := &Game{
		tuning:  tuning,
		sorts:   sorts,
		world:   physics.NewWorld(),
		store:   NewStore(),
		handles: make(map[EntityID]physics.BodyHandle),
	}
	g.impactRule = DefaultImpactRule(sorts, tuning.ImpactSpeedThreshold)
	return g
}

// SetImpactRule overrides the built-in combat damage rule.
func (g *Game) SetImpactRule(rule ImpactRule) {
	if rule != nil {
		g.impactRule = rule
	}
}

// AddBug creates a bug entity with a dynamic physics body at pos.
func (g *Game) AddBug(pos geom.Vec2, sort BugSort, team Team) EntityID {
	params := g.sorts[sort]
	id := g.store.AddBug(NewBugData(sort, team, params.MaxHealth))
	g.handles[id] = g.world.InsertBug(pos, uint64(id), physics.BallParams{
		Mass:        params.Mass,
		Restitution: params.Restitution,
		Damping:     1.5,
	})
	return id
}

// AddProp creates a static obstacle at pos.
func (g *Game) AddProp(pos geom.Vec2) EntityID {
	id := g.store.AddProp()
	g.handles[id] = g.world.InsertProp(pos, uint64(id))
	return id
}

type spawn struct {
	pos  geom.Vec2
	sort BugSort
}

var defaultSpawns = []spawn{
	{pos: geom.V(6, -3), sort: SortBeetle},
	{pos: geom.V(6, 0), sort: SortLadybug},
	{pos: geom.V(6, 3), sort: SortAnt},
}

// SpawnDefaultLayout populates the symmetric two-team layout: three bugs
// per side mirrored across the capture zone, plus two props on the middle
// axis.
func (g *Game) SpawnDefaultLayout() {
	for _, s := range defaultSpawns {
		g.AddBug(geom.V(-s.pos.X, s.pos.Y), s.sort, TeamRed)
		g.AddBug(s.pos, s.sort, TeamBlue)
	}
	g.AddProp(geom.V(0, -5))
	g.AddProp(geom.V(0, 5))
}

// ── Turn execution ─────────────────────────────────────────────────

// ExecuteTurn applies one turn. A turn is accepted only when the history
// is empty or its index is strictly greater than the last applied index;
// anything else is silently dropped, which makes delivery idempotent and
// order-tolerant without content deduplication.
//
// On acceptance: intents are stored for every entity the turn names that
// exists (unknown ids skipped per-entry), every bug's stored intent is
// converted into a scaled physics impulse, all intents are cleared, and
// the turn is appended verbatim to the history.
func (g *Game) ExecuteTurn(turn Turn) bool {
	if len(g.turns) > 0 && turn.Index <= g.turns[len(g.turns)-1].Index {
		return false
	}

	for id, intent := range turn.ImpulseIntents {
		if bug := g.store.Bug(id); bug != nil {
			bug.SetImpulseIntent(intent)
		}
	}
	g.store.ForEachBug(func(id EntityID, bug *BugData) {
		intent := bug.ImpulseIntent()
		if !intent.IsZero() {
			g.world.ApplyImpulse(g.handles[id], intent.Scale(g.tuning.ImpulseScale))
		}
		bug.ResetImpulseIntent()
	})

	g.turns = append(g.turns, turn)
	return true
}

// QueueTurns appends externally-arrived turns to the pending queue in
// arrival order. Tick consumes one turn per wrap-around, re-stepping
// through full windows until the queue is empty.
func (g *Game) QueueTurns(turns []Turn) {
	g.pending = append(g.pending, turns...)
}

// AggregateTurn synthesizes the next turn from the currently-expressed
// non-zero impulse intents. Used by the server to auto-advance a stalled
// game; the caller stamps the timestamp.
func (g *Game) AggregateTurn() Turn {
	intents := make(ImpulseIntents)
	g.store.ForEachBug(func(id EntityID, bug *BugData) {
		if intent := bug.ImpulseIntent(); !intent.IsZero() {
			intents[id] = intent
		}
	})
	var index uint64
	if n := len(g.turns); n > 0 {
		index = g.turns[n-1].Index + 1
	}
	return Turn{ImpulseIntents: intents, Index: index}
}

// ── Scheduler ──────────────────────────────────────────────────────

// Tick advances the game by one scheduler step. Each turn window spans
// turnTickCount ticks: an input half, a single boundary resolution at the
// midpoint, and a tail half. At wrap-around the scheduler pops one pending
// turn; with nothing queued it stalls (the tick counter freezes) so the
// simulation never runs ahead of authoritative turn delivery. While the
// queue is non-empty the call keeps re-stepping, so a single Tick drains
// the whole backlog instead of waiting for real frames.
//
// Not reentrant: a call must finish (catch-up included) before the next.
func (g *Game) Tick() {
	if g.TurnTicks() == 0 {
		if len(g.pending) == 0 {
			return // stall until a turn arrives
		}
		turn := g.pending[0]
		g.pending = g.pending[1:]
		if g.ExecuteTurn(turn) {
			g.stepOnce()
			g.ticks++
		}
	} else {
		if g.TurnTicks() == g.tuning.turnTickCount()/2 {
			g.resolveTurnBoundary()
		}
		g.stepOnce()
		g.ticks++
	}

	if len(g.pending) > 0 {
		g.Tick()
	}
}

// stepOnce runs one physics substep and resolves the resulting contacts.
func (g *Game) stepOnce() {
	g.world.Step()
	g.resolveCombat()
}

// ── Read-only queries ──────────────────────────────────────────────

// Ticks returns the total number of advanced ticks.
func (g *Game) Ticks() uint64 {
	return g.ticks
}

// TurnTicks returns ticks since the last turn wrap-around.
func (g *Game) TurnTicks() uint64 {
	return g.ticks % g.tuning.turnTickCount()
}

// TurnPercentageTime returns fractional progress through the current turn
// window, for countdown display.
func (g *Game) TurnPercentageTime() float64 {
	return float64(g.TurnTicks()) / float64(g.tuning.turnTickCount())
}

// TurnsCount returns the number of applied turns. It is also the index the
// next locally-constructed turn should carry.
func (g *Game) TurnsCount() uint64 {
	return uint64(len(g.turns))
}

// AllTurnsCount returns applied plus queued turns, the cursor for
// requesting "turns since N" from the network layer.
func (g *Game) AllTurnsCount() uint64 {
	return uint64(len(g.turns) + len(g.pending))
}

// TurnsSince returns the applied turns from history position since onward.
func (g *Game) TurnsSince(since uint64) []Turn {
	if since >= uint64(len(g.turns)) {
		return nil
	}
	return g.turns[since:]
}

// LastTurn returns the most recently applied turn, or nil.
func (g *Game) LastTurn() *Turn {
	if len(g.turns) == 0 {
		return nil
	}
	return &g.turns[len(g.turns)-1]
}

// Bug returns the game data for a bug id, or nil.
func (g *Game) Bug(id EntityID) *BugData {
	return g.store.Bug(id)
}

// BugCount returns the total number of bugs in the store.
func (g *Game) BugCount() int {
	return g.store.BugCount()
}

// ForEachBug visits all bugs in creation order.
func (g *Game) ForEachBug(fn func(id EntityID, bug *BugData)) {
	g.store.ForEachBug(fn)
}

// Body returns the physics body backing an entity, or nil.
func (g *Game) Body(id EntityID) *physics.Body {
	h, ok := g.handles[id]
	if !ok {
		return nil
	}
	return g.world.Body(h)
}

// SetImpulseIntent stores an aiming intent for a bug during the input
// phase. Unknown ids are ignored.
func (g *Game) SetImpulseIntent(id EntityID, intent geom.Vec2) {
	if bug := g.store.Bug(id); bug != nil {
		bug.SetImpulseIntent(intent)
	}
}

// IntersectingBug returns the topmost bug under a point, if any.
func (g *Game) IntersectingBug(p geom.Vec2) (EntityID, bool) {
	tag, ok := g.world.QueryPoint(p)
	if !ok || !EntityID(tag).IsBug() {
		return 0, false
	}
	return EntityID(tag), true
}

// CaptureRadius returns the radius of the capture zone around the origin.
func (g *Game) CaptureRadius() float64 {
	return g.tuning.CaptureRadius
}

// CaptureProgress returns the raw signed capture tally.
func (g *Game) CaptureProgress() int {
	return g.captureProgress
}

// NormalizedCaptureProgress returns progress as a fraction of the total
// bug count. Positive values favor red, negative blue.
func (g *Game) NormalizedCaptureProgress() float64 {
	if n := g.store.BugCount(); n > 0 {
		return float64(g.captureProgress) / float64(n)
	}
	return 0
}

// Result returns the winner once one team's normalized capture progress
// reaches full dominance, or nil while the game is still open.
func (g *Game) Result() *Result {
	switch n := g.NormalizedCaptureProgress(); {
	case n >= 1:
		return &Result{Winner: TeamRed}
	case n <= -1:
		return &Result{Winner: TeamBlue}
	}
	return nil
}

// Impacts returns the damaging impacts from the last physics substep,
// for effect layers to consume.
func (g *Game) Impacts() []ImpactEvent {
	return g.impacts
}

// Contacts returns all raw collider contacts from the last substep.
func (g *Game) Contacts() []physics.Contact {
	return g.contacts
}
