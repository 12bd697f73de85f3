package arena

import "github.com/bugduel/server/internal/geom"

// EntityID identifies a bug or prop within one game instance. IDs are
// assigned monotonically and never reused. Bugs occupy the reserved low
// range below propIDBase; props start at propIDBase. The range is the
// only tag: there is no separate type marker on the wire.
type EntityID uint64

const (
	bugIDBase  EntityID = 0x01
	propIDBase EntityID = 0x100
)

// IsBug reports whether the id falls in the bug range.
func (id EntityID) IsBug() bool {
	return id >= bugIDBase && id < propIDBase
}

// Impulse intent clamping. Intents above the dead zone are capped at
// ImpulseCap; anything below it is zeroed so near-zero pointer noise
// cannot accumulate into drift.
const (
	ImpulseCap      = 4.0
	ImpulseDeadZone = 0.05
)

// BugData is the game-facing state of one bug. Physics state (position,
// velocity) lives behind the body handle, not here.
type BugData struct {
	Sort      BugSort
	Team      Team
	Health    int
	MaxHealth int

	impulseIntent geom.Vec2
}

// NewBugData creates a bug at full health.
func NewBugData(sort BugSort, team Team, maxHealth int) *BugData {
	return &BugData{Sort: sort, Team: team, Health: maxHealth, MaxHealth: maxHealth}
}

// Alive reports whether the bug still has health. Dead bugs stay in the
// store so ids remain stable.
func (b *BugData) Alive() bool {
	return b.Health > 0
}

// ImpulseIntent returns the currently stored intent.
func (b *BugData) ImpulseIntent() geom.Vec2 {
	return b.impulseIntent
}

// SetImpulseIntent stores an intent, capping its magnitude at ImpulseCap
// and zeroing it below ImpulseDeadZone.
func (b *BugData) SetImpulseIntent(intent geom.Vec2) {
	mag := intent.Length()
	if mag <= ImpulseDeadZone {
		b.impulseIntent = geom.Vec2{}
		return
	}
	if mag > ImpulseCap {
		mag = ImpulseCap
	}
	b.impulseIntent = intent.Normalized().Scale(mag)
}

// ResetImpulseIntent zeroes the stored intent.
func (b *BugData) ResetImpulseIntent() {
	b.impulseIntent = geom.Vec2{}
}

// Damage subtracts health, clamped at zero.
func (b *BugData) Damage(points int) {
	b.Health -= points
	if b.Health < 0 {
		b.Health = 0
	}
}

// Heal adds health, clamped at MaxHealth.
func (b *BugData) Heal(points int) {
	b.Health += points
	if b.Health > b.MaxHealth {
		b.Health = b.MaxHealth
	}
}

// PropData is a marker for a static obstacle. It has no mutable state
// beyond its physics presence.
type PropData struct{}

// Store maps entity ids to game data, separate from physics handles so
// game state can be inspected and serialized without the physics world.
type Store struct {
	bugs     map[EntityID]*BugData
	bugOrder []EntityID
	props    map[EntityID]*PropData
	nextBug  EntityID
	nextProp EntityID
}

func NewStore() *Store {
	return &Store{
		bugs:     make(map[EntityID]*BugData),
		props:    make(map[EntityID]*PropData),
		nextBug:  bugIDBase,
		nextProp: propIDBase,
	}
}

// AddBug assigns the next bug id. Bugs are never removed.
func (s *Store) AddBug(d *BugData) EntityID {
	id := s.nextBug
	s.nextBug++
	s.bugs[id] = d
	s.bugOrder = append(s.bugOrder, id)
	return id
}

// AddProp assigns the next prop id.
func (s *Store) AddProp() EntityID {
	id := s.nextProp
	s.nextProp++
	s.props[id] = &PropData{}
	return id
}

// Bug returns the bug for an id, or nil for unknown or non-bug ids.
func (s *Store) Bug(id EntityID) *BugData {
	return s.bugs[id]
}

// BugCount returns the number of bugs ever created.
func (s *Store) BugCount() int {
	return len(s.bugOrder)
}

// ForEachBug visits bugs in creation order.
func (s *Store) ForEachBug(fn func(id EntityID, bug *BugData)) {
	for _, id := range s.bugOrder {
		fn(id, s.bugs[id])
	}
}

// PropIDs returns prop ids in creation order.
func (s *Store) PropIDs() []EntityID {
	ids := make([]EntityID, 0, len(s.props))
	for id := propIDBase; id < s.nextProp; id++ {
		if _, ok := s.props[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
