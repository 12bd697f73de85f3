// Package lobby manages match sessions: player membership, heartbeats,
// turn relay into the game, and snapshot (de)serialization. The server is
// a turn relay, not a simulator: turns are applied to the game's history
// and impulse state but the tick scheduler is never driven here; clients
// rebuild world state by replaying the turn history. All times are
// float64 unix seconds supplied by the caller so tests can run on a fake
// clock.
package lobby

import (
	"fmt"

	"github.com/bugduel/server/internal/arena"
	"github.com/bugduel/server/internal/proto"
)

// heartbeatWindow is how long a player counts as connected after their
// last request.
const heartbeatWindow = 15.0

// Player is one lobby member.
type Player struct {
	Team          arena.Team
	Rematch       bool
	LastHeartbeat float64
}

// Lobby pairs a game with its two players. A lobby starts in a waiting
// state and becomes active when the last slot is filled; the game accepts
// moves only while active.
type Lobby struct {
	game     *arena.Game
	players  map[string]*Player
	slots    []arena.Team // unclaimed teams, FIFO
	settings proto.LobbySettings

	firstHeartbeat float64

	tuning     arena.Tuning
	sorts      arena.SortTable
	impactRule arena.ImpactRule
}

// New creates a waiting lobby with a freshly spawned game.
func New(settings proto.LobbySettings, tuning arena.Tuning, sorts arena.SortTable, rule arena.ImpactRule, now float64) *Lobby {
	l := &Lobby{
		players:        make(map[string]*Player),
		slots:          []arena.Team{arena.TeamRed, arena.TeamBlue},
		settings:       settings,
		firstHeartbeat: now,
		tuning:         tuning,
		sorts:          sorts,
		impactRule:     rule,
	}
	l.game = l.newGame()
	return l
}

func (l *Lobby) newGame() *arena.Game {
	g := arena.NewGame(l.tuning, l.sorts)
	if l.impactRule != nil {
		g.SetImpactRule(l.impactRule)
	}
	g.SpawnDefaultLayout()
	return g
}

// Active reports whether every slot is claimed and the game accepts moves.
func (l *Lobby) Active() bool {
	return len(l.slots) == 0
}

// HasSession reports membership.
func (l *Lobby) HasSession(sessionID string) bool {
	_, ok := l.players[sessionID]
	return ok
}

// Game exposes the underlying game for read queries.
func (l *Lobby) Game() *arena.Game {
	return l.game
}

// Settings returns the creation parameters.
func (l *Lobby) Settings() proto.LobbySettings {
	return l.settings
}

// JoinPlayer claims the next free slot for a session. Joining a lobby
// whose match has already started fails with AlreadyActive.
func (l *Lobby) JoinPlayer(sessionID string, now float64) error {
	if l.HasSession(sessionID) {
		return errAlreadyJoined()
	}
	if l.Active() {
		return errAlreadyActive()
	}
	if len(l.slots) == 0 {
		return errNoAvailableSlot()
	}
	team := l.slots[0]
	l.slots = l.slots[1:]
	l.players[sessionID] = &Player{Team: team, LastHeartbeat: now}
	return nil
}

// ActPlayer handles a session-scoped in-game message. A Move dispatches
// its turn into the game, which silently drops stale or duplicate
// indices. The heartbeat is refreshed only once both gates pass.
func (l *Lobby) ActPlayer(sessionID string, msg proto.Message, now float64) (proto.Message, error) {
	if !l.Active() {
		return proto.Message{}, errNotStarted()
	}
	p, ok := l.players[sessionID]
	if !ok {
		return proto.Message{}, errNotInLobby()
	}
	p.LastHeartbeat = now

	if msg.Type == proto.TypeMove && msg.Turn != nil {
		// Server clock is authoritative for turn timestamps; the stall
		// detector must not trust client clocks.
		turn := *msg.Turn
		turn.Timestamp = now
		l.game.ExecuteTurn(turn)
	}
	return proto.OK(), nil
}

// RequestRematch flags the session for a rematch; when every player has
// asked, the game is rebuilt with the same settings and flags reset.
func (l *Lobby) RequestRematch(sessionID string, now float64) error {
	p, ok := l.players[sessionID]
	if !ok {
		return errNotInLobby()
	}
	p.LastHeartbeat = now
	p.Rematch = true

	for _, other := range l.players {
		if !other.Rematch {
			return nil
		}
	}
	l.Remake(now)
	return nil
}

// Remake resets the lobby to a fresh game, keeping players and settings.
func (l *Lobby) Remake(now float64) {
	l.game = l.newGame()
	l.firstHeartbeat = now
	for _, p := range l.players {
		p.Rematch = false
	}
}

// Heartbeat refreshes a member's liveness without any other effect.
func (l *Lobby) Heartbeat(sessionID string, now float64) {
	if p, ok := l.players[sessionID]; ok {
		p.LastHeartbeat = now
	}
}

// AnyConnected reports whether any player heartbeat falls within the
// liveness window. Lobbies where it is false are garbage.
func (l *Lobby) AnyConnected(now float64) bool {
	for _, p := range l.players {
		if now-p.LastHeartbeat < heartbeatWindow {
			return true
		}
	}
	return false
}

// LastBeat returns the timestamp of the last applied turn, or the lobby's
// first heartbeat before any turn has run. It measures game progress, not
// player liveness.
func (l *Lobby) LastBeat() float64 {
	if t := l.game.LastTurn(); t != nil {
		return t.Timestamp
	}
	return l.firstHeartbeat
}

// AutoAdvance synthesizes and applies an aggregate turn from the intents
// expressed so far, stamped at now. Called by the service when the game
// has stalled past the turn window.
func (l *Lobby) AutoAdvance(now float64) {
	turn := l.game.AggregateTurn()
	turn.Timestamp = now
	l.game.ExecuteTurn(turn)
}

// Snapshot serializes the lobby without its live game. The turn history
// stands in for world state; FromSnapshot replays it.
func (l *Lobby) Snapshot() *proto.LobbySnapshot {
	players := make(map[string]proto.PlayerSnapshot, len(l.players))
	for sid, p := range l.players {
		players[sid] = proto.PlayerSnapshot{
			SessionID:     sid,
			Team:          p.Team.String(),
			Rematch:       p.Rematch,
			LastHeartbeat: p.LastHeartbeat,
		}
	}
	turns := l.game.TurnsSince(0)
	if turns == nil {
		turns = []arena.Turn{}
	}
	return &proto.LobbySnapshot{
		Players:        players,
		Settings:       l.settings,
		FirstHeartbeat: l.firstHeartbeat,
		Turns:          turns,
	}
}

// FromSnapshot rebuilds a lobby, replaying the snapshot's turn history
// through a fresh game.
func FromSnapshot(snap *proto.LobbySnapshot, tuning arena.Tuning, sorts arena.SortTable, rule arena.ImpactRule) (*Lobby, error) {
	l := New(snap.Settings, tuning, sorts, rule, snap.FirstHeartbeat)
	for sid, ps := range snap.Players {
		team, err := parseTeam(ps.Team)
		if err != nil {
			return nil, fmt.Errorf("snapshot player %s: %w", sid, err)
		}
		l.players[sid] = &Player{
			Team:          team,
			Rematch:       ps.Rematch,
			LastHeartbeat: ps.LastHeartbeat,
		}
		l.slots = removeTeam(l.slots, team)
	}
	for _, turn := range snap.Turns {
		l.game.ExecuteTurn(turn)
	}
	return l, nil
}

func parseTeam(name string) (arena.Team, error) {
	switch name {
	case "red":
		return arena.TeamRed, nil
	case "blue":
		return arena.TeamBlue, nil
	}
	return arena.TeamRed, fmt.Errorf("unknown team %q", name)
}

func removeTeam(slots []arena.Team, team arena.Team) []arena.Team {
	out := slots[:0]
	for _, t := range slots {
		if t != team {
			out = append(out, t)
		}
	}
	return out
}
