// Package proto defines the JSON wire types exchanged between clients
// and the lobby server. Everything here is plain data: no game logic,
// no live physics state. A lobby snapshot carries the full turn history
// instead of world state, so any receiver can rebuild the game by
// replaying turns.
package proto

import "github.com/bugduel/server/internal/arena"

// MessageType tags the Message union.
type MessageType string

const (
	TypeOK         MessageType = "ok"
	TypeMove       MessageType = "move"
	TypeTurnSync   MessageType = "turn_sync"
	TypeLobby      MessageType = "lobby"
	TypeLobbies    MessageType = "lobbies"
	TypeLobbyError MessageType = "lobby_error"
)

// Message is the tagged union for all client/server exchanges. Exactly
// one payload field matching Type is populated.
type Message struct {
	Type    MessageType               `json:"type"`
	Turn    *arena.Turn               `json:"turn,omitempty"`
	Turns   []arena.Turn              `json:"turns,omitempty"`
	Lobby   *LobbySnapshot            `json:"lobby,omitempty"`
	Lobbies map[uint16]*LobbySnapshot `json:"lobbies,omitempty"`
	Error   *LobbyError               `json:"error,omitempty"`
}

func OK() Message {
	return Message{Type: TypeOK}
}

// Move wraps a single client-submitted turn.
func Move(turn arena.Turn) Message {
	return Message{Type: TypeMove, Turn: &turn}
}

// TurnSync carries the applied turns a client asked for. An empty slice
// is a valid answer meaning "nothing new yet".
func TurnSync(turns []arena.Turn) Message {
	if turns == nil {
		turns = []arena.Turn{}
	}
	return Message{Type: TypeTurnSync, Turns: turns}
}

func LobbyState(snap *LobbySnapshot) Message {
	return Message{Type: TypeLobby, Lobby: snap}
}

func LobbyList(lobbies map[uint16]*LobbySnapshot) Message {
	return Message{Type: TypeLobbies, Lobbies: lobbies}
}

func Errorf(code, reason string) Message {
	return Message{Type: TypeLobbyError, Error: &LobbyError{Code: code, Reason: reason}}
}

// LobbyError is the wire form of a lobby operation failure.
type LobbyError struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// LobbySettings are the immutable parameters a lobby is created with.
type LobbySettings struct {
	LobbyID uint16 `json:"lobby_id"`
	Seed    uint64 `json:"seed"`
}

// PlayerSnapshot is the wire form of one lobby member.
type PlayerSnapshot struct {
	SessionID     string  `json:"session_id"`
	Team          string  `json:"team"`
	Rematch       bool    `json:"rematch"`
	LastHeartbeat float64 `json:"last_heartbeat"`
}

// LobbySnapshot is the complete serializable state of a lobby. It is
// both the wire form for lobby queries and the persistence format; the
// live game is reconstructed from Turns by replay.
type LobbySnapshot struct {
	Players        map[string]PlayerSnapshot `json:"players"`
	Settings       LobbySettings             `json:"settings"`
	FirstHeartbeat float64                   `json:"first_heartbeat"`
	Turns          []arena.Turn              `json:"turns"`
}

// SessionRequest identifies the caller for session-scoped operations.
type SessionRequest struct {
	SessionID string `json:"session_id"`
}

// SessionMessage is a session-scoped message envelope, used by act.
type SessionMessage struct {
	SessionID string  `json:"session_id"`
	Message   Message `json:"message"`
}

// SessionNewLobby asks the server to create a lobby for a session.
type SessionNewLobby struct {
	SessionID string        `json:"session_id"`
	Settings  LobbySettings `json:"settings"`
}

// Session is the answer to a session grant request.
type Session struct {
	SessionID string `json:"session_id"`
}
