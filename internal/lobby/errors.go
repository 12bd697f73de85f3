package lobby

// Error codes reported to clients. These are part of the wire contract:
// clients branch on Code, Reason is display text.
const (
	CodeAlreadyActive   = "already_active"
	CodeAlreadyJoined   = "already_joined"
	CodeNoAvailableSlot = "no_available_slot"
	CodeNotStarted      = "not_started"
	CodeNotInLobby      = "not_in_lobby"
	CodeLobbyNotFound   = "lobby_not_found"
)

// Error is a recoverable lobby operation failure.
type Error struct {
	Code   string
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

func errAlreadyActive() *Error {
	return &Error{Code: CodeAlreadyActive, Reason: "lobby is already active"}
}

func errAlreadyJoined() *Error {
	return &Error{Code: CodeAlreadyJoined, Reason: "session already joined this lobby"}
}

func errNoAvailableSlot() *Error {
	return &Error{Code: CodeNoAvailableSlot, Reason: "no available slot in this lobby"}
}

func errNotStarted() *Error {
	return &Error{Code: CodeNotStarted, Reason: "lobby has not started yet"}
}

func errNotInLobby() *Error {
	return &Error{Code: CodeNotInLobby, Reason: "session is not in this lobby"}
}

func errLobbyNotFound() *Error {
	return &Error{Code: CodeLobbyNotFound, Reason: "no such lobby"}
}
