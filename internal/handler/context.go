// Package handler exposes the lobby service over HTTP. Handlers are
// thin JSON adapters: decode, call the service, encode the tagged reply
// message. Game rules never live here.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/bugduel/server/internal/lobby"
	"github.com/bugduel/server/internal/proto"
)

// Deps holds shared dependencies injected into all handlers.
type Deps struct {
	Service *lobby.Service
	Log     *zap.Logger
}

// RegisterAll wires every route into the mux.
func RegisterAll(mux *http.ServeMux, deps *Deps) {
	mux.HandleFunc("GET /session", deps.handleSession)
	mux.HandleFunc("POST /lobbies/create", deps.handleCreateLobby)
	mux.HandleFunc("GET /lobbies/", deps.handleListLobbies)
	mux.HandleFunc("POST /lobbies/{id}/ready", deps.handleReady)
	mux.HandleFunc("POST /lobbies/{id}/act", deps.handleAct)
	mux.HandleFunc("GET /lobbies/{id}/turns/{since}", deps.handleTurnsSince)
	mux.HandleFunc("GET /lobbies/{id}/state", deps.handleFullState)
}

func (d *Deps) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		d.Log.Error("encode response", zap.Error(err))
	}
}

// writeError maps lobby errors onto the wire taxonomy; anything else is
// an internal error.
func (d *Deps) writeError(w http.ResponseWriter, err error) {
	var lerr *lobby.Error
	if errors.As(err, &lerr) {
		status := http.StatusConflict
		if lerr.Code == lobby.CodeLobbyNotFound {
			status = http.StatusNotFound
		}
		d.writeJSON(w, status, proto.Errorf(lerr.Code, lerr.Reason))
		return
	}
	d.Log.Error("handler failure", zap.Error(err))
	d.writeJSON(w, http.StatusInternalServerError, proto.Errorf("internal", "internal error"))
}

func decode[T any](r *http.Request) (T, error) {
	var v T
	err := json.NewDecoder(r.Body).Decode(&v)
	return v, err
}

func lobbyID(r *http.Request) (uint16, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 16)
	return uint16(id), err
}
