package handler

import (
	"net/http"
	"strconv"

	"github.com/bugduel/server/internal/proto"
)

func (d *Deps) handleSession(w http.ResponseWriter, r *http.Request) {
	d.writeJSON(w, http.StatusOK, d.Service.ObtainSession(r.Context()))
}

func (d *Deps) handleCreateLobby(w http.ResponseWriter, r *http.Request) {
	req, err := decode[proto.SessionRequest](r)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	_, snap, err := d.Service.CreateLobby(r.Context(), req.SessionID)
	if err != nil {
		d.writeError(w, err)
		return
	}
	d.writeJSON(w, http.StatusOK, proto.LobbyState(snap))
}

func (d *Deps) handleListLobbies(w http.ResponseWriter, r *http.Request) {
	d.writeJSON(w, http.StatusOK, proto.LobbyList(d.Service.ListLobbies(r.Context())))
}

func (d *Deps) handleReady(w http.ResponseWriter, r *http.Request) {
	id, err := lobbyID(r)
	if err != nil {
		http.Error(w, "bad lobby id", http.StatusBadRequest)
		return
	}
	req, err := decode[proto.SessionRequest](r)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	snap, err := d.Service.Ready(r.Context(), id, req.SessionID)
	if err != nil {
		d.writeError(w, err)
		return
	}
	d.writeJSON(w, http.StatusOK, proto.LobbyState(snap))
}

func (d *Deps) handleAct(w http.ResponseWriter, r *http.Request) {
	id, err := lobbyID(r)
	if err != nil {
		http.Error(w, "bad lobby id", http.StatusBadRequest)
		return
	}
	req, err := decode[proto.SessionMessage](r)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	reply, err := d.Service.Act(r.Context(), id, req.SessionID, req.Message)
	if err != nil {
		d.writeError(w, err)
		return
	}
	d.writeJSON(w, http.StatusOK, reply)
}

func (d *Deps) handleTurnsSince(w http.ResponseWriter, r *http.Request) {
	id, err := lobbyID(r)
	if err != nil {
		http.Error(w, "bad lobby id", http.StatusBadRequest)
		return
	}
	since, err := strconv.ParseUint(r.PathValue("since"), 10, 64)
	if err != nil {
		http.Error(w, "bad turn cursor", http.StatusBadRequest)
		return
	}
	reply, err := d.Service.TurnsSince(r.Context(), id, r.URL.Query().Get("session"), since)
	if err != nil {
		d.writeError(w, err)
		return
	}
	d.writeJSON(w, http.StatusOK, reply)
}

func (d *Deps) handleFullState(w http.ResponseWriter, r *http.Request) {
	id, err := lobbyID(r)
	if err != nil {
		http.Error(w, "bad lobby id", http.StatusBadRequest)
		return
	}
	snap, err := d.Service.FullState(r.Context(), id, r.URL.Query().Get("session"))
	if err != nil {
		d.writeError(w, err)
		return
	}
	d.writeJSON(w, http.StatusOK, proto.LobbyState(snap))
}
