package lobby

import (
	"context"
	"fmt"
	"math/bits"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bugduel/server/internal/arena"
	"github.com/bugduel/server/internal/persist"
	"github.com/bugduel/server/internal/proto"
)

const sessionIDLen = 8

const sessionIDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Service owns the lobby table and is the single entry point for all
// client commands. One mutex guards the whole table; lobby operations are
// short and the player count per process is small.
type Service struct {
	mu      sync.Mutex
	lobbies map[uint16]*Lobby

	store persist.Store
	log   *zap.Logger

	tuning     arena.Tuning
	sorts      arena.SortTable
	impactRule arena.ImpactRule

	rng *rand.Rand
	now func() float64
}

// NewService creates a service backed by store. The impact rule may be
// nil to use the built-in combat rule.
func NewService(store persist.Store, log *zap.Logger, tuning arena.Tuning, sorts arena.SortTable, rule arena.ImpactRule) *Service {
	return &Service{
		lobbies:    make(map[uint16]*Lobby),
		store:      store,
		log:        log,
		tuning:     tuning,
		sorts:      sorts,
		impactRule: rule,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		now: func() float64 {
			return float64(time.Now().UnixNano()) / float64(time.Second)
		},
	}
}

// Restore loads every persisted lobby back into the table, replaying
// each snapshot's turn history. Called once at startup.
func (s *Service) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	snaps, err := s.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load lobbies: %w", err)
	}
	for id, snap := range snaps {
		l, err := FromSnapshot(snap, s.tuning, s.sorts, s.impactRule)
		if err != nil {
			s.log.Warn("skipping corrupt lobby snapshot", zap.Uint16("lobby", id), zap.Error(err))
			continue
		}
		s.lobbies[id] = l
	}
	s.log.Info("lobbies restored", zap.Int("count", len(s.lobbies)))
	return nil
}

// ObtainSession grants a fresh session id. Sessions carry no server
// state of their own; lobbies record membership.
func (s *Service) ObtainSession(ctx context.Context) proto.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, sessionIDLen)
	for i := range buf {
		buf[i] = sessionIDAlphabet[s.rng.Intn(len(sessionIDAlphabet))]
	}
	return proto.Session{SessionID: string(buf)}
}

// CreateLobby creates a lobby and joins the caller to its first slot.
// Creation never fails for a live session: a player may abandon a match
// and open a new lobby at any time, the old one ages out via GC.
func (s *Service) CreateLobby(ctx context.Context, sessionID string) (uint16, *proto.LobbySnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()

	id := s.newLobbyID()
	l := New(proto.LobbySettings{LobbyID: id, Seed: s.rng.Uint64()}, s.tuning, s.sorts, s.impactRule, now)
	if err := l.JoinPlayer(sessionID, now); err != nil {
		return 0, nil, err
	}
	s.lobbies[id] = l

	s.persistLobby(ctx, id, l)
	s.log.Info("lobby created", zap.Uint16("lobby", id), zap.String("session", sessionID))
	return id, l.Snapshot(), nil
}

// ListLobbies returns snapshots of all live lobbies, dropping any whose
// players have all gone silent.
func (s *Service) ListLobbies(ctx context.Context) map[uint16]*proto.LobbySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()

	s.collectGarbage(now)

	out := make(map[uint16]*proto.LobbySnapshot, len(s.lobbies))
	for id, l := range s.lobbies {
		out[id] = l.Snapshot()
	}
	return out
}

// Ready joins the caller to a lobby, or records a rematch request when
// already a member.
func (s *Service) Ready(ctx context.Context, lobbyID uint16, sessionID string) (*proto.LobbySnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()

	l, ok := s.lobbies[lobbyID]
	if !ok {
		return nil, errLobbyNotFound()
	}

	var err error
	if l.HasSession(sessionID) {
		err = l.RequestRematch(sessionID, now)
	} else {
		err = l.JoinPlayer(sessionID, now)
	}
	if err != nil {
		return nil, err
	}

	s.persistLobby(ctx, lobbyID, l)
	s.log.Info("player ready", zap.Uint16("lobby", lobbyID), zap.String("session", sessionID))
	return l.Snapshot(), nil
}

// Act dispatches a session-scoped message into a lobby's game and
// persists the lobby afterwards.
func (s *Service) Act(ctx context.Context, lobbyID uint16, sessionID string, msg proto.Message) (proto.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lobbies[lobbyID]
	if !ok {
		return proto.Message{}, errLobbyNotFound()
	}
	reply, err := l.ActPlayer(sessionID, msg, s.now())
	if err != nil {
		return proto.Message{}, err
	}

	s.persistLobby(ctx, lobbyID, l)
	return reply, nil
}

// TurnsSince answers a sync poll. While the lobby is still waiting for
// players it replies with the lobby state instead of turns, which is how
// a polling creator learns the opponent has joined. Once active, it
// returns the applied turns from history position since onward; when the
// game has sat past a full turn window with no new turn, the server
// advances it with an aggregate turn first, so stalled clients cannot
// freeze the match.
func (s *Service) TurnsSince(ctx context.Context, lobbyID uint16, sessionID string, since uint64) (proto.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()

	l, ok := s.lobbies[lobbyID]
	if !ok {
		return proto.Message{}, errLobbyNotFound()
	}
	l.Heartbeat(sessionID, now)

	if !l.Active() {
		return proto.LobbyState(l.Snapshot()), nil
	}

	if now-l.LastBeat() > s.tuning.TurnSeconds {
		l.AutoAdvance(now)
		s.persistLobby(ctx, lobbyID, l)
		s.log.Debug("auto-advanced stalled lobby", zap.Uint16("lobby", lobbyID))
	}

	return proto.TurnSync(l.Game().TurnsSince(since)), nil
}

// FullState returns a lobby's complete snapshot.
func (s *Service) FullState(ctx context.Context, lobbyID uint16, sessionID string) (*proto.LobbySnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lobbies[lobbyID]
	if !ok {
		return nil, errLobbyNotFound()
	}
	l.Heartbeat(sessionID, s.now())
	return l.Snapshot(), nil
}

// collectGarbage removes lobbies with no connected players, from the
// table and the store. Caller holds the lock.
func (s *Service) collectGarbage(now float64) {
	for id, l := range s.lobbies {
		if l.AnyConnected(now) {
			continue
		}
		delete(s.lobbies, id)
		if s.store != nil {
			if err := s.store.Delete(context.Background(), id); err != nil {
				s.log.Error("delete lobby snapshot", zap.Uint16("lobby", id), zap.Error(err))
			}
		}
		s.log.Info("lobby collected", zap.Uint16("lobby", id))
	}
}

// newLobbyID picks an unused random id with at least 4 set bits, so ids
// never look like small sequential counters. Caller holds the lock.
func (s *Service) newLobbyID() uint16 {
	for {
		id := uint16(s.rng.Intn(1 << 16))
		if bits.OnesCount16(id) < 4 {
			continue
		}
		if _, taken := s.lobbies[id]; !taken {
			return id
		}
	}
}

func (s *Service) persistLobby(ctx context.Context, id uint16, l *Lobby) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, id, l.Snapshot()); err != nil {
		s.log.Error("persist lobby", zap.Uint16("lobby", id), zap.Error(err))
	}
}
