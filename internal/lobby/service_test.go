package lobby

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/bugduel/server/internal/arena"
	"github.com/bugduel/server/internal/geom"
	"github.com/bugduel/server/internal/persist"
	"github.com/bugduel/server/internal/proto"
)

// fakeClock lets tests steer the service's notion of now.
type fakeClock struct {
	now float64
}

func newTestService(t *testing.T) (*Service, *fakeClock) {
	t.Helper()
	store, err := persist.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	svc := NewService(store, zap.NewNop(), arena.DefaultTuning(), arena.DefaultSorts(), nil)
	clock := &fakeClock{}
	svc.now = func() float64 { return clock.now }
	return svc, clock
}

func TestObtainSessionShape(t *testing.T) {
	svc, _ := newTestService(t)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		sess := svc.ObtainSession(context.Background())
		if len(sess.SessionID) != 8 {
			t.Fatalf("session id %q, want 8 alphanumerics", sess.SessionID)
		}
		seen[sess.SessionID] = true
	}
	if len(seen) < 45 {
		t.Fatalf("session ids barely vary: %d unique of 50", len(seen))
	}
}

func TestCreateLobbyJoinsCreator(t *testing.T) {
	svc, _ := newTestService(t)

	id, snap, err := svc.CreateLobby(context.Background(), "aaa11111")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if snap.Settings.LobbyID != id {
		t.Fatalf("snapshot id %d, lobby id %d", snap.Settings.LobbyID, id)
	}
	if _, ok := snap.Players["aaa11111"]; !ok {
		t.Fatalf("creator missing from snapshot: %+v", snap.Players)
	}
}

func TestCreateWhileInAnotherLobbySucceeds(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, _, err := svc.CreateLobby(ctx, "aaa11111")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Abandoning a lobby needs no explicit leave; a member can always
	// open a fresh one and let the old lobby age out.
	second, _, err := svc.CreateLobby(ctx, "aaa11111")
	if err != nil {
		t.Fatalf("create while member elsewhere: %v", err)
	}
	lobbies := svc.ListLobbies(ctx)
	if lobbies[first] == nil || lobbies[second] == nil {
		t.Fatalf("expected both lobbies live, got %d", len(lobbies))
	}
}

func TestListLobbiesCollectsSilentLobbies(t *testing.T) {
	svc, clock := newTestService(t)

	id, _, _ := svc.CreateLobby(context.Background(), "aaa11111")
	if svc.ListLobbies(context.Background())[id] == nil {
		t.Fatal("fresh lobby missing from listing")
	}

	clock.now += heartbeatWindow + 1
	if svc.ListLobbies(context.Background())[id] != nil {
		t.Fatal("silent lobby survived garbage collection")
	}
}

func TestAutoAdvanceOnStalledSync(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	id, _, _ := svc.CreateLobby(ctx, "aaa11111")
	if _, err := svc.Ready(ctx, id, "bbb22222"); err != nil {
		t.Fatalf("join: %v", err)
	}

	// Within the turn window nothing is synthesized.
	msg, err := svc.TurnsSince(ctx, id, "aaa11111", 0)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if msg.Type != proto.TypeTurnSync || len(msg.Turns) != 0 {
		t.Fatalf("premature sync reply: %+v", msg)
	}

	clock.now += arena.DefaultTuning().TurnSeconds + 1
	msg, err = svc.TurnsSince(ctx, id, "aaa11111", 0)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(msg.Turns) != 1 {
		t.Fatalf("expected one aggregate turn, got %d", len(msg.Turns))
	}
	if msg.Turns[0].Timestamp != clock.now {
		t.Fatalf("aggregate turn stamped %f, want %f", msg.Turns[0].Timestamp, clock.now)
	}
}

func TestWaitingLobbySyncReturnsLobbyState(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	id, _, _ := svc.CreateLobby(ctx, "aaa11111")
	clock.now += arena.DefaultTuning().TurnSeconds + 1

	// A waiting lobby never auto-advances; the poll answers with the
	// roster so the creator sees who has joined.
	msg, err := svc.TurnsSince(ctx, id, "aaa11111", 0)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if msg.Type != proto.TypeLobby || msg.Lobby == nil {
		t.Fatalf("waiting sync reply: %+v", msg)
	}
	if len(msg.Lobby.Turns) != 0 {
		t.Fatalf("waiting lobby auto-advanced: %+v", msg.Lobby.Turns)
	}

	// Once the opponent joins, the same poll switches to turn sync.
	if _, err := svc.Ready(ctx, id, "bbb22222"); err != nil {
		t.Fatalf("join: %v", err)
	}
	msg, err = svc.TurnsSince(ctx, id, "aaa11111", 0)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if msg.Type != proto.TypeTurnSync {
		t.Fatalf("active sync reply: %+v", msg)
	}
}

func TestActPersistsAndRestoreRebuilds(t *testing.T) {
	dir := t.TempDir()
	store, err := persist.NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	svc := NewService(store, zap.NewNop(), arena.DefaultTuning(), arena.DefaultSorts(), nil)
	clock := &fakeClock{}
	svc.now = func() float64 { return clock.now }
	ctx := context.Background()

	id, _, _ := svc.CreateLobby(ctx, "aaa11111")
	svc.Ready(ctx, id, "bbb22222")
	move := proto.Move(arena.Turn{ImpulseIntents: arena.ImpulseIntents{1: geom.V(1, 0)}, Index: 0})
	if _, err := svc.Act(ctx, id, "aaa11111", move); err != nil {
		t.Fatalf("act: %v", err)
	}

	// A second service over the same store picks the match back up.
	svc2 := NewService(store, zap.NewNop(), arena.DefaultTuning(), arena.DefaultSorts(), nil)
	svc2.now = func() float64 { return clock.now }
	if err := svc2.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}

	snap, err := svc2.FullState(ctx, id, "aaa11111")
	if err != nil {
		t.Fatalf("state after restore: %v", err)
	}
	if len(snap.Players) != 2 || len(snap.Turns) != 1 {
		t.Fatalf("restored snapshot incomplete: %d players, %d turns", len(snap.Players), len(snap.Turns))
	}
}

func TestActUnknownLobby(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Act(context.Background(), 1234, "aaa11111", proto.OK())
	if lerr, ok := err.(*Error); !ok || lerr.Code != CodeLobbyNotFound {
		t.Fatalf("error: %v", err)
	}
}

func TestLobbyIDShape(t *testing.T) {
	svc, _ := newTestService(t)

	for i := 0; i < 32; i++ {
		id := svc.newLobbyID()
		bitsSet := 0
		for v := id; v != 0; v >>= 1 {
			bitsSet += int(v & 1)
		}
		if bitsSet < 4 {
			t.Fatalf("lobby id %d has %d set bits", id, bitsSet)
		}
	}
}
