// Package persist stores lobby snapshots so matches survive a server
// restart. The default backend writes one JSON file per lobby; a
// Postgres backend is available for deployments that already run one.
package persist

import (
	"context"

	"github.com/bugduel/server/internal/proto"
)

// Store saves and loads lobby snapshots keyed by lobby id.
type Store interface {
	Save(ctx context.Context, id uint16, snap *proto.LobbySnapshot) error
	Load(ctx context.Context, id uint16) (*proto.LobbySnapshot, error)
	LoadAll(ctx context.Context) (map[uint16]*proto.LobbySnapshot, error)
	Delete(ctx context.Context, id uint16) error
}
