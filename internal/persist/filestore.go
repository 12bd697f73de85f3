package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bugduel/server/internal/proto"
)

// FileStore keeps one JSON file per lobby under a directory. Writes go
// through a temp file and rename so a crash mid-write never leaves a
// truncated snapshot.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id uint16) string {
	return filepath.Join(s.dir, fmt.Sprintf("lobby_%d.json", id))
}

func (s *FileStore) Save(ctx context.Context, id uint16, snap *proto.LobbySnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode lobby %d: %w", id, err)
	}

	tmp := s.path(id) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write lobby %d: %w", id, err)
	}
	if err := os.Rename(tmp, s.path(id)); err != nil {
		return fmt.Errorf("commit lobby %d: %w", id, err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context, id uint16) (*proto.LobbySnapshot, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return nil, fmt.Errorf("read lobby %d: %w", id, err)
	}
	var snap proto.LobbySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode lobby %d: %w", id, err)
	}
	return &snap, nil
}

func (s *FileStore) LoadAll(ctx context.Context) (map[uint16]*proto.LobbySnapshot, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("scan store dir: %w", err)
	}

	out := make(map[uint16]*proto.LobbySnapshot)
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "lobby_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		id, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimPrefix(name, "lobby_"), ".json"), 10, 16)
		if err != nil {
			continue
		}
		snap, err := s.Load(ctx, uint16(id))
		if err != nil {
			return nil, err
		}
		out[uint16(id)] = snap
	}
	return out, nil
}

func (s *FileStore) Delete(ctx context.Context, id uint16) error {
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete lobby %d: %w", id, err)
	}
	return nil
}
