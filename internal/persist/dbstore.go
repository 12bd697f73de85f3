package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bugduel/server/internal/proto"
)

// DBStore persists lobby snapshots as jsonb rows in Postgres.
type DBStore struct {
	db *DB
}

func NewDBStore(db *DB) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) Save(ctx context.Context, id uint16, snap *proto.LobbySnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode lobby %d: %w", id, err)
	}
	_, err = s.db.Pool.Exec(ctx,
		`INSERT INTO lobbies (lobby_id, snapshot, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (lobby_id) DO UPDATE
		 SET snapshot = EXCLUDED.snapshot, updated_at = now()`,
		int32(id), data)
	if err != nil {
		return fmt.Errorf("upsert lobby %d: %w", id, err)
	}
	return nil
}

func (s *DBStore) Load(ctx context.Context, id uint16) (*proto.LobbySnapshot, error) {
	var data []byte
	err := s.db.Pool.QueryRow(ctx,
		`SELECT snapshot FROM lobbies WHERE lobby_id = $1`, int32(id)).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("lobby %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load lobby %d: %w", id, err)
	}
	var snap proto.LobbySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode lobby %d: %w", id, err)
	}
	return &snap, nil
}

func (s *DBStore) LoadAll(ctx context.Context) (map[uint16]*proto.LobbySnapshot, error) {
	rows, err := s.db.Pool.Query(ctx, `SELECT lobby_id, snapshot FROM lobbies`)
	if err != nil {
		return nil, fmt.Errorf("load lobbies: %w", err)
	}
	defer rows.Close()

	out := make(map[uint16]*proto.LobbySnapshot)
	for rows.Next() {
		var id int32
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan lobby: %w", err)
		}
		var snap proto.LobbySnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("decode lobby %d: %w", id, err)
		}
		out[uint16(id)] = &snap
	}
	return out, rows.Err()
}

func (s *DBStore) Delete(ctx context.Context, id uint16) error {
	if _, err := s.db.Pool.Exec(ctx, `DELETE FROM lobbies WHERE lobby_id = $1`, int32(id)); err != nil {
		return fmt.Errorf("delete lobby %d: %w", id, err)
	}
	return nil
}
