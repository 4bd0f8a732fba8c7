package roomstore

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/walter-sobchak-ai/hytopia-chess/pkg/matchdto"
)

const defaultTTL = 24 * time.Hour

// Store mirrors live room state into Redis for the ops endpoint: an index
// set of active room IDs plus the latest snapshot per room. Nothing here is
// a system of record; every key expires.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// NewClientFromURL builds a go-redis client from a redis:// URL.
func NewClientFromURL(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

func (s *Store) keyState(roomID string) string { return "room:" + strings.TrimSpace(roomID) + ":state" }
func (s *Store) keyIndex() string              { return "rooms:index" }

// SaveSnapshot stores the latest projection for a room and refreshes the
// room's index membership.
func (s *Store) SaveSnapshot(ctx context.Context, roomID string, snap *matchdto.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.keyState(roomID), raw, s.ttl).Err(); err != nil {
		return err
	}
	if err := s.rdb.SAdd(ctx, s.keyIndex(), roomID).Err(); err != nil {
		return err
	}
	return s.rdb.Expire(ctx, s.keyIndex(), s.ttl).Err()
}

// LoadSnapshot returns the mirrored snapshot, or nil when none exists.
func (s *Store) LoadSnapshot(ctx context.Context, roomID string) (*matchdto.Snapshot, error) {
	raw, err := s.rdb.Get(ctx, s.keyState(roomID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap matchdto.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// RemoveRoom drops a room from the mirror when it is closed.
func (s *Store) RemoveRoom(ctx context.Context, roomID string) error {
	if err := s.rdb.SRem(ctx, s.keyIndex(), roomID).Err(); err != nil {
		return err
	}
	return s.rdb.Del(ctx, s.keyState(roomID)).Err()
}

// RoomSummary is one row of the ops room listing.
type RoomSummary struct {
	ID    string `json:"id"`
	Phase string `json:"phase"`
}

// ListRooms reads the index and resolves each room's current phase. Rooms
// whose snapshot already expired are skipped.
func (s *Store) ListRooms(ctx context.Context) ([]RoomSummary, error) {
	ids, err := s.rdb.SMembers(ctx, s.keyIndex()).Result()
	if err != nil {
		return nil, err
	}
	out := make([]RoomSummary, 0, len(ids))
	for _, id := range ids {
		snap, err := s.LoadSnapshot(ctx, id)
		if err != nil {
			return nil, err
		}
		if snap == nil {
			continue
		}
		out = append(out, RoomSummary{ID: id, Phase: snap.Phase})
	}
	return out, nil
}
