package room

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/walter-sobchak-ai/hytopia-chess/internal/engine"
	"github.com/walter-sobchak-ai/hytopia-chess/internal/match"
	"github.com/walter-sobchak-ai/hytopia-chess/internal/msgcat"
	"github.com/walter-sobchak-ai/hytopia-chess/internal/obslog"
	"github.com/walter-sobchak-ai/hytopia-chess/internal/roomstore"
)

// Manager owns room lifecycle: rooms are created on first join, addressed by
// ID, and closed once the last viewer leaves. There is no matchmaking; a
// player who wants a specific room names it.
type Manager struct {
	cat      *msgcat.Catalog
	store    *roomstore.Store
	defaults match.Selection

	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewManager(cat *msgcat.Catalog, store *roomstore.Store, defaults match.Selection) *Manager {
	return &Manager{
		cat:      cat,
		store:    store,
		defaults: defaults,
		rooms:    make(map[string]*Room),
	}
}

// GetOrCreate returns the room with the given ID, creating it if needed. An
// empty ID mints a fresh one.
func (m *Manager) GetOrCreate(id string) *Room {
	if id == "" {
		id = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[id]; ok {
		return r
	}
	// Each room gets its own searcher so the per-room mutex is the only
	// synchronization the PRNG needs.
	eng := engine.New(rand.New(rand.NewSource(time.Now().UnixNano())))
	r := newRoom(id, match.New(eng, m.defaults), m.cat, m.store)
	m.rooms[id] = r
	obslog.L().Info("room created", zap.String("room", id))
	return r
}

// Get returns an existing room, or nil.
func (m *Manager) Get(id string) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[id]
}

// Leave routes a disconnect to the viewer's room and closes the room when it
// empties out.
func (m *Manager) Leave(roomID, identity, name string) {
	r := m.Get(roomID)
	if r == nil {
		return
	}
	if r.Leave(identity, name) {
		m.close(roomID)
	}
}

func (m *Manager) close(id string) {
	m.mu.Lock()
	delete(m.rooms, id)
	m.mu.Unlock()

	if m.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := m.store.RemoveRoom(ctx, id); err != nil {
			obslog.L().Warn("room mirror cleanup failed", zap.String("room", id), zap.Error(err))
		}
	}
	obslog.L().Info("room closed", zap.String("room", id))
}

// Count reports how many rooms are open.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}
