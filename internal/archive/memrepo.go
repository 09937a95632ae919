package archive

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/park285/adaptive-chess/internal/domain"
)

type memoryRepository struct {
	mu    sync.RWMutex
	games map[string]*domain.GameRecord
}

func NewMemoryRepository() Repository {
	return &memoryRepository{games: make(map[string]*domain.GameRecord)}
}

func (r *memoryRepository) InsertGame(_ context.Context, game *domain.GameRecord) error {
	if game == nil {
		return fmt.Errorf("nil game record")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.games[game.ID]; exists {
		return ErrDuplicateGame
	}
	r.games[game.ID] = copyRecord(game)
	return nil
}

func (r *memoryRepository) GetGame(_ context.Context, id string) (*domain.GameRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	return copyRecord(g), nil
}

func (r *memoryRepository) RecentGames(_ context.Context, limit int) ([]*domain.GameRecord, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	r.mu.RLock()
	out := make([]*domain.GameRecord, 0, len(r.games))
	for _, g := range r.games {
		out = append(out, copyRecord(g))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].EndedAt.After(out[j].EndedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryRepository) Close() error { return nil }
