package archive

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/park285/cheese-arena/internal/domain"
)

// MemoryRepository is used when no DATABASE_URL is configured.
type MemoryRepository struct {
	mu        sync.RWMutex
	gamesByID map[string]*domain.ArchivedGame
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{gamesByID: make(map[string]*domain.ArchivedGame)}
}

func (m *MemoryRepository) SaveResult(ctx context.Context, game *domain.ArchivedGame) error {
	if game == nil {
		return nil
	}
	if game.PGN == "" {
		game.PGN = BuildPGN(game)
	}
	copy := cloneGame(game)

	m.mu.Lock()
	m.gamesByID[strings.TrimSpace(game.GameID)] = copy
	m.mu.Unlock()
	return nil
}

func (m *MemoryRepository) GetGame(ctx context.Context, gameID string) (*domain.ArchivedGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.gamesByID[strings.TrimSpace(gameID)]
	if !ok {
		return nil, nil
	}
	return cloneGame(g), nil
}

func (m *MemoryRepository) GetRecentGames(ctx context.Context, playerID string, limit int) ([]*domain.ArchivedGame, error) {
	m.mu.RLock()
	items := make([]*domain.ArchivedGame, 0)
	for _, g := range m.gamesByID {
		if g.Involves(playerID) {
			items = append(items, cloneGame(g))
		}
	}
	m.mu.RUnlock()

	// EndedAt desc, then id for a stable order
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].GameID < items[j].GameID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *MemoryRepository) Close() error { return nil }

func cloneGame(g *domain.ArchivedGame) *domain.ArchivedGame {
	c := *g
	c.MovesUCI = append([]string(nil), g.MovesUCI...)
	c.MovesSAN = append([]string(nil), g.MovesSAN...)
	return &c
}
