package archive

import (
	"context"

	"github.com/park285/cheese-arena/internal/domain"
)

// Repository stores finished games. Lookups return (nil, nil) when absent.
type Repository interface {
	SaveResult(ctx context.Context, game *domain.ArchivedGame) error
	GetGame(ctx context.Context, gameID string) (*domain.ArchivedGame, error)
	GetRecentGames(ctx context.Context, playerID string, limit int) ([]*domain.ArchivedGame, error)
	Close() error
}

var (
	_ Repository = (*PostgresRepository)(nil)
	_ Repository = (*MemoryRepository)(nil)
)
