// Package archive keeps a log of ended games. Sessions are never restored
// from it.
package archive

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/park285/adaptive-chess/internal/domain"
)

var (
	ErrDuplicateGame = errors.New("game already archived")
	ErrGameNotFound  = errors.New("archived game not found")
)

type Repository interface {
	InsertGame(ctx context.Context, game *domain.GameRecord) error
	GetGame(ctx context.Context, id string) (*domain.GameRecord, error)
	RecentGames(ctx context.Context, limit int) ([]*domain.GameRecord, error)
	Close() error
}

const defaultRecentLimit = 20

// Open picks a backend from dsn: empty or "memory" keeps records in process,
// postgres:// and postgresql:// use Postgres, sqlite://path and
// sqlite::memory: use SQLite.
func Open(ctx context.Context, dsn string) (Repository, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "" || dsn == "memory":
		return NewMemoryRepository(), nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return OpenPostgres(ctx, dsn)
	case strings.HasPrefix(dsn, "sqlite::memory:"):
		return OpenSQLite(ctx, ":memory:")
	case strings.HasPrefix(dsn, "sqlite://"):
		return OpenSQLite(ctx, strings.TrimPrefix(dsn, "sqlite://"))
	default:
		return nil, fmt.Errorf("unsupported archive dsn: %q", dsn)
	}
}

func copyRecord(g *domain.GameRecord) *domain.GameRecord {
	cp := *g
	cp.MovesUCI = append([]string(nil), g.MovesUCI...)
	cp.MovesSAN = append([]string(nil), g.MovesSAN...)
	cp.Losses = append([]int(nil), g.Losses...)
	return &cp
}
