package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/park285/adaptive-chess/internal/domain"
)

type dialect int

const (
	dialectPostgres dialect = iota
	dialectSQLite
)

type sqlRepository struct {
	db      *sql.DB
	dialect dialect
}

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	result TEXT NOT NULL,
	result_method TEXT NOT NULL,
	reason TEXT NOT NULL,
	moves_uci TEXT NOT NULL,
	moves_san TEXT NOT NULL,
	losses TEXT NOT NULL,
	final_rating INTEGER NOT NULL,
	final_depth INTEGER NOT NULL,
	started_at TIMESTAMP NOT NULL,
	ended_at TIMESTAMP NOT NULL
)`

const endedIndex = `CREATE INDEX IF NOT EXISTS idx_games_ended_at ON games(ended_at)`

func OpenPostgres(ctx context.Context, dsn string) (Repository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	return newSQLRepository(ctx, db, dialectPostgres)
}

func OpenSQLite(ctx context.Context, path string) (Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// every connection to :memory: is a separate database
	if path == ":memory:" || strings.Contains(path, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}
	return newSQLRepository(ctx, db, dialectSQLite)
}

func newSQLRepository(ctx context.Context, db *sql.DB, d dialect) (Repository, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping archive db: %w", err)
	}
	for _, stmt := range []string{schema, endedIndex} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate archive: %w", err)
		}
	}
	return &sqlRepository{db: db, dialect: d}, nil
}

// rebind rewrites ? placeholders into $n for Postgres.
func (r *sqlRepository) rebind(query string) string {
	if r.dialect != dialectPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(ch)
	}
	return sb.String()
}

func (r *sqlRepository) InsertGame(ctx context.Context, game *domain.GameRecord) error {
	if game == nil {
		return fmt.Errorf("nil game record")
	}
	movesUCI, err := json.Marshal(nonNilStrings(game.MovesUCI))
	if err != nil {
		return fmt.Errorf("marshal moves_uci: %w", err)
	}
	movesSAN, err := json.Marshal(nonNilStrings(game.MovesSAN))
	if err != nil {
		return fmt.Errorf("marshal moves_san: %w", err)
	}
	losses := game.Losses
	if losses == nil {
		losses = []int{}
	}
	lossesJSON, err := json.Marshal(losses)
	if err != nil {
		return fmt.Errorf("marshal losses: %w", err)
	}

	query := r.rebind(`
		INSERT INTO games (
			id,
			session_id,
			result,
			result_method,
			reason,
			moves_uci,
			moves_san,
			losses,
			final_rating,
			final_depth,
			started_at,
			ended_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`)

	res, err := r.db.ExecContext(
		ctx,
		query,
		game.ID,
		game.SessionID,
		game.Result,
		game.Method,
		game.Reason,
		string(movesUCI),
		string(movesSAN),
		string(lossesJSON),
		game.FinalRating,
		game.FinalDepth,
		game.StartedAt.UTC(),
		game.EndedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrDuplicateGame
	}
	return nil
}

const selectColumns = `
	SELECT
		id,
		session_id,
		result,
		result_method,
		reason,
		moves_uci,
		moves_san,
		losses,
		final_rating,
		final_depth,
		started_at,
		ended_at
	FROM games`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*domain.GameRecord, error) {
	var (
		game         domain.GameRecord
		movesUCIJSON string
		movesSANJSON string
		lossesJSON   string
	)
	if err := row.Scan(
		&game.ID,
		&game.SessionID,
		&game.Result,
		&game.Method,
		&game.Reason,
		&movesUCIJSON,
		&movesSANJSON,
		&lossesJSON,
		&game.FinalRating,
		&game.FinalDepth,
		&game.StartedAt,
		&game.EndedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(movesUCIJSON), &game.MovesUCI); err != nil {
		return nil, fmt.Errorf("unmarshal moves_uci: %w", err)
	}
	if err := json.Unmarshal([]byte(movesSANJSON), &game.MovesSAN); err != nil {
		return nil, fmt.Errorf("unmarshal moves_san: %w", err)
	}
	if err := json.Unmarshal([]byte(lossesJSON), &game.Losses); err != nil {
		return nil, fmt.Errorf("unmarshal losses: %w", err)
	}
	return &game, nil
}

func (r *sqlRepository) GetGame(ctx context.Context, id string) (*domain.GameRecord, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(selectColumns+` WHERE id = ?`), id)
	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select game: %w", err)
	}
	return game, nil
}

func (r *sqlRepository) RecentGames(ctx context.Context, limit int) ([]*domain.GameRecord, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	rows, err := r.db.QueryContext(ctx, r.rebind(selectColumns+` ORDER BY ended_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("select games: %w", err)
	}
	defer rows.Close()

	games := make([]*domain.GameRecord, 0, limit)
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return games, nil
}

func (r *sqlRepository) Close() error {
	return r.db.Close()
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
