package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/park285/cheese-arena/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS arena_games (
	game_id      TEXT PRIMARY KEY,
	white_id     TEXT NOT NULL,
	black_id     TEXT NOT NULL,
	initial_fen  TEXT NOT NULL,
	final_fen    TEXT NOT NULL,
	result       TEXT NOT NULL,
	termination  TEXT NOT NULL,
	moves_uci    TEXT[] NOT NULL,
	moves_san    TEXT[] NOT NULL,
	opening      TEXT NOT NULL DEFAULT '',
	pgn          TEXT NOT NULL,
	started_at   TIMESTAMPTZ NOT NULL,
	ended_at     TIMESTAMPTZ NOT NULL,
	duration_ms  BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS arena_games_white_idx ON arena_games (white_id, ended_at DESC);
CREATE INDEX IF NOT EXISTS arena_games_black_idx ON arena_games (black_id, ended_at DESC);`

const selectColumns = `
	game_id, white_id, black_id, initial_fen, final_fen, result, termination,
	moves_uci, moves_san, opening, pgn, started_at, ended_at, duration_ms`

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(ctx context.Context, databaseURL string) (*PostgresRepository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure arena schema: %w", err)
	}
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveResult upserts a finished game.
func (r *PostgresRepository) SaveResult(ctx context.Context, g *domain.ArchivedGame) error {
	if r == nil || r.db == nil || g == nil {
		return nil
	}
	if g.PGN == "" {
		g.PGN = BuildPGN(g)
	}
	duration := g.EndedAt.Sub(g.StartedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}

	const q = `INSERT INTO arena_games (
		game_id, white_id, black_id, initial_fen, final_fen, result, termination,
		moves_uci, moves_san, opening, pgn, started_at, ended_at, duration_ms
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	ON CONFLICT (game_id) DO UPDATE SET
		final_fen=EXCLUDED.final_fen,
		result=EXCLUDED.result,
		termination=EXCLUDED.termination,
		moves_uci=EXCLUDED.moves_uci,
		moves_san=EXCLUDED.moves_san,
		opening=EXCLUDED.opening,
		pgn=EXCLUDED.pgn,
		ended_at=EXCLUDED.ended_at,
		duration_ms=EXCLUDED.duration_ms`

	_, err := r.db.ExecContext(ctx, q,
		g.GameID, g.WhiteID, g.BlackID, g.InitialFEN, g.FinalFEN,
		g.Result, g.Termination,
		pq.Array(nonNil(g.MovesUCI)), pq.Array(nonNil(g.MovesSAN)),
		g.Opening, g.PGN, g.StartedAt, g.EndedAt, duration,
	)
	if err != nil {
		return fmt.Errorf("upsert arena game %s: %w", g.GameID, err)
	}
	return nil
}

func (r *PostgresRepository) GetGame(ctx context.Context, gameID string) (*domain.ArchivedGame, error) {
	row := r.db.QueryRowContext(ctx, `SELECT`+selectColumns+` FROM arena_games WHERE game_id = $1`, gameID)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select arena game: %w", err)
	}
	return g, nil
}

func (r *PostgresRepository) GetRecentGames(ctx context.Context, playerID string, limit int) ([]*domain.ArchivedGame, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `SELECT`+selectColumns+`
		FROM arena_games
		WHERE white_id = $1 OR black_id = $1
		ORDER BY ended_at DESC
		LIMIT $2`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("select arena games: %w", err)
	}
	defer rows.Close()

	games := make([]*domain.ArchivedGame, 0, limit)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan arena game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(s scanner) (*domain.ArchivedGame, error) {
	var (
		g          domain.ArchivedGame
		durationMS int64
	)
	if err := s.Scan(
		&g.GameID, &g.WhiteID, &g.BlackID, &g.InitialFEN, &g.FinalFEN,
		&g.Result, &g.Termination,
		pq.Array(&g.MovesUCI), pq.Array(&g.MovesSAN),
		&g.Opening, &g.PGN, &g.StartedAt, &g.EndedAt, &durationMS,
	); err != nil {
		return nil, err
	}
	g.Duration = time.Duration(durationMS) * time.Millisecond
	return &g, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
