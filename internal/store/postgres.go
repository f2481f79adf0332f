package store

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres is the PlayerStore backed by a players table.
type Postgres struct {
	db *sql.DB
}

func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// EnsureSchema creates the players table if missing. Nickname
// uniqueness is case-insensitive.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS players (
	nickname   text PRIMARY KEY,
	avatar     text NOT NULL DEFAULT '',
	coins      integer NOT NULL,
	played     integer NOT NULL DEFAULT 0,
	wins       integer NOT NULL DEFAULT 0,
	losses     integer NOT NULL DEFAULT 0,
	draws      integer NOT NULL DEFAULT 0,
	created_at timestamptz NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS players_nickname_lower ON players (lower(nickname));`)
	return err
}

const playerColumns = `nickname, avatar, coins, played, wins, losses, draws, created_at`

func scanPlayer(row *sql.Row) (*Player, error) {
	var p Player
	err := row.Scan(&p.Nickname, &p.Avatar, &p.Coins, &p.Played, &p.Wins, &p.Losses, &p.Draws, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (p *Postgres) Get(ctx context.Context, nickname string) (*Player, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE lower(nickname) = lower($1)`, nickname)
	return scanPlayer(row)
}

func (p *Postgres) GetOrCreate(ctx context.Context, nickname, avatar string) (*Player, error) {
	row := p.db.QueryRowContext(ctx, `
INSERT INTO players (nickname, avatar, coins)
VALUES ($1, $2, $3)
ON CONFLICT (lower(nickname)) DO UPDATE
	SET avatar = CASE WHEN EXCLUDED.avatar <> '' THEN EXCLUDED.avatar ELSE players.avatar END
RETURNING `+playerColumns, nickname, avatar, InitialCoins)
	return scanPlayer(row)
}

func (p *Postgres) UpdateCoins(ctx context.Context, nickname string, delta int, outcome Outcome) (*Player, error) {
	row := p.db.QueryRowContext(ctx, `
UPDATE players SET
	coins  = GREATEST(0, coins + $2),
	played = played + 1,
	wins   = wins   + CASE WHEN $3 = 'win'  THEN 1 ELSE 0 END,
	losses = losses + CASE WHEN $3 = 'lose' THEN 1 ELSE 0 END,
	draws  = draws  + CASE WHEN $3 = 'draw' THEN 1 ELSE 0 END
WHERE lower(nickname) = lower($1)
RETURNING `+playerColumns, nickname, delta, string(outcome))
	return scanPlayer(row)
}

func (p *Postgres) Leaderboard(ctx context.Context, limit int) ([]Player, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+playerColumns+` FROM players ORDER BY coins DESC, lower(nickname) ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Player
	for rows.Next() {
		var pl Player
		if err := rows.Scan(&pl.Nickname, &pl.Avatar, &pl.Coins, &pl.Played, &pl.Wins, &pl.Losses, &pl.Draws, &pl.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, pl)
	}
	return out, rows.Err()
}

func (p *Postgres) Count(ctx context.Context) (int, error) {
	row := p.db.QueryRowContext(ctx, `SELECT count(*) FROM players`)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
