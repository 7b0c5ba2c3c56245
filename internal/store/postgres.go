package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"alleycat/internal/economy"
)

// PostgresStore mirrors the single-document-per-guild shape over a shared
// postgres instance, for deployments where several bot processes point at
// the same database. The per-guild serialization still lives in the
// coordinator; the row upsert only needs to be atomic, which a single
// statement already is.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS guild_ledgers (
			guild_id   TEXT PRIMARY KEY,
			doc        JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres schema: %w", err)
	}
	return &PostgresStore{pool: pool, log: logger}, nil
}

func (s *PostgresStore) Load(ctx context.Context, guildID string) (*economy.GuildLedger, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `
		SELECT doc FROM guild_ledgers WHERE guild_id = $1
	`, guildID).Scan(&raw)
	if err == pgx.ErrNoRows {
		return economy.NewGuildLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load ledger %s: %w", guildID, err)
	}
	return decodeLedger(raw, guildID, s.log), nil
}

func (s *PostgresStore) Save(ctx context.Context, guildID string, ledger *economy.GuildLedger) error {
	raw, err := json.Marshal(ledger)
	if err != nil {
		return fmt.Errorf("encode ledger %s: %w", guildID, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO guild_ledgers (guild_id, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (guild_id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
	`, guildID, raw)
	if err != nil {
		return fmt.Errorf("save ledger %s: %w", guildID, err)
	}
	return nil
}

func (s *PostgresStore) Guilds(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT guild_id FROM guild_ledgers ORDER BY guild_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
