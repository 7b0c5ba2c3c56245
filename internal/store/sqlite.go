package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"alleycat/internal/economy"
)

// SQLiteStore keeps the whole ledger document in a single row per guild; the
// upsert runs inside one implicit transaction, which gives the atomic-save
// contract for free.
type SQLiteStore struct {
	db  *sql.DB
	log *slog.Logger
}

func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Single writer: the coordinator serializes per guild anyway, and one
	// connection avoids SQLITE_BUSY entirely.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=FULL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite pragma: %w", err)
		}
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS guild_ledgers (
			guild_id   TEXT PRIMARY KEY,
			doc        BLOB NOT NULL,
			updated_at TEXT NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteStore{db: db, log: logger}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, guildID string) (*economy.GuildLedger, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT doc FROM guild_ledgers WHERE guild_id = ?
	`, guildID).Scan(&raw)
	if err == sql.ErrNoRows {
		return economy.NewGuildLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load ledger %s: %w", guildID, err)
	}
	return decodeLedger(raw, guildID, s.log), nil
}

func (s *SQLiteStore) Save(ctx context.Context, guildID string, ledger *economy.GuildLedger) error {
	raw, err := json.Marshal(ledger)
	if err != nil {
		return fmt.Errorf("encode ledger %s: %w", guildID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO guild_ledgers (guild_id, doc, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (guild_id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at
	`, guildID, raw, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save ledger %s: %w", guildID, err)
	}
	return nil
}

func (s *SQLiteStore) Guilds(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT guild_id FROM guild_ledgers ORDER BY guild_id`)
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

func (s *SQLiteStore) Close() error { return s.db.Close() }
