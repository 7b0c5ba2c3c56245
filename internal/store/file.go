// Package store provides the durable Ledger Store backends. Every backend
// persists one GuildLedger document per guild and treats unreadable records
// as missing: corruption is logged and recovered by default-initialization,
// never surfaced as a fatal error.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"alleycat/internal/economy"
)

const ledgerExt = ".json"

// FileStore keeps one JSON document per guild under a data directory. Save
// writes a side file and atomically renames it into place, so a crash
// mid-write never yields a partial record.
type FileStore struct {
	dir string
	log *slog.Logger
}

func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("data dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{dir: dir, log: logger}, nil
}

func (s *FileStore) path(guildID string) string {
	return filepath.Join(s.dir, sanitizeGuildID(guildID)+ledgerExt)
}

func (s *FileStore) Load(ctx context.Context, guildID string) (*economy.GuildLedger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.path(guildID))
	if err != nil {
		if os.IsNotExist(err) {
			return economy.NewGuildLedger(), nil
		}
		return nil, fmt.Errorf("read ledger %s: %w", guildID, err)
	}
	return decodeLedger(raw, guildID, s.log), nil
}

func (s *FileStore) Save(ctx context.Context, guildID string, ledger *economy.GuildLedger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger %s: %w", guildID, err)
	}
	path := s.path(guildID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write ledger %s: %w", guildID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("swap ledger %s: %w", guildID, err)
	}
	return nil
}

func (s *FileStore) Guilds(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list data dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ledgerExt) {
			continue
		}
		out = append(out, strings.TrimSuffix(name, ledgerExt))
	}
	sort.Strings(out)
	return out, nil
}

func (s *FileStore) Close() error { return nil }

// decodeLedger recovers from corrupt documents by defaulting. Shared by all
// backends.
func decodeLedger(raw []byte, guildID string, logger *slog.Logger) *economy.GuildLedger {
	if len(raw) == 0 {
		return economy.NewGuildLedger()
	}
	var ledger economy.GuildLedger
	if err := json.Unmarshal(raw, &ledger); err != nil {
		logger.Error("ledger record corrupt, defaulting",
			"guild_id", guildID, "err", fmt.Errorf("%w: %v", economy.ErrStorageCorrupt, err))
		return economy.NewGuildLedger()
	}
	return &ledger
}

// sanitizeGuildID keeps guild-derived file names path-safe. Platform guild
// ids are numeric snowflakes, so this rarely changes anything.
func sanitizeGuildID(guildID string) string {
	var b strings.Builder
	for _, r := range guildID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
