package economy

import (
	"context"
	"errors"
	"log/slog"
	mathrand "math/rand"
	"sort"
	"strings"
	"sync"
	"time"
)

// Store is the durable per-guild record the coordinator runs transactions
// against. Load returns a fresh default ledger when no record exists or the
// stored one is unreadable; implementations log corruption, they never fail
// on it. Save must be atomic: a crash mid-write never leaves a partial
// record.
type Store interface {
	Load(ctx context.Context, guildID string) (*GuildLedger, error)
	Save(ctx context.Context, guildID string, ledger *GuildLedger) error
	Guilds(ctx context.Context) ([]string, error)
	Close() error
}

// Service is the transaction coordinator: it owns the per-guild serialization
// units and exposes the operation set the command dispatcher calls. All
// mutations for one guild execute as if serialized; different guilds proceed
// in parallel.
type Service struct {
	store   Store
	tuning  Tuning
	log     *slog.Logger
	timeout time.Duration
	clock   func() time.Time

	mu   sync.Mutex
	rand *mathrand.Rand

	locks sync.Map // guildID -> *sync.Mutex
}

const defaultStorageTimeout = 5 * time.Second

func NewService(store Store, tuning Tuning, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		tuning:  tuning,
		log:     logger,
		timeout: defaultStorageTimeout,
		clock:   time.Now,
		rand:    mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
	}
}

// SetStorageTimeout bounds each load/save; a hung store fails the transaction
// with ErrStorageTimeout instead of blocking the guild forever.
func (s *Service) SetStorageTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// Seed makes every probabilistic outcome reproducible. Intended for replay
// and tests.
func (s *Service) Seed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rand = mathrand.New(mathrand.NewSource(seed))
}

func (s *Service) Tuning() Tuning { return s.tuning }

func (s *Service) nextFloat() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.Float64()
}

func (s *Service) guildLock(guildID string) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(guildID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// withGuild runs one logical transaction: acquire the guild's exclusive unit,
// load, mutate, persist, release. If fn fails nothing is saved, so the loaded
// copy is discarded and no partial mutation is ever visible.
func (s *Service) withGuild(ctx context.Context, guildID string, fn func(l *GuildLedger, now time.Time) error) error {
	if strings.TrimSpace(guildID) == "" {
		return errors.New("guild id is required")
	}
	lock := s.guildLock(guildID)
	lock.Lock()
	defer lock.Unlock()

	ledger, err := s.loadLedger(ctx, guildID)
	if err != nil {
		return err
	}
	now := s.clock()
	if err := fn(ledger, now); err != nil {
		return err
	}
	ledger.UpdatedAt = now

	saveCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.store.Save(saveCtx, guildID, ledger); err != nil {
		err = storageErr(saveCtx, err)
		s.log.Error("ledger save failed", "guild_id", guildID, "err", err)
		return err
	}
	return nil
}

// snapshot loads a read-consistent copy without holding the guild lock. Safe
// because Save replaces the record atomically.
func (s *Service) snapshot(ctx context.Context, guildID string) (*GuildLedger, error) {
	if strings.TrimSpace(guildID) == "" {
		return nil, errors.New("guild id is required")
	}
	return s.loadLedger(ctx, guildID)
}

func (s *Service) loadLedger(ctx context.Context, guildID string) (*GuildLedger, error) {
	loadCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ledger, err := s.store.Load(loadCtx, guildID)
	if err != nil {
		return nil, storageErr(loadCtx, err)
	}
	ledger.normalize()
	if ledger.CreatedAt.IsZero() {
		ledger.init(s.clock(), s.tuning.InitialReserve)
	}
	return ledger, nil
}

func storageErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrStorageTimeout
	}
	return err
}

// Guilds enumerates every guild with a persisted ledger.
func (s *Service) Guilds(ctx context.Context) ([]string, error) {
	return s.store.Guilds(ctx)
}

// ReportAsset is the system's own worth: reserve plus escrowed market value.
// Circulating player supply is reported separately, not summed in.
func (s *Service) ReportAsset(ctx context.Context, guildID string) (AssetReport, error) {
	ledger, err := s.snapshot(ctx, guildID)
	if err != nil {
		return AssetReport{}, err
	}
	market := ledger.MarketValue()
	return AssetReport{
		GuildID:     guildID,
		Reserve:     ledger.Treasury.Reserve,
		Circulating: ledger.CirculatingSupply(),
		MarketValue: market,
		TradeFees:   ledger.Treasury.TradeFees,
		Total:       ledger.Treasury.Reserve + market,
	}, nil
}

// AuditGuild runs the structural invariant checks against a snapshot.
func (s *Service) AuditGuild(ctx context.Context, guildID string) ([]string, error) {
	ledger, err := s.snapshot(ctx, guildID)
	if err != nil {
		return nil, err
	}
	return ledger.Audit(s.tuning.MaxItemsPerAccount), nil
}

func (s *Service) itemView(it *Item) ItemView {
	return ItemView{
		ID:        it.ID,
		Name:      it.Name,
		Grade:     it.Grade,
		GradeName: s.tuning.GradeName(it.Grade),
		Level:     it.Level,
		CreatedAt: it.CreatedAt,
	}
}

func (s *Service) listingView(ls *MarketListing) ListingView {
	return ListingView{
		ID:        ls.ID,
		Item:      s.itemView(ls.Item),
		SellerID:  ls.SellerID,
		Price:     ls.Price,
		CreatedAt: ls.CreatedAt,
	}
}

func sortItemViews(items []ItemView) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}

func sortedLeaderboard(l *GuildLedger, limit int) []LeaderboardRow {
	accounts := make([]*Account, 0, len(l.Accounts))
	for _, a := range l.Accounts {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].Balance != accounts[j].Balance {
			return accounts[i].Balance > accounts[j].Balance
		}
		return accounts[i].UserID < accounts[j].UserID
	})
	if limit > 0 && len(accounts) > limit {
		accounts = accounts[:limit]
	}
	rows := make([]LeaderboardRow, 0, len(accounts))
	for i, a := range accounts {
		rows = append(rows, LeaderboardRow{
			Rank:        i + 1,
			UserID:      a.UserID,
			DisplayName: a.DisplayName,
			Balance:     a.Balance,
		})
	}
	return rows
}
