package economy

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Balance reads one account without taking the guild's transaction slot.
// Accounts that have never acted report a zero balance.
func (s *Service) Balance(ctx context.Context, guildID, userID string) (BalanceView, error) {
	ledger, err := s.snapshot(ctx, guildID)
	if err != nil {
		return BalanceView{}, err
	}
	out := BalanceView{UserID: userID}
	if a, ok := ledger.Accounts[userID]; ok {
		out.DisplayName = a.DisplayName
		out.Balance = a.Balance
	}
	return out, nil
}

// Grant is the operator mint path: the treasury credits the account
// unconditionally. A zero amount falls back to the configured grant size.
func (s *Service) Grant(ctx context.Context, guildID, userID, displayName string, amount int64) (BalanceView, error) {
	if strings.TrimSpace(userID) == "" {
		return BalanceView{}, fmt.Errorf("%w: user id is required", ErrInvalidArgument)
	}
	if amount == 0 {
		amount = s.tuning.AdminGrant
	}
	if amount <= 0 {
		return BalanceView{}, fmt.Errorf("%w: amount must be > 0", ErrInvalidArgument)
	}
	var out BalanceView
	err := s.withGuild(ctx, guildID, func(l *GuildLedger, now time.Time) error {
		a := l.payFromReserve(userID, amount, now)
		refreshDisplayName(a, displayName)
		out = BalanceView{UserID: userID, DisplayName: a.DisplayName, Balance: a.Balance}
		return nil
	})
	if err != nil {
		return BalanceView{}, err
	}
	s.log.Info("points granted", "guild_id", guildID, "user_id", userID, "amount", amount)
	return out, nil
}

// DailyReward grants the configured amount at most once per calendar day,
// with the day boundary fixed in KST. A repeat claim reports the time left
// until the next eligible day.
func (s *Service) DailyReward(ctx context.Context, guildID, userID, displayName string) (DailyResult, error) {
	if strings.TrimSpace(userID) == "" {
		return DailyResult{}, fmt.Errorf("%w: user id is required", ErrInvalidArgument)
	}
	var out DailyResult
	err := s.withGuild(ctx, guildID, func(l *GuildLedger, now time.Time) error {
		a := l.account(userID, now)
		refreshDisplayName(a, displayName)
		if !a.LastClaimAt.IsZero() && sameRewardDay(a.LastClaimAt, now) {
			next := nextRewardDay(now)
			return fmt.Errorf("%w: next claim in %s", ErrAlreadyClaimed, next.Sub(now).Round(time.Second))
		}
		a.LastClaimAt = now
		l.payFromReserve(userID, s.tuning.DailyReward, now)
		out = DailyResult{
			Amount:      s.tuning.DailyReward,
			Balance:     a.Balance,
			NextClaimAt: nextRewardDay(now),
		}
		return nil
	})
	return out, err
}

// Leaderboard returns the top balances in a guild, highest first.
func (s *Service) Leaderboard(ctx context.Context, guildID string, limit int) ([]LeaderboardRow, error) {
	ledger, err := s.snapshot(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	return sortedLeaderboard(ledger, limit), nil
}

func refreshDisplayName(a *Account, name string) {
	name = strings.TrimSpace(name)
	if name != "" {
		a.DisplayName = name
	}
}

func sameRewardDay(a, b time.Time) bool {
	ay, am, ad := a.In(RewardZone).Date()
	by, bm, bd := b.In(RewardZone).Date()
	return ay == by && am == bm && ad == bd
}

func nextRewardDay(now time.Time) time.Time {
	y, m, d := now.In(RewardZone).Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, RewardZone)
}
