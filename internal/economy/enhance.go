package economy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CraftItem burns the craft cost into the treasury and mints a fresh item at
// the bottom of the grade ladder, level 0.
func (s *Service) CraftItem(ctx context.Context, guildID, userID, name string) (CraftResult, error) {
	if strings.TrimSpace(userID) == "" {
		return CraftResult{}, fmt.Errorf("%w: user id is required", ErrInvalidArgument)
	}
	if err := validateItemName(name); err != nil {
		return CraftResult{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	var out CraftResult
	err := s.withGuild(ctx, guildID, func(l *GuildLedger, now time.Time) error {
		if l.itemCount(userID) >= s.tuning.MaxItemsPerAccount {
			return fmt.Errorf("%w: at most %d items", ErrInventoryFull, s.tuning.MaxItemsPerAccount)
		}
		a, err := l.payToReserve(userID, s.tuning.CraftCost, now)
		if err != nil {
			return err
		}
		item := &Item{
			ID:        uuid.NewString(),
			OwnerID:   userID,
			Name:      strings.TrimSpace(name),
			Grade:     0,
			Level:     0,
			CreatedAt: now,
		}
		l.Items[item.ID] = item
		out = CraftResult{Item: s.itemView(item), Cost: s.tuning.CraftCost, Balance: a.Balance}
		return nil
	})
	return out, err
}

// EnhanceItem advances the item's probabilistic state machine. The cost is
// charged up front once affordability is confirmed; the single draw is then
// compared destroy-first, success-second, else the level demotes by one.
func (s *Service) EnhanceItem(ctx context.Context, guildID, userID, itemID string) (EnhanceResult, error) {
	var out EnhanceResult
	err := s.withGuild(ctx, guildID, func(l *GuildLedger, now time.Time) error {
		item, ok := l.Items[itemID]
		if !ok || item.OwnerID != userID {
			return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
		}
		if item.Level >= s.tuning.MaxLevel {
			return fmt.Errorf("%w: level %d", ErrMaxLevelReached, item.Level)
		}

		cost := s.tuning.EnhanceCost(item.Level)
		a, err := l.payToReserve(userID, cost, now)
		if err != nil {
			return err
		}
		out = EnhanceResult{Cost: cost, Balance: a.Balance}

		roll := s.nextFloat()
		switch {
		case roll < s.tuning.DestroyChance(item.Level):
			delete(l.Items, itemID)
			out.Outcome = OutcomeDestroyed
		case roll < s.tuning.SuccessChance(item.Level):
			item.Level++
			if s.nextFloat() < s.tuning.GradeUpRate && item.Grade < s.tuning.TopGrade() {
				item.Grade++
				out.GradeUp = true
			}
			out.Outcome = OutcomeSuccess
			v := s.itemView(item)
			out.Item = &v
		default:
			if item.Level > 0 {
				item.Level--
			}
			out.Outcome = OutcomeDemoted
			v := s.itemView(item)
			out.Item = &v
		}
		return nil
	})
	return out, err
}

// Inventory lists the items an account holds, excluding escrowed listings.
func (s *Service) Inventory(ctx context.Context, guildID, userID string) ([]ItemView, error) {
	ledger, err := s.snapshot(ctx, guildID)
	if err != nil {
		return nil, err
	}
	out := make([]ItemView, 0, s.tuning.MaxItemsPerAccount)
	for _, it := range ledger.Items {
		if it.OwnerID == userID {
			out = append(out, s.itemView(it))
		}
	}
	sortItemViews(out)
	return out, nil
}

// ItemDetail inspects one owned item by id.
func (s *Service) ItemDetail(ctx context.Context, guildID, itemID string) (ItemView, error) {
	ledger, err := s.snapshot(ctx, guildID)
	if err != nil {
		return ItemView{}, err
	}
	it, ok := ledger.Items[itemID]
	if !ok {
		return ItemView{}, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	return s.itemView(it), nil
}
