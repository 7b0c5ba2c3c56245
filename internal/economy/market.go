package economy

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ListItem escrows an owned item into a new market listing. The listing fee
// is charged up front and routed to the treasury whether or not the item ever
// sells.
func (s *Service) ListItem(ctx context.Context, guildID, sellerID, itemID string, price int64) (ListResult, error) {
	if price <= 0 {
		return ListResult{}, fmt.Errorf("%w: price must be > 0", ErrInvalidArgument)
	}
	var out ListResult
	err := s.withGuild(ctx, guildID, func(l *GuildLedger, now time.Time) error {
		item, ok := l.Items[itemID]
		if !ok || item.OwnerID != sellerID {
			return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
		}
		a, err := l.payToReserve(sellerID, s.tuning.ListingFee, now)
		if err != nil {
			return err
		}
		l.Treasury.TradeFees += s.tuning.ListingFee

		delete(l.Items, itemID)
		item.OwnerID = ""
		listing := &MarketListing{
			ID:        uuid.NewString(),
			Item:      item,
			SellerID:  sellerID,
			Price:     price,
			CreatedAt: now,
		}
		l.Listings = append(l.Listings, listing)
		out = ListResult{Listing: s.listingView(listing), Fee: s.tuning.ListingFee, Balance: a.Balance}
		return nil
	})
	return out, err
}

// CancelListing returns the escrowed item to its seller. The listing fee is
// not refunded, and the seller must have room in their inventory.
func (s *Service) CancelListing(ctx context.Context, guildID, sellerID, listingID string) (ItemView, error) {
	var out ItemView
	err := s.withGuild(ctx, guildID, func(l *GuildLedger, now time.Time) error {
		i, listing := l.listing(listingID)
		if listing == nil || listing.SellerID != sellerID {
			return fmt.Errorf("%w: %s", ErrListingNotFound, listingID)
		}
		if l.itemCount(sellerID) >= s.tuning.MaxItemsPerAccount {
			return fmt.Errorf("%w: at most %d items", ErrInventoryFull, s.tuning.MaxItemsPerAccount)
		}
		item := listing.Item
		item.OwnerID = sellerID
		l.Items[item.ID] = item
		l.removeListing(i)
		out = s.itemView(item)
		return nil
	})
	return out, err
}

// Purchase settles a listing exactly once: buyer debited the face price,
// seller credited their share plus the flat bonus, the remainder routed to
// the treasury. The per-guild transaction slot guarantees a listing can never
// produce two winners; the loser of a race sees ListingNotFound.
func (s *Service) Purchase(ctx context.Context, guildID, buyerID, listingID string) (PurchaseResult, error) {
	var out PurchaseResult
	err := s.withGuild(ctx, guildID, func(l *GuildLedger, now time.Time) error {
		i, listing := l.listing(listingID)
		if listing == nil {
			return fmt.Errorf("%w: %s", ErrListingNotFound, listingID)
		}
		buyer := l.account(buyerID, now)
		if buyer.Balance < listing.Price {
			return fmt.Errorf("%w: balance %d, need %d", ErrInsufficientFunds, buyer.Balance, listing.Price)
		}
		if l.itemCount(buyerID) >= s.tuning.MaxItemsPerAccount {
			return fmt.Errorf("%w: at most %d items", ErrInventoryFull, s.tuning.MaxItemsPerAccount)
		}

		payout := s.tuning.SellerPayout(listing.Price)
		remainder := listing.Price - payout

		// Settlement must net to zero external change: price leaves the buyer,
		// payout reaches the seller, the remainder lands in the reserve. A
		// negative remainder means the treasury funds the flat bonus; the
		// reserve absorbs it and floor-refills via mint if needed.
		buyer.Balance -= listing.Price
		l.credit(listing.SellerID, payout, now)
		l.Treasury.Reserve += remainder
		l.refillReserve()
		if remainder > 0 {
			l.Treasury.TradeFees += remainder
		}

		item := listing.Item
		item.OwnerID = buyerID
		l.Items[item.ID] = item
		l.removeListing(i)

		out = PurchaseResult{
			Item:         s.itemView(item),
			Price:        listing.Price,
			SellerID:     listing.SellerID,
			SellerPayout: payout,
			TreasuryCut:  remainder,
			Balance:      buyer.Balance,
		}
		return nil
	})
	if err != nil {
		return PurchaseResult{}, err
	}
	s.log.Info("listing purchased",
		"guild_id", guildID, "listing_id", listingID,
		"buyer_id", buyerID, "seller_id", out.SellerID, "price", out.Price)
	return out, nil
}

// Browse returns the active listings from a read-consistent snapshot; it does
// not take the guild's transaction slot.
func (s *Service) Browse(ctx context.Context, guildID string) ([]ListingView, error) {
	ledger, err := s.snapshot(ctx, guildID)
	if err != nil {
		return nil, err
	}
	out := make([]ListingView, 0, len(ledger.Listings))
	for _, ls := range ledger.Listings {
		out = append(out, s.listingView(ls))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
