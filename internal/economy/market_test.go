package economy

import (
	"context"
	"errors"
	"testing"
)

func marketFixture(t *testing.T) (*Service, context.Context, string) {
	t.Helper()
	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Grant(ctx, "g1", "seller", "", 10_000); err != nil {
		t.Fatalf("grant seller: %v", err)
	}
	crafted, err := svc.CraftItem(ctx, "g1", "seller", "Alley Blade")
	if err != nil {
		t.Fatalf("craft: %v", err)
	}
	return svc, ctx, crafted.Item.ID
}

func TestListChargesFeeAndEscrows(t *testing.T) {
	svc, ctx, itemID := marketFixture(t)

	before, _ := svc.Balance(ctx, "g1", "seller")
	out, err := svc.ListItem(ctx, "g1", "seller", itemID, 1000)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if out.Fee != 100 {
		t.Fatalf("fee=%d want=100", out.Fee)
	}
	if out.Balance != before.Balance-100 {
		t.Fatalf("balance=%d want=%d", out.Balance, before.Balance-100)
	}

	// The item is escrowed: gone from the inventory, visible on the market,
	// and no longer enhanceable.
	items, _ := svc.Inventory(ctx, "g1", "seller")
	if len(items) != 0 {
		t.Fatalf("escrowed item still in inventory: %+v", items)
	}
	listings, err := svc.Browse(ctx, "g1")
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	if len(listings) != 1 || listings[0].Item.ID != itemID {
		t.Fatalf("market missing escrowed item: %+v", listings)
	}
	if _, err := svc.EnhanceItem(ctx, "g1", "seller", itemID); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("escrowed item enhanceable: %v", err)
	}

	report, _ := svc.ReportAsset(ctx, "g1")
	if report.TradeFees != 100 {
		t.Fatalf("trade_fees=%d want=100", report.TradeFees)
	}
}

func TestListRejectsBadPriceAndForeignItem(t *testing.T) {
	svc, ctx, itemID := marketFixture(t)

	for _, price := range []int64{0, -10} {
		if _, err := svc.ListItem(ctx, "g1", "seller", itemID, price); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("price %d: want ErrInvalidArgument, got %v", price, err)
		}
	}
	if _, err := svc.ListItem(ctx, "g1", "stranger", itemID, 100); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("foreign listing: want ErrItemNotFound, got %v", err)
	}
}

func TestCancelReturnsItemWithoutRefund(t *testing.T) {
	svc, ctx, itemID := marketFixture(t)

	listed, err := svc.ListItem(ctx, "g1", "seller", itemID, 1000)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	afterList, _ := svc.Balance(ctx, "g1", "seller")

	if _, err := svc.CancelListing(ctx, "g1", "stranger", listed.Listing.ID); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("foreign cancel: want ErrListingNotFound, got %v", err)
	}

	item, err := svc.CancelListing(ctx, "g1", "seller", listed.Listing.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if item.ID != itemID {
		t.Fatalf("returned item %s want %s", item.ID, itemID)
	}
	afterCancel, _ := svc.Balance(ctx, "g1", "seller")
	if afterCancel.Balance != afterList.Balance {
		t.Fatalf("cancel refunded the fee: %d -> %d", afterList.Balance, afterCancel.Balance)
	}
	listings, _ := svc.Browse(ctx, "g1")
	if len(listings) != 0 {
		t.Fatalf("cancelled listing still visible: %+v", listings)
	}
}

func TestCancelBlockedByFullInventory(t *testing.T) {
	svc, ctx, itemID := marketFixture(t)

	listed, err := svc.ListItem(ctx, "g1", "seller", itemID, 1000)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := svc.CraftItem(ctx, "g1", "seller", "Filler"); err != nil {
			t.Fatalf("craft %d: %v", i, err)
		}
	}
	if _, err := svc.CancelListing(ctx, "g1", "seller", listed.Listing.ID); !errors.Is(err, ErrInventoryFull) {
		t.Fatalf("want ErrInventoryFull, got %v", err)
	}
}

func TestPurchaseSettlement(t *testing.T) {
	svc, ctx, itemID := marketFixture(t)

	listed, err := svc.ListItem(ctx, "g1", "seller", itemID, 1000)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := svc.Grant(ctx, "g1", "buyer", "", 1500); err != nil {
		t.Fatalf("grant buyer: %v", err)
	}
	sellerBefore, _ := svc.Balance(ctx, "g1", "seller")

	out, err := svc.Purchase(ctx, "g1", "buyer", listed.Listing.ID)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	// At 1000 the 90% share plus the flat 100 bonus equals the full price,
	// so the treasury cut is zero.
	if out.SellerPayout != 1000 || out.TreasuryCut != 0 {
		t.Fatalf("payout=%d cut=%d", out.SellerPayout, out.TreasuryCut)
	}
	if out.Balance != 500 {
		t.Fatalf("buyer balance=%d want=500", out.Balance)
	}
	sellerAfter, _ := svc.Balance(ctx, "g1", "seller")
	if sellerAfter.Balance != sellerBefore.Balance+1000 {
		t.Fatalf("seller %d -> %d, want +1000", sellerBefore.Balance, sellerAfter.Balance)
	}

	items, _ := svc.Inventory(ctx, "g1", "buyer")
	if len(items) != 1 || items[0].ID != itemID {
		t.Fatalf("buyer did not receive the item: %+v", items)
	}
	listings, _ := svc.Browse(ctx, "g1")
	if len(listings) != 0 {
		t.Fatalf("sold listing still visible: %+v", listings)
	}
}

func TestPurchaseRoutesRemainderToTreasury(t *testing.T) {
	svc, ctx, itemID := marketFixture(t)

	listed, err := svc.ListItem(ctx, "g1", "seller", itemID, 5000)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := svc.Grant(ctx, "g1", "buyer", "", 5000); err != nil {
		t.Fatalf("grant buyer: %v", err)
	}
	feesBefore, _ := svc.ReportAsset(ctx, "g1")

	out, err := svc.Purchase(ctx, "g1", "buyer", listed.Listing.ID)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	// payout = 4500 + 100, remainder = 400.
	if out.SellerPayout != 4600 || out.TreasuryCut != 400 {
		t.Fatalf("payout=%d cut=%d", out.SellerPayout, out.TreasuryCut)
	}
	feesAfter, _ := svc.ReportAsset(ctx, "g1")
	if feesAfter.TradeFees != feesBefore.TradeFees+400 {
		t.Fatalf("trade_fees %d -> %d, want +400", feesBefore.TradeFees, feesAfter.TradeFees)
	}

	violations, _ := svc.AuditGuild(ctx, "g1")
	if len(violations) != 0 {
		t.Fatalf("audit violations: %v", violations)
	}
}

func TestPurchaseCheapListingBonusFundedByTreasury(t *testing.T) {
	svc, ctx, itemID := marketFixture(t)

	listed, err := svc.ListItem(ctx, "g1", "seller", itemID, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := svc.Grant(ctx, "g1", "buyer", "", 100); err != nil {
		t.Fatalf("grant buyer: %v", err)
	}
	feesBefore, _ := svc.ReportAsset(ctx, "g1")

	out, err := svc.Purchase(ctx, "g1", "buyer", listed.Listing.ID)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	// payout = 9 + 100 exceeds the price; the treasury funds the difference
	// and the fee bucket stays put.
	if out.SellerPayout != 109 || out.TreasuryCut != -99 {
		t.Fatalf("payout=%d cut=%d", out.SellerPayout, out.TreasuryCut)
	}
	feesAfter, _ := svc.ReportAsset(ctx, "g1")
	if feesAfter.TradeFees != feesBefore.TradeFees {
		t.Fatalf("negative remainder leaked into trade_fees: %d -> %d", feesBefore.TradeFees, feesAfter.TradeFees)
	}

	violations, _ := svc.AuditGuild(ctx, "g1")
	if len(violations) != 0 {
		t.Fatalf("audit violations: %v", violations)
	}
}

func TestPurchaseInsufficientFundsAndFullInventory(t *testing.T) {
	svc, ctx, itemID := marketFixture(t)

	listed, err := svc.ListItem(ctx, "g1", "seller", itemID, 1000)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if _, err := svc.Grant(ctx, "g1", "poor", "", 500); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if _, err := svc.Purchase(ctx, "g1", "poor", listed.Listing.ID); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("want ErrInsufficientFunds, got %v", err)
	}

	if _, err := svc.Grant(ctx, "g1", "hoarder", "", 10_000); err != nil {
		t.Fatalf("grant: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := svc.CraftItem(ctx, "g1", "hoarder", "Filler"); err != nil {
			t.Fatalf("craft %d: %v", i, err)
		}
	}
	if _, err := svc.Purchase(ctx, "g1", "hoarder", listed.Listing.ID); !errors.Is(err, ErrInventoryFull) {
		t.Fatalf("want ErrInventoryFull, got %v", err)
	}

	// The listing survives both failed attempts.
	listings, _ := svc.Browse(ctx, "g1")
	if len(listings) != 1 {
		t.Fatalf("listing lost after failed purchases: %+v", listings)
	}
}

func TestPurchaseUnknownListing(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Purchase(context.Background(), "g1", "buyer", "nope"); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("want ErrListingNotFound, got %v", err)
	}
}

func TestSelfPurchase(t *testing.T) {
	svc, ctx, itemID := marketFixture(t)

	listed, err := svc.ListItem(ctx, "g1", "seller", itemID, 1000)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	before, _ := svc.Balance(ctx, "g1", "seller")

	out, err := svc.Purchase(ctx, "g1", "seller", listed.Listing.ID)
	if err != nil {
		t.Fatalf("self purchase: %v", err)
	}
	// Buying your own listing nets the payout minus the price.
	after, _ := svc.Balance(ctx, "g1", "seller")
	if after.Balance != before.Balance-out.Price+out.SellerPayout {
		t.Fatalf("self purchase balance %d -> %d", before.Balance, after.Balance)
	}
	items, _ := svc.Inventory(ctx, "g1", "seller")
	if len(items) != 1 || items[0].ID != itemID {
		t.Fatalf("item not returned to seller: %+v", items)
	}
}
