package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"alleycat/internal/economy"

	"github.com/fatih/color"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

type inventoryPayload struct {
	Items []economy.ItemView `json:"items"`
}

type listingsPayload struct {
	Listings []economy.ListingView `json:"listings"`
}

type leaderboardPayload struct {
	Rows []economy.LeaderboardRow `json:"rows"`
}

type itemPayload struct {
	Item economy.ItemView `json:"item"`
}

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func renderDaily(raw map[string]any) error {
	d, err := decodeInto[economy.DailyResult](raw)
	if err != nil {
		return err
	}
	printSuccess(fmt.Sprintf("Daily reward claimed: +%s points", comma(d.Amount)))
	fmt.Printf("Balance:    %s points\n", comma(d.Balance))
	fmt.Printf("Next claim: %s\n", d.NextClaimAt.Format("2006-01-02 15:04 MST"))
	return nil
}

func renderBalance(raw map[string]any) error {
	b, err := decodeInto[economy.BalanceView](raw)
	if err != nil {
		return err
	}
	name := b.DisplayName
	if name == "" {
		name = b.UserID
	}
	fmt.Printf("%s: %s points\n", name, comma(b.Balance))
	return nil
}

func renderInventory(raw map[string]any) error {
	payload, err := decodeInto[inventoryPayload](raw)
	if err != nil {
		return err
	}
	if len(payload.Items) == 0 {
		printInfo("Inventory is empty.")
		return nil
	}
	accent.Println("\nInventory")
	fmt.Printf("%-38s %-24s %-12s %6s\n", "ID", "NAME", "GRADE", "LEVEL")
	for _, it := range payload.Items {
		fmt.Printf("%-38s %-24s %-12s %6d\n", it.ID, truncate(it.Name, 24), it.GradeName, it.Level)
	}
	fmt.Println()
	return nil
}

func renderLeaderboard(raw map[string]any) error {
	payload, err := decodeInto[leaderboardPayload](raw)
	if err != nil {
		return err
	}
	if len(payload.Rows) == 0 {
		printInfo("No accounts yet.")
		return nil
	}
	accent.Println("\nLeaderboard")
	fmt.Printf("%4s %-24s %14s\n", "RANK", "USER", "BALANCE")
	for _, row := range payload.Rows {
		name := row.DisplayName
		if name == "" {
			name = row.UserID
		}
		fmt.Printf("%4d %-24s %14s\n", row.Rank, truncate(name, 24), comma(row.Balance))
	}
	fmt.Println()
	return nil
}

func renderCraft(raw map[string]any) error {
	c, err := decodeInto[economy.CraftResult](raw)
	if err != nil {
		return err
	}
	printSuccess(fmt.Sprintf("Crafted %q (%s) for %s points", c.Item.Name, c.Item.GradeName, comma(c.Cost)))
	fmt.Printf("Item ID: %s\n", c.Item.ID)
	fmt.Printf("Balance: %s points\n", comma(c.Balance))
	return nil
}

func renderItem(raw map[string]any) error {
	// The API returns either an item object directly or one wrapped
	// under "item" (cancel responses).
	it, err := decodeInto[economy.ItemView](raw)
	if err != nil || it.ID == "" {
		wrapped, werr := decodeInto[itemPayload](raw)
		if werr != nil {
			return werr
		}
		it = wrapped.Item
	}
	fmt.Printf("Item:  %s\n", it.Name)
	fmt.Printf("ID:    %s\n", it.ID)
	fmt.Printf("Grade: %s\n", it.GradeName)
	fmt.Printf("Level: %d\n", it.Level)
	return nil
}

func renderEnhance(raw map[string]any) error {
	e, err := decodeInto[economy.EnhanceResult](raw)
	if err != nil {
		return err
	}
	switch e.Outcome {
	case economy.OutcomeSuccess:
		if e.GradeUp {
			printSuccess(fmt.Sprintf("Enhance succeeded, grade up! Now %s level %d.", e.Item.GradeName, e.Item.Level))
		} else {
			printSuccess(fmt.Sprintf("Enhance succeeded. Now level %d.", e.Item.Level))
		}
	case economy.OutcomeDemoted:
		printWarn(fmt.Sprintf("Enhance failed. Dropped to level %d.", e.Item.Level))
	case economy.OutcomeDestroyed:
		danger.Println("The item shattered.")
	default:
		printInfo(string(e.Outcome))
	}
	fmt.Printf("Cost:    %s points\n", comma(e.Cost))
	fmt.Printf("Balance: %s points\n", comma(e.Balance))
	return nil
}

func renderListings(raw map[string]any) error {
	payload, err := decodeInto[listingsPayload](raw)
	if err != nil {
		return err
	}
	if len(payload.Listings) == 0 {
		printInfo("Market is empty.")
		return nil
	}
	accent.Println("\nMarket")
	fmt.Printf("%-38s %-24s %-12s %6s %12s %-18s\n", "LISTING", "ITEM", "GRADE", "LEVEL", "PRICE", "SELLER")
	for _, l := range payload.Listings {
		fmt.Printf("%-38s %-24s %-12s %6d %12s %-18s\n",
			l.ID,
			truncate(l.Item.Name, 24),
			l.Item.GradeName,
			l.Item.Level,
			comma(l.Price),
			truncate(l.SellerID, 18),
		)
	}
	fmt.Println()
	return nil
}

func renderListResult(raw map[string]any) error {
	r, err := decodeInto[economy.ListResult](raw)
	if err != nil {
		return err
	}
	printSuccess(fmt.Sprintf("Listed %q for %s points (fee %s)", r.Listing.Item.Name, comma(r.Listing.Price), comma(r.Fee)))
	fmt.Printf("Listing ID: %s\n", r.Listing.ID)
	fmt.Printf("Balance:    %s points\n", comma(r.Balance))
	return nil
}

func renderPurchase(raw map[string]any) error {
	p, err := decodeInto[economy.PurchaseResult](raw)
	if err != nil {
		return err
	}
	printSuccess(fmt.Sprintf("Bought %q for %s points", p.Item.Name, comma(p.Price)))
	fmt.Printf("Seller:        %s (paid %s)\n", p.SellerID, comma(p.SellerPayout))
	fmt.Printf("Treasury cut:  %s\n", comma(p.TreasuryCut))
	fmt.Printf("Balance:       %s points\n", comma(p.Balance))
	return nil
}

func renderAsset(raw map[string]any) error {
	a, err := decodeInto[economy.AssetReport](raw)
	if err != nil {
		return err
	}
	accent.Printf("\n== TREASURY (%s) ==\n", a.GuildID)
	fmt.Printf("Reserve:       %s points\n", comma(a.Reserve))
	fmt.Printf("Circulating:   %s points\n", comma(a.Circulating))
	fmt.Printf("Market value:  %s points\n", comma(a.MarketValue))
	fmt.Printf("Trade fees:    %s points\n", comma(a.TradeFees))
	fmt.Printf("Total:         %s points\n", comma(a.Total))
	fmt.Println()
	return nil
}

func decodeInto[T any](in any) (T, error) {
	var out T
	raw, err := json.Marshal(in)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

func comma(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return sign + s
	}
	var b strings.Builder
	b.WriteString(sign)
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		b.WriteByte(',')
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
