package economy

import "time"

type BalanceView struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	Balance     int64  `json:"balance"`
}

type ItemView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Grade     int       `json:"grade"`
	GradeName string    `json:"grade_name"`
	Level     int       `json:"level"`
	CreatedAt time.Time `json:"created_at"`
}

type ListingView struct {
	ID        string    `json:"id"`
	Item      ItemView  `json:"item"`
	SellerID  string    `json:"seller_id"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

type DailyResult struct {
	Amount      int64     `json:"amount"`
	Balance     int64     `json:"balance"`
	NextClaimAt time.Time `json:"next_claim_at"`
}

type CraftResult struct {
	Item    ItemView `json:"item"`
	Cost    int64    `json:"cost"`
	Balance int64    `json:"balance"`
}

// EnhanceOutcome names the three branches of the enhancement roll.
type EnhanceOutcome string

const (
	OutcomeSuccess   EnhanceOutcome = "success"
	OutcomeDemoted   EnhanceOutcome = "demoted"
	OutcomeDestroyed EnhanceOutcome = "destroyed"
)

type EnhanceResult struct {
	Outcome EnhanceOutcome `json:"outcome"`
	GradeUp bool           `json:"grade_up"`
	Item    *ItemView      `json:"item,omitempty"` // nil when destroyed
	Cost    int64          `json:"cost"`
	Balance int64          `json:"balance"`
}

type ListResult struct {
	Listing ListingView `json:"listing"`
	Fee     int64       `json:"fee"`
	Balance int64       `json:"balance"`
}

type PurchaseResult struct {
	Item         ItemView `json:"item"`
	Price        int64    `json:"price"`
	SellerID     string   `json:"seller_id"`
	SellerPayout int64    `json:"seller_payout"`
	TreasuryCut  int64    `json:"treasury_cut"`
	Balance      int64    `json:"balance"` // buyer's balance after settlement
}

type LeaderboardRow struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	Balance     int64  `json:"balance"`
}

// AssetReport is the "what is the bot worth" figure: the reserve plus the
// face value of escrowed listings. Circulating supply is reported alongside
// but not summed into Total.
type AssetReport struct {
	GuildID     string `json:"guild_id"`
	Reserve     int64  `json:"reserve"`
	Circulating int64  `json:"circulating"`
	MarketValue int64  `json:"market_value"`
	TradeFees   int64  `json:"trade_fees"`
	Total       int64  `json:"total"`
}
