package economy

import (
	"fmt"
	"time"
)

// Treasury is the system side of the closed economy. Reserve is the
// unconditional counterparty for rewards and fees; Minted/Burned record every
// point that entered or left the system so conservation can be audited.
type Treasury struct {
	Reserve   int64 `json:"reserve"`
	TradeFees int64 `json:"trade_fees"`
	Minted    int64 `json:"minted"`
	Burned    int64 `json:"burned"`
}

// mint and burn are the only two primitives that change total system value.
// Everything else is a transfer between existing holders.
func (l *GuildLedger) mint(amount int64) {
	l.Treasury.Reserve += amount
	l.Treasury.Minted += amount
}

func (l *GuildLedger) burn(amount int64) {
	l.Treasury.Reserve -= amount
	l.Treasury.Burned += amount
	l.refillReserve()
}

// payFromReserve moves value from the treasury to an account. The reserve is
// floor-refilled if the outflow would take it negative: the system is the
// unconditional counterparty for rewards.
func (l *GuildLedger) payFromReserve(userID string, amount int64, now time.Time) *Account {
	l.Treasury.Reserve -= amount
	l.refillReserve()
	return l.credit(userID, amount, now)
}

// payToReserve moves value from an account into the treasury.
func (l *GuildLedger) payToReserve(userID string, amount int64, now time.Time) (*Account, error) {
	a, err := l.debit(userID, amount, now)
	if err != nil {
		return nil, err
	}
	l.Treasury.Reserve += amount
	return a, nil
}

func (l *GuildLedger) refillReserve() {
	if l.Treasury.Reserve < 0 {
		l.mint(-l.Treasury.Reserve)
	}
}

// CirculatingSupply sums every account balance.
func (l *GuildLedger) CirculatingSupply() int64 {
	var sum int64
	for _, a := range l.Accounts {
		sum += a.Balance
	}
	return sum
}

// MarketValue sums the face prices of active listings.
func (l *GuildLedger) MarketValue() int64 {
	var sum int64
	for _, ls := range l.Listings {
		sum += ls.Price
	}
	return sum
}

// TotalValue is everything inside the closed system: balances plus reserve.
// It must always equal Minted - Burned.
func (l *GuildLedger) TotalValue() int64 {
	return l.CirculatingSupply() + l.Treasury.Reserve
}

// Audit verifies the ledger's structural invariants and returns every
// violation found. An empty result means the ledger is sound.
func (l *GuildLedger) Audit(maxItemsPerAccount int) []string {
	var problems []string

	if got, want := l.TotalValue(), l.Treasury.Minted-l.Treasury.Burned; got != want {
		problems = append(problems, fmt.Sprintf("value not conserved: total %d, minted-burned %d", got, want))
	}
	for id, a := range l.Accounts {
		if a.Balance < 0 {
			problems = append(problems, fmt.Sprintf("account %s has negative balance %d", id, a.Balance))
		}
	}
	for id, it := range l.Items {
		if it.ID != id {
			problems = append(problems, fmt.Sprintf("item %s stored under key %s", it.ID, id))
		}
		if it.OwnerID == "" {
			problems = append(problems, fmt.Sprintf("owned item %s has no owner", id))
			continue
		}
		if _, ok := l.Accounts[it.OwnerID]; !ok {
			problems = append(problems, fmt.Sprintf("item %s owned by unknown account %s", id, it.OwnerID))
		}
	}
	for _, ls := range l.Listings {
		if ls.Item == nil {
			problems = append(problems, fmt.Sprintf("listing %s has no item", ls.ID))
			continue
		}
		if ls.Item.OwnerID != "" {
			problems = append(problems, fmt.Sprintf("escrowed item %s still has owner %s", ls.Item.ID, ls.Item.OwnerID))
		}
		if _, ok := l.Items[ls.Item.ID]; ok {
			problems = append(problems, fmt.Sprintf("item %s is both owned and listed", ls.Item.ID))
		}
		if ls.Price <= 0 {
			problems = append(problems, fmt.Sprintf("listing %s has non-positive price %d", ls.ID, ls.Price))
		}
	}
	counts := map[string]int{}
	for _, it := range l.Items {
		counts[it.OwnerID]++
	}
	for owner, n := range counts {
		if n > maxItemsPerAccount {
			problems = append(problems, fmt.Sprintf("account %s holds %d items, cap %d", owner, n, maxItemsPerAccount))
		}
	}
	return problems
}
