package economy

import (
	"fmt"
	"time"
)

// Account is a user's balance within one guild. DisplayName is a render cache
// refreshed opportunistically by mutating operations; it is never an identity.
type Account struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name,omitempty"`
	Balance     int64     `json:"balance"`
	LastClaimAt time.Time `json:"last_claim_at,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Item is identified by an opaque ID; the display name is a free attribute
// and two items may share it. An item is held by exactly one account or
// escrowed in exactly one listing, never both.
type Item struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id,omitempty"`
	Name      string    `json:"name"`
	Grade     int       `json:"grade"`
	Level     int       `json:"level"`
	CreatedAt time.Time `json:"created_at"`
}

// MarketListing escrows an item between list and purchase/cancel. The
// embedded item has no owner while listed.
type MarketListing struct {
	ID        string    `json:"id"`
	Item      *Item     `json:"item"`
	SellerID  string    `json:"seller_id"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

// GuildLedger is the aggregate persisted and loaded as a single unit per
// guild. It is only ever touched inside the guild's exclusive transaction.
type GuildLedger struct {
	SchemaVersion int                 `json:"schema_version"`
	Accounts      map[string]*Account `json:"accounts"`
	Items         map[string]*Item    `json:"items"`
	Listings      []*MarketListing    `json:"listings"`
	Treasury      Treasury            `json:"treasury"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// NewGuildLedger returns an empty, uninitialized ledger. The coordinator
// seeds the treasury on first use (CreatedAt still zero).
func NewGuildLedger() *GuildLedger {
	return &GuildLedger{
		SchemaVersion: SchemaVersion,
		Accounts:      map[string]*Account{},
		Items:         map[string]*Item{},
		Listings:      []*MarketListing{},
	}
}

func (l *GuildLedger) init(now time.Time, initialReserve int64) {
	l.SchemaVersion = SchemaVersion
	l.CreatedAt = now
	l.mint(initialReserve)
}

// normalize repairs nil maps after decoding hand-edited or legacy records.
func (l *GuildLedger) normalize() {
	if l.Accounts == nil {
		l.Accounts = map[string]*Account{}
	}
	if l.Items == nil {
		l.Items = map[string]*Item{}
	}
	if l.Listings == nil {
		l.Listings = []*MarketListing{}
	}
}

// account lazily creates the row on first economic action.
func (l *GuildLedger) account(userID string, now time.Time) *Account {
	a, ok := l.Accounts[userID]
	if !ok {
		a = &Account{UserID: userID, CreatedAt: now}
		l.Accounts[userID] = a
	}
	return a
}

func (l *GuildLedger) credit(userID string, amount int64, now time.Time) *Account {
	a := l.account(userID, now)
	a.Balance += amount
	return a
}

func (l *GuildLedger) debit(userID string, amount int64, now time.Time) (*Account, error) {
	a := l.account(userID, now)
	if a.Balance < amount {
		return nil, fmt.Errorf("%w: balance %d, need %d", ErrInsufficientFunds, a.Balance, amount)
	}
	a.Balance -= amount
	return a, nil
}

func (l *GuildLedger) itemCount(userID string) int {
	n := 0
	for _, it := range l.Items {
		if it.OwnerID == userID {
			n++
		}
	}
	return n
}

func (l *GuildLedger) listing(listingID string) (int, *MarketListing) {
	for i, ls := range l.Listings {
		if ls.ID == listingID {
			return i, ls
		}
	}
	return -1, nil
}

func (l *GuildLedger) removeListing(i int) {
	l.Listings = append(l.Listings[:i], l.Listings[i+1:]...)
}

