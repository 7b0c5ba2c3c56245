package economy

import (
	"errors"
	"strings"
	"time"
)

const (
	// SchemaVersion is bumped whenever the persisted ledger shape changes.
	SchemaVersion = 1

	MaxItemNameLen = 48
)

// RewardZone is the fixed reference timezone for daily-reward day boundaries.
// Using a constant offset keeps the boundary stable regardless of where the
// process runs or whether tzdata is present.
var RewardZone = time.FixedZone("KST", 9*60*60)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrItemNotFound      = errors.New("item not found")
	ErrInventoryFull     = errors.New("inventory full")
	ErrMaxLevelReached   = errors.New("item is at max enhancement level")
	ErrListingNotFound   = errors.New("listing not found")
	ErrAlreadyClaimed    = errors.New("daily reward already claimed")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrStorageTimeout    = errors.New("storage operation timed out")
	ErrStorageCorrupt    = errors.New("stored ledger is corrupt")
)

func validateItemName(name string) error {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return errors.New("item name is required")
	}
	if len(clean) > MaxItemNameLen {
		return errors.New("item name too long")
	}
	return nil
}
