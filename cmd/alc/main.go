package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	cl "alleycat/internal/cli"
	"alleycat/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL
	token := cfg.APIToken
	guildID := strings.TrimSpace(os.Getenv("ALC_GUILD_ID"))

	root := &cobra.Command{
		Use:          "alc",
		Short:        "Alleycat guild economy client",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "api", apiBase, "API base URL")
	root.PersistentFlags().StringVar(&guildID, "guild", guildID, "guild ID (or set ALC_GUILD_ID)")

	root.AddCommand(
		newDailyCmd(&apiBase, &token, &guildID),
		newBalanceCmd(&apiBase, &token, &guildID),
		newGrantCmd(&apiBase, &token, &guildID),
		newInventoryCmd(&apiBase, &token, &guildID),
		newLeaderboardCmd(&apiBase, &token, &guildID),
		newCraftCmd(&apiBase, &token, &guildID),
		newItemCmd(&apiBase, &token, &guildID),
		newEnhanceCmd(&apiBase, &token, &guildID),
		newMarketCmd(&apiBase, &token, &guildID),
		newAssetCmd(&apiBase, &token, &guildID),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase, token *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"), strings.TrimSpace(*token))
}

func requireGuild(guildID *string) (string, error) {
	id := strings.TrimSpace(*guildID)
	if id == "" {
		return "", fmt.Errorf("guild ID required: pass --guild or set ALC_GUILD_ID")
	}
	return id, nil
}

func callCtx(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func newDailyCmd(apiBase, token, guildID *string) *cobra.Command {
	var displayName string
	cmd := &cobra.Command{
		Use:   "daily <user-id>",
		Short: "Claim the daily reward",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			guild, err := requireGuild(guildID)
			if err != nil {
				return err
			}
			ctx, cancel := callCtx(cmd)
			defer cancel()
			raw, err := newClient(apiBase, token).Daily(ctx, guild, args[0], displayName)
			if err != nil {
				return err
			}
			return renderDaily(raw)
		},
	}
	cmd.Flags().StringVar(&displayName, "name", "", "display name to record on the account")
	return cmd
}

func newBalanceCmd(apiBase, token, guildID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <user-id>",
		Short: "Show an account balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			guild, err := requireGuild(guildID)
			if err != nil {
				return err
			}
			ctx, cancel := callCtx(cmd)
			defer cancel()
			raw, err := newClient(apiBase, token).Balance(ctx, guild, args[0])
			if err != nil {
				return err
			}
			return renderBalance(raw)
		},
	}
}

func newGrantCmd(apiBase, token, guildID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "grant <user-id> [amount]",
		Short: "Grant points to an account from the reserve",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			guild, err := requireGuild(guildID)
			if err != nil {
				return err
			}
			var amount int64
			if len(args) == 2 {
				amount, err = strconv.ParseInt(args[1], 10, 64)
				if err != nil {
					return fmt.Errorf("amount must be a whole number: %w", err)
				}
			}
			ctx, cancel := callCtx(cmd)
			defer cancel()
			raw, err := newClient(apiBase, token).Grant(ctx, guild, args[0], amount)
			if err != nil {
				return err
			}
			return renderBalance(raw)
		},
	}
}

func newInventoryCmd(apiBase, token, guildID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "inventory <user-id>",
		Short: "List the items an account holds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			guild, err := requireGuild(guildID)
			if err != nil {
				return err
			}
			ctx, cancel := callCtx(cmd)
			defer cancel()
			raw, err := newClient(apiBase, token).Inventory(ctx, guild, args[0])
			if err != nil {
				return err
			}
			return renderInventory(raw)
		},
	}
}

func newLeaderboardCmd(apiBase, token, guildID *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the richest accounts in the guild",
		RunE: func(cmd *cobra.Command, args []string) error {
			guild, err := requireGuild(guildID)
			if err != nil {
				return err
			}
			ctx, cancel := callCtx(cmd)
			defer cancel()
			raw, err := newClient(apiBase, token).Leaderboard(ctx, guild, limit)
			if err != nil {
				return err
			}
			return renderLeaderboard(raw)
		},
	}
	cmd.Flags().IntVar(&limit, "top", 0, "number of rows (server default when 0)")
	return cmd
}

func newCraftCmd(apiBase, token, guildID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "craft <user-id> <name>",
		Short: "Craft a new base-grade item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			guild, err := requireGuild(guildID)
			if err != nil {
				return err
			}
			ctx, cancel := callCtx(cmd)
			defer cancel()
			raw, err := newClient(apiBase, token).Craft(ctx, guild, args[0], args[1])
			if err != nil {
				return err
			}
			return renderCraft(raw)
		},
	}
}

func newItemCmd(apiBase, token, guildID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "item <item-id>",
		Short: "Inspect a single item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			guild, err := requireGuild(guildID)
			if err != nil {
				return err
			}
			ctx, cancel := callCtx(cmd)
			defer cancel()
			raw, err := newClient(apiBase, token).ItemDetail(ctx, guild, args[0])
			if err != nil {
				return err
			}
			return renderItem(raw)
		},
	}
}

func newEnhanceCmd(apiBase, token, guildID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "enhance <user-id> <item-id>",
		Short: "Attempt to enhance an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			guild, err := requireGuild(guildID)
			if err != nil {
				return err
			}
			ctx, cancel := callCtx(cmd)
			defer cancel()
			raw, err := newClient(apiBase, token).Enhance(ctx, guild, args[0], args[1])
			if err != nil {
				return err
			}
			return renderEnhance(raw)
		},
	}
}

func newMarketCmd(apiBase, token, guildID *string) *cobra.Command {
	market := &cobra.Command{
		Use:   "market",
		Short: "Browse and trade on the guild market",
	}

	market.AddCommand(&cobra.Command{
		Use:   "browse",
		Short: "List open market listings",
		RunE: func(cmd *cobra.Command, args []string) error {
			guild, err := requireGuild(guildID)
			if err != nil {
				return err
			}
			ctx, cancel := callCtx(cmd)
			defer cancel()
			raw, err := newClient(apiBase, token).Browse(ctx, guild)
			if err != nil {
				return err
			}
			return renderListings(raw)
		},
	})

	market.AddCommand(&cobra.Command{
		Use:   "sell <seller-id> <item-id> <price>",
		Short: "Put an item up for sale",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			guild, err := requireGuild(guildID)
			if err != nil {
				return err
			}
			price, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("price must be a whole number: %w", err)
			}
			ctx, cancel := callCtx(cmd)
			defer cancel()
			raw, err := newClient(apiBase, token).Sell(ctx, guild, args[0], args[1], price)
			if err != nil {
				return err
			}
			return renderListResult(raw)
		},
	})

	market.AddCommand(&cobra.Command{
		Use:   "buy <buyer-id> <listing-id>",
		Short: "Purchase a listing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			guild, err := requireGuild(guildID)
			if err != nil {
				return err
			}
			ctx, cancel := callCtx(cmd)
			defer cancel()
			raw, err := newClient(apiBase, token).Buy(ctx, guild, args[0], args[1])
			if err != nil {
				return err
			}
			return renderPurchase(raw)
		},
	})

	market.AddCommand(&cobra.Command{
		Use:   "cancel <seller-id> <listing-id>",
		Short: "Withdraw a listing back into the seller's inventory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			guild, err := requireGuild(guildID)
			if err != nil {
				return err
			}
			ctx, cancel := callCtx(cmd)
			defer cancel()
			raw, err := newClient(apiBase, token).CancelListing(ctx, guild, args[0], args[1])
			if err != nil {
				return err
			}
			printSuccess("Listing cancelled. Item returned to inventory.")
			return renderItem(raw)
		},
	})

	return market
}

func newAssetCmd(apiBase, token, guildID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "asset",
		Short: "Show the guild treasury report",
		RunE: func(cmd *cobra.Command, args []string) error {
			guild, err := requireGuild(guildID)
			if err != nil {
				return err
			}
			ctx, cancel := callCtx(cmd)
			defer cancel()
			raw, err := newClient(apiBase, token).Asset(ctx, guild)
			if err != nil {
				return err
			}
			return renderAsset(raw)
		},
	}
}
