// Package main provides a command-line client for the card service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"arzmania-cards/internal/api"
	"arzmania-cards/internal/constants"
)

const usage = `usage: cardctl [-addr URL] <command> [flags]

commands:
  loot       draw a card          (-user)
  duel       challenge a player   (-user -opponent -card [-against])
  stats      duel statistics      (-user)
  cards      list the catalog     ([-rarity])
  show       show one card        (-name)
  fav        pick favorite card   (-user -card)
  inventory  list owned cards     (-user)
  reset      reset loot cooldown  (-user)
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet("cardctl", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	addr := global.String("addr", envOr("CARDS_ADDR", "http://localhost:8080"), "card service base URL")
	timeout := global.Duration("timeout", constants.ClientTimeout, "request timeout")
	if err := global.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if global.NArg() == 0 {
		return errUsage
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	client := api.NewClient(*addr)
	cmd, rest := global.Arg(0), global.Args()[1:]

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	user := fs.Int64("user", 0, "participant id")

	switch cmd {
	case "loot":
		if err := parse(fs, rest, user); err != nil {
			return err
		}
		resp, err := client.DrawLoot(ctx, &api.DrawLootRequest{UserID: *user})
		if err != nil {
			return err
		}
		if !resp.Allowed {
			fmt.Fprintf(out, "on cooldown, next loot in %s\n", resp.Remaining().Round(time.Second))
			return nil
		}
		fmt.Fprintf(out, "looted %s [%s] %d/%d\n", resp.Card.Name, resp.Card.Rarity, resp.Card.Power, resp.Card.Protection)

	case "duel":
		opponent := fs.Int64("opponent", 0, "opponent id")
		card := fs.String("card", "", "card to play")
		against := fs.String("against", "", "opponent card (random when empty)")
		if err := parse(fs, rest, user); err != nil {
			return err
		}
		resp, err := client.Duel(ctx, &api.DuelRequest{
			ChallengerID:   *user,
			OpponentID:     *opponent,
			ChallengerCard: *card,
			OpponentCard:   *against,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s vs %s\n", resp.ChallengerCard.Name, resp.OpponentCard.Name)
		for _, r := range resp.Rounds {
			note := ""
			if r.CoinFlip {
				note = " (coin flip)"
			}
			fmt.Fprintf(out, "  round %d %-10s %d-%d  %s%s\n", r.Index, r.Category, r.Challenger, r.Opponent, r.Winner, note)
		}
		fmt.Fprintf(out, "winner: %s (%d-%d), record %d-%d\n",
			resp.Winner, resp.ChallengerWins, resp.OpponentWins, resp.Record.Wins, resp.Record.Losses)

	case "stats":
		if err := parse(fs, rest, user); err != nil {
			return err
		}
		resp, err := client.GetStats(ctx, &api.GetStatsRequest{UserID: *user})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "duels %d  wins %d  losses %d  win rate %.1f%%\n", resp.TotalDuels, resp.Wins, resp.Losses, resp.WinRate)
		fmt.Fprintf(out, "loots %d  cards %d (%d/%d distinct)\n", resp.LootCount, resp.TotalCards, resp.DistinctCards, resp.CatalogSize)
		if resp.Favorite != nil {
			fmt.Fprintf(out, "favorite %s [%s]\n", resp.Favorite.Name, resp.Favorite.Rarity)
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, r := range resp.Rivals {
			fmt.Fprintf(tw, "  %d\t%d-%d\t(%d)\n", r.OpponentID, r.Wins, r.Losses, r.Total)
		}
		return tw.Flush()

	case "cards":
		rarity := fs.String("rarity", "", "only this tier")
		if err := fs.Parse(rest); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		resp, err := client.ListCards(ctx, &api.ListCardsRequest{Rarity: *rarity})
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, c := range resp.Cards {
			fmt.Fprintf(tw, "%s\t%s\t%d/%d\n", c.Rarity, c.Name, c.Power, c.Protection)
		}
		return tw.Flush()

	case "show":
		name := fs.String("name", "", "card name")
		if err := fs.Parse(rest); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		if *name == "" {
			return fmt.Errorf("%w: -name is required", errUsage)
		}
		resp, err := client.GetCard(ctx, &api.GetCardRequest{Name: *name})
		if err != nil {
			return err
		}
		c := resp.Card
		fmt.Fprintf(out, "%s [%s]\npower %d  protection %d\n", c.Name, c.Rarity, c.Power, c.Protection)
		if c.ImageURL != "" {
			fmt.Fprintln(out, c.ImageURL)
		}

	case "fav":
		card := fs.String("card", "", "owned card name")
		if err := parse(fs, rest, user); err != nil {
			return err
		}
		resp, err := client.SetFavorite(ctx, &api.SetFavoriteRequest{UserID: *user, CardName: *card})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "favorite set to %s [%s]\n", resp.Card.Name, resp.Card.Rarity)

	case "inventory":
		if err := parse(fs, rest, user); err != nil {
			return err
		}
		resp, err := client.ListInventory(ctx, &api.ListInventoryRequest{UserID: *user})
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, o := range resp.Items {
			fmt.Fprintf(tw, "%s\t%s\tx%d\n", o.Card.Rarity, o.Card.Name, o.Quantity)
		}
		return tw.Flush()

	case "reset":
		if err := parse(fs, rest, user); err != nil {
			return err
		}
		if _, err := client.ResetCooldown(ctx, &api.ResetCooldownRequest{UserID: *user, Privileged: true}); err != nil {
			return err
		}
		fmt.Fprintf(out, "cooldown reset for %d\n", *user)

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	return nil
}

// parse parses fs and requires -user.
func parse(fs *flag.FlagSet, args []string, user *int64) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *user == 0 {
		return fmt.Errorf("%w: -user is required", errUsage)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
