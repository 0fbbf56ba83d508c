package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"arzmania-cards/internal/catalog"
	"arzmania-cards/internal/clock"
	"arzmania-cards/internal/cooldown"
	"arzmania-cards/internal/database"
	"arzmania-cards/internal/domain"
	apperrors "arzmania-cards/internal/errors"
	"arzmania-cards/internal/ledger"
	"arzmania-cards/internal/loot"
	"arzmania-cards/internal/random"
	"arzmania-cards/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const testCooldown = 2 * time.Hour

type harness struct {
	clock     *clock.Manual
	rng       *random.Scripted
	catalog   *CatalogService
	loot      *LootService
	duel      *DuelService
	stats     *StatsService
	inventory *InventoryService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "cards.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	log := zerolog.Nop()
	clk := clock.NewManual(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	rng := &random.Scripted{}
	cat := catalog.New()
	items := repository.NewItemRepository(db, log)
	inv := repository.NewInventoryRepository(db, log)
	store := ledger.NewStore(ledger.NewMemoryBackend(), clk)
	gate := cooldown.NewGate(cooldown.NewMemoryBackend())

	lootSvc := NewLootService(loot.NewSelector(loot.DefaultTable(), rng), cat, gate, inv, clk, testCooldown, log)
	return &harness{
		clock:     clk,
		rng:       rng,
		catalog:   NewCatalogService(items, cat, log),
		loot:      lootSvc,
		duel:      NewDuelService(inv, store, rng, log),
		stats:     NewStatsService(store, inv, lootSvc, cat, 2, log),
		inventory: NewInventoryService(inv, cat, log),
	}
}

func (h *harness) addCard(t *testing.T, name string, rarity domain.Rarity, power, protection int) domain.Item {
	t.Helper()
	item, err := h.catalog.AddItem(context.Background(), true, domain.Item{Name: name, Rarity: rarity, Power: power, Protection: protection})
	if err != nil {
		t.Fatalf("AddItem(%q) error = %v", name, err)
	}
	return item
}

func (h *harness) grant(t *testing.T, to int64, name string) {
	t.Helper()
	if _, err := h.inventory.Grant(context.Background(), true, to, name, 1); err != nil {
		t.Fatalf("Grant(%d, %q) error = %v", to, name, err)
	}
}

func TestCatalogServicePrivileges(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	if _, err := h.catalog.AddItem(ctx, false, domain.Item{Name: "X", Rarity: domain.RarityC, Power: 1, Protection: 1}); !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("unprivileged AddItem() error = %v, want ErrForbidden", err)
	}
	if _, err := h.catalog.DeleteItem(ctx, false, "X"); !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("unprivileged DeleteItem() error = %v, want ErrForbidden", err)
	}
	if _, err := h.catalog.SetImage(ctx, false, "X", "u"); !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("unprivileged SetImage() error = %v, want ErrForbidden", err)
	}
}

func TestCatalogServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	h.addCard(t, "Slime", domain.RarityC, 1, 2)
	h.addCard(t, "Titan", domain.RarityLR, 6, 6)

	if got := h.catalog.List(""); len(got) != 2 {
		t.Fatalf("List() = %d cards, want 2", len(got))
	}
	if got := h.catalog.List(domain.RarityLR); len(got) != 1 || got[0].Name != "Titan" {
		t.Errorf("List(LR) = %+v, want only Titan", got)
	}

	updated, err := h.catalog.SetImage(ctx, true, "titan", " https://img.example/titan.png ")
	if err != nil {
		t.Fatalf("SetImage() error = %v", err)
	}
	if updated.ImageURL != "https://img.example/titan.png" {
		t.Errorf("ImageURL = %q", updated.ImageURL)
	}

	h.grant(t, 1, "Slime")
	if _, err := h.catalog.DeleteItem(ctx, true, "slime"); err != nil {
		t.Fatalf("DeleteItem() error = %v", err)
	}
	if got := h.catalog.List(""); len(got) != 1 {
		t.Errorf("List() after delete = %d cards, want 1", len(got))
	}
	owned, err := h.inventory.List(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(owned) != 0 {
		t.Errorf("inventory after delete = %+v, want empty", owned)
	}
	if _, err := h.catalog.DeleteItem(ctx, true, "slime"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("second DeleteItem() error = %v, want ErrNotFound", err)
	}
}

func TestLootServiceEmptyPoolKeepsCooldown(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	if _, err := h.loot.Draw(ctx, 1); !errors.Is(err, apperrors.ErrEmptyPool) {
		t.Fatalf("Draw() on empty catalog error = %v, want ErrEmptyPool", err)
	}
	status, err := h.loot.Status(ctx, 1)
	if err != nil || !status.Allowed {
		t.Errorf("Status() after empty draw = %+v, %v; want allowed", status, err)
	}
}

func TestLootServiceCooldown(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addCard(t, "Rat", domain.RarityC, 1, 1)

	res, err := h.loot.Draw(ctx, 1)
	if err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if !res.Allowed || res.Item.Name != "Rat" {
		t.Fatalf("Draw() = %+v, want Rat", res)
	}

	h.clock.Advance(30 * time.Minute)
	res, err = h.loot.Draw(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed || res.Remaining != 90*time.Minute {
		t.Errorf("Draw() inside cooldown = %+v, want denied with 90m left", res)
	}

	if err := h.loot.ResetCooldown(ctx, false, 1); !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("unprivileged ResetCooldown() error = %v, want ErrForbidden", err)
	}
	if err := h.loot.ResetCooldown(ctx, true, 1); err != nil {
		t.Fatal(err)
	}
	res, err = h.loot.Draw(ctx, 1)
	if err != nil || !res.Allowed {
		t.Fatalf("Draw() after reset = %+v, %v", res, err)
	}

	h.clock.Advance(testCooldown)
	res, err = h.loot.Draw(ctx, 1)
	if err != nil || !res.Allowed {
		t.Fatalf("Draw() after full cooldown = %+v, %v", res, err)
	}

	st, err := h.stats.Stats(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if st.Profile.LootCount != 3 || st.Profile.TotalCards != 3 || st.Profile.DistinctCards != 1 {
		t.Errorf("Profile = %+v, want 3 loots of one card", st.Profile)
	}
	if st.CanLoot || st.CooldownRemaining != testCooldown {
		t.Errorf("cooldown status = %v/%s, want locked for %s", st.CanLoot, st.CooldownRemaining, testCooldown)
	}
}

func TestDuelServiceValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addCard(t, "Knight", domain.RarityR, 4, 4)
	h.grant(t, 1, "Knight")

	if _, err := h.duel.Duel(ctx, DuelRequest{ChallengerID: 1, OpponentID: 1, ChallengerCard: "Knight"}); !errors.Is(err, apperrors.ErrSelfPair) {
		t.Errorf("self duel error = %v, want ErrSelfPair", err)
	}
	if _, err := h.duel.Duel(ctx, DuelRequest{ChallengerID: 2, OpponentID: 1, ChallengerCard: "Knight"}); !errors.Is(err, apperrors.ErrCardNotOwned) {
		t.Errorf("unowned challenger card error = %v, want ErrCardNotOwned", err)
	}
	if _, err := h.duel.Duel(ctx, DuelRequest{ChallengerID: 1, OpponentID: 2, ChallengerCard: "Knight"}); !errors.Is(err, apperrors.ErrCardNotOwned) {
		t.Errorf("opponent without cards error = %v, want ErrCardNotOwned", err)
	}
	if _, err := h.duel.Duel(ctx, DuelRequest{ChallengerID: 1, OpponentID: 2, ChallengerCard: "Knight", OpponentCard: "Knight"}); !errors.Is(err, apperrors.ErrCardNotOwned) {
		t.Errorf("unowned opponent card error = %v, want ErrCardNotOwned", err)
	}
}

func TestDuelServiceRecordsBothDirections(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addCard(t, "Titan", domain.RarityLR, 6, 6)
	h.addCard(t, "Rat", domain.RarityC, 1, 1)
	h.grant(t, 50, "Titan")
	h.grant(t, 10, "Rat")

	res, err := h.duel.Duel(ctx, DuelRequest{ChallengerID: 50, OpponentID: 10, ChallengerCard: "titan"})
	if err != nil {
		t.Fatalf("Duel() error = %v", err)
	}
	if res.OpponentCard.Name != "Rat" {
		t.Errorf("random opponent card = %q, want Rat", res.OpponentCard.Name)
	}
	if res.Outcome.Winner != domain.SideA || res.Outcome.WinsA != 3 {
		t.Errorf("outcome = %+v, want challenger sweep", res.Outcome)
	}
	if res.Record.OpponentID != 10 || res.Record.Wins != 1 || res.Record.Losses != 0 {
		t.Errorf("record = %+v, want 1-0 against 10", res.Record)
	}

	res, err = h.duel.Duel(ctx, DuelRequest{ChallengerID: 10, OpponentID: 50, ChallengerCard: "Rat", OpponentCard: "Titan"})
	if err != nil {
		t.Fatalf("Duel() error = %v", err)
	}
	if res.Outcome.Winner != domain.SideB {
		t.Errorf("Winner = %s, want B", res.Outcome.Winner)
	}
	if res.Record.Wins != 0 || res.Record.Losses != 2 || res.Record.Total != 2 {
		t.Errorf("record seen by 10 = %+v, want 0-2", res.Record)
	}

	view, ok, err := h.stats.Record(ctx, 50, 10)
	if err != nil || !ok {
		t.Fatalf("Record() = %v, %v", ok, err)
	}
	if view.Wins != 2 || view.Losses != 0 {
		t.Errorf("Record(50, 10) = %+v, want 2-0", view)
	}
	if _, ok, err := h.stats.Record(ctx, 50, 99); err != nil || ok {
		t.Errorf("Record() of strangers = %v, %v; want not found", ok, err)
	}
}

func TestStatsServiceAggregates(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addCard(t, "Titan", domain.RarityLR, 6, 6)
	h.addCard(t, "Rat", domain.RarityC, 1, 1)
	h.grant(t, 1, "Titan")
	for _, id := range []int64{2, 3, 4} {
		h.grant(t, id, "Rat")
	}

	duels := map[int64]int{2: 1, 3: 3, 4: 2}
	for opponent, n := range duels {
		for i := 0; i < n; i++ {
			if _, err := h.duel.Duel(ctx, DuelRequest{ChallengerID: 1, OpponentID: opponent, ChallengerCard: "Titan"}); err != nil {
				t.Fatal(err)
			}
		}
	}

	st, err := h.stats.Stats(ctx, 1)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if st.TotalDuels != 6 || st.Wins != 6 || st.Losses != 0 || st.WinRate != 100 {
		t.Errorf("Stats() totals = %d/%d/%d %.1f%%, want 6/6/0 100%%", st.TotalDuels, st.Wins, st.Losses, st.WinRate)
	}
	if len(st.Rivals) != 2 || st.Rivals[0].OpponentID != 3 || st.Rivals[1].OpponentID != 4 {
		t.Errorf("Rivals = %+v, want 3 then 4", st.Rivals)
	}
	if st.CatalogSize != 2 || !st.CanLoot {
		t.Errorf("CatalogSize = %d, CanLoot = %v", st.CatalogSize, st.CanLoot)
	}

	empty, err := h.stats.Stats(ctx, 77)
	if err != nil {
		t.Fatal(err)
	}
	if empty.TotalDuels != 0 || empty.WinRate != 0 || len(empty.Rivals) != 0 {
		t.Errorf("Stats() for newcomer = %+v", empty)
	}
}

func TestTopRivalsTieBreak(t *testing.T) {
	views := []domain.LedgerView{
		{OpponentID: 9, Total: 2},
		{OpponentID: 4, Total: 5},
		{OpponentID: 7, Total: 2},
		{OpponentID: 1, Total: 1},
	}
	got := topRivals(views, 3)
	want := []int64{4, 7, 9}
	if len(got) != len(want) {
		t.Fatalf("topRivals() len = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].OpponentID != id {
			t.Errorf("topRivals()[%d] = %d, want %d", i, got[i].OpponentID, id)
		}
	}
	if views[0].OpponentID != 9 {
		t.Error("topRivals() reordered its input")
	}
}

func TestInventoryServiceGiveAndGrant(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addCard(t, "Wolf", domain.RaritySR, 3, 3)

	if _, err := h.inventory.Grant(ctx, false, 1, "Wolf", 1); !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("unprivileged Grant() error = %v, want ErrForbidden", err)
	}
	if _, err := h.inventory.Grant(ctx, true, 1, "Ghost", 1); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Grant() of unknown card error = %v, want ErrNotFound", err)
	}
	if _, err := h.inventory.Grant(ctx, true, 1, "wolf", 0); err != nil {
		t.Fatal(err)
	}

	if _, err := h.inventory.Give(ctx, 1, 1, "Wolf"); !errors.Is(err, apperrors.ErrSelfPair) {
		t.Errorf("Give() to self error = %v, want ErrSelfPair", err)
	}
	if _, err := h.inventory.Give(ctx, 2, 1, "Wolf"); !errors.Is(err, apperrors.ErrCardNotOwned) {
		t.Errorf("Give() of unowned card error = %v, want ErrCardNotOwned", err)
	}
	if _, err := h.inventory.Give(ctx, 1, 2, "WOLF"); err != nil {
		t.Fatalf("Give() error = %v", err)
	}

	mine, _ := h.inventory.List(ctx, 1)
	theirs, _ := h.inventory.List(ctx, 2)
	if len(mine) != 0 || len(theirs) != 1 || theirs[0].Quantity != 1 {
		t.Errorf("after Give: giver %+v, receiver %+v", mine, theirs)
	}
}

func TestCatalogServiceConcurrentAddsPublishLatest(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	const n = 24
	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			_, err := h.catalog.AddItem(ctx, true, domain.Item{
				Name:       fmt.Sprintf("Minion %02d", i),
				Rarity:     domain.RarityC,
				Power:      1 + i%6,
				Protection: 1 + (i/6)%6,
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}

	snap := h.catalog.catalog.Snapshot()
	if snap.Len() != n {
		t.Errorf("snapshot has %d cards after %d adds, want all of them", snap.Len(), n)
	}
	if snap.Generation() != n {
		t.Errorf("Generation() = %d, want %d", snap.Generation(), n)
	}
}

func TestCatalogServiceGet(t *testing.T) {
	h := newHarness(t)
	h.addCard(t, "Wyvern", domain.RaritySSR, 4, 5)

	got, err := h.catalog.Get("wyvern")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "Wyvern" || got.Power != 4 || got.Protection != 5 {
		t.Errorf("Get() = %+v", got)
	}
	if _, err := h.catalog.Get("Basilisk"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Get(Basilisk) error = %v, want ErrNotFound", err)
	}
}

func TestInventoryServiceFavoriteInStats(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addCard(t, "Owl", domain.RarityR, 2, 3)

	if _, err := h.inventory.SetFavorite(ctx, 1, "Owl"); !errors.Is(err, apperrors.ErrCardNotOwned) {
		t.Errorf("SetFavorite() of unowned card error = %v, want ErrCardNotOwned", err)
	}
	h.grant(t, 1, "Owl")
	if _, err := h.inventory.SetFavorite(ctx, 1, "owl"); err != nil {
		t.Fatalf("SetFavorite() error = %v", err)
	}

	st, err := h.stats.Stats(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if st.Profile.Favorite == nil || st.Profile.Favorite.Name != "Owl" {
		t.Errorf("Stats().Profile.Favorite = %+v, want Owl", st.Profile.Favorite)
	}
}
