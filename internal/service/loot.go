package service

import (
	"context"
	"fmt"
	"time"

	"arzmania-cards/internal/catalog"
	"arzmania-cards/internal/clock"
	"arzmania-cards/internal/cooldown"
	"arzmania-cards/internal/domain"
	apperrors "arzmania-cards/internal/errors"
	"arzmania-cards/internal/loot"
	"arzmania-cards/internal/repository"

	"github.com/rs/zerolog"
)

// LootResult is the answer to a draw. When Allowed is false, Remaining
// is how long until the participant may draw again and Item is zero.
type LootResult struct {
	Allowed   bool
	Remaining time.Duration
	Item      domain.Item
}

type LootService struct {
	selector  *loot.Selector
	catalog   *catalog.Catalog
	gate      *cooldown.Gate
	inventory *repository.InventoryRepository
	clock     clock.Clock
	cooldown  time.Duration
	logger    zerolog.Logger
}

func NewLootService(
	selector *loot.Selector,
	cat *catalog.Catalog,
	gate *cooldown.Gate,
	inventory *repository.InventoryRepository,
	clk clock.Clock,
	period time.Duration,
	logger zerolog.Logger,
) *LootService {
	return &LootService{
		selector:  selector,
		catalog:   cat,
		gate:      gate,
		inventory: inventory,
		clock:     clk,
		cooldown:  period,
		logger:    logger,
	}
}

func (s *LootService) Cooldown() time.Duration {
	return s.cooldown
}

// Draw consumes the participant's cooldown and, if allowed, draws one card
// and adds it to their inventory. An empty catalog is reported before the
// cooldown is touched.
func (s *LootService) Draw(ctx context.Context, participantID int64) (LootResult, error) {
	snap := s.catalog.Snapshot()
	if snap.Len() == 0 {
		return LootResult{}, apperrors.New(apperrors.CodeEmptyPool, "no cards are available to loot")
	}

	res, err := s.gate.TryConsume(ctx, participantID, s.clock.Now(), s.cooldown)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", participantID).Msg("failed to consume loot cooldown")
		return LootResult{}, err
	}
	if !res.Allowed {
		s.logger.Debug().
			Int64("user_id", participantID).
			Dur("remaining", res.Remaining).
			Msg("loot on cooldown")
		return LootResult{Remaining: res.Remaining}, nil
	}

	item, err := s.selector.Select(snap.Items())
	if err != nil {
		return LootResult{}, err
	}
	if err := s.inventory.RecordLoot(ctx, participantID, item.ID); err != nil {
		s.logger.Error().Err(err).Int64("user_id", participantID).Str("card_id", item.ID).Msg("failed to record loot")
		return LootResult{}, fmt.Errorf("failed to record loot: %w", err)
	}

	s.logger.Info().
		Int64("user_id", participantID).
		Str("card", item.Name).
		Str("rarity", string(item.Rarity)).
		Msg("loot drawn")
	return LootResult{Allowed: true, Item: item}, nil
}

// ResetCooldown lets the participant draw again immediately.
func (s *LootService) ResetCooldown(ctx context.Context, privileged bool, participantID int64) error {
	if !privileged {
		return apperrors.New(apperrors.CodeForbidden, "resetting cooldowns requires privileges")
	}
	if err := s.gate.Reset(ctx, participantID, s.clock.Now(), s.cooldown); err != nil {
		s.logger.Error().Err(err).Int64("user_id", participantID).Msg("failed to reset loot cooldown")
		return err
	}
	s.logger.Info().Int64("user_id", participantID).Msg("loot cooldown reset")
	return nil
}

// Status reports the cooldown without consuming it.
func (s *LootService) Status(ctx context.Context, participantID int64) (cooldown.Result, error) {
	return s.gate.Peek(ctx, participantID, s.clock.Now(), s.cooldown)
}
