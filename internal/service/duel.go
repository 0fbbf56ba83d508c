package service

import (
	"context"
	"fmt"

	"arzmania-cards/internal/combat"
	"arzmania-cards/internal/constants"
	"arzmania-cards/internal/domain"
	apperrors "arzmania-cards/internal/errors"
	"arzmania-cards/internal/ledger"
	"arzmania-cards/internal/random"
	"arzmania-cards/internal/repository"

	"github.com/rs/zerolog"
)

type DuelRequest struct {
	ChallengerID   int64
	OpponentID     int64
	ChallengerCard string
	// OpponentCard is optional; a random owned card is used when empty.
	OpponentCard string
}

type DuelResult struct {
	ChallengerCard domain.Item
	OpponentCard   domain.Item
	Outcome        domain.DuelOutcome
	// Record is the pair's history after this duel, seen by the challenger.
	Record domain.LedgerView
}

type DuelService struct {
	inventory *repository.InventoryRepository
	ledger    *ledger.Store
	rng       random.Source
	logger    zerolog.Logger
}

func NewDuelService(inventory *repository.InventoryRepository, store *ledger.Store, rng random.Source, logger zerolog.Logger) *DuelService {
	return &DuelService{inventory: inventory, ledger: store, rng: rng, logger: logger}
}

func (s *DuelService) Duel(ctx context.Context, req DuelRequest) (DuelResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if _, _, err := domain.Canonicalize(req.ChallengerID, req.OpponentID); err != nil {
		return DuelResult{}, err
	}

	mine, err := s.inventory.FindOwned(ctx, req.ChallengerID, req.ChallengerCard)
	if err != nil {
		return DuelResult{}, err
	}
	theirs, err := s.opponentCard(ctx, req)
	if err != nil {
		return DuelResult{}, err
	}

	outcome := combat.Resolve(mine.Profile(), theirs.Profile(), s.rng)
	rec, err := s.ledger.RecordResult(ctx, req.ChallengerID, req.OpponentID, outcome.Winner == domain.SideA)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("challenger", req.ChallengerID).
			Int64("opponent", req.OpponentID).
			Msg("failed to record duel")
		return DuelResult{}, fmt.Errorf("failed to record duel: %w", err)
	}

	s.logger.Info().
		Int64("challenger", req.ChallengerID).
		Int64("opponent", req.OpponentID).
		Str("challenger_card", mine.Name).
		Str("opponent_card", theirs.Name).
		Str("winner", outcome.Winner.String()).
		Int("wins_a", outcome.WinsA).
		Int("wins_b", outcome.WinsB).
		Msg("duel resolved")

	return DuelResult{
		ChallengerCard: mine,
		OpponentCard:   theirs,
		Outcome:        outcome,
		Record:         rec.ViewFor(req.ChallengerID),
	}, nil
}

func (s *DuelService) opponentCard(ctx context.Context, req DuelRequest) (domain.Item, error) {
	if req.OpponentCard != "" {
		return s.inventory.FindOwned(ctx, req.OpponentID, req.OpponentCard)
	}
	owned, err := s.inventory.List(ctx, req.OpponentID)
	if err != nil {
		return domain.Item{}, err
	}
	if len(owned) == 0 {
		return domain.Item{}, apperrors.Newf(apperrors.CodeCardNotOwned, "participant %d has no cards", req.OpponentID)
	}
	return owned[s.rng.IntN(len(owned))].Item, nil
}
