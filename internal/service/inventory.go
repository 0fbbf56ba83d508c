package service

import (
	"context"

	"arzmania-cards/internal/catalog"
	"arzmania-cards/internal/domain"
	apperrors "arzmania-cards/internal/errors"
	"arzmania-cards/internal/repository"

	"github.com/rs/zerolog"
)

type InventoryService struct {
	inventory *repository.InventoryRepository
	catalog   *catalog.Catalog
	logger    zerolog.Logger
}

func NewInventoryService(inventory *repository.InventoryRepository, cat *catalog.Catalog, logger zerolog.Logger) *InventoryService {
	return &InventoryService{inventory: inventory, catalog: cat, logger: logger}
}

func (s *InventoryService) List(ctx context.Context, participantID int64) ([]domain.OwnedItem, error) {
	return s.inventory.List(ctx, participantID)
}

// Give hands one copy of a card the giver owns to another participant.
func (s *InventoryService) Give(ctx context.Context, from, to int64, cardName string) (domain.Item, error) {
	if from == to {
		return domain.Item{}, apperrors.New(apperrors.CodeSelfPair, "cannot give a card to yourself")
	}
	item, err := s.inventory.FindOwned(ctx, from, cardName)
	if err != nil {
		return domain.Item{}, err
	}
	if err := s.inventory.Transfer(ctx, from, to, item.ID); err != nil {
		return domain.Item{}, err
	}
	s.logger.Info().
		Int64("from", from).
		Int64("to", to).
		Str("card", item.Name).
		Msg("card given")
	return item, nil
}

// SetFavorite picks one of the participant's own cards as their favorite.
func (s *InventoryService) SetFavorite(ctx context.Context, participantID int64, cardName string) (domain.Item, error) {
	item, err := s.inventory.SetFavorite(ctx, participantID, cardName)
	if err != nil {
		return domain.Item{}, err
	}
	s.logger.Info().
		Int64("user_id", participantID).
		Str("card", item.Name).
		Msg("favorite card set")
	return item, nil
}

// Grant creates copies of a catalog card for a participant. A quantity of
// zero grants one copy.
func (s *InventoryService) Grant(ctx context.Context, privileged bool, to int64, cardName string, quantity int) (domain.Item, error) {
	if !privileged {
		return domain.Item{}, apperrors.New(apperrors.CodeForbidden, "granting cards requires privileges")
	}
	item, ok := s.catalog.Snapshot().ByName(cardName)
	if !ok {
		return domain.Item{}, apperrors.Newf(apperrors.CodeNotFound, "card %q not found", cardName)
	}
	if quantity == 0 {
		quantity = 1
	}
	if err := s.inventory.Grant(ctx, to, item.ID, quantity); err != nil {
		return domain.Item{}, err
	}
	s.logger.Info().
		Int64("to", to).
		Str("card", item.Name).
		Int("quantity", quantity).
		Msg("card granted")
	return item, nil
}
