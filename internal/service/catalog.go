package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"arzmania-cards/internal/catalog"
	"arzmania-cards/internal/domain"
	apperrors "arzmania-cards/internal/errors"
	"arzmania-cards/internal/repository"

	"github.com/rs/zerolog"
)

// CatalogService administers the card catalog and keeps the in-memory
// snapshot in step with the database.
type CatalogService struct {
	items   *repository.ItemRepository
	catalog *catalog.Catalog
	logger  zerolog.Logger

	// reloadMu orders list+publish so an older listing never replaces a
	// newer snapshot.
	reloadMu sync.Mutex
}

func NewCatalogService(items *repository.ItemRepository, cat *catalog.Catalog, logger zerolog.Logger) *CatalogService {
	return &CatalogService{items: items, catalog: cat, logger: logger}
}

// Reload publishes a fresh snapshot from the database.
func (s *CatalogService) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	items, err := s.items.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load catalog")
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	snap := s.catalog.Publish(items)
	s.logger.Info().
		Int("cards", snap.Len()).
		Uint64("generation", snap.Generation()).
		Msg("catalog published")
	return nil
}

func (s *CatalogService) AddItem(ctx context.Context, privileged bool, item domain.Item) (domain.Item, error) {
	if !privileged {
		return domain.Item{}, apperrors.New(apperrors.CodeForbidden, "adding cards requires privileges")
	}
	created, err := s.items.Insert(ctx, item)
	if err != nil {
		return domain.Item{}, err
	}
	s.logger.Info().
		Str("card_id", created.ID).
		Str("name", created.Name).
		Str("rarity", string(created.Rarity)).
		Msg("card added")
	return created, s.Reload(ctx)
}

// DeleteItem removes a card by name along with every copy participants own.
func (s *CatalogService) DeleteItem(ctx context.Context, privileged bool, name string) (domain.Item, error) {
	if !privileged {
		return domain.Item{}, apperrors.New(apperrors.CodeForbidden, "deleting cards requires privileges")
	}
	item, err := s.items.GetByName(ctx, name)
	if err != nil {
		return domain.Item{}, err
	}
	if err := s.items.Delete(ctx, item.ID); err != nil {
		return domain.Item{}, err
	}
	s.logger.Info().Str("card_id", item.ID).Str("name", item.Name).Msg("card deleted")
	return item, s.Reload(ctx)
}

func (s *CatalogService) SetImage(ctx context.Context, privileged bool, name, imageURL string) (domain.Item, error) {
	if !privileged {
		return domain.Item{}, apperrors.New(apperrors.CodeForbidden, "changing card images requires privileges")
	}
	item, err := s.items.GetByName(ctx, name)
	if err != nil {
		return domain.Item{}, err
	}
	imageURL = strings.TrimSpace(imageURL)
	if err := s.items.SetImage(ctx, item.ID, imageURL); err != nil {
		return domain.Item{}, err
	}
	item.ImageURL = imageURL
	return item, s.Reload(ctx)
}

// Get looks a card up by name, case-insensitively.
func (s *CatalogService) Get(name string) (domain.Item, error) {
	item, ok := s.catalog.Snapshot().ByName(name)
	if !ok {
		return domain.Item{}, apperrors.Newf(apperrors.CodeNotFound, "card %q not found", name)
	}
	return item, nil
}

// List returns the catalog, optionally restricted to one tier.
func (s *CatalogService) List(rarity domain.Rarity) []domain.Item {
	items := s.catalog.Snapshot().Items()
	if rarity == "" {
		return items
	}
	var out []domain.Item
	for _, item := range items {
		if item.Rarity == rarity {
			out = append(out, item)
		}
	}
	return out
}
