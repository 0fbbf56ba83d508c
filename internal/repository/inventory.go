package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"arzmania-cards/internal/domain"
	apperrors "arzmania-cards/internal/errors"

	"github.com/rs/zerolog"
)

type InventoryRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewInventoryRepository(sqlDB *sql.DB, logger zerolog.Logger) *InventoryRepository {
	return &InventoryRepository{
		db:     sqlDB,
		logger: logger,
	}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func grant(ctx context.Context, ex execer, userID int64, cardID string, quantity int) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO user_cards (user_id, card_id, quantity) VALUES (?, ?, ?)
		ON CONFLICT (user_id, card_id) DO UPDATE SET quantity = quantity + excluded.quantity`,
		userID, cardID, quantity)
	if err != nil {
		return fmt.Errorf("failed to grant card %s to %d: %w", cardID, userID, err)
	}
	return nil
}

// Grant adds quantity copies of a card to a participant's inventory.
func (r *InventoryRepository) Grant(ctx context.Context, userID int64, cardID string, quantity int) error {
	if quantity <= 0 {
		return apperrors.Newf(apperrors.CodeInvalidInput, "quantity must be positive, got %d", quantity)
	}
	if err := grant(ctx, r.db, userID, cardID, quantity); err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Str("card_id", cardID).Msg("grant failed")
		return err
	}
	return nil
}

// RecordLoot grants one copy of the drawn card and bumps the loot counter.
func (r *InventoryRepository) RecordLoot(ctx context.Context, userID int64, cardID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (user_id, loot_count) VALUES (?, 1)
		ON CONFLICT (user_id) DO UPDATE SET loot_count = loot_count + 1`, userID)
	if err != nil {
		return fmt.Errorf("failed to count loot for %d: %w", userID, err)
	}
	if err := grant(ctx, tx, userID, cardID, 1); err != nil {
		return err
	}
	return tx.Commit()
}

// List returns a participant's cards, most common tier first.
func (r *InventoryRepository) List(ctx context.Context, userID int64) ([]domain.OwnedItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.rarity, c.image_url, c.power, c.protection, c.created_at, uc.quantity
		FROM user_cards uc
		JOIN cards c ON c.id = uc.card_id
		WHERE uc.user_id = ?
		ORDER BY c.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory of %d: %w", userID, err)
	}
	defer rows.Close()

	var owned []domain.OwnedItem
	for rows.Next() {
		var (
			item      domain.Item
			rarity    string
			createdAt int64
			quantity  int
		)
		if err := rows.Scan(&item.ID, &item.Name, &rarity, &item.ImageURL, &item.Power, &item.Protection, &createdAt, &quantity); err != nil {
			return nil, err
		}
		if item.Rarity, err = domain.ParseRarity(rarity); err != nil {
			return nil, fmt.Errorf("card %s: %w", item.ID, err)
		}
		item.CreatedAt = fromUnix(createdAt)
		owned = append(owned, domain.OwnedItem{Item: item, Quantity: quantity})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortOwned(owned)
	return owned, nil
}

// Quantity returns how many copies of a card a participant owns.
func (r *InventoryRepository) Quantity(ctx context.Context, userID int64, cardID string) (int, error) {
	var quantity int
	err := r.db.QueryRowContext(ctx,
		`SELECT quantity FROM user_cards WHERE user_id = ? AND card_id = ?`, userID, cardID).Scan(&quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read quantity of %s for %d: %w", cardID, userID, err)
	}
	return quantity, nil
}

// FindOwned looks up a card by name, case-insensitively, among the cards
// userID owns.
func (r *InventoryRepository) FindOwned(ctx context.Context, userID int64, name string) (domain.Item, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT c.id, c.name, c.rarity, c.image_url, c.power, c.protection, c.created_at
		FROM cards c
		JOIN user_cards uc ON c.id = uc.card_id
		WHERE uc.user_id = ? AND c.name = ? COLLATE NOCASE`, userID, strings.TrimSpace(name))
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Item{}, apperrors.Newf(apperrors.CodeCardNotOwned, "participant %d does not own card %q", userID, name)
	}
	if err != nil {
		return domain.Item{}, fmt.Errorf("failed to find card %q owned by %d: %w", name, userID, err)
	}
	return item, nil
}

// Transfer moves one copy of a card from one participant to another.
func (r *InventoryRepository) Transfer(ctx context.Context, from, to int64, cardID string) error {
	if from == to {
		return apperrors.New(apperrors.CodeSelfPair, "cannot give a card to yourself")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var quantity int
	err = tx.QueryRowContext(ctx,
		`SELECT quantity FROM user_cards WHERE user_id = ? AND card_id = ?`, from, cardID).Scan(&quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.Newf(apperrors.CodeCardNotOwned, "participant %d does not own card %s", from, cardID)
	}
	if err != nil {
		return fmt.Errorf("failed to read quantity of %s for %d: %w", cardID, from, err)
	}

	if quantity <= 1 {
		_, err = tx.ExecContext(ctx, `DELETE FROM user_cards WHERE user_id = ? AND card_id = ?`, from, cardID)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE user_cards SET quantity = quantity - 1 WHERE user_id = ? AND card_id = ?`, from, cardID)
	}
	if err != nil {
		return fmt.Errorf("failed to take card %s from %d: %w", cardID, from, err)
	}
	if err := grant(ctx, tx, to, cardID, 1); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transfer: %w", err)
	}

	r.logger.Debug().
		Int64("from", from).
		Int64("to", to).
		Str("card_id", cardID).
		Msg("card transferred")
	return nil
}

// SetFavorite marks a card userID owns, matched by name case-insensitively,
// as their favorite.
func (r *InventoryRepository) SetFavorite(ctx context.Context, userID int64, name string) (domain.Item, error) {
	item, err := r.FindOwned(ctx, userID, name)
	if err != nil {
		return domain.Item{}, err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (user_id, favorite_card) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET favorite_card = excluded.favorite_card`,
		userID, item.ID)
	if err != nil {
		return domain.Item{}, fmt.Errorf("failed to set favorite of %d: %w", userID, err)
	}
	return item, nil
}

func (r *InventoryRepository) Profile(ctx context.Context, userID int64) (domain.Profile, error) {
	p := domain.Profile{ParticipantID: userID}

	var favorite sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT loot_count, favorite_card FROM users WHERE user_id = ?`, userID).Scan(&p.LootCount, &favorite)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, fmt.Errorf("failed to read profile of %d: %w", userID, err)
	}

	if favorite.Valid {
		row := r.db.QueryRowContext(ctx, `
			SELECT id, name, rarity, image_url, power, protection, created_at
			FROM cards WHERE id = ?`, favorite.String)
		item, err := scanItem(row)
		switch {
		case err == nil:
			p.Favorite = &item
		case !errors.Is(err, sql.ErrNoRows):
			return domain.Profile{}, fmt.Errorf("failed to read favorite of %d: %w", userID, err)
		}
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(quantity), 0) FROM user_cards WHERE user_id = ?`, userID).
		Scan(&p.DistinctCards, &p.TotalCards)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("failed to count cards of %d: %w", userID, err)
	}
	return p, nil
}

func sortOwned(owned []domain.OwnedItem) {
	sort.SliceStable(owned, func(i, j int) bool {
		a, b := owned[i].Item, owned[j].Item
		if a.Rarity != b.Rarity {
			return a.Rarity.Index() < b.Rarity.Index()
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
}
