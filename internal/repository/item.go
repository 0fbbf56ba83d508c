package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"arzmania-cards/internal/domain"
	apperrors "arzmania-cards/internal/errors"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

const itemColumns = `id, name, rarity, image_url, power, protection, created_at`

type ItemRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewItemRepository(sqlDB *sql.DB, logger zerolog.Logger) *ItemRepository {
	return &ItemRepository{
		db:     sqlDB,
		logger: logger,
	}
}

func (r *ItemRepository) List(ctx context.Context) ([]domain.Item, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM cards ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *ItemRepository) Get(ctx context.Context, id string) (domain.Item, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM cards WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Item{}, apperrors.Newf(apperrors.CodeNotFound, "card %s not found", id)
	}
	return item, err
}

func (r *ItemRepository) GetByName(ctx context.Context, name string) (domain.Item, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM cards WHERE name = ? COLLATE NOCASE`, strings.TrimSpace(name))
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Item{}, apperrors.Newf(apperrors.CodeNotFound, "card %q not found", name)
	}
	return item, err
}

// Insert validates item, assigns it an id and stores it. Names are unique
// regardless of case.
func (r *ItemRepository) Insert(ctx context.Context, item domain.Item) (domain.Item, error) {
	item.Name = strings.TrimSpace(item.Name)
	if err := item.Validate(); err != nil {
		return domain.Item{}, err
	}

	id, err := gonanoid.New()
	if err != nil {
		return domain.Item{}, fmt.Errorf("failed to generate nanoid: %w", err)
	}
	item.ID = id
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO cards (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Name, string(item.Rarity), item.ImageURL, item.Power, item.Protection, toUnix(item.CreatedAt))
	if isUniqueViolation(err) {
		return domain.Item{}, apperrors.Newf(apperrors.CodeInvalidInput, "card %q already exists", item.Name)
	}
	if err != nil {
		r.logger.Error().Err(err).Str("name", item.Name).Msg("failed to insert card")
		return domain.Item{}, fmt.Errorf("failed to insert card %q: %w", item.Name, err)
	}

	r.logger.Debug().
		Str("card_id", item.ID).
		Str("name", item.Name).
		Str("rarity", string(item.Rarity)).
		Msg("card inserted")
	return item, nil
}

// Delete removes the card and every ownership record of it in one
// transaction. Participants who picked it as favorite are left without one.
func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	owners, err := tx.ExecContext(ctx, `DELETE FROM user_cards WHERE card_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ownership of card %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET favorite_card = NULL WHERE favorite_card = ?`, id); err != nil {
		return fmt.Errorf("failed to clear favorites of card %s: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete card %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.Newf(apperrors.CodeNotFound, "card %s not found", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit card deletion: %w", err)
	}

	removed, _ := owners.RowsAffected()
	r.logger.Debug().
		Str("card_id", id).
		Int64("ownership_rows", removed).
		Msg("card deleted")
	return nil
}

// SetImage changes the cosmetic image of a card.
func (r *ItemRepository) SetImage(ctx context.Context, id, imageURL string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE cards SET image_url = ? WHERE id = ?`, imageURL, id)
	if err != nil {
		return fmt.Errorf("failed to set image of card %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.Newf(apperrors.CodeNotFound, "card %s not found", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (domain.Item, error) {
	var (
		item      domain.Item
		rarity    string
		createdAt int64
	)
	if err := row.Scan(&item.ID, &item.Name, &rarity, &item.ImageURL, &item.Power, &item.Protection, &createdAt); err != nil {
		return domain.Item{}, err
	}
	parsed, err := domain.ParseRarity(rarity)
	if err != nil {
		return domain.Item{}, fmt.Errorf("card %s: %w", item.ID, err)
	}
	item.Rarity = parsed
	item.CreatedAt = fromUnix(createdAt)
	return item, nil
}
