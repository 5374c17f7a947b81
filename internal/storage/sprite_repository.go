package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fleveque/poke-finder/internal/model"
)

// ErrNotFound is returned when a record doesn't exist in the database.
// Callers check with errors.Is(err, ErrNotFound).
var ErrNotFound = errors.New("record not found")

// SpriteRepository persists sprite metadata keyed by Pokémon id.
type SpriteRepository interface {
	GetByPokemonID(ctx context.Context, pokemonID int) (*model.Sprite, error)
	Create(ctx context.Context, sprite *model.Sprite) error
	Update(ctx context.Context, sprite *model.Sprite) error
	SetSizeAvailable(ctx context.Context, pokemonID int, size model.SpriteSize) error
	SetStatus(ctx context.Context, pokemonID int, status model.SpriteStatus, errMsg string) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status model.SpriteStatus) (int64, error)
	ListPending(ctx context.Context, limit int) ([]model.Sprite, error)
}

type sqliteSpriteRepository struct {
	db *sqlx.DB
}

// NewSpriteRepository creates a new SQLite-backed SpriteRepository.
func NewSpriteRepository(db *sqlx.DB) SpriteRepository {
	return &sqliteSpriteRepository{db: db}
}

func (r *sqliteSpriteRepository) GetByPokemonID(ctx context.Context, pokemonID int) (*model.Sprite, error) {
	var sprite model.Sprite
	err := r.db.GetContext(ctx, &sprite, "SELECT * FROM sprites WHERE pokemon_id = ?", pokemonID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting sprite %d: %w", pokemonID, err)
	}
	return &sprite, nil
}

func (r *sqliteSpriteRepository) Create(ctx context.Context, sprite *model.Sprite) error {
	result, err := r.db.NamedExecContext(ctx, `
		INSERT INTO sprites (pokemon_id, name, source, original_url, status)
		VALUES (:pokemon_id, :name, :source, :original_url, :status)
	`, sprite)
	if err != nil {
		return fmt.Errorf("creating sprite: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	sprite.ID = id
	return nil
}

func (r *sqliteSpriteRepository) Update(ctx context.Context, sprite *model.Sprite) error {
	_, err := r.db.NamedExecContext(ctx, `
		UPDATE sprites SET
			name = :name,
			source = :source,
			original_url = :original_url,
			has_xs = :has_xs,
			has_s = :has_s,
			has_m = :has_m,
			has_l = :has_l,
			has_xl = :has_xl,
			status = :status,
			error_message = :error_message,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = :id
	`, sprite)
	if err != nil {
		return fmt.Errorf("updating sprite: %w", err)
	}
	return nil
}

// sizeColumns whitelists the has_* columns; column names can't be bound as
// query parameters.
var sizeColumns = map[model.SpriteSize]string{
	model.SizeXS: "has_xs",
	model.SizeS:  "has_s",
	model.SizeM:  "has_m",
	model.SizeL:  "has_l",
	model.SizeXL: "has_xl",
}

func (r *sqliteSpriteRepository) SetSizeAvailable(ctx context.Context, pokemonID int, size model.SpriteSize) error {
	col, ok := sizeColumns[size]
	if !ok {
		return fmt.Errorf("invalid size: %s", size)
	}

	query := fmt.Sprintf("UPDATE sprites SET %s = 1, updated_at = CURRENT_TIMESTAMP WHERE pokemon_id = ?", col)
	if _, err := r.db.ExecContext(ctx, query, pokemonID); err != nil {
		return fmt.Errorf("setting size %s for %d: %w", size, pokemonID, err)
	}
	return nil
}

func (r *sqliteSpriteRepository) SetStatus(ctx context.Context, pokemonID int, status model.SpriteStatus, errMsg string) error {
	var err error
	if errMsg != "" {
		_, err = r.db.ExecContext(ctx,
			"UPDATE sprites SET status = ?, error_message = ?, updated_at = CURRENT_TIMESTAMP WHERE pokemon_id = ?",
			status, errMsg, pokemonID)
	} else {
		_, err = r.db.ExecContext(ctx,
			"UPDATE sprites SET status = ?, error_message = NULL, updated_at = CURRENT_TIMESTAMP WHERE pokemon_id = ?",
			status, pokemonID)
	}
	if err != nil {
		return fmt.Errorf("setting status for %d: %w", pokemonID, err)
	}
	return nil
}

func (r *sqliteSpriteRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM sprites")
	return count, err
}

func (r *sqliteSpriteRepository) CountByStatus(ctx context.Context, status model.SpriteStatus) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM sprites WHERE status = ?", status)
	return count, err
}

func (r *sqliteSpriteRepository) ListPending(ctx context.Context, limit int) ([]model.Sprite, error) {
	var sprites []model.Sprite
	err := r.db.SelectContext(ctx, &sprites,
		"SELECT * FROM sprites WHERE status = ? ORDER BY pokemon_id ASC LIMIT ?",
		model.StatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("listing pending sprites: %w", err)
	}
	return sprites, nil
}
