package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fleveque/poke-finder/internal/model"
)

// EntryRepository persists LLM-written Pokédex entries, one per Pokémon name.
type EntryRepository interface {
	GetByName(ctx context.Context, name string) (*model.PokedexEntry, error)
	Create(ctx context.Context, entry *model.PokedexEntry) error
	Count(ctx context.Context) (int64, error)
}

type sqliteEntryRepository struct {
	db *sqlx.DB
}

// NewEntryRepository creates a new SQLite-backed EntryRepository.
func NewEntryRepository(db *sqlx.DB) EntryRepository {
	return &sqliteEntryRepository{db: db}
}

func (r *sqliteEntryRepository) GetByName(ctx context.Context, name string) (*model.PokedexEntry, error) {
	var entry model.PokedexEntry
	err := r.db.GetContext(ctx, &entry, "SELECT * FROM pokedex_entries WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting entry for %s: %w", name, err)
	}
	return &entry, nil
}

// Create inserts entry. If a row for the same name already exists it is
// kept, and entry is overwritten with the stored row.
func (r *sqliteEntryRepository) Create(ctx context.Context, entry *model.PokedexEntry) error {
	result, err := r.db.NamedExecContext(ctx, `
		INSERT INTO pokedex_entries (name, category, text, provider, model)
		VALUES (:name, :category, :text, :provider, :model)
		ON CONFLICT(name) DO NOTHING
	`, entry)
	if err != nil {
		return fmt.Errorf("creating entry: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		stored, err := r.GetByName(ctx, entry.Name)
		if err != nil {
			return fmt.Errorf("reading existing entry: %w", err)
		}
		*entry = *stored
		return nil
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	entry.ID = id
	return nil
}

func (r *sqliteEntryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM pokedex_entries")
	return count, err
}

// LLMCallRepository handles persistence of LLM call tracking.
type LLMCallRepository interface {
	Create(ctx context.Context, call *model.LLMCall) error
	CountByName(ctx context.Context, name string) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type sqliteLLMCallRepository struct {
	db *sqlx.DB
}

// NewLLMCallRepository creates a new SQLite-backed LLMCallRepository.
func NewLLMCallRepository(db *sqlx.DB) LLMCallRepository {
	return &sqliteLLMCallRepository{db: db}
}

func (r *sqliteLLMCallRepository) Create(ctx context.Context, call *model.LLMCall) error {
	result, err := r.db.NamedExecContext(ctx, `
		INSERT INTO llm_calls (name, provider, model, success, duration_ms)
		VALUES (:name, :provider, :model, :success, :duration_ms)
	`, call)
	if err != nil {
		return fmt.Errorf("creating llm call record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	call.ID = id
	return nil
}

func (r *sqliteLLMCallRepository) CountByName(ctx context.Context, name string) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM llm_calls WHERE name = ?", name)
	return count, err
}

func (r *sqliteLLMCallRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM llm_calls")
	return count, err
}
