package object

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

//go:generate mockgen -source=repository.go -destination=../mocks/object/mock_repository.go -package=mock_object

// Repository stores cached answers per object name.
type Repository interface {
	// Upsert creates a bare record for name unless one exists.
	Upsert(ctx context.Context, name string) error
	// Get returns nil without an error when name has no record.
	Get(ctx context.Context, name string) (*Record, error)
	// SetField overwrites one cache cell and reports whether a record was updated.
	SetField(ctx context.Context, name string, category Category, text string) (bool, error)
	Ping(ctx context.Context) error
}

var ErrNotCacheable = errors.New("category is not cacheable")

// DBRepository implements Repository using MySQL or SQLite.
type DBRepository struct {
	db *sqlx.DB
}

// NewDBRepository creates a new DBRepository.
func NewDBRepository(db *sqlx.DB) *DBRepository {
	return &DBRepository{db: db}
}

// Upsert relies on the unique key, so concurrent first sightings of a name never duplicate a row.
func (r *DBRepository) Upsert(ctx context.Context, name string) error {
	query := "INSERT INTO objects (object_name) VALUES (?) ON DUPLICATE KEY UPDATE object_name = object_name"
	if r.db.DriverName() == "sqlite" {
		query = "INSERT INTO objects (object_name) VALUES (?) ON CONFLICT (object_name) DO NOTHING"
	}
	if _, err := r.db.ExecContext(ctx, query, name); err != nil {
		return fmt.Errorf("db.ExecContext(%s) > %w", name, err)
	}
	return nil
}

func (r *DBRepository) Get(ctx context.Context, name string) (*Record, error) {
	var record Record
	err := r.db.GetContext(ctx, &record,
		"SELECT object_name, definition, `function`, spelling, example_sentence FROM objects WHERE object_name = ?",
		name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(%s) > %w", name, err)
	}
	return &record, nil
}

func (r *DBRepository) SetField(ctx context.Context, name string, category Category, text string) (bool, error) {
	column, ok := columns[category]
	if !ok {
		return false, fmt.Errorf("SetField(%s) > %w", category, ErrNotCacheable)
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE objects SET `"+column+"` = ?, updated_at = CURRENT_TIMESTAMP WHERE object_name = ?",
		text, name)
	if err != nil {
		return false, fmt.Errorf("db.ExecContext(%s, %s) > %w", column, name, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("result.RowsAffected() > %w", err)
	}
	return affected > 0, nil
}

func (r *DBRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
