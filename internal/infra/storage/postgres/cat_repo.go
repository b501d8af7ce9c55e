package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/catshelter/internal/core/domain"
)

// CatRepo implements storage.Collection[*domain.StoredCat] using PostgreSQL.
type CatRepo struct {
	db *DB
}

// NewCatRepo creates a new PostgreSQL cat collection.
func NewCatRepo(db *DB) *CatRepo {
	return &CatRepo{db: db}
}

type catRow struct {
	ID           uuid.UUID `db:"id"`
	Name         string    `db:"name"`
	BreedName    string    `db:"breed_name"`
	BreedID      uuid.UUID `db:"breed_id"`
	BreedPhoto   string    `db:"breed_photo"`
	CatPhoto     string    `db:"cat_photo"`
	AddedBy      uuid.UUID `db:"added_by"`
	Price        int64     `db:"price"`
	PriceHistory []byte    `db:"price_history"`
	FavoritedBy  []byte    `db:"favorited_by"`
	AddedAt      time.Time `db:"added_at"`
}

const catColumns = `id, name, breed_name, breed_id, breed_photo, cat_photo,
	added_by, price, price_history, favorited_by, added_at`

// Find returns the record with the given id, or nil when absent.
func (r *CatRepo) Find(ctx context.Context, id uuid.UUID) (*domain.StoredCat, error) {
	var row catRow
	query := `SELECT ` + catColumns + ` FROM cats WHERE id = $1`
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find cat: %w", err)
	}
	return row.toDomain()
}

// FindWhere scans the whole table and filters in memory, per the collection
// contract. Rows come back in added_at order.
func (r *CatRepo) FindWhere(
	ctx context.Context,
	match func(*domain.StoredCat) bool,
) ([]*domain.StoredCat, error) {
	var rows []catRow
	query := `SELECT ` + catColumns + ` FROM cats ORDER BY added_at, id`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to scan cats: %w", err)
	}

	var out []*domain.StoredCat
	for _, row := range rows {
		rec, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		if match(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Write upserts the record by id.
func (r *CatRepo) Write(ctx context.Context, rec *domain.StoredCat) error {
	history, err := json.Marshal(rec.PriceHistory)
	if err != nil {
		return fmt.Errorf("failed to encode price history: %w", err)
	}
	favorites, err := json.Marshal(rec.FavoritedBy)
	if err != nil {
		return fmt.Errorf("failed to encode favorites: %w", err)
	}

	query := `
		INSERT INTO cats (` + catColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			breed_name = EXCLUDED.breed_name,
			breed_id = EXCLUDED.breed_id,
			breed_photo = EXCLUDED.breed_photo,
			cat_photo = EXCLUDED.cat_photo,
			added_by = EXCLUDED.added_by,
			price = EXCLUDED.price,
			price_history = EXCLUDED.price_history,
			favorited_by = EXCLUDED.favorited_by
	`
	_, err = r.db.ExecContext(ctx, query,
		rec.ID,
		rec.Name,
		rec.BreedName,
		rec.BreedID,
		rec.BreedPhoto,
		rec.CatPhoto,
		rec.AddedBy,
		rec.Price,
		history,
		favorites,
		rec.AddedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to write cat: %w", err)
	}
	return nil
}

// Delete removes the record with the given id; no-op when absent.
func (r *CatRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cats WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete cat: %w", err)
	}
	return nil
}

func (row catRow) toDomain() (*domain.StoredCat, error) {
	rec := &domain.StoredCat{
		Cat: domain.Cat{
			ID:         row.ID,
			Name:       row.Name,
			BreedName:  row.BreedName,
			BreedID:    row.BreedID,
			BreedPhoto: row.BreedPhoto,
			CatPhoto:   row.CatPhoto,
			AddedBy:    row.AddedBy,
			Price:      row.Price,
		},
		AddedAt: row.AddedAt,
	}
	if len(row.PriceHistory) > 0 {
		if err := json.Unmarshal(row.PriceHistory, &rec.PriceHistory); err != nil {
			return nil, fmt.Errorf("failed to decode price history: %w", err)
		}
	}
	if len(row.FavoritedBy) > 0 {
		if err := json.Unmarshal(row.FavoritedBy, &rec.FavoritedBy); err != nil {
			return nil, fmt.Errorf("failed to decode favorites: %w", err)
		}
	}
	if rec.FavoritedBy == nil {
		rec.FavoritedBy = domain.NewUserSet()
	}
	return rec, nil
}
