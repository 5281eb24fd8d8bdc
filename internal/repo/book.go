package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/crucial707/booktrack/internal/db"
	"github.com/crucial707/booktrack/internal/models"
	"github.com/google/uuid"
)

// ========================
// REPOSITORY STRUCT
// ========================

// BookRepo manages the shared catalog cache. Rows are never deleted.
type BookRepo struct {
	DB *sql.DB
}

func NewBookRepo(db *sql.DB) *BookRepo {
	return &BookRepo{DB: db}
}

const bookColumns = `id, catalog_id, title, author, cover_url, description, created_at, refreshed_at`

// ========================
// FIND OR CREATE
// ========================

// findOrCreate returns the book with in.CatalogID, inserting it first if
// needed. The no-op DO UPDATE makes RETURNING yield the existing row, so
// concurrent callers converge on one book per catalog id.
func (r *BookRepo) findOrCreate(ctx context.Context, q db.DBTX, in models.NewEntry) (models.Book, error) {
	var b models.Book
	var cover, desc sql.NullString
	err := q.QueryRowContext(ctx,
		`INSERT INTO books (id, catalog_id, title, author, cover_url, description)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (catalog_id) DO UPDATE SET catalog_id = EXCLUDED.catalog_id
		 RETURNING `+bookColumns,
		uuid.New(), in.CatalogID, in.Title, in.Author, nullString(in.CoverURL), nullString(in.Description),
	).Scan(&b.ID, &b.CatalogID, &b.Title, &b.Author, &cover, &desc, &b.CreatedAt, &b.RefreshedAt)
	if err != nil {
		return models.Book{}, fmt.Errorf("upsert book: %w", err)
	}
	b.CoverURL = stringPtr(cover)
	b.Description = stringPtr(desc)
	return b, nil
}

// ========================
// LIST STALE
// ========================

// ListStale returns up to limit books never refreshed or last refreshed before cutoff.
func (r *BookRepo) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]models.Book, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+bookColumns+`
		 FROM books
		 WHERE refreshed_at IS NULL OR refreshed_at < $1
		 ORDER BY refreshed_at NULLS FIRST, created_at
		 LIMIT $2`,
		cutoff, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list stale books: %w", err)
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		var b models.Book
		var cover, desc sql.NullString
		if err := rows.Scan(&b.ID, &b.CatalogID, &b.Title, &b.Author, &cover, &desc, &b.CreatedAt, &b.RefreshedAt); err != nil {
			return nil, err
		}
		b.CoverURL = stringPtr(cover)
		b.Description = stringPtr(desc)
		books = append(books, b)
	}
	return books, rows.Err()
}

// ========================
// UPDATE METADATA
// ========================

// UpdateMetadata overwrites catalog fields from v and stamps refreshed_at.
// Empty title or author in v keep the stored value.
func (r *BookRepo) UpdateMetadata(ctx context.Context, id uuid.UUID, v models.Volume) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE books
		 SET title = COALESCE(NULLIF($2, ''), title),
		     author = COALESCE(NULLIF($3, ''), author),
		     cover_url = $4,
		     description = $5,
		     refreshed_at = NOW()
		 WHERE id = $1`,
		id, v.Title, v.Author, nullString(v.CoverURL), nullString(v.Description),
	)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
