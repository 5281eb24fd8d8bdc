package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/crucial707/booktrack/internal/db"
	"github.com/crucial707/booktrack/internal/models"
	"github.com/google/uuid"
)

// ========================
// REPOSITORY STRUCT
// ========================

// LibraryRepo manages user_books. Every method is scoped to a user id and
// treats rows owned by someone else exactly like missing rows.
type LibraryRepo struct {
	DB    *sql.DB
	Books *BookRepo
}

func NewLibraryRepo(sqlDB *sql.DB) *LibraryRepo {
	return &LibraryRepo{DB: sqlDB, Books: NewBookRepo(sqlDB)}
}

const entrySelect = `
	SELECT ub.id, ub.user_id, ub.book_id, ub.status, ub.created_at, ub.updated_at,
	       b.id, b.catalog_id, b.title, b.author, b.cover_url, b.description
	FROM user_books ub
	JOIN books b ON b.id = ub.book_id
`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (models.Entry, error) {
	var e models.Entry
	var cover, desc sql.NullString
	err := row.Scan(
		&e.ID, &e.UserID, &e.BookID, &e.Status, &e.CreatedAt, &e.UpdatedAt,
		&e.Book.ID, &e.Book.CatalogID, &e.Book.Title, &e.Book.Author, &cover, &desc,
	)
	if err != nil {
		return models.Entry{}, err
	}
	e.Book.CoverURL = stringPtr(cover)
	e.Book.Description = stringPtr(desc)
	return e, nil
}

// ========================
// LIST ENTRIES
// ========================

// List returns the user's entries, newest first. An empty status returns all.
func (r *LibraryRepo) List(ctx context.Context, userID uuid.UUID, status models.Status) ([]models.Entry, error) {
	rows, err := r.DB.QueryContext(ctx,
		entrySelect+`
	WHERE ub.user_id = $1 AND ($2 = '' OR ub.status = $2)
	ORDER BY ub.created_at DESC`,
		userID, string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := []models.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ========================
// GET ENTRY
// ========================

func (r *LibraryRepo) Get(ctx context.Context, userID, id uuid.UUID) (models.Entry, error) {
	e, err := scanEntry(r.DB.QueryRowContext(ctx,
		entrySelect+`
	WHERE ub.id = $1 AND ub.user_id = $2`,
		id, userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Entry{}, ErrNotFound
	}
	if err != nil {
		return models.Entry{}, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

// ========================
// ADD ENTRY
// ========================

// Add finds or creates the shared book for in.CatalogID and links it to the
// user. A second add of the same book returns ErrDuplicate.
func (r *LibraryRepo) Add(ctx context.Context, userID uuid.UUID, in models.NewEntry) (models.Entry, error) {
	var e models.Entry
	err := db.WithTx(ctx, r.DB, func(tx db.DBTX) error {
		book, err := r.Books.findOrCreate(ctx, tx, in)
		if err != nil {
			return err
		}

		e = models.Entry{
			ID:     uuid.New(),
			UserID: userID,
			BookID: book.ID,
			Status: in.Status,
			Book:   book,
		}
		err = tx.QueryRowContext(ctx,
			`INSERT INTO user_books (id, user_id, book_id, status)
			 VALUES ($1, $2, $3, $4)
			 RETURNING created_at, updated_at`,
			e.ID, userID, book.ID, string(in.Status),
		).Scan(&e.CreatedAt, &e.UpdatedAt)
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		if err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Entry{}, err
	}
	return e, nil
}

// ========================
// UPDATE STATUS
// ========================

// UpdateStatus sets status and updated_at. Setting the current status again
// succeeds and only moves updated_at.
func (r *LibraryRepo) UpdateStatus(ctx context.Context, userID, id uuid.UUID, status models.Status) (models.Entry, error) {
	e, err := scanEntry(r.DB.QueryRowContext(ctx,
		`WITH ub AS (
		UPDATE user_books
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
		RETURNING id, user_id, book_id, status, created_at, updated_at
	)
	SELECT ub.id, ub.user_id, ub.book_id, ub.status, ub.created_at, ub.updated_at,
	       b.id, b.catalog_id, b.title, b.author, b.cover_url, b.description
	FROM ub
	JOIN books b ON b.id = ub.book_id`,
		string(status), id, userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Entry{}, ErrNotFound
	}
	if err != nil {
		return models.Entry{}, fmt.Errorf("update entry: %w", err)
	}
	return e, nil
}

// ========================
// DELETE ENTRY
// ========================

// Delete removes the entry and returns it as it was. The book row stays.
func (r *LibraryRepo) Delete(ctx context.Context, userID, id uuid.UUID) (models.Entry, error) {
	e, err := scanEntry(r.DB.QueryRowContext(ctx,
		`WITH ub AS (
		DELETE FROM user_books
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, book_id, status, created_at, updated_at
	)
	SELECT ub.id, ub.user_id, ub.book_id, ub.status, ub.created_at, ub.updated_at,
	       b.id, b.catalog_id, b.title, b.author, b.cover_url, b.description
	FROM ub
	JOIN books b ON b.id = ub.book_id`,
		id, userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Entry{}, ErrNotFound
	}
	if err != nil {
		return models.Entry{}, fmt.Errorf("delete entry: %w", err)
	}
	return e, nil
}
