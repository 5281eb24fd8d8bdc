package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/crucial707/booktrack/internal/models"
	"github.com/google/uuid"
)

// BookStore is the part of repo.BookRepo the refresher needs.
type BookStore interface {
	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]models.Book, error)
	UpdateMetadata(ctx context.Context, id uuid.UUID, v models.Volume) error
}

// Looker fetches one volume by catalog id.
type Looker interface {
	Lookup(ctx context.Context, catalogID string) (models.Volume, error)
}

// Refresher re-reads catalog metadata for cached book rows.
type Refresher struct {
	Books   BookStore
	Catalog Looker
	MaxAge  time.Duration
	Batch   int
	Now     func() time.Time
}

// Run refreshes one batch of stale books and returns how many were updated.
// A failing book is logged and skipped. A volume the provider no longer has
// keeps its stored metadata but is stamped as refreshed.
func (r *Refresher) Run(ctx context.Context) (int, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	batch := r.Batch
	if batch <= 0 {
		batch = 50
	}

	books, err := r.Books.ListStale(ctx, now().Add(-r.MaxAge), batch)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, b := range books {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}

		v, err := r.Catalog.Lookup(ctx, b.CatalogID)
		switch {
		case errors.Is(err, ErrVolumeNotFound):
			v = models.Volume{CatalogID: b.CatalogID, Title: b.Title, Author: b.Author}
			if b.CoverURL != nil {
				v.CoverURL = *b.CoverURL
			}
			if b.Description != nil {
				v.Description = *b.Description
			}
		case err != nil:
			slog.WarnContext(ctx, "catalog refresh lookup failed", "book_id", b.ID, "catalog_id", b.CatalogID, "err", err)
			continue
		}

		if err := r.Books.UpdateMetadata(ctx, b.ID, v); err != nil {
			slog.WarnContext(ctx, "catalog refresh update failed", "book_id", b.ID, "err", err)
			continue
		}
		refreshed++
	}

	slog.InfoContext(ctx, "catalog refresh done", "candidates", len(books), "refreshed", refreshed)
	return refreshed, nil
}
