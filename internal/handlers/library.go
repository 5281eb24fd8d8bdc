package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/crucial707/booktrack/internal/events"
	"github.com/crucial707/booktrack/internal/metrics"
	"github.com/crucial707/booktrack/internal/middleware"
	"github.com/crucial707/booktrack/internal/models"
	"github.com/crucial707/booktrack/internal/repo"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const statusChoices = "to-read reading read"

// publishTimeout bounds how long a request waits on the broker.
const publishTimeout = 2 * time.Second

type LibraryHandler struct {
	Repo   *repo.LibraryRepo
	Events events.Publisher
}

//
// ==========================
// List Books
// ==========================
//

func (h *LibraryHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var status models.Status
	if s := r.URL.Query().Get("status"); s != "" {
		if status, ok = models.ParseStatus(s); !ok {
			JSONValidationError(w, "validation failed",
				map[string]string{"status": "must be one of: " + statusChoices}, http.StatusBadRequest)
			return
		}
	}

	entries, err := h.Repo.List(r.Context(), userID, status)
	if err != nil {
		internalError(w, r, "list books", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

//
// ==========================
// Get Book
// ==========================
//

func (h *LibraryHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := entryID(w, r)
	if !ok {
		return
	}

	e, err := h.Repo.Get(r.Context(), userID, id)
	if errors.Is(err, repo.ErrNotFound) {
		JSONError(w, "book not found", http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, r, "get book", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

//
// ==========================
// Add Book
// ==========================
//

type addBookInput struct {
	CatalogID   string `json:"catalogId" validate:"required,max=255"`
	Title       string `json:"title" validate:"required,max=500"`
	Author      string `json:"author" validate:"required,max=500"`
	CoverURL    string `json:"coverUrl" validate:"omitempty,url,max=2048"`
	Description string `json:"description"`
	Status      string `json:"status" validate:"required"`
}

func (in *addBookInput) normalize() {
	in.CatalogID = strings.TrimSpace(in.CatalogID)
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	in.CoverURL = strings.TrimSpace(in.CoverURL)
	in.Description = strings.TrimSpace(in.Description)
}

func (h *LibraryHandler) AddBook(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input addBookInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	status, ok := models.ParseStatus(input.Status)
	if !ok {
		JSONValidationError(w, "validation failed",
			map[string]string{"status": "must be one of: " + statusChoices}, http.StatusBadRequest)
		return
	}

	e, err := h.Repo.Add(r.Context(), userID, models.NewEntry{
		CatalogID:   input.CatalogID,
		Title:       input.Title,
		Author:      input.Author,
		CoverURL:    input.CoverURL,
		Description: input.Description,
		Status:      status,
	})
	if errors.Is(err, repo.ErrDuplicate) {
		metrics.IncLibraryOp("add", "duplicate")
		JSONError(w, "book already in your library", http.StatusBadRequest)
		return
	}
	if err != nil {
		metrics.IncLibraryOp("add", "error")
		internalError(w, r, "add book", err)
		return
	}

	metrics.IncLibraryOp("add", "ok")
	h.publish(r, events.FromEntry(events.TypeEntryAdded, e))
	writeJSON(w, http.StatusCreated, e)
}

//
// ==========================
// Update Status
// ==========================
//

func (h *LibraryHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := entryID(w, r)
	if !ok {
		return
	}

	var input struct {
		Status string `json:"status" validate:"required"`
	}
	if !decodeAndValidate(w, r, &input) {
		return
	}
	status, ok := models.ParseStatus(input.Status)
	if !ok {
		JSONValidationError(w, "validation failed",
			map[string]string{"status": "must be one of: " + statusChoices}, http.StatusBadRequest)
		return
	}

	e, err := h.Repo.UpdateStatus(r.Context(), userID, id, status)
	if errors.Is(err, repo.ErrNotFound) {
		metrics.IncLibraryOp("update", "not_found")
		JSONError(w, "book not found", http.StatusNotFound)
		return
	}
	if err != nil {
		metrics.IncLibraryOp("update", "error")
		internalError(w, r, "update book status", err)
		return
	}

	metrics.IncLibraryOp("update", "ok")
	h.publish(r, events.FromEntry(events.TypeStatusChanged, e))
	writeJSON(w, http.StatusOK, e)
}

//
// ==========================
// Delete Book
// ==========================
//

func (h *LibraryHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := entryID(w, r)
	if !ok {
		return
	}

	e, err := h.Repo.Delete(r.Context(), userID, id)
	if errors.Is(err, repo.ErrNotFound) {
		metrics.IncLibraryOp("delete", "not_found")
		JSONError(w, "book not found", http.StatusNotFound)
		return
	}
	if err != nil {
		metrics.IncLibraryOp("delete", "error")
		internalError(w, r, "delete book", err)
		return
	}

	metrics.IncLibraryOp("delete", "ok")
	h.publish(r, events.FromEntry(events.TypeEntryRemoved, e))
	w.WriteHeader(http.StatusNoContent)
}

// publish is best effort: a broker failure is logged and the request still succeeds.
func (h *LibraryHandler) publish(r *http.Request, ev events.LibraryEvent) {
	if h.Events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), publishTimeout)
	defer cancel()
	if err := h.Events.Publish(ctx, ev); err != nil {
		slog.Warn("publish library event", "type", ev.Type, "entry_id", ev.EntryID, "err", err)
	}
}

func requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		JSONError(w, "no token provided", http.StatusUnauthorized)
	}
	return userID, ok
}

// entryID parses the {id} path segment. A malformed id cannot name an
// entry, so it is reported as not found.
func entryID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "book not found", http.StatusNotFound)
		return uuid.Nil, false
	}
	return id, true
}
