package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusToRead  Status = "to-read"
	StatusReading Status = "reading"
	StatusRead    Status = "read"
)

// ParseStatus accepts the canonical values and the upper-case
// forms (TO_READ, READING, READ).
func ParseStatus(s string) (Status, bool) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "-")) {
	case string(StatusToRead):
		return StatusToRead, true
	case string(StatusReading):
		return StatusReading, true
	case string(StatusRead):
		return StatusRead, true
	}
	return "", false
}

// Entry is a user's library record for one book.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	BookID    uuid.UUID `json:"bookId"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Book      Book      `json:"book"`
}

// NewEntry is the input for adding a book to a library.
type NewEntry struct {
	CatalogID   string
	Title       string
	Author      string
	CoverURL    string
	Description string
	Status      Status
}
