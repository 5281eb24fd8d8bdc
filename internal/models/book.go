package models

import (
	"time"

	"github.com/google/uuid"
)

// Book is a shared catalog entry, de-duplicated by CatalogID.
type Book struct {
	ID          uuid.UUID  `json:"id"`
	CatalogID   string     `json:"catalogId"`
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	CoverURL    *string    `json:"coverUrl,omitempty"`
	Description *string    `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"-"`
	RefreshedAt *time.Time `json:"-"`
}

// Volume is one search hit from the external catalog.
type Volume struct {
	CatalogID   string `json:"catalogId"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	CoverURL    string `json:"coverUrl,omitempty"`
	Description string `json:"description,omitempty"`
}
