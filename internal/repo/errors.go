package repo

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned for rows that do not exist or are not owned by the caller.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a user adds a book already in their library.
	ErrDuplicate = errors.New("book already in library")

	// ErrConflict is returned when a unique user field (email, username) is taken.
	ErrConflict = errors.New("conflict")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
