package db

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestOptions_DSN(t *testing.T) {
	o := Options{Host: "db", Port: "5432", Name: "books", User: "u", Password: "p"}
	want := "host=db port=5432 dbname=books user=u password=p sslmode=disable"
	if got := o.DSN(); got != want {
		t.Errorf("DSN: got %q, want %q", got, want)
	}
	if got := o.URL(); got != "postgres://u:p@db:5432/books?sslmode=disable" {
		t.Errorf("URL: got %q", got)
	}
}

func TestOptions_URL_EscapesCredentials(t *testing.T) {
	o := Options{Host: "db", Port: "5432", Name: "books", User: "book user", Password: "p@ss/w#rd:1?"}

	u, err := url.Parse(o.URL())
	if err != nil {
		t.Fatalf("parse %q: %v", o.URL(), err)
	}
	pw, _ := u.User.Password()
	if u.User.Username() != "book user" || pw != "p@ss/w#rd:1?" {
		t.Errorf("credentials: got %q / %q", u.User.Username(), pw)
	}
	if u.Hostname() != "db" || u.Port() != "5432" || u.Path != "/books" {
		t.Errorf("target: got host=%q port=%q path=%q", u.Hostname(), u.Port(), u.Path)
	}
	if u.Query().Get("sslmode") != "disable" {
		t.Errorf("sslmode: got %q", u.Query().Get("sslmode"))
	}
}

func TestWithTx_Commit(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE books`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = WithTx(context.Background(), sqlDB, func(tx DBTX) error {
		_, err := tx.ExecContext(context.Background(), `UPDATE books SET title = 'x'`)
		return err
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestWithTx_RollbackOnError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err = WithTx(context.Background(), sqlDB, func(tx DBTX) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
