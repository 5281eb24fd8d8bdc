package apiclient

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/crucial707/booktrack/cmd/cli/config"
)

func TestDo_DecodesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"validation failed","fields":{"title":"is required"}}`))
	}))
	defer srv.Close()
	t.Setenv("BOOKTRACK_API_URL", srv.URL)

	err := Do("POST", "/books", "tok", map[string]string{}, nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Fields["title"] != "is required" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestDoAuthed_SendsStoredToken(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if err := config.SaveToken("stored-token"); err != nil {
		t.Fatal(err)
	}

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"id":"x"}`))
	}))
	defer srv.Close()
	t.Setenv("BOOKTRACK_API_URL", srv.URL)

	var out map[string]string
	if err := DoAuthed("GET", "/auth/me", nil, &out); err != nil {
		t.Fatalf("DoAuthed: %v", err)
	}
	if gotAuth != "Bearer stored-token" || out["id"] != "x" {
		t.Errorf("auth=%q out=%v", gotAuth, out)
	}
}

func TestDoAuthed_NotLoggedIn(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if err := DoAuthed("GET", "/books", nil, nil); !errors.Is(err, config.ErrNotLoggedIn) {
		t.Errorf("expected ErrNotLoggedIn, got %v", err)
	}
}
