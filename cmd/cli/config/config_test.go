package config

import (
	"errors"
	"testing"
)

func TestAPIURL(t *testing.T) {
	t.Setenv("BOOKTRACK_API_URL", "")
	if got := APIURL(); got != defaultAPIURL {
		t.Errorf("default: got %q", got)
	}
	t.Setenv("BOOKTRACK_API_URL", "https://books.example.com/")
	if got := APIURL(); got != "https://books.example.com" {
		t.Errorf("override: got %q", got)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if _, err := ReadToken(); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
	if err := SaveToken("abc.def.ghi\n"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	tok, err := ReadToken()
	if err != nil || tok != "abc.def.ghi" {
		t.Fatalf("ReadToken: got %q, %v", tok, err)
	}
	if err := DeleteToken(); err != nil {
		t.Fatalf("DeleteToken: %v", err)
	}
	if err := DeleteToken(); err != nil {
		t.Fatalf("second DeleteToken: %v", err)
	}
	if _, err := ReadToken(); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("expected ErrNotLoggedIn after logout, got %v", err)
	}
}
