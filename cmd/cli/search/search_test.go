package search

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/crucial707/booktrack/cmd/cli/config"
)

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	return buf.String()
}

func TestSearch(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	config.SaveToken("tok")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/catalog/search" || r.URL.Query().Get("q") != "dune messiah" {
			t.Errorf("unexpected request: %s", r.URL)
		}
		if r.URL.Query().Get("q") == "dune messiah" {
			w.Write([]byte(`[{"catalogId":"gb9","title":"Dune Messiah","author":"Frank Herbert"}]`))
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()
	t.Setenv("BOOKTRACK_API_URL", srv.URL)

	cmd := searchCmd()
	var err error
	out := captureOutput(t, func() { err = cmd.RunE(cmd, []string{"dune", "messiah"}) })
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(out, "gb9") || !strings.Contains(out, "Dune Messiah") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestSearch_NotLoggedIn(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cmd := searchCmd()
	if err := cmd.RunE(cmd, []string{"dune"}); err == nil {
		t.Error("expected error without a stored token")
	}
}
