package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/crucial707/booktrack/cmd/cli/config"
)

// captureOutput helps capture stdout during command execution.
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

func TestLogin_StoresToken(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Method != "POST" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		if in["email"] != "u@example.com" || in["password"] != "secret1" {
			t.Errorf("unexpected body: %v", in)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"message":    "Login successful",
			"user":       map[string]string{"username": "reader"},
			"token":      "tok-123",
			"expires_at": time.Now().Add(time.Hour),
		})
	}))
	defer srv.Close()
	t.Setenv("BOOKTRACK_API_URL", srv.URL)

	cmd := loginCmd()
	cmd.SetArgs([]string{"--email", "u@example.com", "--password", "secret1"})
	var err error
	out := captureOutput(t, func() { err = cmd.Execute() })
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "Logged in as reader") {
		t.Errorf("unexpected output: %s", out)
	}
	tok, err := config.ReadToken()
	if err != nil || tok != "tok-123" {
		t.Errorf("stored token: %q, %v", tok, err)
	}
}

func TestLogin_Failure(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid email or password"}`))
	}))
	defer srv.Close()
	t.Setenv("BOOKTRACK_API_URL", srv.URL)

	cmd := loginCmd()
	cmd.SetArgs([]string{"--email", "u@example.com", "--password", "nope"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "invalid email or password") {
		t.Fatalf("expected API error, got %v", err)
	}
	if _, err := config.ReadToken(); err == nil {
		t.Error("no token should be stored after a failed login")
	}
}

func TestLogout(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if err := config.SaveToken("tok"); err != nil {
		t.Fatal(err)
	}

	cmd := logoutCmd()
	out := captureOutput(t, func() { _ = cmd.RunE(cmd, nil) })
	if !strings.Contains(out, "Logged out") {
		t.Errorf("unexpected output: %s", out)
	}
	if _, err := config.ReadToken(); err == nil {
		t.Error("token should be gone")
	}
}

func TestWhoami(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	config.SaveToken("tok")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"id":"5b0c","email":"u@example.com","username":"reader","createdAt":"2024-03-01T10:00:00Z"}`))
	}))
	defer srv.Close()
	t.Setenv("BOOKTRACK_API_URL", srv.URL)

	cmd := whoamiCmd()
	var err error
	out := captureOutput(t, func() { err = cmd.RunE(cmd, nil) })
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(out, "reader <u@example.com>") || !strings.Contains(out, "2024-03-01") {
		t.Errorf("unexpected output: %s", out)
	}
}
