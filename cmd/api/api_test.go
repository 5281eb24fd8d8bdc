package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/booktrack/internal/auth"
	"github.com/crucial707/booktrack/internal/config"
	"github.com/crucial707/booktrack/internal/models"
	"github.com/google/uuid"
)

const testSecret = "test-secret-for-integration"

func testConfig() config.Config {
	return config.Config{
		JWTSecret:      testSecret,
		JWTExpireHours: 1,
		BcryptCost:     4,
	}
}

type stubSearch struct{ calls int }

func (s *stubSearch) Search(_ context.Context, q string) ([]models.Volume, error) {
	s.calls++
	return []models.Volume{{CatalogID: "gb1", Title: "Dune", Author: "Frank Herbert"}}, nil
}

func do(t *testing.T, srv *httptest.Server, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req, _ := http.NewRequest(method, srv.URL+path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp, out
}

// TestAPI_LibraryLifecycle builds the full router with a sqlmock-backed DB and
// walks one user through register, add, status change, delete and list.
func TestAPI_LibraryLifecycle(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	userID, bookID := uuid.New(), uuid.New()
	now := time.Now()
	entryCols := []string{
		"id", "user_id", "book_id", "status", "created_at", "updated_at",
		"id", "catalog_id", "title", "author", "cover_url", "description",
	}

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "u@example.com", "reader", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "username", "created_at"}).
			AddRow(userID.String(), "u@example.com", "reader", now))

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO books`).
		WithArgs(sqlmock.AnyArg(), "gb1", "Dune", "Frank Herbert", nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "catalog_id", "title", "author", "cover_url", "description", "created_at", "refreshed_at"}).
			AddRow(bookID.String(), "gb1", "Dune", "Frank Herbert", nil, nil, now, nil))
	mock.ExpectQuery(`INSERT INTO user_books`).
		WithArgs(sqlmock.AnyArg(), userID, bookID, "to-read").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()

	// entry ids are generated by the repo, so match any id here and compare
	// the response against the add response below.
	entryID := uuid.New()
	mock.ExpectQuery(`UPDATE user_books`).
		WithArgs("reading", sqlmock.AnyArg(), userID).
		WillReturnRows(sqlmock.NewRows(entryCols).
			AddRow(entryID.String(), userID.String(), bookID.String(), "reading", now, now.Add(time.Minute),
				bookID.String(), "gb1", "Dune", "Frank Herbert", nil, nil))
	mock.ExpectQuery(`DELETE FROM user_books`).
		WithArgs(sqlmock.AnyArg(), userID).
		WillReturnRows(sqlmock.NewRows(entryCols).
			AddRow(entryID.String(), userID.String(), bookID.String(), "reading", now, now.Add(time.Minute),
				bookID.String(), "gb1", "Dune", "Frank Herbert", nil, nil))
	mock.ExpectQuery(`FROM user_books ub`).
		WithArgs(userID, "").
		WillReturnRows(sqlmock.NewRows(entryCols))

	srv := httptest.NewServer(newRouter(db, testConfig(), services{Search: &stubSearch{}}))
	defer srv.Close()

	// 1) Register
	resp, body := do(t, srv, "POST", "/auth/register", "", map[string]string{
		"email": "u@example.com", "username": "reader", "password": "secret1",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: got %d %s", resp.StatusCode, body)
	}
	var reg struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &reg); err != nil || reg.Token == "" {
		t.Fatalf("register response: %v %s", err, body)
	}

	// 2) Add gb1
	resp, body = do(t, srv, "POST", "/books", reg.Token, map[string]string{
		"catalogId": "gb1", "title": "Dune", "author": "Frank Herbert", "status": "to-read",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add: got %d %s", resp.StatusCode, body)
	}
	var added models.Entry
	if err := json.Unmarshal(body, &added); err != nil {
		t.Fatalf("decode add: %v", err)
	}
	if added.UserID != userID || added.Status != models.StatusToRead {
		t.Fatalf("unexpected entry: %+v", added)
	}

	// 3) Update to reading
	resp, body = do(t, srv, "PUT", "/books/"+added.ID.String(), reg.Token, map[string]string{"status": "reading"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: got %d %s", resp.StatusCode, body)
	}
	var updated models.Entry
	json.Unmarshal(body, &updated)
	if updated.Status != models.StatusReading || !updated.UpdatedAt.After(updated.CreatedAt) {
		t.Errorf("unexpected updated entry: %+v", updated)
	}

	// 4) Delete
	resp, _ = do(t, srv, "DELETE", "/books/"+added.ID.String(), reg.Token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: got %d", resp.StatusCode)
	}

	// 5) List is empty
	resp, body = do(t, srv, "GET", "/books", reg.Token, nil)
	if resp.StatusCode != http.StatusOK || string(bytes.TrimSpace(body)) != "[]" {
		t.Fatalf("list: got %d %s", resp.StatusCode, body)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAPI_AuthGate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	srv := httptest.NewServer(newRouter(db, testConfig(), services{Search: &stubSearch{}}))
	defer srv.Close()

	past := func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := auth.NewTokenService([]byte(testSecret), time.Hour).WithClock(past).Issue(uuid.New())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	forged, _, _ := auth.NewTokenService([]byte("other-secret"), time.Hour).Issue(uuid.New())

	cases := []struct {
		name, token, want string
	}{
		{"missing", "", "no token provided"},
		{"expired", expired, "token expired"},
		{"wrong secret", forged, "invalid token"},
		{"garbage", "abc.def.ghi", "invalid token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := do(t, srv, "GET", "/books", tc.token, nil)
			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("status: got %d, want 401", resp.StatusCode)
			}
			var out map[string]string
			json.Unmarshal(body, &out)
			if out["error"] != tc.want {
				t.Errorf("error: got %q, want %q", out["error"], tc.want)
			}
		})
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no queries expected: %v", err)
	}
}

func TestAPI_CatalogSearch(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	search := &stubSearch{}
	srv := httptest.NewServer(newRouter(db, testConfig(), services{Search: search}))
	defer srv.Close()

	resp, _ := do(t, srv, "GET", "/catalog/search?q=dune", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated search: got %d, want 401", resp.StatusCode)
	}

	token, _, _ := auth.NewTokenService([]byte(testSecret), time.Hour).Issue(uuid.New())
	resp, body := do(t, srv, "GET", "/catalog/search?q=dune", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search: got %d %s", resp.StatusCode, body)
	}
	var vols []models.Volume
	if err := json.Unmarshal(body, &vols); err != nil || len(vols) != 1 || vols[0].CatalogID != "gb1" {
		t.Errorf("unexpected volumes: %v %s", err, body)
	}
	if search.calls != 1 {
		t.Errorf("provider calls: got %d, want 1", search.calls)
	}
}

func TestAPI_HealthReadyMetrics(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	srv := httptest.NewServer(newRouter(db, testConfig(), services{Search: &stubSearch{}}))
	defer srv.Close()

	resp, body := do(t, srv, "GET", "/health", "", nil)
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Errorf("health: got %d %q", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers on every response")
	}

	resp, _ = do(t, srv, "GET", "/ready", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("ready: got %d", resp.StatusCode)
	}

	resp, body = do(t, srv, "GET", "/metrics", "", nil)
	if resp.StatusCode != http.StatusOK || !bytes.Contains(body, []byte("http_requests_total")) {
		t.Errorf("metrics: got %d, missing http_requests_total", resp.StatusCode)
	}
}

func TestAPI_LoginRateLimited(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 10; i++ {
		mock.ExpectQuery(`FROM users`).WillReturnError(io.EOF)
	}

	srv := httptest.NewServer(newRouter(db, testConfig(), services{Search: &stubSearch{}}))
	defer srv.Close()

	var limited bool
	for i := 0; i < 10; i++ {
		resp, _ := do(t, srv, "POST", "/auth/login", "", map[string]string{"email": "a@example.com", "password": "x"})
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("expected 429 after the burst is spent")
	}
}

func TestAPI_LoginRateLimitIgnoresForwardedFor(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 10; i++ {
		mock.ExpectQuery(`FROM users`).WillReturnError(io.EOF)
	}

	// TrustProxy is off, so a rotating X-Forwarded-For must not earn a fresh bucket.
	srv := httptest.NewServer(newRouter(db, testConfig(), services{Search: &stubSearch{}}))
	defer srv.Close()

	var limited bool
	for i := 0; i < 10; i++ {
		body := bytes.NewReader([]byte(`{"email":"a@example.com","password":"x"}`))
		req, _ := http.NewRequest("POST", srv.URL+"/auth/login", body)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("expected 429 even with a different X-Forwarded-For per request")
	}
}
