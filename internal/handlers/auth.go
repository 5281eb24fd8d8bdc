package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/crucial707/booktrack/internal/auth"
	"github.com/crucial707/booktrack/internal/middleware"
	"github.com/crucial707/booktrack/internal/models"
	"github.com/crucial707/booktrack/internal/repo"
)

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	Users      *repo.UserRepo
	Tokens     *auth.TokenService
	BcryptCost int
}

type authResponse struct {
	Message   string       `json:"message"`
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type registerInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

func (in *registerInput) normalize() {
	in.Email = normalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
}

type loginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (in *loginInput) normalize() {
	in.Email = normalizeEmail(in.Email)
}

// ==========================
// Register
// ==========================
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input registerInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	hash, err := auth.HashPassword(input.Password, h.BcryptCost)
	if err != nil {
		internalError(w, r, "register: hash password", err)
		return
	}

	user, err := h.Users.Create(r.Context(), input.Email, input.Username, hash)
	if errors.Is(err, repo.ErrConflict) {
		JSONError(w, "user with this email or username already exists", http.StatusBadRequest)
		return
	}
	if err != nil {
		internalError(w, r, "register: create user", err)
		return
	}

	h.respondWithToken(w, r, http.StatusCreated, "Account created successfully", user)
}

// ==========================
// Login
// ==========================
// Unknown email and wrong password produce the same response.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input loginInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	user, err := h.Users.GetByEmail(r.Context(), input.Email)
	if errors.Is(err, repo.ErrNotFound) {
		JSONError(w, "invalid email or password", http.StatusUnauthorized)
		return
	}
	if err != nil {
		internalError(w, r, "login: get user", err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, input.Password) {
		JSONError(w, "invalid email or password", http.StatusUnauthorized)
		return
	}

	h.respondWithToken(w, r, http.StatusOK, "Login successful", user)
}

// ==========================
// Me
// ==========================
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		JSONError(w, "no token provided", http.StatusUnauthorized)
		return
	}

	user, err := h.Users.GetByID(r.Context(), userID)
	if errors.Is(err, repo.ErrNotFound) {
		JSONError(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, r, "me: get user", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, message string, user *models.User) {
	token, expiresAt, err := h.Tokens.Issue(user.ID)
	if err != nil {
		internalError(w, r, "issue token", err)
		return
	}
	writeJSON(w, status, authResponse{
		Message:   message,
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
