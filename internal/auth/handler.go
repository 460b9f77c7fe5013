package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/plateful-app/plateful/internal/store"
)

// MinPasswordLength is the signup floor; shorter passwords are rejected
// before any hashing happens.
const MinPasswordLength = 12

const dbTimeout = 5 * time.Second

type Handler struct {
	users  store.Users
	issuer *Issuer
	secure bool
	log    *slog.Logger
}

func NewHandler(users store.Users, issuer *Issuer, secure bool, log *slog.Logger) *Handler {
	return &Handler{users: users, issuer: issuer, secure: secure, log: log}
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/signup
func (h *Handler) Signup(c echo.Context) error {
	req := new(SignupRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Name, email and password are required"})
	}
	if len(req.Password) < MinPasswordLength {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Password must be at least 12 characters long."})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	// Fast-path check only; the unique index is what actually guarantees
	// one account per address when signups race.
	if _, err := h.users.ByEmail(ctx, req.Email); err == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "Email already in use"})
	} else if !errors.Is(err, store.ErrNotFound) {
		h.log.Error("signup email lookup failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.log.Error("password hash failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	u, err := h.users.Create(ctx, req.Name, req.Email, string(hashed))
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "Email already in use"})
		}
		h.log.Error("signup insert failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	token, err := h.issuer.Issue(u)
	if err != nil {
		h.log.Error("token issue failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	SetCookie(c, token, h.issuer.TTL(), h.secure)

	return c.JSON(http.StatusCreated, echo.Map{"message": "User created", "user": u})
}

// POST /api/auth/login
func (h *Handler) Login(c echo.Context) error {
	req := new(LoginRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	// Unknown email and wrong password produce the same response so the two
	// cases cannot be told apart from outside.
	u, err := h.users.ByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid email or password"})
		}
		h.log.Error("login lookup failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid email or password"})
	}

	token, err := h.issuer.Issue(u)
	if err != nil {
		h.log.Error("token issue failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	SetCookie(c, token, h.issuer.TTL(), h.secure)

	return c.JSON(http.StatusOK, echo.Map{"message": "Login successful", "user": u})
}

// POST /api/auth/logout
func (h *Handler) Logout(c echo.Context) error {
	ClearCookie(c, h.secure)
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

// GET /api/auth/check
//
// Re-verifies against the store rather than trusting the token payload, so a
// deleted account or changed profile is reflected immediately.
func (h *Handler) Check(c echo.Context) error {
	tokenString, ok := TokenFromRequest(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"authenticated": false})
	}
	claims, err := h.issuer.Parse(tokenString)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"authenticated": false})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.users.ByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"authenticated": false})
		}
		h.log.Error("check lookup failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	return c.JSON(http.StatusOK, echo.Map{"authenticated": true, "user": u})
}
