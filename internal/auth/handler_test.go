package auth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/plateful-app/plateful/internal/store"
)

// fakeUsers is an in-memory store.Users keyed by email.
type fakeUsers struct {
	byEmail map[string]*store.User
	nextID  int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: map[string]*store.User{}}
}

func (f *fakeUsers) Create(_ context.Context, name, email, passwordHash string) (*store.User, error) {
	if _, ok := f.byEmail[email]; ok {
		return nil, store.ErrDuplicate
	}
	f.nextID++
	u := &store.User{
		ID:        fmt.Sprintf("user-%d", f.nextID),
		Name:      name,
		Email:     email,
		Password:  passwordHash,
		CreatedAt: time.Now(),
	}
	f.byEmail[email] = u
	return u, nil
}

func (f *fakeUsers) ByEmail(_ context.Context, email string) (*store.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) ByID(_ context.Context, id string) (*store.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id string, upd store.ProfileUpdate) (*store.User, error) {
	u, err := f.ByID(context.Background(), id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Email != nil {
		if other, ok := f.byEmail[*upd.Email]; ok && other.ID != id {
			return nil, store.ErrDuplicate
		}
		delete(f.byEmail, u.Email)
		u.Email = *upd.Email
		f.byEmail[u.Email] = u
	}
	if upd.AboutMe != nil {
		u.AboutMe = *upd.AboutMe
	}
	if upd.AvatarURL != nil {
		u.AvatarURL = upd.AvatarURL
	}
	return u, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id, passwordHash string) error {
	u, err := f.ByID(context.Background(), id)
	if err != nil {
		return err
	}
	u.Password = passwordHash
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	u, err := f.ByID(context.Background(), id)
	if err != nil {
		return err
	}
	delete(f.byEmail, u.Email)
	return nil
}

func newTestHandler(users store.Users) *Handler {
	issuer := NewIssuer("test-secret", time.Hour)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(users, issuer, false, log)
}

func postJSON(t *testing.T, h echo.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec
}

func authCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatal("no auth cookie in response")
	return nil
}

func TestSignup(t *testing.T) {
	users := newFakeUsers()
	h := newTestHandler(users)

	rec := postJSON(t, h.Signup, `{"name":"Ada","email":"ada@x.com","password":"longenoughpass"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"User created"`)
	assert.Contains(t, rec.Body.String(), `"ada@x.com"`)
	// The bcrypt hash must never leak into the response body.
	assert.NotContains(t, rec.Body.String(), users.byEmail["ada@x.com"].Password)

	cookie := authCookie(t, rec)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)

	// Stored password is a hash of the submitted one, not the plaintext.
	stored := users.byEmail["ada@x.com"].Password
	assert.NotEqual(t, "longenoughpass", stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored), []byte("longenoughpass")))
}

func TestSignupMissingFields(t *testing.T) {
	h := newTestHandler(newFakeUsers())

	for name, body := range map[string]string{
		"no name":     `{"email":"a@x.com","password":"longenoughpass"}`,
		"no email":    `{"name":"Ada","password":"longenoughpass"}`,
		"no password": `{"name":"Ada","email":"a@x.com"}`,
		"empty":       `{}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := postJSON(t, h.Signup, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "Name, email and password are required")
		})
	}
}

func TestSignupPasswordLength(t *testing.T) {
	h := newTestHandler(newFakeUsers())

	rec := postJSON(t, h.Signup, `{"name":"Ada","email":"short@x.com","password":"elevenchars"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "at least 12 characters")

	rec = postJSON(t, h.Signup, `{"name":"Ada","email":"exact@x.com","password":"twelvechars!"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestSignupDuplicateEmail(t *testing.T) {
	h := newTestHandler(newFakeUsers())

	rec := postJSON(t, h.Signup, `{"name":"Ada","email":"dup@x.com","password":"longenoughpass"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, h.Signup, `{"name":"Eve","email":"dup@x.com","password":"anotherlongpass"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email already in use")
}

func TestLogin(t *testing.T) {
	users := newFakeUsers()
	h := newTestHandler(users)
	postJSON(t, h.Signup, `{"name":"Ada","email":"ada@x.com","password":"longenoughpass"}`)

	rec := postJSON(t, h.Login, `{"email":"ada@x.com","password":"longenoughpass"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Login successful"`)
	assert.NotEmpty(t, authCookie(t, rec).Value)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	h := newTestHandler(newFakeUsers())
	postJSON(t, h.Signup, `{"name":"Ada","email":"ada@x.com","password":"longenoughpass"}`)

	wrongPassword := postJSON(t, h.Login, `{"email":"ada@x.com","password":"wrongpassword!"}`)
	unknownEmail := postJSON(t, h.Login, `{"email":"nobody@x.com","password":"longenoughpass"}`)

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestLoginMissingFields(t *testing.T) {
	h := newTestHandler(newFakeUsers())

	rec := postJSON(t, h.Login, `{"email":"ada@x.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email and password are required")
}

func TestLogoutClearsCookie(t *testing.T) {
	h := newTestHandler(newFakeUsers())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Logout(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Logged out successfully")

	cookie := authCookie(t, rec)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

func checkWith(t *testing.T, h *Handler, decorate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if decorate != nil {
		decorate(req)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, h.Check(e.NewContext(req, rec)))
	return rec
}

func TestCheck(t *testing.T) {
	users := newFakeUsers()
	h := newTestHandler(users)
	signup := postJSON(t, h.Signup, `{"name":"Ada","email":"ada@x.com","password":"longenoughpass"}`)
	token := authCookie(t, signup).Value

	t.Run("no token", func(t *testing.T) {
		rec := checkWith(t, h, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), `"authenticated":false`)
	})

	t.Run("valid cookie", func(t *testing.T) {
		rec := checkWith(t, h, func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
		})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"authenticated":true`)
		assert.Contains(t, rec.Body.String(), `"ada@x.com"`)
	})

	t.Run("bearer header", func(t *testing.T) {
		rec := checkWith(t, h, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+token)
		})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"authenticated":true`)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := checkWith(t, h, func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-token"})
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), `"authenticated":false`)
	})

	t.Run("deleted user", func(t *testing.T) {
		require.NoError(t, users.Delete(context.Background(), users.byEmail["ada@x.com"].ID))
		rec := checkWith(t, h, func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), `"authenticated":false`)
	})
}
