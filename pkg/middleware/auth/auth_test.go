package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/coin_shop/pkg/tokens"
)

var secret = []byte("test-jwt-secret")

type fakeRefresher struct {
	pair *tokens.Pair
	err  error
	seen string
}

func (f *fakeRefresher) Refresh(_ context.Context, refreshToken string) (*tokens.Pair, error) {
	f.seen = refreshToken
	return f.pair, f.err
}

func newContext(cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func accessCookie(t *testing.T, sub, role string, exp time.Time) *http.Cookie {
	t.Helper()
	tok, err := tokens.NewAccessToken(sub, role, exp, secret)
	require.NoError(t, err)
	return &http.Cookie{Name: tokens.AccessCookie, Value: tok}
}

func okHandler(c echo.Context) error { return c.NoContent(http.StatusOK) }

func TestRequireAuth_SetsUserContext(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	c, rec := newContext(accessCookie(t, userID.String(), RoleUser, time.Now().Add(time.Minute)))

	m := New(secret, nil)
	require.NoError(t, m.RequireAuth(okHandler)(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	got, err := UserID(c)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
	assert.False(t, IsAdmin(c))
}

func TestRequireAuth_MissingAndInvalid(t *testing.T) {
	t.Parallel()

	m := New(secret, nil)

	c, _ := newContext()
	err := m.RequireAuth(okHandler)(c)
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusUnauthorized, he.Code)

	c, _ = newContext(&http.Cookie{Name: tokens.AccessCookie, Value: "garbage"})
	err = m.RequireAuth(okHandler)(c)
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRequireAdmin_ForbidsUsers(t *testing.T) {
	t.Parallel()

	m := New(secret, nil)
	c, _ := newContext(accessCookie(t, uuid.NewString(), RoleUser, time.Now().Add(time.Minute)))

	err := m.RequireAdmin(okHandler)(c)
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusForbidden, he.Code)

	c, rec := newContext(accessCookie(t, uuid.NewString(), RoleAdmin, time.Now().Add(time.Minute)))
	require.NoError(t, m.RequireAdmin(okHandler)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, IsAdmin(c))
}

func TestRequireAuth_RefreshesExpiredAccessToken(t *testing.T) {
	t.Parallel()

	userID := uuid.NewString()
	fresh, err := tokens.NewAccessToken(userID, RoleUser, time.Now().Add(time.Minute), secret)
	require.NoError(t, err)

	ref := &fakeRefresher{pair: &tokens.Pair{
		AccessToken:  fresh,
		RefreshToken: "rotated",
		AccessExp:    time.Now().Add(time.Minute),
		RefreshExp:   time.Now().Add(time.Hour),
		Role:         RoleUser,
	}}
	m := New(secret, ref)

	c, rec := newContext(
		accessCookie(t, userID, RoleUser, time.Now().Add(-time.Minute)),
		&http.Cookie{Name: tokens.RefreshCookie, Value: "old-refresh"},
	)
	require.NoError(t, m.RequireAuth(okHandler)(c))
	assert.Equal(t, "old-refresh", ref.seen)
	assert.Equal(t, http.StatusOK, rec.Code)

	setCookies := rec.Header().Values("Set-Cookie")
	require.Len(t, setCookies, 2)
	assert.Contains(t, setCookies[1], "rotated")
}

func TestRequireAuth_RefreshFailureClearsCookies(t *testing.T) {
	t.Parallel()

	m := New(secret, &fakeRefresher{err: errors.New("revoked")})
	c, rec := newContext(
		accessCookie(t, uuid.NewString(), RoleUser, time.Now().Add(-time.Minute)),
		&http.Cookie{Name: tokens.RefreshCookie, Value: "old-refresh"},
	)

	err := m.RequireAuth(okHandler)(c)
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusUnauthorized, he.Code)
	assert.Len(t, rec.Header().Values("Set-Cookie"), 2)
}

func TestUserID_Missing(t *testing.T) {
	t.Parallel()

	c, _ := newContext()
	_, err := UserID(c)
	assert.ErrorIs(t, err, ErrUnauthorized)

	c.Set(CtxUserID, "not-a-uuid")
	_, err = UserID(c)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
