package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookiePolicy_Set(t *testing.T) {
	policy := NewRefreshCookiePolicy(30*24*time.Hour, true)
	rec := httptest.NewRecorder()
	policy.Set(rec, "tok")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "refreshtoken", c.Name)
	assert.Equal(t, "tok", c.Value)
	assert.Equal(t, "/api/refresh_token", c.Path)
	assert.Equal(t, 30*24*60*60, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

func TestCookiePolicy_ClearMatchesSet(t *testing.T) {
	policy := NewRefreshCookiePolicy(30*24*time.Hour, false)

	setRec := httptest.NewRecorder()
	policy.Set(setRec, "tok")
	clearRec := httptest.NewRecorder()
	policy.Clear(clearRec)

	set := setRec.Result().Cookies()[0]
	cleared := clearRec.Result().Cookies()
	require.Len(t, cleared, 1)
	c := cleared[0]

	assert.Equal(t, set.Name, c.Name)
	assert.Equal(t, set.Path, c.Path)
	assert.Equal(t, set.HttpOnly, c.HttpOnly)
	assert.Equal(t, set.Secure, c.Secure)
	assert.Equal(t, set.SameSite, c.SameSite)
	assert.Empty(t, c.Value)
	assert.Equal(t, -1, c.MaxAge)
}

func TestCookiePolicy_Read(t *testing.T) {
	policy := NewRefreshCookiePolicy(time.Hour, false)

	req := httptest.NewRequest(http.MethodPost, RefreshCookiePath, nil)
	assert.Empty(t, policy.Read(req))

	req.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: "tok"})
	assert.Equal(t, "tok", policy.Read(req))
}
