package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cacheFixtures() (User, Session) {
	user := User{ID: "u1", Email: "alice@example.com", Name: "Alice"}
	session := Session{
		ID:        "s1",
		UserID:    "u1",
		Token:     "tok-abc",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	return user, session
}

func TestCacheCookieRoundTrip(t *testing.T) {
	svc := NewService(nil, "secret-key")
	user, session := cacheFixtures()

	value := svc.EncodeCacheCookie(user, session)
	require.NotEmpty(t, value)

	cached, ok := svc.DecodeCacheCookie(value)
	require.True(t, ok)
	assert.Equal(t, "tok-abc", cached.Token)
	assert.Equal(t, "u1", cached.UserID)
	assert.Equal(t, "alice@example.com", cached.Email)
	assert.Equal(t, "Alice", cached.Name)
	assert.WithinDuration(t, time.Now().Add(defaultCacheTTL), cached.ExpiresAt, time.Minute)
}

func TestCacheCookieNeverOutlivesSession(t *testing.T) {
	svc := NewService(nil, "secret-key")
	user, session := cacheFixtures()
	session.ExpiresAt = time.Now().Add(time.Minute)

	cached, ok := svc.DecodeCacheCookie(svc.EncodeCacheCookie(user, session))
	require.True(t, ok)
	assert.WithinDuration(t, session.ExpiresAt, cached.ExpiresAt, time.Second)
}

func TestCacheCookieTamperDetected(t *testing.T) {
	svc := NewService(nil, "secret-key")
	user, session := cacheFixtures()
	value := svc.EncodeCacheCookie(user, session)

	body, sig, ok := splitCookie(value)
	require.True(t, ok)

	_, valid := svc.DecodeCacheCookie("x" + body[1:] + "." + sig)
	assert.False(t, valid)

	_, valid = svc.DecodeCacheCookie(body + "." + strings.Repeat("A", len(sig)))
	assert.False(t, valid)

	_, valid = svc.DecodeCacheCookie("no-separator")
	assert.False(t, valid)
}

func TestCacheCookieWrongSecret(t *testing.T) {
	user, session := cacheFixtures()
	value := NewService(nil, "secret-one").EncodeCacheCookie(user, session)

	_, ok := NewService(nil, "secret-two").DecodeCacheCookie(value)
	assert.False(t, ok)
}

func TestCacheCookieExpired(t *testing.T) {
	svc := NewService(nil, "secret-key")
	user, session := cacheFixtures()
	session.ExpiresAt = time.Now().Add(-time.Minute)

	_, ok := svc.DecodeCacheCookie(svc.EncodeCacheCookie(user, session))
	assert.False(t, ok)
}
