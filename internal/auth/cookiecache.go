package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"time"
)

// CachedSession is the payload of the short-lived session cache cookie: a
// client-side cache layered over remote session validation so every request
// within the window skips the store round-trip.
type CachedSession struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// EncodeCacheCookie signs a cache payload for the session. The cache never
// outlives the session itself.
func (s *Service) EncodeCacheCookie(user User, session Session) string {
	expires := time.Now().Add(s.cacheTTL)
	if session.ExpiresAt.Before(expires) {
		expires = session.ExpiresAt
	}

	payload, err := json.Marshal(CachedSession{
		Token:     session.Token,
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		ExpiresAt: expires,
	})
	if err != nil {
		return ""
	}

	body := base64.RawURLEncoding.EncodeToString(payload)
	return body + "." + s.sign(body)
}

// DecodeCacheCookie verifies a cache cookie and returns its payload. The
// second return is false for tampered, malformed or expired values.
func (s *Service) DecodeCacheCookie(value string) (CachedSession, bool) {
	var cached CachedSession

	body, sig, ok := splitCookie(value)
	if !ok {
		return cached, false
	}
	if !hmac.Equal([]byte(s.sign(body)), []byte(sig)) {
		return cached, false
	}

	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return cached, false
	}
	if err := json.Unmarshal(raw, &cached); err != nil {
		return cached, false
	}
	if time.Now().After(cached.ExpiresAt) {
		return CachedSession{}, false
	}
	return cached, true
}

func (s *Service) sign(body string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func splitCookie(value string) (body, sig string, ok bool) {
	for i := len(value) - 1; i >= 0; i-- {
		if value[i] == '.' {
			return value[:i], value[i+1:], true
		}
	}
	return "", "", false
}
