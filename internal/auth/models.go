package auth

import (
	"time"

	"github.com/billfold/billfold/internal/pocketbase"
)

// Collection names the auth layer persists into.
const (
	ModelUser         = "user"
	ModelSession      = "session"
	ModelAccount      = "account"
	ModelVerification = "verification"
)

// ProviderCredential marks password accounts, as opposed to social ones.
const ProviderCredential = "credential"

// User is one identity record.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
	Name          string    `json:"name"`
	Image         string    `json:"image,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Session is one active login.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
}

// Account links a user to an external identity provider, or carries the
// password hash for credential accounts.
type Account struct {
	ID           string
	UserID       string
	AccountID    string
	ProviderID   string
	AccessToken  string
	RefreshToken string
	Password     string
	ExpiresAt    time.Time
}

// Verification is a short-lived challenge record.
type Verification struct {
	ID         string
	Identifier string
	Value      string
	ExpiresAt  time.Time
}

func userFromRecord(r pocketbase.Record) User {
	return User{
		ID:            r.ID(),
		Email:         r.GetString("email"),
		EmailVerified: r.GetBool("emailVerified"),
		Name:          r.GetString("name"),
		Image:         r.GetString("image"),
		CreatedAt:     r.GetTime("created"),
		UpdatedAt:     r.GetTime("updated"),
	}
}

func sessionFromRecord(r pocketbase.Record) Session {
	return Session{
		ID:        r.ID(),
		UserID:    r.GetString("userId"),
		Token:     r.GetString("token"),
		ExpiresAt: r.GetTime("expiresAt"),
		IPAddress: r.GetString("ipAddress"),
		UserAgent: r.GetString("userAgent"),
	}
}

func accountFromRecord(r pocketbase.Record) Account {
	return Account{
		ID:           r.ID(),
		UserID:       r.GetString("userId"),
		AccountID:    r.GetString("accountId"),
		ProviderID:   r.GetString("providerId"),
		AccessToken:  r.GetString("accessToken"),
		RefreshToken: r.GetString("refreshToken"),
		Password:     r.GetString("password"),
		ExpiresAt:    r.GetTime("expiresAt"),
	}
}

func verificationFromRecord(r pocketbase.Record) Verification {
	return Verification{
		ID:         r.ID(),
		Identifier: r.GetString("identifier"),
		Value:      r.GetString("value"),
		ExpiresAt:  r.GetTime("expiresAt"),
	}
}
