package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/billfold/billfold/internal/adapter"
	"github.com/billfold/billfold/internal/common"
	"github.com/billfold/billfold/pkg/logger"
)

// ErrProviderDenied reports a failed code exchange or profile fetch.
var ErrProviderDenied = errors.New("provider rejected the request")

// Provider is one configured OAuth identity provider.
type Provider struct {
	Name         string
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	ProfileURL   string
	// EmailURL is a secondary endpoint for providers that omit the email
	// from the profile response (github).
	EmailURL string
	Scopes   []string

	httpClient *http.Client
}

// Profile is the provider-agnostic identity a handshake yields.
type Profile struct {
	AccountID     string
	Email         string
	EmailVerified bool
	Name          string
	Image         string
}

// NewProviders builds the known providers from configured credentials.
// Providers without credentials are left out.
func NewProviders(configs map[string]common.ProviderConfig) map[string]*Provider {
	providers := map[string]*Provider{}
	for name, cfg := range configs {
		switch name {
		case "google":
			providers[name] = &Provider{
				Name:         "google",
				ClientID:     cfg.ClientID,
				ClientSecret: cfg.ClientSecret,
				AuthURL:      "https://accounts.google.com/o/oauth2/v2/auth",
				TokenURL:     "https://oauth2.googleapis.com/token",
				ProfileURL:   "https://www.googleapis.com/oauth2/v2/userinfo",
				Scopes:       []string{"email", "profile"},
			}
		case "github":
			providers[name] = &Provider{
				Name:         "github",
				ClientID:     cfg.ClientID,
				ClientSecret: cfg.ClientSecret,
				AuthURL:      "https://github.com/login/oauth/authorize",
				TokenURL:     "https://github.com/login/oauth/access_token",
				ProfileURL:   "https://api.github.com/user",
				EmailURL:     "https://api.github.com/user/emails",
				Scopes:       []string{"user:email"},
			}
		default:
			logger.Warn("Ignoring unknown OAuth provider", "provider", name)
		}
	}
	return providers
}

func (p *Provider) client() *http.Client {
	if p.httpClient != nil {
		return p.httpClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}

// AuthCodeURL builds the provider redirect starting the handshake.
func (p *Provider) AuthCodeURL(redirectURI, state string) string {
	q := url.Values{}
	q.Set("client_id", p.ClientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("response_type", "code")
	q.Set("state", state)
	q.Set("scope", strings.Join(p.Scopes, " "))
	return p.AuthURL + "?" + q.Encode()
}

// Exchange trades an authorization code for an access token.
func (p *Provider) Exchange(ctx context.Context, code, redirectURI string) (string, error) {
	form := url.Values{}
	form.Set("client_id", p.ClientID)
	form.Set("client_secret", p.ClientSecret)
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", redirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: token endpoint returned %d", ErrProviderDenied, resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		Error       string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("%w: %s", ErrProviderDenied, payload.Error)
	}
	return payload.AccessToken, nil
}

// FetchProfile resolves the provider identity behind an access token.
func (p *Provider) FetchProfile(ctx context.Context, accessToken string) (Profile, error) {
	var raw map[string]any
	if err := p.getJSON(ctx, p.ProfileURL, accessToken, &raw); err != nil {
		return Profile{}, err
	}

	profile := p.mapProfile(raw)
	if profile.Email == "" && p.EmailURL != "" {
		if email, verified, err := p.fetchPrimaryEmail(ctx, accessToken); err == nil {
			profile.Email = email
			profile.EmailVerified = verified
		}
	}
	if profile.AccountID == "" || profile.Email == "" {
		return Profile{}, fmt.Errorf("%w: profile is missing id or email", ErrProviderDenied)
	}
	return profile, nil
}

func (p *Provider) mapProfile(raw map[string]any) Profile {
	profile := Profile{}
	switch p.Name {
	case "github":
		if id, ok := raw["id"].(float64); ok {
			profile.AccountID = strconv.FormatInt(int64(id), 10)
		}
		profile.Email, _ = raw["email"].(string)
		profile.Name, _ = raw["name"].(string)
		if profile.Name == "" {
			profile.Name, _ = raw["login"].(string)
		}
		profile.Image, _ = raw["avatar_url"].(string)
		// github only exposes verified emails over the API
		profile.EmailVerified = profile.Email != ""
	default: // google and google-shaped providers
		profile.AccountID, _ = raw["id"].(string)
		profile.Email, _ = raw["email"].(string)
		profile.Name, _ = raw["name"].(string)
		profile.Image, _ = raw["picture"].(string)
		profile.EmailVerified, _ = raw["verified_email"].(bool)
	}
	return profile
}

func (p *Provider) fetchPrimaryEmail(ctx context.Context, accessToken string) (string, bool, error) {
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := p.getJSON(ctx, p.EmailURL, accessToken, &emails); err != nil {
		return "", false, err
	}
	for _, e := range emails {
		if e.Primary {
			return e.Email, e.Verified, nil
		}
	}
	if len(emails) > 0 {
		return emails[0].Email, emails[0].Verified, nil
	}
	return "", false, fmt.Errorf("%w: no email on record", ErrProviderDenied)
}

func (p *Provider) getJSON(ctx context.Context, endpoint, accessToken string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: %s returned %d", ErrProviderDenied, endpoint, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// CompleteOAuth finishes a social sign-in: finds the linked account or
// creates one (linking to an existing user by email when possible), then
// opens a session.
func (s *Service) CompleteOAuth(ctx context.Context, provider *Provider, profile Profile, accessToken string, client ClientInfo) (User, Session, error) {
	records, err := s.db.FindMany(ctx, ModelAccount, adapter.FindManyOptions{
		Where: []adapter.Where{
			adapter.Eq("providerId", provider.Name),
			adapter.Eq("accountId", profile.AccountID),
		},
		Limit: 1,
	})
	if err != nil {
		return User{}, Session{}, err
	}

	var user User
	if len(records) > 0 {
		account := accountFromRecord(records[0])
		userRec, err := s.db.FindOne(ctx, ModelUser, adapter.ByID(account.UserID))
		if err != nil {
			return User{}, Session{}, err
		}
		user = userFromRecord(userRec)

		if _, err := s.db.Update(ctx, ModelAccount, adapter.ByID(account.ID), map[string]any{
			"accessToken": accessToken,
		}); err != nil {
			logger.Warn("Failed to refresh provider token", "account_id", account.ID, "error", err)
		}
	} else {
		user, err = s.findUserByEmail(ctx, normalizeEmail(profile.Email))
		if errors.Is(err, adapter.ErrNotFound) {
			userRec, createErr := s.db.Create(ctx, ModelUser, map[string]any{
				"email":         normalizeEmail(profile.Email),
				"emailVerified": profile.EmailVerified,
				"name":          profile.Name,
				"image":         profile.Image,
			}, false)
			if createErr != nil {
				return User{}, Session{}, createErr
			}
			user = userFromRecord(userRec)
		} else if err != nil {
			return User{}, Session{}, err
		}

		if _, err := s.db.Create(ctx, ModelAccount, map[string]any{
			"userId":      user.ID,
			"accountId":   profile.AccountID,
			"providerId":  provider.Name,
			"accessToken": accessToken,
		}, false); err != nil {
			return User{}, Session{}, err
		}
		logger.Info("Linked provider account", "user_id", user.ID, "provider", provider.Name)
	}

	session, err := s.createSession(ctx, user.ID, client)
	if err != nil {
		return User{}, Session{}, err
	}
	return user, session, nil
}
