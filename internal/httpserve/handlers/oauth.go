package handlers

import (
	"net/http"

	"github.com/billfold/billfold/internal/server"
	"github.com/billfold/billfold/pkg/logger"
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const oauthStateKey = "oauth_state"

// StartOAuth redirects the browser to the provider's consent screen,
// stashing the state nonce in the cookie session for the callback to check.
func StartOAuth(c echo.Context, a *server.App) error {
	provider := a.Auth.Provider(c.Param("provider"))
	if provider == nil {
		return sendError(c, http.StatusNotFound, "unknown provider")
	}

	sess, err := session.Get("billfold_oauth", c)
	if err != nil {
		return respondWithError(c, err)
	}

	state := uuid.NewString()
	sess.Values[oauthStateKey] = state
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return respondWithError(c, err)
	}

	redirectURI := a.Config.Auth.BaseURL + "/api/auth/callback/" + provider.Name
	return c.Redirect(http.StatusSeeOther, provider.AuthCodeURL(redirectURI, state))
}

// OAuthCallback finishes the handshake: state check, code exchange, profile
// fetch, account find-or-create, session. On success the browser is sent
// back to the app origin.
func OAuthCallback(c echo.Context, a *server.App) error {
	provider := a.Auth.Provider(c.Param("provider"))
	if provider == nil {
		return sendError(c, http.StatusNotFound, "unknown provider")
	}

	sess, err := session.Get("billfold_oauth", c)
	if err != nil {
		return respondWithError(c, err)
	}
	expectedState, _ := sess.Values[oauthStateKey].(string)
	delete(sess.Values, oauthStateKey)
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return respondWithError(c, err)
	}

	if expectedState == "" || c.QueryParam("state") != expectedState {
		logger.Warn("OAuth state mismatch", "provider", provider.Name)
		return sendError(c, http.StatusBadRequest, "state mismatch")
	}

	code := c.QueryParam("code")
	if code == "" {
		return sendError(c, http.StatusBadRequest, "missing authorization code")
	}

	ctx := c.Request().Context()
	redirectURI := a.Config.Auth.BaseURL + "/api/auth/callback/" + provider.Name

	accessToken, err := provider.Exchange(ctx, code, redirectURI)
	if err != nil {
		return respondWithError(c, err)
	}
	profile, err := provider.FetchProfile(ctx, accessToken)
	if err != nil {
		return respondWithError(c, err)
	}

	user, authSession, err := a.Auth.CompleteOAuth(ctx, provider, profile, accessToken, clientInfo(c))
	if err != nil {
		return respondWithError(c, err)
	}

	setSessionCookies(c, a, user, authSession)
	return c.Redirect(http.StatusSeeOther, a.Config.Http.AppOrigin)
}
