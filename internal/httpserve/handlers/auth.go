package handlers

import (
	"net/http"
	"strings"

	"github.com/billfold/billfold/internal/auth"
	"github.com/billfold/billfold/internal/httpserve/middleware"
	"github.com/billfold/billfold/internal/server"
	"github.com/labstack/echo/v4"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type sessionResponse struct {
	User    auth.User    `json:"user"`
	Session auth.Session `json:"session"`
}

func clientInfo(c echo.Context) auth.ClientInfo {
	return auth.ClientInfo{
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}

// SignUpEmail registers a user with email and password and opens a session.
func SignUpEmail(c echo.Context, a *server.App) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return sendError(c, http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return sendError(c, http.StatusBadRequest, "email and password are required")
	}

	user, session, err := a.Auth.SignUpEmail(c.Request().Context(), req.Email, req.Password, req.Name, clientInfo(c))
	if err != nil {
		return respondWithError(c, err)
	}

	if _, err := a.Auth.IssueVerification(c.Request().Context(), user.Email); err != nil {
		// Sign-up already succeeded; verification can be re-requested.
		return respondWithError(c, err)
	}

	setSessionCookies(c, a, user, session)
	return c.JSON(http.StatusOK, sessionResponse{User: user, Session: session})
}

// SignInEmail verifies a password and opens a session.
func SignInEmail(c echo.Context, a *server.App) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return sendError(c, http.StatusBadRequest, "invalid request body")
	}

	user, session, err := a.Auth.SignInEmail(c.Request().Context(), req.Email, req.Password, clientInfo(c))
	if err != nil {
		return respondWithError(c, err)
	}

	setSessionCookies(c, a, user, session)
	return c.JSON(http.StatusOK, sessionResponse{User: user, Session: session})
}

// SignOut deletes the current session and clears the cookies.
func SignOut(c echo.Context, a *server.App) error {
	if cookie, err := c.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if err := a.Auth.SignOut(c.Request().Context(), cookie.Value); err != nil {
			return respondWithError(c, err)
		}
	}
	clearSessionCookies(c)
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// GetSession resolves the current session. Unauthenticated requests get a
// JSON null body rather than an error, so the client can poll it freely.
func GetSession(c echo.Context, a *server.App) error {
	cookie, err := c.Cookie(middleware.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusOK, nil)
	}

	if cacheCookie, err := c.Cookie(middleware.CacheCookieName); err == nil {
		if cached, ok := a.Auth.DecodeCacheCookie(cacheCookie.Value); ok && cached.Token == cookie.Value {
			return c.JSON(http.StatusOK, map[string]any{
				"user": auth.User{ID: cached.UserID, Email: cached.Email, Name: cached.Name},
				"session": map[string]any{
					"expiresAt": cached.ExpiresAt,
					"cached":    true,
				},
			})
		}
	}

	user, session, err := a.Auth.ResolveSession(c.Request().Context(), cookie.Value)
	if err != nil {
		clearSessionCookies(c)
		return c.JSON(http.StatusOK, nil)
	}

	setSessionCookies(c, a, user, session)
	return c.JSON(http.StatusOK, sessionResponse{User: user, Session: session})
}

// RevokeSessions deletes every session of the signed-in user, including the
// current one.
func RevokeSessions(c echo.Context, a *server.App) error {
	user := middleware.UserFrom(c)

	revoked, err := a.Auth.RevokeSessions(c.Request().Context(), user.ID)
	if err != nil {
		return respondWithError(c, err)
	}

	clearSessionCookies(c)
	return c.JSON(http.StatusOK, map[string]int{"revoked": revoked})
}

// SendVerificationEmail issues a fresh verification token for an email
// address. The response is intentionally identical whether or not the
// address is registered.
func SendVerificationEmail(c echo.Context, a *server.App) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return sendError(c, http.StatusBadRequest, "email is required")
	}

	if _, err := a.Auth.IssueVerification(c.Request().Context(), req.Email); err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// VerifyEmail consumes a verification token from the emailed link.
func VerifyEmail(c echo.Context, a *server.App) error {
	token := c.QueryParam("token")
	if token == "" {
		return sendError(c, http.StatusBadRequest, "token is required")
	}

	user, err := a.Auth.VerifyEmail(c.Request().Context(), token)
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"user": user})
}
