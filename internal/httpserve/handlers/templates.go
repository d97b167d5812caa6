package handlers

import (
	"net/http"

	"github.com/billfold/billfold/internal/httpserve/middleware"
	"github.com/billfold/billfold/internal/invoice"
	"github.com/billfold/billfold/internal/server"
	"github.com/labstack/echo/v4"
)

// ListTemplates returns the user's style templates.
func ListTemplates(c echo.Context, a *server.App) error {
	user := middleware.UserFrom(c)

	templates, err := a.Invoices.ListTemplates(c.Request().Context(), user.ID)
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(http.StatusOK, templates)
}

// CreateTemplate stores a new style template.
func CreateTemplate(c echo.Context, a *server.App) error {
	user := middleware.UserFrom(c)

	var input invoice.TemplateInput
	if err := c.Bind(&input); err != nil {
		return sendError(c, http.StatusBadRequest, "invalid request body")
	}

	created, err := a.Invoices.CreateTemplate(c.Request().Context(), user.ID, input)
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// GetTemplate returns one style template.
func GetTemplate(c echo.Context, a *server.App) error {
	user := middleware.UserFrom(c)

	tpl, err := a.Invoices.GetTemplate(c.Request().Context(), user.ID, c.Param("id"))
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(http.StatusOK, tpl)
}

// UpdateTemplate replaces a template's editable fields.
func UpdateTemplate(c echo.Context, a *server.App) error {
	user := middleware.UserFrom(c)

	var input invoice.TemplateInput
	if err := c.Bind(&input); err != nil {
		return sendError(c, http.StatusBadRequest, "invalid request body")
	}

	updated, err := a.Invoices.UpdateTemplate(c.Request().Context(), user.ID, c.Param("id"), input)
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteTemplate removes a template.
func DeleteTemplate(c echo.Context, a *server.App) error {
	user := middleware.UserFrom(c)

	if err := a.Invoices.DeleteTemplate(c.Request().Context(), user.ID, c.Param("id")); err != nil {
		return respondWithError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetDefaultTemplate returns the template flagged as the user's default.
func GetDefaultTemplate(c echo.Context, a *server.App) error {
	user := middleware.UserFrom(c)

	tpl, err := a.Invoices.DefaultTemplate(c.Request().Context(), user.ID)
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(http.StatusOK, tpl)
}

// SetDefaultTemplate flags a template as the user's default.
func SetDefaultTemplate(c echo.Context, a *server.App) error {
	user := middleware.UserFrom(c)

	tpl, err := a.Invoices.SetDefaultTemplate(c.Request().Context(), user.ID, c.Param("id"))
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(http.StatusOK, tpl)
}
