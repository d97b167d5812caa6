package handlers

import (
	"net/http"

	"github.com/billfold/billfold/internal/httpserve/middleware"
	"github.com/billfold/billfold/internal/invoice"
	"github.com/billfold/billfold/internal/server"
	"github.com/labstack/echo/v4"
)

// ListInvoices returns the signed-in user's invoices, newest first.
func ListInvoices(c echo.Context, a *server.App) error {
	user := middleware.UserFrom(c)

	invoices, err := a.Invoices.ListInvoices(c.Request().Context(), user.ID)
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(http.StatusOK, invoices)
}

// CreateInvoice stores a new invoice from the submitted form.
func CreateInvoice(c echo.Context, a *server.App) error {
	user := middleware.UserFrom(c)

	var input invoice.InvoiceInput
	if err := c.Bind(&input); err != nil {
		return sendError(c, http.StatusBadRequest, "invalid request body")
	}

	created, err := a.Invoices.CreateInvoice(c.Request().Context(), user.ID, input)
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// GetInvoice returns one invoice.
func GetInvoice(c echo.Context, a *server.App) error {
	user := middleware.UserFrom(c)

	inv, err := a.Invoices.GetInvoice(c.Request().Context(), user.ID, c.Param("id"))
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}

// UpdateInvoice replaces an invoice's editable fields.
func UpdateInvoice(c echo.Context, a *server.App) error {
	user := middleware.UserFrom(c)

	var input invoice.InvoiceInput
	if err := c.Bind(&input); err != nil {
		return sendError(c, http.StatusBadRequest, "invalid request body")
	}

	updated, err := a.Invoices.UpdateInvoice(c.Request().Context(), user.ID, c.Param("id"), input)
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// UpdateInvoiceStatus transitions an invoice's lifecycle state.
func UpdateInvoiceStatus(c echo.Context, a *server.App) error {
	user := middleware.UserFrom(c)

	var req struct {
		Status invoice.Status `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return sendError(c, http.StatusBadRequest, "invalid request body")
	}

	updated, err := a.Invoices.UpdateStatus(c.Request().Context(), user.ID, c.Param("id"), req.Status)
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteInvoice removes an invoice.
func DeleteInvoice(c echo.Context, a *server.App) error {
	user := middleware.UserFrom(c)

	if err := a.Invoices.DeleteInvoice(c.Request().Context(), user.ID, c.Param("id")); err != nil {
		return respondWithError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// NextInvoiceNumber hands the form a fresh display number.
func NextInvoiceNumber(c echo.Context, _ *server.App) error {
	return c.JSON(http.StatusOK, map[string]string{
		"invoiceNumber": invoice.GenerateInvoiceNumber(),
	})
}

// DashboardStats returns the user's invoice rollup.
func DashboardStats(c echo.Context, a *server.App) error {
	user := middleware.UserFrom(c)

	stats, err := a.Invoices.Stats(c.Request().Context(), user.ID)
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
