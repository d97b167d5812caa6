package invoice_test

import (
	"context"
	"testing"

	"github.com/billfold/billfold/internal/invoice"
	"github.com/billfold/billfold/internal/pocketbase/pbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*invoice.Service, *pbtest.Server) {
	t.Helper()
	server := pbtest.New(t)
	server.CreateCollection(invoice.CollectionInvoices)
	server.CreateCollection(invoice.CollectionTemplates)
	return invoice.NewService(server.Client()), server
}

func validInput() invoice.InvoiceInput {
	return invoice.InvoiceInput{
		ClientName:  "Acme Corp",
		ClientEmail: "billing@acme.example",
		DueDate:     "2026-10-01",
		LineItems: []invoice.LineItem{
			{Description: "Design work", Quantity: 10, Rate: 80},
			{Description: "Hosting", Quantity: 1, Rate: 25},
		},
	}
}

func TestNormalizeLineItems(t *testing.T) {
	items, total := invoice.NormalizeLineItems([]invoice.LineItem{
		{Description: "Design work", Quantity: 10, Rate: 80, Amount: 999}, // stale amount recomputed
		{Description: "   ", Quantity: 1, Rate: 100},                      // blank description dropped
		{Description: "Free sample", Quantity: 5, Rate: 0},                // zero amount dropped
		{Description: "Hosting", Quantity: 1, Rate: 25},
	})

	require.Len(t, items, 2)
	assert.Equal(t, 800.0, items[0].Amount)
	assert.Equal(t, 25.0, items[1].Amount)
	assert.Equal(t, 825.0, total)
}

func TestCreateInvoiceDefaults(t *testing.T) {
	svc, _ := newService(t)

	inv, err := svc.CreateInvoice(context.Background(), "u1", validInput())
	require.NoError(t, err)

	assert.Regexp(t, `^INV-\d{4}-\d{2}-\d{4}$`, inv.InvoiceNumber)
	assert.Equal(t, "USD", inv.Currency)
	assert.Equal(t, invoice.StatusDraft, inv.Status)
	assert.Equal(t, "u1", inv.UserID)
	assert.Equal(t, 825.0, inv.Amount)
	require.Len(t, inv.LineItems, 2)
}

func TestCreateInvoiceValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	input := validInput()
	input.ClientName = " "
	_, err := svc.CreateInvoice(ctx, "u1", input)
	assert.ErrorIs(t, err, invoice.ErrValidation)

	input = validInput()
	input.ClientEmail = ""
	_, err = svc.CreateInvoice(ctx, "u1", input)
	assert.ErrorIs(t, err, invoice.ErrValidation)

	input = validInput()
	input.Status = "archived"
	_, err = svc.CreateInvoice(ctx, "u1", input)
	assert.ErrorIs(t, err, invoice.ErrValidation)

	input = validInput()
	input.LineItems = []invoice.LineItem{{Description: "", Quantity: 1, Rate: 10}}
	_, err = svc.CreateInvoice(ctx, "u1", input)
	assert.ErrorIs(t, err, invoice.ErrValidation)
}

func TestCreateInvoicePicksUpDefaultTemplate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateTemplate(ctx, "u1", invoice.TemplateInput{
		Name:      "House style",
		IsDefault: true,
		Settings: invoice.TemplateSettings{
			Template:     "modern",
			PrimaryColor: "#336699",
			ShowTax:      true,
		},
	})
	require.NoError(t, err)

	inv, err := svc.CreateInvoice(ctx, "u1", validInput())
	require.NoError(t, err)
	require.NotNil(t, inv.Customization)
	assert.Equal(t, "modern", inv.Customization.Template)
	assert.Equal(t, "#336699", inv.Customization.PrimaryColor)
	assert.True(t, inv.Customization.ShowTax)
}

func TestListInvoicesScopedToOwner(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateInvoice(ctx, "u1", validInput())
	require.NoError(t, err)
	_, err = svc.CreateInvoice(ctx, "u2", validInput())
	require.NoError(t, err)

	invoices, err := svc.ListInvoices(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, "u1", invoices[0].UserID)
}

func TestGetInvoiceOwnership(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.CreateInvoice(ctx, "u1", validInput())
	require.NoError(t, err)

	got, err := svc.GetInvoice(ctx, "u1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	// Somebody else's invoice reads as absent, not forbidden.
	_, err = svc.GetInvoice(ctx, "u2", created.ID)
	assert.ErrorIs(t, err, invoice.ErrNotFound)

	_, err = svc.GetInvoice(ctx, "u1", "missing")
	assert.ErrorIs(t, err, invoice.ErrNotFound)
}

func TestUpdateInvoiceRecomputesTotal(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.CreateInvoice(ctx, "u1", validInput())
	require.NoError(t, err)

	input := validInput()
	input.LineItems = []invoice.LineItem{{Description: "Design work", Quantity: 2, Rate: 80}}
	updated, err := svc.UpdateInvoice(ctx, "u1", created.ID, input)
	require.NoError(t, err)
	assert.Equal(t, 160.0, updated.Amount)
	require.Len(t, updated.LineItems, 1)
}

func TestUpdateStatusStampsTransitions(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.CreateInvoice(ctx, "u1", validInput())
	require.NoError(t, err)
	require.Nil(t, created.SentAt)

	sent, err := svc.UpdateStatus(ctx, "u1", created.ID, invoice.StatusSent)
	require.NoError(t, err)
	require.NotNil(t, sent.SentAt)
	firstSentAt := *sent.SentAt

	paid, err := svc.UpdateStatus(ctx, "u1", created.ID, invoice.StatusPaid)
	require.NoError(t, err)
	require.NotNil(t, paid.PaidAt)

	// Going back to sent keeps the original stamp.
	again, err := svc.UpdateStatus(ctx, "u1", created.ID, invoice.StatusSent)
	require.NoError(t, err)
	require.NotNil(t, again.SentAt)
	assert.True(t, firstSentAt.Equal(*again.SentAt))

	_, err = svc.UpdateStatus(ctx, "u1", created.ID, "archived")
	assert.ErrorIs(t, err, invoice.ErrValidation)
}

func TestDeleteInvoice(t *testing.T) {
	svc, server := newService(t)
	ctx := context.Background()

	created, err := svc.CreateInvoice(ctx, "u1", validInput())
	require.NoError(t, err)

	// Deleting through the wrong owner leaves the row alone.
	err = svc.DeleteInvoice(ctx, "u2", created.ID)
	assert.ErrorIs(t, err, invoice.ErrNotFound)
	assert.Len(t, server.Records(invoice.CollectionInvoices), 1)

	require.NoError(t, svc.DeleteInvoice(ctx, "u1", created.ID))
	assert.Empty(t, server.Records(invoice.CollectionInvoices))
}

func TestStats(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	first, err := svc.CreateInvoice(ctx, "u1", validInput())
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, "u1", first.ID, invoice.StatusPaid)
	require.NoError(t, err)

	_, err = svc.CreateInvoice(ctx, "u1", validInput())
	require.NoError(t, err)
	_, err = svc.CreateInvoice(ctx, "u2", validInput())
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[invoice.StatusPaid])
	assert.Equal(t, 1, stats.ByStatus[invoice.StatusDraft])
	assert.Equal(t, 1650.0, stats.TotalAmount)
	assert.Equal(t, 825.0, stats.PaidAmount)
}
