package server

import (
	"context"

	"github.com/billfold/billfold/internal/pocketbase"
	"github.com/billfold/billfold/pkg/logger"
)

// DefaultCollections is the schema the system expects in the store: the
// four auth collections plus the two invoicing ones.
func DefaultCollections() []pocketbase.Collection {
	return []pocketbase.Collection{
		{
			Name: "user",
			Type: "base",
			Schema: []pocketbase.CollectionField{
				{Name: "email", Type: "email", Required: true},
				{Name: "emailVerified", Type: "bool"},
				{Name: "name", Type: "text"},
				{Name: "image", Type: "url"},
			},
		},
		{
			Name: "session",
			Type: "base",
			Schema: []pocketbase.CollectionField{
				{Name: "userId", Type: "text", Required: true},
				{Name: "expiresAt", Type: "date", Required: true},
				{Name: "token", Type: "text", Required: true},
				{Name: "ipAddress", Type: "text"},
				{Name: "userAgent", Type: "text"},
			},
		},
		{
			Name: "account",
			Type: "base",
			Schema: []pocketbase.CollectionField{
				{Name: "userId", Type: "text", Required: true},
				{Name: "accountId", Type: "text", Required: true},
				{Name: "providerId", Type: "text", Required: true},
				{Name: "accessToken", Type: "text"},
				{Name: "refreshToken", Type: "text"},
				{Name: "password", Type: "text"},
				{Name: "expiresAt", Type: "date"},
			},
		},
		{
			Name: "verification",
			Type: "base",
			Schema: []pocketbase.CollectionField{
				{Name: "identifier", Type: "text", Required: true},
				{Name: "value", Type: "text", Required: true},
				{Name: "expiresAt", Type: "date", Required: true},
			},
		},
		{
			Name: "invoices",
			Type: "base",
			Schema: []pocketbase.CollectionField{
				{Name: "invoiceNumber", Type: "text", Required: true},
				{Name: "userId", Type: "text", Required: true},
				{Name: "clientName", Type: "text", Required: true},
				{Name: "clientEmail", Type: "email", Required: true},
				{Name: "clientAddress", Type: "text"},
				{Name: "amount", Type: "number"},
				{Name: "currency", Type: "text"},
				{Name: "status", Type: "text", Required: true},
				{Name: "dueDate", Type: "text"},
				{Name: "lineItems", Type: "json"},
				{Name: "notes", Type: "text"},
				{Name: "customization", Type: "json"},
				{Name: "sentAt", Type: "date"},
				{Name: "paidAt", Type: "date"},
			},
		},
		{
			Name: "invoice_templates",
			Type: "base",
			Schema: []pocketbase.CollectionField{
				{Name: "userId", Type: "text", Required: true},
				{Name: "name", Type: "text", Required: true},
				{Name: "description", Type: "text"},
				{Name: "settings", Type: "json"},
				{Name: "isDefault", Type: "bool"},
			},
		},
	}
}

// BootstrapResult is one collection's outcome from a bootstrap run.
type BootstrapResult struct {
	Name    string
	Created bool
	Err     error
}

// Bootstrap creates the given collections. The run is one-shot and not
// idempotent on the store side: a collection that already exists comes back
// as a 400, which is logged as a soft warning per collection instead of
// failing the process.
func Bootstrap(ctx context.Context, store *pocketbase.Client, collections []pocketbase.Collection) []BootstrapResult {
	results := make([]BootstrapResult, 0, len(collections))
	for _, collection := range collections {
		err := store.CreateCollection(ctx, collection)
		if err != nil {
			logger.Warn("Collection might already exist", "collection", collection.Name, "error", err)
			results = append(results, BootstrapResult{Name: collection.Name, Err: err})
			continue
		}
		logger.Info("Created collection", "collection", collection.Name)
		results = append(results, BootstrapResult{Name: collection.Name, Created: true})
	}
	return results
}
