package invoice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/billfold/billfold/internal/pocketbase"
	"github.com/billfold/billfold/pkg/logger"
)

var (
	// ErrNotFound reports a missing invoice or template, including rows
	// owned by somebody else. Ownership misses are indistinguishable from
	// absence on purpose.
	ErrNotFound = errors.New("not found")
	// ErrValidation reports rejected input.
	ErrValidation = errors.New("validation failed")
)

// Store is the slice of the collection store the invoicing domain uses.
// *pocketbase.Client satisfies it.
type Store interface {
	CreateRecord(ctx context.Context, collection string, data map[string]any) (pocketbase.Record, error)
	GetRecord(ctx context.Context, collection, id string) (pocketbase.Record, error)
	UpdateRecord(ctx context.Context, collection, id string, data map[string]any) (pocketbase.Record, error)
	DeleteRecord(ctx context.Context, collection, id string) error
	FullList(ctx context.Context, collection string, opts pocketbase.ListOptions) ([]pocketbase.Record, error)
}

// Service owns invoice and template operations. Every operation is scoped
// to one owning user by query filtering; there is no store-level isolation
// beyond that convention.
type Service struct {
	store Store
}

// NewService builds the invoicing service over a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// InvoiceInput is the editable part of an invoice.
type InvoiceInput struct {
	InvoiceNumber string         `json:"invoiceNumber"`
	ClientName    string         `json:"clientName"`
	ClientEmail   string         `json:"clientEmail"`
	ClientAddress string         `json:"clientAddress"`
	Currency      string         `json:"currency"`
	Status        Status         `json:"status"`
	DueDate       string         `json:"dueDate"`
	LineItems     []LineItem     `json:"lineItems"`
	Notes         string         `json:"notes"`
	Customization *Customization `json:"customization"`
}

// NormalizeLineItems recomputes every item's amount as quantity times rate
// and drops items with an empty description or a zero amount. Returns the
// kept items and their total.
func NormalizeLineItems(items []LineItem) ([]LineItem, float64) {
	kept := make([]LineItem, 0, len(items))
	total := 0.0
	for _, item := range items {
		item.Amount = item.Quantity * item.Rate
		if strings.TrimSpace(item.Description) == "" || item.Amount == 0 {
			continue
		}
		kept = append(kept, item)
		total += item.Amount
	}
	return kept, total
}

// ListInvoices returns the user's invoices, newest first.
func (s *Service) ListInvoices(ctx context.Context, userID string) ([]Invoice, error) {
	records, err := s.store.FullList(ctx, CollectionInvoices, pocketbase.ListOptions{
		Filter: ownerFilter(userID),
		Sort:   "-created",
	})
	if err != nil {
		return nil, err
	}

	invoices := make([]Invoice, 0, len(records))
	for _, record := range records {
		inv, err := invoiceFromRecord(record)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

// CreateInvoice validates and stores a new invoice for the user. Line items
// are normalized; an empty invoice number gets a generated one; status
// defaults to draft.
func (s *Service) CreateInvoice(ctx context.Context, userID string, input InvoiceInput) (Invoice, error) {
	if err := validateInput(input); err != nil {
		return Invoice{}, err
	}

	items, total := NormalizeLineItems(input.LineItems)
	if len(items) == 0 {
		return Invoice{}, fmt.Errorf("%w: invoice needs at least one non-empty line item", ErrValidation)
	}

	number := input.InvoiceNumber
	if number == "" {
		number = GenerateInvoiceNumber()
	}
	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}
	status := input.Status
	if status == "" {
		status = StatusDraft
	}

	data := map[string]any{
		"invoiceNumber": number,
		"userId":        userID,
		"clientName":    input.ClientName,
		"clientEmail":   input.ClientEmail,
		"clientAddress": input.ClientAddress,
		"amount":        total,
		"currency":      currency,
		"status":        string(status),
		"dueDate":       input.DueDate,
		"lineItems":     items,
		"notes":         input.Notes,
	}
	if input.Customization != nil {
		data["customization"] = input.Customization
	} else if tpl, err := s.DefaultTemplate(ctx, userID); err == nil {
		data["customization"] = Customization{
			Template:     tpl.Settings.Template,
			PrimaryColor: tpl.Settings.PrimaryColor,
			ShowTax:      tpl.Settings.ShowTax,
		}
	}

	record, err := s.store.CreateRecord(ctx, CollectionInvoices, data)
	if err != nil {
		return Invoice{}, err
	}
	logger.Info("Created invoice", "invoice", number, "user_id", userID)
	return invoiceFromRecord(record)
}

// GetInvoice fetches one invoice owned by the user.
func (s *Service) GetInvoice(ctx context.Context, userID, id string) (Invoice, error) {
	record, err := s.store.GetRecord(ctx, CollectionInvoices, id)
	if err != nil {
		return Invoice{}, mapStoreErr(err)
	}
	inv, err := invoiceFromRecord(record)
	if err != nil {
		return Invoice{}, err
	}
	if inv.UserID != userID {
		return Invoice{}, ErrNotFound
	}
	return inv, nil
}

// UpdateInvoice replaces an invoice's editable fields, re-normalizing line
// items and recomputing the total.
func (s *Service) UpdateInvoice(ctx context.Context, userID, id string, input InvoiceInput) (Invoice, error) {
	if _, err := s.GetInvoice(ctx, userID, id); err != nil {
		return Invoice{}, err
	}
	if err := validateInput(input); err != nil {
		return Invoice{}, err
	}

	items, total := NormalizeLineItems(input.LineItems)
	if len(items) == 0 {
		return Invoice{}, fmt.Errorf("%w: invoice needs at least one non-empty line item", ErrValidation)
	}
	if input.Status != "" && !ValidStatus(input.Status) {
		return Invoice{}, fmt.Errorf("%w: unknown status %q", ErrValidation, input.Status)
	}

	data := map[string]any{
		"clientName":    input.ClientName,
		"clientEmail":   input.ClientEmail,
		"clientAddress": input.ClientAddress,
		"amount":        total,
		"dueDate":       input.DueDate,
		"lineItems":     items,
		"notes":         input.Notes,
	}
	if input.InvoiceNumber != "" {
		data["invoiceNumber"] = input.InvoiceNumber
	}
	if input.Currency != "" {
		data["currency"] = input.Currency
	}
	if input.Status != "" {
		data["status"] = string(input.Status)
	}
	if input.Customization != nil {
		data["customization"] = input.Customization
	}

	record, err := s.store.UpdateRecord(ctx, CollectionInvoices, id, data)
	if err != nil {
		return Invoice{}, mapStoreErr(err)
	}
	return invoiceFromRecord(record)
}

// UpdateStatus transitions an invoice's lifecycle state, stamping sentAt on
// the first move to sent and paidAt on the first move to paid.
func (s *Service) UpdateStatus(ctx context.Context, userID, id string, status Status) (Invoice, error) {
	if !ValidStatus(status) {
		return Invoice{}, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	current, err := s.GetInvoice(ctx, userID, id)
	if err != nil {
		return Invoice{}, err
	}

	data := map[string]any{"status": string(status)}
	now := time.Now().UTC().Format(time.RFC3339)
	if status == StatusSent && current.SentAt == nil {
		data["sentAt"] = now
	}
	if status == StatusPaid && current.PaidAt == nil {
		data["paidAt"] = now
	}

	record, err := s.store.UpdateRecord(ctx, CollectionInvoices, id, data)
	if err != nil {
		return Invoice{}, mapStoreErr(err)
	}
	logger.Info("Invoice status changed", "invoice_id", id, "status", status)
	return invoiceFromRecord(record)
}

// DeleteInvoice removes an invoice owned by the user.
func (s *Service) DeleteInvoice(ctx context.Context, userID, id string) error {
	if _, err := s.GetInvoice(ctx, userID, id); err != nil {
		return err
	}
	return mapStoreErr(s.store.DeleteRecord(ctx, CollectionInvoices, id))
}

// DashboardStats is the rollup the dashboard renders.
type DashboardStats struct {
	Total       int            `json:"total"`
	ByStatus    map[Status]int `json:"byStatus"`
	TotalAmount float64        `json:"totalAmount"`
	PaidAmount  float64        `json:"paidAmount"`
}

// Stats aggregates the user's invoices.
func (s *Service) Stats(ctx context.Context, userID string) (DashboardStats, error) {
	invoices, err := s.ListInvoices(ctx, userID)
	if err != nil {
		return DashboardStats{}, err
	}

	stats := DashboardStats{
		Total:    len(invoices),
		ByStatus: map[Status]int{},
	}
	for _, inv := range invoices {
		stats.ByStatus[inv.Status]++
		stats.TotalAmount += inv.Amount
		if inv.Status == StatusPaid {
			stats.PaidAmount += inv.Amount
		}
	}
	return stats, nil
}

func validateInput(input InvoiceInput) error {
	if strings.TrimSpace(input.ClientName) == "" {
		return fmt.Errorf("%w: client name is required", ErrValidation)
	}
	if strings.TrimSpace(input.ClientEmail) == "" {
		return fmt.Errorf("%w: client email is required", ErrValidation)
	}
	if input.Status != "" && !ValidStatus(input.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, input.Status)
	}
	return nil
}

func ownerFilter(userID string) string {
	return fmt.Sprintf("userId = %q", userID)
}

func mapStoreErr(err error) error {
	if pocketbase.StatusOf(err) == http.StatusNotFound {
		return ErrNotFound
	}
	return err
}
