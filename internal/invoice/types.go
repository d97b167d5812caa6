// Package invoice holds the invoicing domain: invoices with computed
// line-item totals, status transitions, named style templates and the
// dashboard rollup. Rows live in the remote collection store and are always
// scoped to their owning user.
package invoice

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/billfold/billfold/internal/pocketbase"
)

// Collections backing the invoicing domain.
const (
	CollectionInvoices  = "invoices"
	CollectionTemplates = "invoice_templates"
)

// Status is an invoice's lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

// ValidStatus reports whether s is one of the known lifecycle states.
func ValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// LineItem is one billed row. Amount is always quantity times rate; the
// stored value is recomputed on every write.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
}

// Customization is the per-invoice style block, pre-filled from the owner's
// default template.
type Customization struct {
	Template     string `json:"template"`
	PrimaryColor string `json:"primaryColor"`
	ShowTax      bool   `json:"showTax"`
}

// Invoice is one invoice row.
type Invoice struct {
	ID            string         `json:"id"`
	InvoiceNumber string         `json:"invoiceNumber"`
	UserID        string         `json:"userId"`
	ClientName    string         `json:"clientName"`
	ClientEmail   string         `json:"clientEmail"`
	ClientAddress string         `json:"clientAddress,omitempty"`
	Amount        float64        `json:"amount"`
	Currency      string         `json:"currency"`
	Status        Status         `json:"status"`
	DueDate       string         `json:"dueDate"`
	LineItems     []LineItem     `json:"lineItems"`
	Notes         string         `json:"notes,omitempty"`
	Customization *Customization `json:"customization,omitempty"`
	SentAt        *time.Time     `json:"sentAt,omitempty"`
	PaidAt        *time.Time     `json:"paidAt,omitempty"`
	Created       time.Time      `json:"created"`
	Updated       time.Time      `json:"updated"`
}

// TemplateSettings are the visual knobs of a style template.
type TemplateSettings struct {
	Template       string `json:"template"`
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor,omitempty"`
	FontFamily     string `json:"fontFamily"`
	ShowTax        bool   `json:"showTax"`
	ShowDiscount   bool   `json:"showDiscount"`
	HeaderText     string `json:"headerText"`
	FooterText     string `json:"footerText"`
}

// Template is a named style preset. At most one template per user should
// have IsDefault set; see Service.SetDefaultTemplate for how advisory that
// invariant is.
type Template struct {
	ID          string           `json:"id"`
	UserID      string           `json:"userId"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Settings    TemplateSettings `json:"settings"`
	IsDefault   bool             `json:"isDefault"`
	Created     time.Time        `json:"created"`
	Updated     time.Time        `json:"updated"`
}

func invoiceFromRecord(r pocketbase.Record) (Invoice, error) {
	inv := Invoice{
		ID:            r.ID(),
		InvoiceNumber: r.GetString("invoiceNumber"),
		UserID:        r.GetString("userId"),
		ClientName:    r.GetString("clientName"),
		ClientEmail:   r.GetString("clientEmail"),
		ClientAddress: r.GetString("clientAddress"),
		Amount:        r.GetFloat("amount"),
		Currency:      r.GetString("currency"),
		Status:        Status(r.GetString("status")),
		DueDate:       r.GetString("dueDate"),
		Notes:         r.GetString("notes"),
		Created:       r.GetTime("created"),
		Updated:       r.GetTime("updated"),
	}

	if err := decodeField(r, "lineItems", &inv.LineItems); err != nil {
		return Invoice{}, fmt.Errorf("invoice %s has malformed line items: %w", inv.ID, err)
	}
	if _, ok := r["customization"]; ok {
		var c Customization
		if err := decodeField(r, "customization", &c); err != nil {
			return Invoice{}, fmt.Errorf("invoice %s has malformed customization: %w", inv.ID, err)
		}
		inv.Customization = &c
	}
	if t := r.GetTime("sentAt"); !t.IsZero() {
		inv.SentAt = &t
	}
	if t := r.GetTime("paidAt"); !t.IsZero() {
		inv.PaidAt = &t
	}
	return inv, nil
}

func templateFromRecord(r pocketbase.Record) (Template, error) {
	tpl := Template{
		ID:          r.ID(),
		UserID:      r.GetString("userId"),
		Name:        r.GetString("name"),
		Description: r.GetString("description"),
		IsDefault:   r.GetBool("isDefault"),
		Created:     r.GetTime("created"),
		Updated:     r.GetTime("updated"),
	}
	if err := decodeField(r, "settings", &tpl.Settings); err != nil {
		return Template{}, fmt.Errorf("template %s has malformed settings: %w", tpl.ID, err)
	}
	return tpl, nil
}

// decodeField re-marshals a schema-less JSON field into a typed value.
func decodeField(r pocketbase.Record, key string, target any) error {
	v, ok := r[key]
	if !ok || v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}
