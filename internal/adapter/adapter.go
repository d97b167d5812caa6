// Package adapter presents a store-agnostic persistence contract on top of
// the remote collection store. The auth layer persists everything through
// it and never sees store specifics.
//
// The store has no native batch update, batch delete or count, so those
// operations are a documented O(n) fallback: full-collection walk plus a
// local condition matcher. Fine for small tenant-scoped collections, wrong
// tool for anything else.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/billfold/billfold/internal/pocketbase"
	"github.com/billfold/billfold/pkg/logger"
)

// ErrNotFound reports that the targeted record does not exist. Callers can
// tell legitimate absence apart from operation failure.
var ErrNotFound = errors.New("record not found")

// Adapter translates generic persistence operations into store calls.
type Adapter struct {
	store *pocketbase.Client
}

// New builds an adapter over an authenticated store client.
func New(store *pocketbase.Client) *Adapter {
	return &Adapter{store: store}
}

// SortBy orders a FindMany result by one field.
type SortBy struct {
	Field     string
	Direction string // "asc" or "desc"
}

// FindManyOptions narrow a FindMany call.
type FindManyOptions struct {
	Where  []Where
	Limit  int
	Offset int
	SortBy *SortBy
}

// Create inserts a record into the model's collection. A client-supplied id
// field is stripped unless forceAllowID is set; the store assigns its own.
// Errors propagate unchanged so the caller decides retry policy.
func (a *Adapter) Create(ctx context.Context, model string, data map[string]any, forceAllowID bool) (pocketbase.Record, error) {
	payload := make(map[string]any, len(data))
	for k, v := range data {
		payload[k] = v
	}
	if !forceAllowID {
		delete(payload, "id")
	}

	record, err := a.store.CreateRecord(ctx, model, payload)
	observe(model, "create", err)
	if err != nil {
		logger.Error("Failed to create record", "model", model, "error", err)
		return nil, err
	}
	logger.Debug("Created record", "model", model, "id", record.ID())
	return record, nil
}

// FindOne is a primary-key lookup: the first condition's value is the
// record id. Returns ErrNotFound when the record does not exist; any other
// failure propagates instead of being collapsed into absence.
func (a *Adapter) FindOne(ctx context.Context, model string, where []Where) (pocketbase.Record, error) {
	id, err := idFromWhere(where)
	if err != nil {
		return nil, err
	}

	record, err := a.store.GetRecord(ctx, model, id)
	err = mapNotFound(err)
	observe(model, "findOne", err)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// FindMany lists a model's records. Conditions are pushed down as a store
// filter expression; sort fields are mapped to the store's column names.
// Offset is translated to a 1-based page assuming a page size equal to
// limit (1 when limit is absent), which degrades silently when offset is
// not a multiple of limit.
//
// A 404 means the backing collection does not exist yet; that is reported
// as an empty result set, not an error, so the relay can come up before
// the one-shot bootstrap has run.
func (a *Adapter) FindMany(ctx context.Context, model string, opts FindManyOptions) ([]pocketbase.Record, error) {
	listOpts := pocketbase.ListOptions{
		Filter: buildFilter(opts.Where),
	}
	if opts.SortBy != nil {
		field := mapStoreField(opts.SortBy.Field)
		if opts.SortBy.Direction == "desc" {
			field = "-" + field
		}
		listOpts.Sort = field
	}

	var (
		records []pocketbase.Record
		err     error
	)
	if opts.Limit > 0 {
		listOpts.PerPage = opts.Limit
		listOpts.Page = opts.Offset/opts.Limit + 1
		var list *pocketbase.RecordList
		list, err = a.store.ListRecords(ctx, model, listOpts)
		if err == nil {
			records = list.Items
		}
	} else {
		if opts.Offset > 0 {
			// No limit to derive a page size from: fall back to a page
			// number of offset+1 at the store's default page size.
			listOpts.Page = opts.Offset + 1
			var list *pocketbase.RecordList
			list, err = a.store.ListRecords(ctx, model, listOpts)
			if err == nil {
				records = list.Items
			}
		} else {
			records, err = a.store.FullList(ctx, model, listOpts)
		}
	}

	if pocketbase.StatusOf(err) == http.StatusNotFound {
		logger.Warn("Collection missing, treating as empty", "model", model)
		observe(model, "findMany", nil)
		return []pocketbase.Record{}, nil
	}
	observe(model, "findMany", err)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Update mutates a single record identified by the first condition's value.
// ErrNotFound when the record does not exist.
func (a *Adapter) Update(ctx context.Context, model string, where []Where, update map[string]any) (pocketbase.Record, error) {
	id, err := idFromWhere(where)
	if err != nil {
		return nil, err
	}

	record, err := a.store.UpdateRecord(ctx, model, id, update)
	err = mapNotFound(err)
	observe(model, "update", err)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Delete removes a single record identified by the first condition's value.
// ErrNotFound when the record does not exist.
func (a *Adapter) Delete(ctx context.Context, model string, where []Where) error {
	id, err := idFromWhere(where)
	if err != nil {
		return err
	}

	err = mapNotFound(a.store.DeleteRecord(ctx, model, id))
	observe(model, "delete", err)
	return err
}

// UpdateMany walks the whole collection and patches every record the
// conditions match. Returns the number of records updated. The walk and the
// per-record writes are not isolated from concurrent writers.
func (a *Adapter) UpdateMany(ctx context.Context, model string, where []Where, update map[string]any) (int, error) {
	records, err := a.store.FullList(ctx, model, pocketbase.ListOptions{})
	if err != nil {
		observe(model, "updateMany", err)
		return 0, err
	}

	updated := 0
	for _, record := range records {
		if !Matches(record, where) {
			continue
		}
		if _, err := a.store.UpdateRecord(ctx, model, record.ID(), update); err != nil {
			observe(model, "updateMany", err)
			return updated, err
		}
		updated++
	}
	observe(model, "updateMany", nil)
	return updated, nil
}

// DeleteMany walks the whole collection and removes every record the
// conditions match. Returns the number of records deleted.
func (a *Adapter) DeleteMany(ctx context.Context, model string, where []Where) (int, error) {
	records, err := a.store.FullList(ctx, model, pocketbase.ListOptions{})
	if err != nil {
		observe(model, "deleteMany", err)
		return 0, err
	}

	deleted := 0
	for _, record := range records {
		if !Matches(record, where) {
			continue
		}
		if err := a.store.DeleteRecord(ctx, model, record.ID()); err != nil {
			observe(model, "deleteMany", err)
			return deleted, err
		}
		deleted++
	}
	observe(model, "deleteMany", nil)
	return deleted, nil
}

// Count walks the whole collection and counts the records the conditions
// match. No conditions counts everything.
func (a *Adapter) Count(ctx context.Context, model string, where []Where) (int, error) {
	records, err := a.store.FullList(ctx, model, pocketbase.ListOptions{})
	if err != nil {
		observe(model, "count", err)
		return 0, err
	}

	if len(where) == 0 {
		observe(model, "count", nil)
		return len(records), nil
	}

	count := 0
	for _, record := range records {
		if Matches(record, where) {
			count++
		}
	}
	observe(model, "count", nil)
	return count, nil
}

// Tx is the operation set handed to a Transaction callback. The store has
// no transactions: operations run against the same adapter with no
// isolation or rollback, and can interleave with concurrent writers.
type Tx struct {
	*Adapter
}

// Transaction invokes callback with a pass-through operation context.
func (a *Adapter) Transaction(ctx context.Context, callback func(tx *Tx) error) error {
	return callback(&Tx{Adapter: a})
}

func idFromWhere(where []Where) (string, error) {
	if len(where) == 0 {
		return "", fmt.Errorf("missing where condition: %w", ErrNotFound)
	}
	id, ok := where[0].Value.(string)
	if !ok || id == "" {
		return "", fmt.Errorf("first where condition is not a record id: %w", ErrNotFound)
	}
	return id, nil
}

func mapNotFound(err error) error {
	if pocketbase.StatusOf(err) == http.StatusNotFound {
		return ErrNotFound
	}
	return err
}

// mapStoreField maps the adapter contract's timestamp names onto the
// store's built-in columns. Everything else passes through.
func mapStoreField(field string) string {
	switch field {
	case "createdAt":
		return "created"
	case "updatedAt":
		return "updated"
	}
	return field
}
